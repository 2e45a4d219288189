package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"countdown_timer_v1/internal/service"
)

type AuthController struct {
	authService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Install 发起安装
// @Summary 跳转 Shopify 授权页
// @Tags Auth
// @Param shop query string true "店铺域名"
// @Success 302 "跳转到 https://{shop}/admin/oauth/authorize"
// @Failure 400 {object} dto.ErrorResp
// @Router /api/v1/auth [get]
func (h *AuthController) Install(c *gin.Context) {
	redirectURL, err := h.authService.BeginInstall(c.Query("shop"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, redirectURL)
}

// Callback OAuth 回调
// @Summary Shopify OAuth 回调
// @Description 校验 HMAC 与 state，换取令牌并注册店面脚本与卸载 webhook
// @Tags Auth
// @Param shop query string true "店铺域名"
// @Param code query string true "授权码"
// @Param state query string true "state"
// @Param hmac query string true "签名"
// @Success 302 "跳转到管理后台"
// @Failure 400 {object} dto.ErrorResp
// @Failure 401 {object} dto.ErrorResp
// @Router /api/v1/auth/callback [get]
func (h *AuthController) Callback(c *gin.Context) {
	redirectURL, err := h.authService.CompleteInstall(c.Request.Context(), c.Request.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, redirectURL)
}
