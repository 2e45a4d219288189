package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"countdown_timer_v1/internal/api/dto"
	"countdown_timer_v1/internal/apperror"
	"countdown_timer_v1/internal/service"
)

// HeaderShopifyShopDomain Shopify 推送 webhook 时附带的店铺头
const HeaderShopifyShopDomain = "X-Shopify-Shop-Domain"

// WebhookVerifier 校验 X-Shopify-Hmac-Sha256，校验后 Body 仍可读取
type WebhookVerifier interface {
	VerifyWebhookRequest(r *http.Request) bool
}

type WebhookController struct {
	verifier    WebhookVerifier
	shopService *service.ShopService
}

func NewWebhookController(verifier WebhookVerifier, shopService *service.ShopService) *WebhookController {
	return &WebhookController{verifier: verifier, shopService: shopService}
}

// AppUninstalled 应用卸载
// @Summary app/uninstalled webhook
// @Description 标记店铺已卸载，计时器数据保留
// @Tags Webhook
// @Accept json
// @Produce json
// @Param X-Shopify-Hmac-Sha256 header string true "签名"
// @Param X-Shopify-Shop-Domain header string false "店铺域名"
// @Param request body dto.UninstallWebhookPayload false "推送体"
// @Success 200 {object} dto.WebhookAckResp
// @Failure 400 {object} dto.ErrorResp
// @Failure 401 {object} dto.ErrorResp
// @Router /api/v1/webhooks/app-uninstalled [post]
func (h *WebhookController) AppUninstalled(c *gin.Context) {
	if !h.verifier.VerifyWebhookRequest(c.Request) {
		respondError(c, apperror.New(apperror.CodeUnauthorized, "Invalid webhook signature"))
		return
	}

	domain := c.GetHeader(HeaderShopifyShopDomain)
	if domain == "" {
		var payload dto.UninstallWebhookPayload
		if err := c.ShouldBindJSON(&payload); err == nil {
			domain = payload.Resolve()
		}
	}
	if domain == "" {
		respondError(c, apperror.New(apperror.CodeMissingShopDomain, "Missing shop domain"))
		return
	}

	if _, err := h.shopService.MarkUninstalled(c.Request.Context(), domain); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.WebhookAckResp{Success: true})
}
