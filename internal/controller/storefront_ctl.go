package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"countdown_timer_v1/internal/api/dto"
	"countdown_timer_v1/internal/service"
)

type StorefrontController struct {
	storefrontService *service.StorefrontService
}

func NewStorefrontController(storefrontService *service.StorefrontService) *StorefrontController {
	return &StorefrontController{storefrontService: storefrontService}
}

// GetTimer 店面计时器
// @Summary 店面获取当前应展示的计时器
// @Description 公开接口。没有可展示的计时器时返回 null，不返回错误
// @Tags Storefront
// @Produce json
// @Param shop query string true "店铺域名"
// @Param context query string false "页面类型" Enums(product, cart, default)
// @Success 200 {object} dto.StorefrontTimerResp
// @Router /api/v1/storefront-timer [get]
func (h *StorefrontController) GetTimer(c *gin.Context) {
	timer := h.storefrontService.Select(c.Request.Context(), c.Query("shop"), c.Query("context"))

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, dto.NewStorefrontTimerResp(timer))
}
