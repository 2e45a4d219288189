package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"countdown_timer_v1/internal/apperror"
)

// HeaderShopDomain 管理后台传递店铺域名的请求头
const HeaderShopDomain = "X-Shop-Domain"

// ShopDomain 店铺域名：会话令牌 > X-Shop-Domain > ?shop=
// 三者都没有时返回 400 MISSING_SHOP_DOMAIN
func ShopDomain() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetShopDomain(c) != "" {
			c.Next()
			return
		}

		domain := strings.TrimSpace(c.GetHeader(HeaderShopDomain))
		if domain == "" {
			domain = strings.TrimSpace(c.Query("shop"))
		}
		if domain == "" {
			abortWithError(c, apperror.New(apperror.CodeMissingShopDomain, "Missing shop domain"))
			return
		}

		c.Set(ContextKeyShopDomain, domain)
		c.Next()
	}
}

// GetShopDomain 从 Context 获取店铺域名（未规范化）
func GetShopDomain(c *gin.Context) string {
	return c.GetString(ContextKeyShopDomain)
}
