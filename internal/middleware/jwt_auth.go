package middleware

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"countdown_timer_v1/internal/apperror"
)

// ==================== 会话令牌配置 ====================

// SessionTokenConfig Shopify 嵌入式后台的 session token 校验配置
type SessionTokenConfig struct {
	APIKey    string // aud
	APISecret string // HS256 签名密钥
	Required  bool   // false 时缺少令牌放行，由 ShopDomain 取域名
	Leeway    time.Duration
}

// ==================== Claims 定义 ====================

// SessionClaims Shopify session token 载荷
// dest 为店铺地址 https://xxx.myshopify.com
type SessionClaims struct {
	Dest string `json:"dest"`
	jwt.RegisteredClaims
}

// ShopDomain dest 的主机名
func (c *SessionClaims) ShopDomain() (string, error) {
	u, err := url.Parse(c.Dest)
	if err != nil || u.Host == "" {
		return "", errors.New("invalid dest claim")
	}
	return u.Host, nil
}

// ==================== Token 解析 ====================

// ParseSessionToken 校验签名、过期时间与 aud
func ParseSessionToken(cfg SessionTokenConfig, tokenString string) (*SessionClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithExpirationRequired(),
	}
	if cfg.APIKey != "" {
		opts = append(opts, jwt.WithAudience(cfg.APIKey))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(cfg.APISecret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ==================== Gin 中间件 ====================

// SessionToken 校验 Authorization: Bearer <session token>
// 通过后令牌中的店铺覆盖请求头与 query 中的域名
func SessionToken(cfg SessionTokenConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if cfg.Required {
				abortWithError(c, apperror.New(apperror.CodeUnauthorized, "Missing session token"))
				return
			}
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, apperror.New(apperror.CodeUnauthorized, "Authorization must be Bearer {token}"))
			return
		}

		claims, err := ParseSessionToken(cfg, parts[1])
		if err != nil {
			abortWithError(c, apperror.Wrap(apperror.CodeUnauthorized, "Invalid or expired session token", err))
			return
		}
		shop, err := claims.ShopDomain()
		if err != nil {
			abortWithError(c, apperror.Wrap(apperror.CodeUnauthorized, "Invalid session token destination", err))
			return
		}

		c.Set(ContextKeyShopDomain, shop)
		c.Next()
	}
}
