package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"countdown_timer_v1/internal/api/dto"
	"countdown_timer_v1/internal/apperror"
	"countdown_timer_v1/internal/metrics"
)

// HeaderRequestID 请求 ID 头
const HeaderRequestID = "X-Request-ID"

// Context Keys
const (
	ContextKeyRequestID  = "request_id"
	ContextKeyShopDomain = "shop_domain"
)

// ==================== 请求 ID ====================

// RequestID 透传或生成请求 ID，并回写到响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID 从 Context 获取请求 ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// ==================== 访问日志 ====================

// RequestLogger 注入带 request_id 的 logger，结束时输出访问日志
// 下游通过 zerolog.Ctx(c.Request.Context()) 取用
func RequestLogger(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		logger := base.With().Str("request_id", GetRequestID(c)).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		evt := logger.Info()
		switch {
		case status >= 500:
			evt = logger.Error()
		case status >= 400:
			evt = logger.Warn()
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("errors", c.Errors.String())
		}
		evt.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// ==================== 指标 ====================

// Metrics 按路由模板统计请求数与耗时
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, statusText(c.Writer.Status()), time.Since(start).Seconds())
	}
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	}
	return "2xx"
}

// ==================== 辅助函数 ====================

func abortWithError(c *gin.Context, err *apperror.Error) {
	c.AbortWithStatusJSON(err.HTTPStatus(), dto.NewErrorResp(err))
}
