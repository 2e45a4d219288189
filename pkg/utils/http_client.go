package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// NewHTTPClient 统一的出站 Resty 客户端：超时、UA、重试
// debug 打开时输出请求/响应，只用于本地排查
func NewHTTPClient(timeout time.Duration, debug bool) *resty.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return resty.New().
		SetDebug(debug).
		SetTimeout(timeout).
		SetHeader("User-Agent", "countdown-timer/1.0").
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(300 * time.Millisecond)
}
