// Package apperror 定义面向调用方的业务错误码及其 HTTP 映射。
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 机器可读的错误码，前端据此分支处理
type Code string

const (
	CodeShopNotFound       Code = "SHOP_NOT_FOUND"
	CodeTimerNotFound      Code = "TIMER_NOT_FOUND"
	CodeInvalidTimerConfig Code = "INVALID_TIMER_CONFIG"
	CodeDuplicateName      Code = "NAME_ALREADY_USED"
	CodePositionConflict   Code = "POSITION_ALREADY_ACTIVE"
	CodeCapacityExceeded   Code = "MAX_TIMERS_REACHED"
	CodeWriteConflict      Code = "WRITE_CONFLICT"

	CodeMissingShopDomain Code = "MISSING_SHOP_DOMAIN"
	CodeInvalidPayload    Code = "INVALID_PAYLOAD"
	CodeInvalidID         Code = "INVALID_ID"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// Kind 错误大类，决定传输层状态码
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
	KindConflict
	KindUnauthorized
)

var codeKinds = map[Code]Kind{
	CodeShopNotFound:       KindNotFound,
	CodeTimerNotFound:      KindNotFound,
	CodeInvalidTimerConfig: KindBadRequest,
	CodeDuplicateName:      KindBadRequest,
	CodeCapacityExceeded:   KindBadRequest,
	CodePositionConflict:   KindConflict,
	CodeWriteConflict:      KindConflict,
	CodeMissingShopDomain:  KindBadRequest,
	CodeInvalidPayload:     KindBadRequest,
	CodeInvalidID:          KindBadRequest,
	CodeUnauthorized:       KindUnauthorized,
}

// Kind 未登记的错误码视为内部错误
func (c Code) Kind() Kind {
	if k, ok := codeKinds[c]; ok {
		return k
	}
	return KindInternal
}

// HTTPStatus 大类到 HTTP 状态码
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// Conflicting 冲突计时器摘要
type Conflicting struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Position string `json:"position"`
}

// Error 业务错误
type Error struct {
	Code    Code
	Message string

	// 以下为可选上下文
	Field       string       // INVALID_TIMER_CONFIG 涉及的字段
	Limit       int          // MAX_TIMERS_REACHED 的上限
	Position    string       // POSITION_ALREADY_ACTIVE 的位置
	Conflicting *Conflicting // 冲突的已有计时器

	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus 对应的 HTTP 状态码
func (e *Error) HTTPStatus() int {
	return e.Code.Kind().HTTPStatus()
}

// New 创建业务错误
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap 携带底层原因
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// As 从错误链中提取业务错误
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode 判断错误链中是否有指定错误码
func IsCode(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// ==================== 领域错误构造 ====================

func ShopNotFound(domain string) *Error {
	return &Error{Code: CodeShopNotFound, Message: fmt.Sprintf("Shop not found: %s", domain)}
}

func TimerNotFound(id int64) *Error {
	return &Error{Code: CodeTimerNotFound, Message: fmt.Sprintf("Countdown Timer not found: %d", id)}
}

func InvalidTimerConfig(field, message string) *Error {
	return &Error{Code: CodeInvalidTimerConfig, Message: message, Field: field}
}

func DuplicateName(c *Conflicting) *Error {
	return &Error{
		Code:        CodeDuplicateName,
		Message:     "You already have another countdown using this name.",
		Conflicting: c,
	}
}

func PositionConflict(position string, c *Conflicting) *Error {
	return &Error{
		Code:        CodePositionConflict,
		Message:     "There is already an active timer on this position.",
		Position:    position,
		Conflicting: c,
	}
}

func CapacityExceeded(limit int) *Error {
	return &Error{
		Code:    CodeCapacityExceeded,
		Message: fmt.Sprintf("You have reached the maximum of %d timers for this store.", limit),
		Limit:   limit,
	}
}
