package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"countdown_timer_v1/internal/apperror"
	"countdown_timer_v1/internal/model"
)

// ==================== 可选时间 ====================

// OptionalTime 区分三种状态：字段缺省 / 显式 null / 有值
// 空字符串视为 null
type OptionalTime struct {
	Set   bool
	Valid bool
	Time  time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func (o *OptionalTime) UnmarshalJSON(b []byte) error {
	o.Set = true
	o.Valid = false
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("datetime must be an ISO-8601 string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			o.Valid = true
			o.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid datetime %q", s)
}

func (o OptionalTime) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Time)
}

// Ptr 有值返回指针，否则 nil
func (o OptionalTime) Ptr() *time.Time {
	if !o.Valid {
		return nil
	}
	t := o.Time
	return &t
}

// At 构造有值的 OptionalTime
func At(t time.Time) OptionalTime {
	return OptionalTime{Set: true, Valid: true, Time: t.UTC()}
}

// Null 构造显式 null
func Null() OptionalTime {
	return OptionalTime{Set: true}
}

// ==================== Request DTO ====================

// CreateTimerReq 创建倒计时
type CreateTimerReq struct {
	Name             string              `json:"name" binding:"required,max=100"`
	Message          string              `json:"message" binding:"required,max=255"`
	Type             model.TimerType     `json:"type" binding:"required,oneof=FIXED EVERGREEN" enums:"FIXED,EVERGREEN"`
	StartAt          OptionalTime        `json:"startAt" swaggertype:"string" format:"date-time"`
	EndAt            OptionalTime        `json:"endAt" swaggertype:"string" format:"date-time"`
	EvergreenMinutes *int                `json:"evergreenMinutes" binding:"omitnil,min=1"`
	Position         model.TimerPosition `json:"position" binding:"required,oneof=TOP_BAR BOTTOM_BAR PRODUCT_PAGE CART_PAGE" enums:"TOP_BAR,BOTTOM_BAR,PRODUCT_PAGE,CART_PAGE"`
	BgColor          string              `json:"bgColor" binding:"max=32"`
	TextColor        string              `json:"textColor" binding:"max=32"`
	// 缺省为 INACTIVE
	Status model.TimerStatus `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE" enums:"ACTIVE,INACTIVE"`
}

// EditTimerReq 编辑倒计时，全部可选
// nil 表示保持原值；StartAt/EndAt 显式 null 表示清空
type EditTimerReq struct {
	Name             *string              `json:"name" binding:"omitempty,max=100"`
	Message          *string              `json:"message" binding:"omitempty,max=255"`
	Type             *model.TimerType     `json:"type" binding:"omitempty,oneof=FIXED EVERGREEN" enums:"FIXED,EVERGREEN"`
	StartAt          OptionalTime         `json:"startAt" swaggertype:"string" format:"date-time"`
	EndAt            OptionalTime         `json:"endAt" swaggertype:"string" format:"date-time"`
	EvergreenMinutes *int                 `json:"evergreenMinutes" binding:"omitnil,min=1"`
	Position         *model.TimerPosition `json:"position" binding:"omitempty,oneof=TOP_BAR BOTTOM_BAR PRODUCT_PAGE CART_PAGE" enums:"TOP_BAR,BOTTOM_BAR,PRODUCT_PAGE,CART_PAGE"`
	BgColor          *string              `json:"bgColor" binding:"omitempty,max=32"`
	TextColor        *string              `json:"textColor" binding:"omitempty,max=32"`
	Status           *model.TimerStatus   `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE" enums:"ACTIVE,INACTIVE"`
}

// TimerListQuery 列表查询参数，原样保留字符串，由 Service 做数值强转
type TimerListQuery struct {
	Page    string
	Size    string
	OrderBy string
}

// ==================== Response DTO ====================

// TimerResp 倒计时详情
type TimerResp struct {
	ID               int64               `json:"id"`
	ShopID           int64               `json:"shopId"`
	Name             string              `json:"name"`
	Message          string              `json:"message"`
	Type             model.TimerType     `json:"type"`
	StartAt          *time.Time          `json:"startAt"`
	EndAt            *time.Time          `json:"endAt"`
	EvergreenMinutes *int                `json:"evergreenMinutes"`
	Position         model.TimerPosition `json:"position"`
	BgColor          string              `json:"bgColor"`
	TextColor        string              `json:"textColor"`
	Status           model.TimerStatus   `json:"status"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// NewTimerResp Model -> DTO
func NewTimerResp(t *model.CountdownTimer) TimerResp {
	return TimerResp{
		ID:               t.ID,
		ShopID:           t.ShopID,
		Name:             t.Name,
		Message:          t.Message,
		Type:             t.Type,
		StartAt:          t.StartAt,
		EndAt:            t.EndAt,
		EvergreenMinutes: t.EvergreenMinutes,
		Position:         t.Position,
		BgColor:          t.BgColor,
		TextColor:        t.TextColor,
		Status:           t.Status,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// NewTimerRespList 列表转换，空列表返回 [] 而不是 null
func NewTimerRespList(list []model.CountdownTimer) []TimerResp {
	resp := make([]TimerResp, 0, len(list))
	for i := range list {
		resp = append(resp, NewTimerResp(&list[i]))
	}
	return resp
}

// TimerPageResp 分页信封
type TimerPageResp struct {
	Items      []TimerResp `json:"items"`
	Page       int         `json:"page"`
	Size       int         `json:"size"`
	TotalItems int64       `json:"totalItems"`
	TotalPages int         `json:"totalPages"`
	OrderBy    string      `json:"orderBy"`
}

// TimerCountsResp 状态计数
type TimerCountsResp struct {
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
	Total    int64 `json:"total"`
}

// DeleteTimerResp 删除结果
type DeleteTimerResp struct {
	Success   bool  `json:"success"`
	DeletedID int64 `json:"deletedId"`
}

// StorefrontTimerResp 店面投影，只暴露渲染需要的字段
type StorefrontTimerResp struct {
	ID               int64               `json:"id"`
	Message          string              `json:"message"`
	Type             model.TimerType     `json:"type"`
	EndAt            *time.Time          `json:"endAt"`
	EvergreenMinutes *int                `json:"evergreenMinutes"`
	Position         model.TimerPosition `json:"position"`
	BgColor          string              `json:"bgColor"`
	TextColor        string              `json:"textColor"`
}

// NewStorefrontTimerResp nil 输入返回 nil
func NewStorefrontTimerResp(t *model.CountdownTimer) *StorefrontTimerResp {
	if t == nil {
		return nil
	}
	return &StorefrontTimerResp{
		ID:               t.ID,
		Message:          t.Message,
		Type:             t.Type,
		EndAt:            t.EndAt,
		EvergreenMinutes: t.EvergreenMinutes,
		Position:         t.Position,
		BgColor:          t.BgColor,
		TextColor:        t.TextColor,
	}
}

// ==================== 错误响应 ====================

// ErrorResp 统一错误结构
type ErrorResp struct {
	Code             string                `json:"code"`
	Message          string                `json:"message"`
	Field            string                `json:"field,omitempty"`
	Max              int                   `json:"max,omitempty"`
	Position         string                `json:"position,omitempty"`
	ConflictingTimer *apperror.Conflicting `json:"conflictingTimer,omitempty"`
}

// NewErrorResp 业务错误 -> 响应体
func NewErrorResp(e *apperror.Error) ErrorResp {
	return ErrorResp{
		Code:             string(e.Code),
		Message:          e.Message,
		Field:            e.Field,
		Max:              e.Limit,
		Position:         e.Position,
		ConflictingTimer: e.Conflicting,
	}
}
