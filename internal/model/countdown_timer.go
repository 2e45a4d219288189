package model

import (
	"time"
)

// MaxTimersPerShop 单店计时器上限
const MaxTimersPerShop = 20

// TimerType 计时器类型
type TimerType string

const (
	TimerTypeFixed     TimerType = "FIXED"     // 固定截止时间
	TimerTypeEvergreen TimerType = "EVERGREEN" // 按访客会话滚动的时长
)

// TimerPosition 店面展示位置
type TimerPosition string

const (
	PositionTopBar      TimerPosition = "TOP_BAR"
	PositionBottomBar   TimerPosition = "BOTTOM_BAR"
	PositionProductPage TimerPosition = "PRODUCT_PAGE"
	PositionCartPage    TimerPosition = "CART_PAGE"
)

// Positions 按声明顺序排列，排序时 position asc 即此顺序
var Positions = []TimerPosition{PositionTopBar, PositionBottomBar, PositionProductPage, PositionCartPage}

// TimerStatus 计时器状态
type TimerStatus string

const (
	TimerStatusActive   TimerStatus = "ACTIVE"
	TimerStatusInactive TimerStatus = "INACTIVE"
)

func (t TimerType) Valid() bool {
	return t == TimerTypeFixed || t == TimerTypeEvergreen
}

func (p TimerPosition) Valid() bool {
	for _, v := range Positions {
		if v == p {
			return true
		}
	}
	return false
}

func (s TimerStatus) Valid() bool {
	return s == TimerStatusActive || s == TimerStatusInactive
}

// Flip 状态翻转
func (s TimerStatus) Flip() TimerStatus {
	if s == TimerStatusActive {
		return TimerStatusInactive
	}
	return TimerStatusActive
}

// CountdownTimer 倒计时配置
// 唯一约束:
//   - (shop_id, name) 唯一
//   - (shop_id, position) 在 status = ACTIVE 时唯一，见 database.Migrate 中的部分索引
type CountdownTimer struct {
	BaseModel
	ShopID int64 `gorm:"not null;index;uniqueIndex:idx_timer_shop_name,priority:1" json:"shop_id"`

	Name    string    `gorm:"size:100;not null;uniqueIndex:idx_timer_shop_name,priority:2" json:"name"`
	Message string    `gorm:"size:255;not null" json:"message"`
	Type    TimerType `gorm:"size:20;not null;check:type IN ('FIXED','EVERGREEN')" json:"type"`

	// FIXED 专用
	StartAt *time.Time `json:"start_at"`
	EndAt   *time.Time `gorm:"index" json:"end_at"`
	// EVERGREEN 专用
	EvergreenMinutes *int `json:"evergreen_minutes"`

	Position  TimerPosition `gorm:"size:20;not null;index:idx_timer_shop_position" json:"position"`
	BgColor   string        `gorm:"size:32" json:"bg_color"`
	TextColor string        `gorm:"size:32" json:"text_color"`
	Status    TimerStatus   `gorm:"size:20;not null;index" json:"status"`
}

func (CountdownTimer) TableName() string {
	return "countdown_timers"
}

// IsLive 判断计时器在 now 时刻是否可以在店面展示
// EVERGREEN 始终可展示；FIXED 需有 endAt 且 endAt >= now，startAt 为空或已开始
func (t *CountdownTimer) IsLive(now time.Time) bool {
	if t.Status != TimerStatusActive {
		return false
	}
	switch t.Type {
	case TimerTypeEvergreen:
		return true
	case TimerTypeFixed:
		if t.EndAt == nil || t.EndAt.Before(now) {
			return false
		}
		return t.StartAt == nil || !t.StartAt.After(now)
	}
	return false
}

// ==================== 店面上下文 ====================

// PageContext 店面请求所在的页面类型
type PageContext string

const (
	PageContextProduct PageContext = "product"
	PageContextCart    PageContext = "cart"
	PageContextDefault PageContext = "default"
)

// ParsePageContext 未识别的值按 default 处理
func ParsePageContext(raw string) PageContext {
	switch PageContext(raw) {
	case PageContextProduct:
		return PageContextProduct
	case PageContextCart:
		return PageContextCart
	}
	return PageContextDefault
}

// FallbackChain 按优先级返回该页面可展示的位置
func (c PageContext) FallbackChain() []TimerPosition {
	switch c {
	case PageContextProduct:
		return []TimerPosition{PositionProductPage, PositionTopBar, PositionBottomBar}
	case PageContextCart:
		return []TimerPosition{PositionCartPage, PositionTopBar, PositionBottomBar}
	}
	return []TimerPosition{PositionTopBar, PositionBottomBar}
}
