package service

import (
	"context"
	"fmt"
	"strings"

	"countdown_timer_v1/internal/apperror"
	"countdown_timer_v1/internal/metrics"
	"countdown_timer_v1/internal/model"
	"countdown_timer_v1/internal/repository"
)

// RuleEngine 计时器写入前的业务规则校验
// 所有拒绝都以 *apperror.Error 返回，并按错误码计数
type RuleEngine struct {
	TimerRepo repository.TimerRepository
	Shops     *ShopService

	maxTimers int
	metrics   *metrics.Metrics
}

func NewRuleEngine(timerRepo repository.TimerRepository, shops *ShopService, maxTimers int, m *metrics.Metrics) *RuleEngine {
	if maxTimers <= 0 {
		maxTimers = model.MaxTimersPerShop
	}
	return &RuleEngine{
		TimerRepo: timerRepo,
		Shops:     shops,
		maxTimers: maxTimers,
		metrics:   m,
	}
}

// MaxTimers 单店上限
func (e *RuleEngine) MaxTimers() int {
	return e.maxTimers
}

// ResolveShop 店铺解析
func (e *RuleEngine) ResolveShop(ctx context.Context, domain string) (*model.Shop, error) {
	shop, err := e.Shops.Resolve(ctx, domain)
	if err != nil {
		return nil, e.reject(err)
	}
	return shop, nil
}

// NormalizeName 去首尾空白，空名称拒绝
func (e *RuleEngine) NormalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", e.reject(apperror.InvalidTimerConfig("name", "Name cannot be blank."))
	}
	return name, nil
}

// ValidateTypeFields 校验枚举与类型相关字段
//   - FIXED 必须有 endAt，startAt 不能晚于 endAt
//   - EVERGREEN 必须有正整数 evergreenMinutes
func (e *RuleEngine) ValidateTypeFields(t *model.CountdownTimer) error {
	return e.reject(validateTypeFields(t))
}

func validateTypeFields(t *model.CountdownTimer) error {
	if !t.Position.Valid() {
		return apperror.InvalidTimerConfig("position", fmt.Sprintf("Unknown position: %s", t.Position))
	}
	if !t.Status.Valid() {
		return apperror.InvalidTimerConfig("status", fmt.Sprintf("Unknown status: %s", t.Status))
	}

	switch t.Type {
	case model.TimerTypeFixed:
		if t.EndAt == nil {
			return apperror.InvalidTimerConfig("endAt", "endAt is required for FIXED timertype")
		}
		if t.StartAt != nil && t.StartAt.After(*t.EndAt) {
			return apperror.InvalidTimerConfig("startAt", "startAt must not be after endAt")
		}
	case model.TimerTypeEvergreen:
		if t.EvergreenMinutes == nil || *t.EvergreenMinutes <= 0 {
			return apperror.InvalidTimerConfig("evergreenMinutes", "evergreenMinutes must be a positive number for EVERGREEN timertype")
		}
	default:
		return apperror.InvalidTimerConfig("type", fmt.Sprintf("Unknown timer type: %s", t.Type))
	}
	return nil
}

// CheckCapacity 创建前检查单店上限
func (e *RuleEngine) CheckCapacity(ctx context.Context, shopID int64) error {
	total, err := e.TimerRepo.CountByShop(ctx, shopID)
	if err != nil {
		return fmt.Errorf("统计计时器失败: %w", err)
	}
	if total >= int64(e.maxTimers) {
		return e.reject(apperror.CapacityExceeded(e.maxTimers))
	}
	return nil
}

// CheckNameUnique 同店名称唯一，excludeID 为编辑中的自身
func (e *RuleEngine) CheckNameUnique(ctx context.Context, shopID int64, name string, excludeID int64) error {
	existing, err := e.TimerRepo.FindByName(ctx, shopID, name, excludeID)
	if err != nil {
		return fmt.Errorf("查询同名计时器失败: %w", err)
	}
	if existing != nil {
		return e.reject(apperror.DuplicateName(conflictingOf(existing)))
	}
	return nil
}

// CheckPositionAvailable 同店同位置只能有一个 ACTIVE
func (e *RuleEngine) CheckPositionAvailable(ctx context.Context, shopID int64, position model.TimerPosition, excludeID int64) error {
	existing, err := e.TimerRepo.FindActiveAtPosition(ctx, shopID, position, excludeID)
	if err != nil {
		return fmt.Errorf("查询位置占用失败: %w", err)
	}
	if existing != nil {
		return e.reject(apperror.PositionConflict(string(position), conflictingOf(existing)))
	}
	return nil
}

// reject 业务错误计数后原样返回
func (e *RuleEngine) reject(err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := apperror.As(err); ok {
		e.metrics.RuleViolation(string(appErr.Code))
	}
	return err
}

func conflictingOf(t *model.CountdownTimer) *apperror.Conflicting {
	return &apperror.Conflicting{
		ID:       t.ID,
		Name:     t.Name,
		Status:   string(t.Status),
		Position: string(t.Position),
	}
}
