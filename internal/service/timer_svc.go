package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"countdown_timer_v1/internal/api/dto"
	"countdown_timer_v1/internal/apperror"
	"countdown_timer_v1/internal/model"
	"countdown_timer_v1/internal/repository"
)

// TimerService 倒计时生命周期
// 每个操作先解析店铺，再按固定顺序执行规则校验，最后落库
type TimerService struct {
	TimerRepo repository.TimerRepository

	rules  *RuleEngine
	logger zerolog.Logger
}

func NewTimerService(timerRepo repository.TimerRepository, rules *RuleEngine, logger zerolog.Logger) *TimerService {
	return &TimerService{
		TimerRepo: timerRepo,
		rules:     rules,
		logger:    logger.With().Str("component", "timer_service").Logger(),
	}
}

// ==================== 写入 ====================

// Create 创建倒计时
func (s *TimerService) Create(ctx context.Context, shopDomain string, req dto.CreateTimerReq) (*model.CountdownTimer, error) {
	// 1. 名称规范化
	name, err := s.rules.NormalizeName(req.Name)
	if err != nil {
		return nil, err
	}

	// 2. 店铺 + 容量 + 重名
	shop, err := s.rules.ResolveShop(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	if err := s.rules.CheckCapacity(ctx, shop.ID); err != nil {
		return nil, err
	}
	if err := s.rules.CheckNameUnique(ctx, shop.ID, name, 0); err != nil {
		return nil, err
	}

	// 3. DTO -> Model
	status := req.Status
	if status == "" {
		status = model.TimerStatusInactive
	}
	timer := &model.CountdownTimer{
		ShopID:           shop.ID,
		Name:             name,
		Message:          req.Message,
		Type:             req.Type,
		StartAt:          req.StartAt.Ptr(),
		EndAt:            req.EndAt.Ptr(),
		EvergreenMinutes: req.EvergreenMinutes,
		Position:         req.Position,
		BgColor:          req.BgColor,
		TextColor:        req.TextColor,
		Status:           status,
	}

	// 4. 类型字段 + 位置占用
	if err := s.rules.ValidateTypeFields(timer); err != nil {
		return nil, err
	}
	if timer.Status == model.TimerStatusActive {
		if err := s.rules.CheckPositionAvailable(ctx, shop.ID, timer.Position, 0); err != nil {
			return nil, err
		}
	}
	dropForeignTypeFields(timer)

	// 5. 落库
	if err := s.TimerRepo.Create(ctx, timer); err != nil {
		return nil, s.translateWriteError(ctx, timer, err)
	}

	s.logger.Info().
		Str("shop", shop.ShopDomain).
		Int64("timer_id", timer.ID).
		Str("position", string(timer.Position)).
		Str("status", string(timer.Status)).
		Msg("计时器已创建")
	return timer, nil
}

// Edit 部分更新，校验针对合并后的记录
func (s *TimerService) Edit(ctx context.Context, shopDomain string, id int64, req dto.EditTimerReq) (*model.CountdownTimer, error) {
	shop, err := s.rules.ResolveShop(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	existing, err := s.getOwned(ctx, shop.ID, id)
	if err != nil {
		return nil, err
	}

	// 1. 合并：nil 保持原值，日期显式 null 清空
	merged := *existing
	if req.Name != nil {
		name, err := s.rules.NormalizeName(*req.Name)
		if err != nil {
			return nil, err
		}
		merged.Name = name
	}
	if req.Message != nil {
		merged.Message = *req.Message
	}
	if req.Type != nil {
		merged.Type = *req.Type
	}
	if req.StartAt.Set {
		merged.StartAt = req.StartAt.Ptr()
	}
	if req.EndAt.Set {
		merged.EndAt = req.EndAt.Ptr()
	}
	if req.EvergreenMinutes != nil {
		merged.EvergreenMinutes = req.EvergreenMinutes
	}
	if req.Position != nil {
		merged.Position = *req.Position
	}
	if req.BgColor != nil {
		merged.BgColor = *req.BgColor
	}
	if req.TextColor != nil {
		merged.TextColor = *req.TextColor
	}
	if req.Status != nil {
		merged.Status = *req.Status
	}

	// 2. 规则校验
	if err := s.rules.ValidateTypeFields(&merged); err != nil {
		return nil, err
	}
	if merged.Name != existing.Name {
		if err := s.rules.CheckNameUnique(ctx, shop.ID, merged.Name, existing.ID); err != nil {
			return nil, err
		}
	}
	if merged.Status == model.TimerStatusActive {
		if err := s.rules.CheckPositionAvailable(ctx, shop.ID, merged.Position, existing.ID); err != nil {
			return nil, err
		}
	}
	dropForeignTypeFields(&merged)

	// 3. 落库
	if err := s.TimerRepo.Save(ctx, &merged); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 预检之后被并发删除
			return nil, apperror.TimerNotFound(existing.ID)
		}
		return nil, s.translateWriteError(ctx, &merged, err)
	}

	s.logger.Info().Str("shop", shop.ShopDomain).Int64("timer_id", merged.ID).Msg("计时器已更新")
	return &merged, nil
}

// ToggleStatus ACTIVE <-> INACTIVE
func (s *TimerService) ToggleStatus(ctx context.Context, shopDomain string, id int64) (*model.CountdownTimer, error) {
	shop, err := s.rules.ResolveShop(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	timer, err := s.getOwned(ctx, shop.ID, id)
	if err != nil {
		return nil, err
	}

	next := timer.Status.Flip()
	if next == model.TimerStatusActive {
		if err := s.rules.CheckPositionAvailable(ctx, shop.ID, timer.Position, timer.ID); err != nil {
			return nil, err
		}
	}

	if err := s.TimerRepo.UpdateStatus(ctx, shop.ID, timer.ID, next); err != nil {
		timer.Status = next
		return nil, s.translateWriteError(ctx, timer, err)
	}

	s.logger.Info().
		Str("shop", shop.ShopDomain).
		Int64("timer_id", timer.ID).
		Str("status", string(next)).
		Msg("计时器状态已切换")
	return s.getOwned(ctx, shop.ID, timer.ID)
}

// ForceActivate 事务内停用同位置其它计时器并激活目标
func (s *TimerService) ForceActivate(ctx context.Context, shopDomain string, id int64) (*model.CountdownTimer, error) {
	shop, err := s.rules.ResolveShop(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	timer, err := s.TimerRepo.ForceActivate(ctx, shop.ID, id)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 并发激活抢占了同一位置，整个事务已回滚
		return nil, apperror.Wrap(apperror.CodeWriteConflict, "Another timer was activated on this position concurrently, please retry.", err)
	}
	if err != nil {
		return nil, fmt.Errorf("强制激活失败: %w", err)
	}
	if timer == nil {
		return nil, apperror.TimerNotFound(id)
	}

	s.logger.Info().
		Str("shop", shop.ShopDomain).
		Int64("timer_id", timer.ID).
		Str("position", string(timer.Position)).
		Msg("计时器已强制激活")
	return timer, nil
}

// Delete 硬删除
func (s *TimerService) Delete(ctx context.Context, shopDomain string, id int64) (*dto.DeleteTimerResp, error) {
	shop, err := s.rules.ResolveShop(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	if _, err := s.getOwned(ctx, shop.ID, id); err != nil {
		return nil, err
	}

	if err := s.TimerRepo.Delete(ctx, shop.ID, id); err != nil {
		return nil, fmt.Errorf("删除计时器失败: %w", err)
	}

	s.logger.Info().Str("shop", shop.ShopDomain).Int64("timer_id", id).Msg("计时器已删除")
	return &dto.DeleteTimerResp{Success: true, DeletedID: id}, nil
}

// ResetShop 删除店铺全部计时器，seed 命令使用
func (s *TimerService) ResetShop(ctx context.Context, shopDomain string) (int64, error) {
	shop, err := s.rules.ResolveShop(ctx, shopDomain)
	if err != nil {
		return 0, err
	}
	return s.TimerRepo.DeleteByShop(ctx, shop.ID)
}

// ==================== 读取 ====================

// List 全量列表，最近创建的在前
func (s *TimerService) List(ctx context.Context, shopDomain string) ([]model.CountdownTimer, error) {
	shop, err := s.rules.ResolveShop(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	return s.TimerRepo.ListAll(ctx, shop.ID)
}

// ListPaginated 分页列表，页码/条数/排序均做容错
func (s *TimerService) ListPaginated(ctx context.Context, shopDomain string, q dto.TimerListQuery) (*dto.TimerPageResp, error) {
	shop, err := s.rules.ResolveShop(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	page := ParsePage(q.Page)
	size := ParsePageSize(q.Size)
	orders := ParseOrderSpec(q.OrderBy)

	list, total, err := s.TimerRepo.List(ctx, repository.TimerFilter{
		ShopID:   shop.ID,
		Orders:   orders,
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		return nil, fmt.Errorf("查询计时器列表失败: %w", err)
	}

	return &dto.TimerPageResp{
		Items:      dto.NewTimerRespList(list),
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: TotalPages(total, size),
		OrderBy:    FormatOrderSpec(orders),
	}, nil
}

// GetByID 跨店访问同样视为不存在
func (s *TimerService) GetByID(ctx context.Context, shopDomain string, id int64) (*model.CountdownTimer, error) {
	shop, err := s.rules.ResolveShop(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	return s.getOwned(ctx, shop.ID, id)
}

// Counts 按状态统计
func (s *TimerService) Counts(ctx context.Context, shopDomain string) (*dto.TimerCountsResp, error) {
	shop, err := s.rules.ResolveShop(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	counts, err := s.TimerRepo.CountByStatus(ctx, shop.ID)
	if err != nil {
		return nil, fmt.Errorf("统计计时器失败: %w", err)
	}

	resp := &dto.TimerCountsResp{
		Active:   counts[model.TimerStatusActive],
		Inactive: counts[model.TimerStatusInactive],
	}
	resp.Total = resp.Active + resp.Inactive
	return resp, nil
}

// ==================== 内部方法 ====================

func (s *TimerService) getOwned(ctx context.Context, shopID, id int64) (*model.CountdownTimer, error) {
	timer, err := s.TimerRepo.GetByID(ctx, shopID, id)
	if err != nil {
		return nil, fmt.Errorf("查询计时器失败: %w", err)
	}
	if timer == nil {
		return nil, apperror.TimerNotFound(id)
	}
	return timer, nil
}

// translateWriteError 唯一索引冲突转为业务错误
// 预检与写入之间被并发请求抢先时走到这里，重新预检以得到冲突对象
func (s *TimerService) translateWriteError(ctx context.Context, timer *model.CountdownTimer, err error) error {
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("保存计时器失败: %w", err)
	}

	s.logger.Warn().
		Int64("shop_id", timer.ShopID).
		Str("name", timer.Name).
		Str("position", string(timer.Position)).
		Msg("写入触发唯一约束，可能存在并发请求")

	if checkErr := s.rules.CheckNameUnique(ctx, timer.ShopID, timer.Name, timer.ID); checkErr != nil {
		return checkErr
	}
	if timer.Status == model.TimerStatusActive {
		if checkErr := s.rules.CheckPositionAvailable(ctx, timer.ShopID, timer.Position, timer.ID); checkErr != nil {
			return checkErr
		}
	}
	return apperror.Wrap(apperror.CodeWriteConflict, "The timer was changed concurrently, please retry.", err)
}

// dropForeignTypeFields 清除另一类型才有意义的字段
func dropForeignTypeFields(t *model.CountdownTimer) {
	switch t.Type {
	case model.TimerTypeFixed:
		t.EvergreenMinutes = nil
	case model.TimerTypeEvergreen:
		t.StartAt = nil
		t.EndAt = nil
	}
}
