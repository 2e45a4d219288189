package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"countdown_timer_v1/internal/model"
)

// ==================== 接口定义 ====================

// TimerRepository 倒计时仓储接口
// 查询类方法未命中时返回 nil, nil，由 Service 层决定是否转换为业务错误
type TimerRepository interface {
	Create(ctx context.Context, timer *model.CountdownTimer) error
	Save(ctx context.Context, timer *model.CountdownTimer) error
	Delete(ctx context.Context, shopID, id int64) error
	DeleteByShop(ctx context.Context, shopID int64) (int64, error)

	GetByID(ctx context.Context, shopID, id int64) (*model.CountdownTimer, error)
	FindByName(ctx context.Context, shopID int64, name string, excludeID int64) (*model.CountdownTimer, error)
	FindActiveAtPosition(ctx context.Context, shopID int64, position model.TimerPosition, excludeID int64) (*model.CountdownTimer, error)

	// 统计
	CountByShop(ctx context.Context, shopID int64) (int64, error)
	CountByStatus(ctx context.Context, shopID int64) (map[model.TimerStatus]int64, error)

	// 列表
	ListAll(ctx context.Context, shopID int64) ([]model.CountdownTimer, error)
	List(ctx context.Context, filter TimerFilter) ([]model.CountdownTimer, int64, error)

	// 状态
	UpdateStatus(ctx context.Context, shopID, id int64, status model.TimerStatus) error
	ForceActivate(ctx context.Context, shopID, id int64) (*model.CountdownTimer, error)

	// 店面
	ListLiveCandidates(ctx context.Context, shopID int64, now time.Time) ([]model.CountdownTimer, error)

	// 巡检
	FindPositionConflicts(ctx context.Context) ([]PositionConflictRow, error)
	FindOverCapacityShops(ctx context.Context, limit int) ([]ShopTimerCountRow, error)
}

// ==================== 过滤与排序 ====================

// SortField 可排序字段（封闭枚举）
type SortField string

const (
	SortByStatus    SortField = "status"
	SortByPosition  SortField = "position"
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByName      SortField = "name"
)

// SortDirection 排序方向
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortTerm 单个排序项
type SortTerm struct {
	Field     SortField
	Direction SortDirection
}

// String field:direction
func (t SortTerm) String() string {
	return string(t.Field) + ":" + string(t.Direction)
}

// sortColumns 排序字段到 SQL 表达式
// position 按枚举声明顺序排序，而非字母序
var sortColumns = map[SortField]string{
	SortByStatus:    "status",
	SortByPosition:  "CASE position WHEN 'TOP_BAR' THEN 0 WHEN 'BOTTOM_BAR' THEN 1 WHEN 'PRODUCT_PAGE' THEN 2 WHEN 'CART_PAGE' THEN 3 ELSE 4 END",
	SortByCreatedAt: "created_at",
	SortByUpdatedAt: "updated_at",
	SortByName:      "name",
}

// IsSortable 字段是否在白名单内
func IsSortable(f SortField) bool {
	_, ok := sortColumns[f]
	return ok
}

// TimerFilter 列表查询条件
type TimerFilter struct {
	ShopID   int64
	Status   model.TimerStatus
	Position model.TimerPosition
	Orders   []SortTerm
	Page     int
	PageSize int
}

// PositionConflictRow 同位置多个 ACTIVE 的统计行
type PositionConflictRow struct {
	ShopID      int64
	Position    model.TimerPosition
	ActiveCount int64
}

// ShopTimerCountRow 店铺计时器数量统计行
type ShopTimerCountRow struct {
	ShopID int64
	Total  int64
}

// ==================== 仓储实现 ====================

type timerRepo struct {
	db *gorm.DB
}

// NewTimerRepository 创建倒计时仓储
func NewTimerRepository(db *gorm.DB) TimerRepository {
	return &timerRepo{db: db}
}

func (r *timerRepo) Create(ctx context.Context, timer *model.CountdownTimer) error {
	return r.db.WithContext(ctx).Create(timer).Error
}

// Save 全量更新已有行，nil 字段写回 NULL
// 行已被删除时返回 gorm.ErrRecordNotFound，不会重新插入
func (r *timerRepo) Save(ctx context.Context, timer *model.CountdownTimer) error {
	res := r.db.WithContext(ctx).Model(timer).
		Where("id = ? AND shop_id = ?", timer.ID, timer.ShopID).
		Select("*").
		Updates(timer)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *timerRepo) Delete(ctx context.Context, shopID, id int64) error {
	return r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Delete(&model.CountdownTimer{}, id).Error
}

func (r *timerRepo) DeleteByShop(ctx context.Context, shopID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("shop_id = ?", shopID).Delete(&model.CountdownTimer{})
	return res.RowsAffected, res.Error
}

func (r *timerRepo) GetByID(ctx context.Context, shopID, id int64) (*model.CountdownTimer, error) {
	var timer model.CountdownTimer
	err := r.db.WithContext(ctx).
		Where("id = ? AND shop_id = ?", id, shopID).
		First(&timer).Error
	return found(&timer, err)
}

// FindByName 精确匹配（调用方负责 trim），excludeID > 0 时排除自身
func (r *timerRepo) FindByName(ctx context.Context, shopID int64, name string, excludeID int64) (*model.CountdownTimer, error) {
	var timer model.CountdownTimer
	db := r.db.WithContext(ctx).Where("shop_id = ? AND name = ?", shopID, name)
	if excludeID > 0 {
		db = db.Where("id <> ?", excludeID)
	}
	err := db.First(&timer).Error
	return found(&timer, err)
}

// FindActiveAtPosition 查找占用该位置的 ACTIVE 计时器
func (r *timerRepo) FindActiveAtPosition(ctx context.Context, shopID int64, position model.TimerPosition, excludeID int64) (*model.CountdownTimer, error) {
	var timer model.CountdownTimer
	db := r.db.WithContext(ctx).
		Where("shop_id = ? AND position = ? AND status = ?", shopID, position, model.TimerStatusActive)
	if excludeID > 0 {
		db = db.Where("id <> ?", excludeID)
	}
	err := db.First(&timer).Error
	return found(&timer, err)
}

func (r *timerRepo) CountByShop(ctx context.Context, shopID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.CountdownTimer{}).
		Where("shop_id = ?", shopID).
		Count(&total).Error
	return total, err
}

func (r *timerRepo) CountByStatus(ctx context.Context, shopID int64) (map[model.TimerStatus]int64, error) {
	var rows []struct {
		Status model.TimerStatus
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&model.CountdownTimer{}).
		Select("status, COUNT(*) AS total").
		Where("shop_id = ?", shopID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.TimerStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// ListAll 不分页，按创建时间倒序
func (r *timerRepo) ListAll(ctx context.Context, shopID int64) ([]model.CountdownTimer, error) {
	var list []model.CountdownTimer
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&list).Error
	return list, err
}

// List 分页列表
func (r *timerRepo) List(ctx context.Context, filter TimerFilter) ([]model.CountdownTimer, int64, error) {
	var list []model.CountdownTimer
	var total int64

	db := r.db.WithContext(ctx).Model(&model.CountdownTimer{}).Where("shop_id = ?", filter.ShopID)

	// --- 动态构建查询条件 ---
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Position != "" {
		db = db.Where("position = ?", filter.Position)
	}

	// 1. 计算总数
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 2. 排序（id 兜底保证分页稳定）
	for _, term := range filter.Orders {
		col, ok := sortColumns[term.Field]
		if !ok {
			continue
		}
		dir := "DESC"
		if term.Direction == SortAsc {
			dir = "ASC"
		}
		db = db.Order(col + " " + dir)
	}
	db = db.Order("id DESC")

	// 3. 查询数据
	offset := (filter.Page - 1) * filter.PageSize
	err := db.Limit(filter.PageSize).Offset(offset).Find(&list).Error

	return list, total, err
}

func (r *timerRepo) UpdateStatus(ctx context.Context, shopID, id int64, status model.TimerStatus) error {
	return r.db.WithContext(ctx).Model(&model.CountdownTimer{}).
		Where("id = ? AND shop_id = ?", id, shopID).
		Update("status", status).Error
}

// ForceActivate 单事务内：先停用同位置其它 ACTIVE，再激活目标
// 目标不存在返回 nil, nil，任一步失败整体回滚
func (r *timerRepo) ForceActivate(ctx context.Context, shopID, id int64) (*model.CountdownTimer, error) {
	var target model.CountdownTimer

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND shop_id = ?", id, shopID).First(&target).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.CountdownTimer{}).
			Where("shop_id = ? AND position = ? AND status = ? AND id <> ?",
				shopID, target.Position, model.TimerStatusActive, id).
			Update("status", model.TimerStatusInactive).Error; err != nil {
			return fmt.Errorf("停用同位置计时器失败: %w", err)
		}

		if err := tx.Model(&model.CountdownTimer{}).
			Where("id = ?", id).
			Update("status", model.TimerStatusActive).Error; err != nil {
			return fmt.Errorf("激活计时器失败: %w", err)
		}

		return tx.First(&target, id).Error
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &target, nil
}

// ListLiveCandidates 店面候选：ACTIVE 且 (EVERGREEN 或 未过期的 FIXED)
// startAt 在内存中再过滤
func (r *timerRepo) ListLiveCandidates(ctx context.Context, shopID int64, now time.Time) ([]model.CountdownTimer, error) {
	var list []model.CountdownTimer
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND status = ?", shopID, model.TimerStatusActive).
		Where(r.db.Where("type = ?", model.TimerTypeEvergreen).
			Or("type = ? AND end_at >= ?", model.TimerTypeFixed, now)).
		Order("updated_at DESC").
		Order("created_at DESC").
		Order("id DESC").
		Find(&list).Error
	return list, err
}

// FindPositionConflicts 同店同位置存在多个 ACTIVE 的分组
func (r *timerRepo) FindPositionConflicts(ctx context.Context) ([]PositionConflictRow, error) {
	var rows []PositionConflictRow
	err := r.db.WithContext(ctx).Model(&model.CountdownTimer{}).
		Select("shop_id, position, COUNT(*) AS active_count").
		Where("status = ?", model.TimerStatusActive).
		Group("shop_id, position").
		Having("COUNT(*) > ?", 1).
		Scan(&rows).Error
	return rows, err
}

// FindOverCapacityShops 计时器数量超过上限的店铺
func (r *timerRepo) FindOverCapacityShops(ctx context.Context, limit int) ([]ShopTimerCountRow, error) {
	var rows []ShopTimerCountRow
	err := r.db.WithContext(ctx).Model(&model.CountdownTimer{}).
		Select("shop_id, COUNT(*) AS total").
		Group("shop_id").
		Having("COUNT(*) > ?", limit).
		Scan(&rows).Error
	return rows, err
}

// found 统一处理未命中
func found(timer *model.CountdownTimer, err error) (*model.CountdownTimer, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return timer, nil
}
