package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"countdown_timer_v1/internal/model"
)

// ==================== 接口定义 ====================

// ShopRepository 店铺仓储接口
type ShopRepository interface {
	Create(ctx context.Context, shop *model.Shop) error
	GetByID(ctx context.Context, id int64) (*model.Shop, error)
	GetByDomain(ctx context.Context, domain string) (*model.Shop, error)

	// 安装 / 卸载
	Upsert(ctx context.Context, shop *model.Shop) error
	MarkUninstalled(ctx context.Context, domain string, at time.Time) (bool, error)

	ListInstalled(ctx context.Context) ([]model.Shop, error)
}

// ==================== 仓储实现 ====================

// shopRepo 店铺仓储实现
type shopRepo struct {
	db *gorm.DB
}

// NewShopRepository 创建店铺仓储
func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepo{db: db}
}

func (r *shopRepo) Create(ctx context.Context, shop *model.Shop) error {
	return r.db.WithContext(ctx).Create(shop).Error
}

func (r *shopRepo) GetByID(ctx context.Context, id int64) (*model.Shop, error) {
	var shop model.Shop
	err := r.db.WithContext(ctx).First(&shop, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// GetByDomain 按规范化后的域名查询，未找到返回 nil, nil
func (r *shopRepo) GetByDomain(ctx context.Context, domain string) (*model.Shop, error) {
	var shop model.Shop
	err := r.db.WithContext(ctx).Where("shop_domain = ?", domain).First(&shop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// Upsert 按 shop_domain 插入或覆盖令牌与安装状态
func (r *shopRepo) Upsert(ctx context.Context, shop *model.Shop) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "shop_domain"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token", "scope", "is_installed", "installed_at", "uninstalled_at", "updated_at",
		}),
	}).Create(shop).Error
}

// MarkUninstalled 标记卸载，返回是否命中店铺
// 计时器数据保留，重新安装后恢复
func (r *shopRepo) MarkUninstalled(ctx context.Context, domain string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Shop{}).
		Where("shop_domain = ?", domain).
		Updates(map[string]interface{}{
			"is_installed":   false,
			"uninstalled_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *shopRepo) ListInstalled(ctx context.Context) ([]model.Shop, error) {
	var list []model.Shop
	err := r.db.WithContext(ctx).Where("is_installed = ?", true).Order("id ASC").Find(&list).Error
	return list, err
}
