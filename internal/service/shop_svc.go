package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"countdown_timer_v1/internal/apperror"
	"countdown_timer_v1/internal/cache"
	"countdown_timer_v1/internal/model"
	"countdown_timer_v1/internal/repository"
)

// ShopService 店铺目录：域名解析、安装与卸载
type ShopService struct {
	ShopRepo repository.ShopRepository

	cache  cache.ShopCache
	logger zerolog.Logger
	now    func() time.Time
}

func NewShopService(shopRepo repository.ShopRepository, shopCache cache.ShopCache, logger zerolog.Logger) *ShopService {
	if shopCache == nil {
		shopCache = cache.NewNoopShopCache()
	}
	return &ShopService{
		ShopRepo: shopRepo,
		cache:    shopCache,
		logger:   logger.With().Str("component", "shop_service").Logger(),
		now:      utcNow,
	}
}

// Resolve 规范化域名后查找店铺，不存在返回 SHOP_NOT_FOUND
func (s *ShopService) Resolve(ctx context.Context, rawDomain string) (*model.Shop, error) {
	domain := model.NormalizeShopDomain(rawDomain)
	if domain == "" {
		return nil, apperror.New(apperror.CodeMissingShopDomain, "Missing shop domain")
	}

	// 1. 先查缓存
	if shop, ok := s.cache.Get(ctx, domain); ok {
		return shop, nil
	}

	// 2. 回源
	shop, err := s.ShopRepo.GetByDomain(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("查询店铺失败: %w", err)
	}
	if shop == nil {
		return nil, apperror.ShopNotFound(domain)
	}

	s.cache.Set(ctx, shop)
	return shop, nil
}

// Install OAuth 完成后写入令牌；已存在的店铺（含卸载过的）原地恢复
func (s *ShopService) Install(ctx context.Context, rawDomain, accessToken, scope string) (*model.Shop, error) {
	domain := model.NormalizeShopDomain(rawDomain)
	if !model.IsValidShopDomain(domain) {
		return nil, apperror.New(apperror.CodeInvalidPayload, fmt.Sprintf("Invalid shop domain: %s", rawDomain))
	}

	now := s.now()
	shop := &model.Shop{
		ShopDomain:  domain,
		AccessToken: accessToken,
		Scope:       scope,
		IsInstalled: true,
		InstalledAt: &now,
	}
	if err := s.ShopRepo.Upsert(ctx, shop); err != nil {
		return nil, fmt.Errorf("保存店铺失败: %w", err)
	}
	s.cache.Invalidate(ctx, domain)

	// Upsert 冲突分支不回填 ID，重新读取
	saved, err := s.ShopRepo.GetByDomain(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("读取店铺失败: %w", err)
	}
	if saved == nil {
		return nil, apperror.ShopNotFound(domain)
	}

	s.logger.Info().Str("shop", domain).Int64("shop_id", saved.ID).Msg("店铺安装完成")
	return saved, nil
}

// MarkUninstalled 卸载回调，返回是否命中已知店铺
func (s *ShopService) MarkUninstalled(ctx context.Context, rawDomain string) (bool, error) {
	domain := model.NormalizeShopDomain(rawDomain)
	if domain == "" {
		return false, apperror.New(apperror.CodeMissingShopDomain, "Missing shop domain")
	}

	ok, err := s.ShopRepo.MarkUninstalled(ctx, domain, s.now())
	if err != nil {
		return false, fmt.Errorf("标记卸载失败: %w", err)
	}
	s.cache.Invalidate(ctx, domain)

	if ok {
		s.logger.Info().Str("shop", domain).Msg("店铺已卸载")
	} else {
		s.logger.Warn().Str("shop", domain).Msg("卸载回调对应的店铺不存在")
	}
	return ok, nil
}

// Ensure 找不到时创建一个未授权的店铺记录，供 seed 命令使用
func (s *ShopService) Ensure(ctx context.Context, rawDomain string) (*model.Shop, error) {
	domain := model.NormalizeShopDomain(rawDomain)
	if !model.IsValidShopDomain(domain) {
		return nil, apperror.New(apperror.CodeInvalidPayload, fmt.Sprintf("Invalid shop domain: %s", rawDomain))
	}

	shop, err := s.ShopRepo.GetByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	if shop != nil {
		return shop, nil
	}

	now := s.now()
	shop = &model.Shop{ShopDomain: domain, IsInstalled: true, InstalledAt: &now}
	if err := s.ShopRepo.Create(ctx, shop); err != nil {
		return nil, fmt.Errorf("创建店铺失败: %w", err)
	}
	return shop, nil
}

// CountInstalled 已安装店铺数，巡检任务上报
func (s *ShopService) CountInstalled(ctx context.Context) (int, error) {
	list, err := s.ShopRepo.ListInstalled(ctx)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}
