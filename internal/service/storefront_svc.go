package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"countdown_timer_v1/internal/metrics"
	"countdown_timer_v1/internal/model"
	"countdown_timer_v1/internal/repository"
)

// StorefrontService 店面选取：给定店铺与页面类型，最多返回一个计时器
// 只读；任何失败都降级为"无计时器"
type StorefrontService struct {
	TimerRepo repository.TimerRepository

	shops   *ShopService
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

func NewStorefrontService(timerRepo repository.TimerRepository, shops *ShopService, m *metrics.Metrics, logger zerolog.Logger) *StorefrontService {
	return &StorefrontService{
		TimerRepo: timerRepo,
		shops:     shops,
		metrics:   m,
		logger:    logger.With().Str("component", "storefront_service").Logger(),
		now:       utcNow,
	}
}

// SetClock 测试注入时钟
func (s *StorefrontService) SetClock(now func() time.Time) {
	s.now = now
}

// Select 返回 nil 表示该页面不展示计时器
func (s *StorefrontService) Select(ctx context.Context, shopDomain, pageContext string) *model.CountdownTimer {
	pc := model.ParsePageContext(strings.ToLower(strings.TrimSpace(pageContext)))
	timer := s.selectTimer(ctx, shopDomain, pc)

	outcome := "empty"
	if timer != nil {
		outcome = "shown"
	}
	s.metrics.StorefrontSelection(string(pc), outcome)
	return timer
}

func (s *StorefrontService) selectTimer(ctx context.Context, shopDomain string, pc model.PageContext) *model.CountdownTimer {
	if strings.TrimSpace(shopDomain) == "" {
		return nil
	}

	shop, err := s.shops.Resolve(ctx, shopDomain)
	if err != nil {
		s.logger.Debug().Err(err).Str("shop", shopDomain).Msg("店面请求的店铺无法解析")
		return nil
	}

	now := s.now()
	candidates, err := s.TimerRepo.ListLiveCandidates(ctx, shop.ID, now)
	if err != nil {
		s.logger.Warn().Err(err).Int64("shop_id", shop.ID).Msg("查询店面候选计时器失败")
		return nil
	}
	return PickTimer(candidates, pc, now)
}

// PickTimer 纯函数
//  1. 过滤掉当前不可展示的计时器
//  2. 按页面的位置回退链取第一个命中
//
// candidates 需按最近更新在前排序，同一位置取第一个
func PickTimer(candidates []model.CountdownTimer, pc model.PageContext, now time.Time) *model.CountdownTimer {
	byPosition := make(map[model.TimerPosition]*model.CountdownTimer, len(model.Positions))
	for i := range candidates {
		t := &candidates[i]
		if !t.IsLive(now) {
			continue
		}
		if _, ok := byPosition[t.Position]; !ok {
			byPosition[t.Position] = t
		}
	}

	for _, pos := range pc.FallbackChain() {
		if t, ok := byPosition[pos]; ok {
			return t
		}
	}
	return nil
}
