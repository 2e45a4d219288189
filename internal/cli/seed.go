package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"countdown_timer_v1/internal/api/dto"
	"countdown_timer_v1/internal/apperror"
	"countdown_timer_v1/internal/model"
	"countdown_timer_v1/internal/service"
)

// SeedOptions seed 命令参数
type SeedOptions struct {
	*RootOptions
	Shop  string
	Count int
}

// NewSeedCommand 为指定店铺生成演示数据
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace a shop's timers with demo data",
		Long: `Replace a shop's timers with demo data.

The shop is created when missing. Every existing timer of the shop is deleted
first, then demo timers are created through the same rules as the admin API.

Example:
  countdown seed --shop demo.myshopify.com
  countdown seed --shop demo --count 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := bootstrap(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}
			defer deps.Close()

			result, err := Seed(cmd.Context(), deps.Services.Shop, deps.Services.Timer, opts.Shop, opts.Count, deps.Logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d countdown timers for %s (removed %d, %d active).\n",
				result.Created, result.Shop, result.Removed, result.Active)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Shop, "shop", "", "shop domain (required)")
	cmd.Flags().IntVar(&opts.Count, "count", 16, "number of timers to create")
	_ = cmd.MarkFlagRequired("shop")

	return cmd
}

// ==================== 演示数据 ====================

type seedColors struct {
	bg   string
	text string
}

var seedPalette = []seedColors{
	{bg: "#111827", text: "#F9FAFB"},
	{bg: "#0F172A", text: "#FDE68A"},
	{bg: "#BE123C", text: "#FEF2F2"},
	{bg: "#0369A1", text: "#F0F9FF"},
	{bg: "#065F46", text: "#ECFDF5"},
}

var seedPositions = []model.TimerPosition{
	model.PositionTopBar,
	model.PositionBottomBar,
	model.PositionProductPage,
	model.PositionCartPage,
}

// SeedResult 生成结果
type SeedResult struct {
	Shop    string
	Removed int64
	Created int
	Active  int
}

// seedTimer 第 index 个演示计时器
// 偶数为 FIXED（每 4 小时一个 3 小时窗口），奇数为 EVERGREEN；每第三个为 INACTIVE
func seedTimer(index int, now time.Time) dto.CreateTimerReq {
	colors := seedPalette[index%len(seedPalette)]
	req := dto.CreateTimerReq{
		Name:      fmt.Sprintf("Demo countdown #%d", index+1),
		Position:  seedPositions[index%len(seedPositions)],
		BgColor:   colors.bg,
		TextColor: colors.text,
		Status:    model.TimerStatusActive,
	}
	if index%3 == 0 {
		req.Status = model.TimerStatusInactive
	}

	if index%2 == 0 {
		start := now.Add(time.Duration(index*4) * time.Hour)
		req.Type = model.TimerTypeFixed
		req.Message = fmt.Sprintf("Deal window #%d is closing soon.", index+1)
		req.StartAt = dto.At(start)
		req.EndAt = dto.At(start.Add(3 * time.Hour))
	} else {
		minutes := 10 + index*3
		req.Type = model.TimerTypeEvergreen
		req.Message = fmt.Sprintf("Each shopper gets %d minutes only.", minutes)
		req.EvergreenMinutes = &minutes
	}
	return req
}

// Seed 清空店铺计时器后写入 count 个演示计时器
// ACTIVE 位置已被占用时改为 INACTIVE 创建
func Seed(ctx context.Context, shops *service.ShopService, timers *service.TimerService, shopDomain string, count int, logger zerolog.Logger) (*SeedResult, error) {
	if count < 0 {
		return nil, fmt.Errorf("count must not be negative: %d", count)
	}

	// 1. 确保店铺存在
	shop, err := shops.Ensure(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	result := &SeedResult{Shop: shop.ShopDomain}

	// 2. 清空
	result.Removed, err = timers.ResetShop(ctx, shop.ShopDomain)
	if err != nil {
		return nil, fmt.Errorf("清空计时器失败: %w", err)
	}

	// 3. 逐个创建
	now := time.Now().UTC()
	for i := 0; i < count; i++ {
		req := seedTimer(i, now)
		timer, err := timers.Create(ctx, shop.ShopDomain, req)
		if apperror.IsCode(err, apperror.CodePositionConflict) {
			req.Status = model.TimerStatusInactive
			timer, err = timers.Create(ctx, shop.ShopDomain, req)
		}
		if err != nil {
			return result, fmt.Errorf("创建演示计时器 %q 失败: %w", req.Name, err)
		}

		result.Created++
		if timer.Status == model.TimerStatusActive {
			result.Active++
		}
	}

	logger.Info().
		Str("shop", result.Shop).
		Int64("removed", result.Removed).
		Int("created", result.Created).
		Int("active", result.Active).
		Msg("演示数据已生成")
	return result, nil
}
