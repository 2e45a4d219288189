package task

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"countdown_timer_v1/internal/metrics"
	"countdown_timer_v1/internal/repository"
)

// InstalledCounter 已安装店铺计数
type InstalledCounter interface {
	CountInstalled(ctx context.Context) (int, error)
}

// AuditReport 一次巡检结果
type AuditReport struct {
	PositionConflicts []repository.PositionConflictRow
	OverCapacity      []repository.ShopTimerCountRow
	InstalledShops    int
}

// Clean 没有发现违反约束的数据
func (r *AuditReport) Clean() bool {
	return len(r.PositionConflicts) == 0 && len(r.OverCapacity) == 0
}

// InvariantAudit 计时器约束巡检任务，只读不写
type InvariantAudit struct {
	timerRepo repository.TimerRepository
	shops     InstalledCounter
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	Cron      *cron.Cron

	schedule  string
	maxTimers int
	timeout   time.Duration
}

func NewInvariantAudit(timerRepo repository.TimerRepository, shops InstalledCounter, m *metrics.Metrics, maxTimers int, schedule string, logger zerolog.Logger) *InvariantAudit {
	if schedule == "" {
		schedule = "0 */10 * * * *"
	}
	return &InvariantAudit{
		timerRepo: timerRepo,
		shops:     shops,
		metrics:   m,
		logger:    logger.With().Str("task", "invariant_audit").Logger(),
		Cron:      cron.New(cron.WithSeconds()), // 支持秒级控制
		schedule:  schedule,
		maxTimers: maxTimers,
		timeout:   time.Minute,
	}
}

// Start 首次巡检后按 schedule 定时执行
func (a *InvariantAudit) Start() error {
	_, err := a.Cron.AddFunc(a.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		_, _ = a.Execute(ctx)
	})
	if err != nil {
		return fmt.Errorf("无效的巡检计划 %q: %w", a.schedule, err)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		a.logger.Info().Msg("服务启动，正在执行首次巡检...")
		_, _ = a.Execute(ctx)
	}()

	a.Cron.Start()
	a.logger.Info().Str("schedule", a.schedule).Msg("约束巡检任务已启动")
	return nil
}

// Stop 等待正在执行的巡检结束
func (a *InvariantAudit) Stop() {
	<-a.Cron.Stop().Done()
}

// Execute 执行一次完整巡检
func (a *InvariantAudit) Execute(ctx context.Context) (*AuditReport, error) {
	report := &AuditReport{}

	// 1. 同位置多个 ACTIVE
	conflicts, err := a.timerRepo.FindPositionConflicts(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("查询位置冲突失败")
		return nil, err
	}
	report.PositionConflicts = conflicts
	for _, row := range conflicts {
		a.logger.Warn().
			Int64("shop_id", row.ShopID).
			Str("position", string(row.Position)).
			Int64("active_count", row.ActiveCount).
			Msg("同一位置存在多个激活的计时器")
	}

	// 2. 超出数量上限
	over, err := a.timerRepo.FindOverCapacityShops(ctx, a.maxTimers)
	if err != nil {
		a.logger.Error().Err(err).Msg("查询超限店铺失败")
		return nil, err
	}
	report.OverCapacity = over
	for _, row := range over {
		a.logger.Warn().
			Int64("shop_id", row.ShopID).
			Int64("total", row.Total).
			Int("max", a.maxTimers).
			Msg("店铺计时器数量超出上限")
	}

	// 3. 已安装店铺数
	if a.shops != nil {
		n, err := a.shops.CountInstalled(ctx)
		if err != nil {
			a.logger.Error().Err(err).Msg("统计已安装店铺失败")
			return nil, err
		}
		report.InstalledShops = n
		a.metrics.SetInstalledShops(n)
	}

	a.metrics.SetInvariantViolations("position_conflict", len(conflicts))
	a.metrics.SetInvariantViolations("over_capacity", len(over))

	if report.Clean() {
		a.logger.Debug().Int("installed_shops", report.InstalledShops).Msg("巡检完成，未发现异常")
	} else {
		a.logger.Warn().
			Int("position_conflicts", len(conflicts)).
			Int("over_capacity", len(over)).
			Msg("巡检完成，发现异常数据")
	}
	return report, nil
}
