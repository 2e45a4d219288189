package task

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"countdown_timer_v1/internal/metrics"
	"countdown_timer_v1/internal/repository"
	"countdown_timer_v1/pkg/utils"
)

// ==================== TaskManager 后台任务管理器 ====================

// TaskManager 统一管理后台任务
// 管理范围：约束巡检、OAuth state 清理
type TaskManager struct {
	audit   *InvariantAudit
	sweeper *cron.Cron
	states  *utils.StateStore
	logger  zerolog.Logger
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	TimerRepo repository.TimerRepository
	Shops     InstalledCounter
	States    *utils.StateStore
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	AuditEnabled     bool
	AuditSchedule    string
	MaxTimersPerShop int

	// 过期 state 清理
	SweepSchedule string
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		AuditEnabled:     true,
		AuditSchedule:    "0 */10 * * * *",
		MaxTimersPerShop: 20,
		SweepSchedule:    "0 */5 * * * *",
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{
		states: deps.States,
		logger: deps.Logger.With().Str("component", "task_manager").Logger(),
	}

	// 约束巡检
	if cfg.AuditEnabled && deps.TimerRepo != nil {
		tm.audit = NewInvariantAudit(deps.TimerRepo, deps.Shops, deps.Metrics, cfg.MaxTimersPerShop, cfg.AuditSchedule, deps.Logger)
	}

	// state 清理
	if deps.States != nil && cfg.SweepSchedule != "" {
		tm.sweeper = cron.New(cron.WithSeconds())
		if _, err := tm.sweeper.AddFunc(cfg.SweepSchedule, tm.sweepStates); err != nil {
			tm.logger.Warn().Err(err).Str("schedule", cfg.SweepSchedule).Msg("state 清理计划无效，已禁用")
			tm.sweeper = nil
		}
	}

	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() error {
	tm.logger.Info().Msg("正在启动后台任务...")

	if tm.audit != nil {
		if err := tm.audit.Start(); err != nil {
			return err
		}
	}
	if tm.sweeper != nil {
		tm.sweeper.Start()
	}

	tm.logger.Info().Interface("tasks", tm.Status()).Msg("后台任务已全部启动")
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	tm.logger.Info().Msg("正在停止后台任务...")

	if tm.audit != nil {
		tm.audit.Stop()
	}
	if tm.sweeper != nil {
		<-tm.sweeper.Stop().Done()
	}

	tm.logger.Info().Msg("后台任务已全部停止")
}

func (tm *TaskManager) sweepStates() {
	if n := tm.states.Sweep(); n > 0 {
		tm.logger.Debug().Int("removed", n).Msg("已清理过期的 OAuth state")
	}
}

// ==================== 手动触发接口 ====================

// TriggerAudit 立即执行一次巡检
func (tm *TaskManager) TriggerAudit(ctx context.Context) (*AuditReport, error) {
	if tm.audit == nil {
		return nil, ErrTaskDisabled
	}
	report, err := tm.audit.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("巡检失败: %w", err)
	}
	return report, nil
}

// ==================== 状态查询 ====================

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"audit":       tm.audit != nil,
		"state_sweep": tm.sweeper != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)
