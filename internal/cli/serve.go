package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"countdown_timer_v1/internal/middleware"
	"countdown_timer_v1/internal/router"
	"countdown_timer_v1/internal/task"
)

// ServeOptions serve 命令参数
type ServeOptions struct {
	*RootOptions
	Port     string
	NoTasks  bool
	NoDocs   bool
	Shutdown time.Duration
}

// NewServeCommand 启动 HTTP 服务
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Port, "port", "", "listen port (overrides PORT)")
	cmd.Flags().BoolVar(&opts.NoTasks, "no-tasks", false, "do not start background tasks")
	cmd.Flags().BoolVar(&opts.NoDocs, "no-docs", false, "disable /swagger")
	cmd.Flags().DurationVar(&opts.Shutdown, "shutdown-timeout", 30*time.Second, "graceful shutdown timeout")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// 1. 初始化依赖
	deps, err := bootstrap(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer deps.Close()

	cfg := deps.Config
	logger := deps.Logger
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. 启动定时任务
	var tasks *task.TaskManager
	if !opts.NoTasks {
		tasks = task.NewTaskManager(&task.TaskManagerDeps{
			TimerRepo: deps.Repos.Timer,
			Shops:     deps.Services.Shop,
			States:    deps.States,
			Metrics:   deps.Metrics,
			Logger:    logger,
		}, &task.TaskManagerConfig{
			AuditEnabled:     true,
			AuditSchedule:    cfg.AuditSchedule,
			MaxTimersPerShop: cfg.MaxTimersPerShop,
			SweepSchedule:    task.DefaultConfig().SweepSchedule,
		})
		if err := tasks.Start(); err != nil {
			return err
		}
		defer tasks.Stop()
	}

	// 3. 初始化路由
	r := router.SetupRouter(router.Options{
		Logger:      logger,
		Metrics:     deps.Metrics,
		CORSOrigins: cfg.CORSOrigins,
		SessionToken: middleware.SessionTokenConfig{
			APIKey:    cfg.Shopify.APIKey,
			APISecret: cfg.Shopify.APISecret,
			Required:  cfg.RequireSessionToken,
			Leeway:    5 * time.Second,
		},
		EnableDocs: !opts.NoDocs && !cfg.IsProduction(),
	}, initControllers(deps))

	// 4. 启动服务
	port := cfg.Port
	if opts.Port != "" {
		port = opts.Port
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("服务启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("正在关闭服务...")
	case <-ctx.Done():
		logger.Info().Msg("正在关闭服务...")
	}

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.Shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info().Msg("服务已退出")
	return nil
}
