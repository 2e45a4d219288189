package cli

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"countdown_timer_v1/internal/cache"
	"countdown_timer_v1/internal/config"
	"countdown_timer_v1/internal/controller"
	"countdown_timer_v1/internal/metrics"
	"countdown_timer_v1/internal/repository"
	"countdown_timer_v1/internal/router"
	"countdown_timer_v1/internal/service"
	"countdown_timer_v1/pkg/database"
	"countdown_timer_v1/pkg/shopify"
	"countdown_timer_v1/pkg/utils"
)

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	Config   *config.Config
	Logger   zerolog.Logger
	DB       *gorm.DB
	Redis    *redis.Client
	Metrics  *metrics.Metrics
	States   *utils.StateStore
	Shopify  *shopify.Client
	Repos    *Repositories
	Services *Services
}

// Repositories 仓库集合
type Repositories struct {
	Shop  repository.ShopRepository
	Timer repository.TimerRepository
}

// Services 服务集合
type Services struct {
	Shop       *service.ShopService
	Rules      *service.RuleEngine
	Timer      *service.TimerService
	Storefront *service.StorefrontService
	Auth       *service.AuthService
}

// ==================== 初始化函数 ====================

// loadConfig 读取配置并构建根 logger
func loadConfig(opts *RootOptions) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(opts.EnvFiles...)
	if cfg == nil {
		return nil, zerolog.Nop(), err
	}

	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger := newLogger(os.Stderr, level, !cfg.IsProduction())
	if err != nil {
		logger.Warn().Err(err).Msg(".env 读取失败，继续使用环境变量")
	}
	return cfg, logger, nil
}

// newLogger 开发环境输出可读格式，生产环境输出 JSON
func newLogger(w io.Writer, level string, console bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// initDatabase 连接数据库并迁移
func initDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Open(database.Options{
		Driver:   cfg.Database.Driver,
		DSN:      cfg.Database.URL,
		LogLevel: database.ParseLogLevel(cfg.Database.LogLevel),
	})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, logger); err != nil {
		closeDB(db)
		return nil, err
	}
	return db, nil
}

// initShopCache Redis 不可用时退化为无缓存
func initShopCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (cache.ShopCache, *redis.Client) {
	if cfg.Redis.Addr == "" {
		return cache.NewNoopShopCache(), nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis 连接失败，店铺缓存已禁用")
		return cache.NewNoopShopCache(), nil
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.ShopCacheTTL).Msg("店铺缓存已启用")
	return cache.NewRedisShopCache(client, cfg.ShopCacheTTL), client
}

// initDependencies 初始化所有依赖
func initDependencies(ctx context.Context, cfg *config.Config, logger zerolog.Logger, db *gorm.DB) *Dependencies {
	m := metrics.New()
	shopCache, redisClient := initShopCache(ctx, cfg, logger)

	// -------- Repo 层 --------
	repos := &Repositories{
		Shop:  repository.NewShopRepository(db),
		Timer: repository.NewTimerRepository(db),
	}

	// -------- 外部集成 --------
	states := utils.NewStateStore(10 * time.Minute)
	shopifyClient := shopify.NewClient(shopify.Config{
		APIKey:      cfg.Shopify.APIKey,
		APISecret:   cfg.Shopify.APISecret,
		Scopes:      cfg.Shopify.Scopes,
		RedirectURL: cfg.Shopify.RedirectURL(),
		APIVersion:  cfg.Shopify.APIVersion,
	}, logger)

	// -------- 业务服务 --------
	services := &Services{}
	services.Shop = service.NewShopService(repos.Shop, shopCache, logger)
	services.Rules = service.NewRuleEngine(repos.Timer, services.Shop, cfg.MaxTimersPerShop, m)
	services.Timer = service.NewTimerService(repos.Timer, services.Rules, logger)
	services.Storefront = service.NewStorefrontService(repos.Timer, services.Shop, m, logger)
	services.Auth = service.NewAuthService(services.Shop, shopifyClient, states, service.AuthOptions{
		ScriptSrc:      cfg.Shopify.ScriptSrc(),
		WebhookAddress: cfg.Shopify.UninstallWebhookURL(),
		FrontendHost:   cfg.Shopify.FrontendHost,
	}, logger)

	return &Dependencies{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Redis:    redisClient,
		Metrics:  m,
		States:   states,
		Shopify:  shopifyClient,
		Repos:    repos,
		Services: services,
	}
}

// initControllers 初始化所有控制器
func initControllers(deps *Dependencies) router.Controllers {
	return router.Controllers{
		Timer:      controller.NewTimerController(deps.Services.Timer),
		Storefront: controller.NewStorefrontController(deps.Services.Storefront),
		Auth:       controller.NewAuthController(deps.Services.Auth),
		Webhook:    controller.NewWebhookController(deps.Shopify, deps.Services.Shop),
		Health:     controller.NewHealthController(deps.DB),
	}
}

// Close 释放连接
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Warn().Err(err).Msg("关闭 Redis 连接失败")
		}
	}
	closeDB(d.DB)
}

func closeDB(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// bootstrap 命令公共初始化：配置、数据库、依赖
func bootstrap(ctx context.Context, opts *RootOptions) (*Dependencies, error) {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	db, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return initDependencies(ctx, cfg, logger, db), nil
}
