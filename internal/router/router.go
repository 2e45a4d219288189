package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"countdown_timer_v1/internal/controller"
	"countdown_timer_v1/internal/metrics"
	"countdown_timer_v1/internal/middleware"

	_ "countdown_timer_v1/docs"
)

// Controllers 路由依赖的控制器
type Controllers struct {
	Timer      *controller.TimerController
	Storefront *controller.StorefrontController
	Auth       *controller.AuthController
	Webhook    *controller.WebhookController
	Health     *controller.HealthController
}

// Options 全局中间件配置
type Options struct {
	Logger       zerolog.Logger
	Metrics      *metrics.Metrics
	CORSOrigins  []string
	SessionToken middleware.SessionTokenConfig
	EnableDocs   bool
}

// SetupRouter 注册所有路由
func SetupRouter(opts Options, ctl Controllers) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(opts.Logger),
		middleware.Metrics(opts.Metrics),
		middleware.CORS(opts.CORSOrigins),
	)

	// 1. 运维
	r.GET("/health", ctl.Health.Check)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	// 访问 http://localhost:3000/swagger/index.html 即可查看
	if opts.EnableDocs {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// 2. API 路由组
	api := r.Group("/api/v1")
	{
		// auth 安装授权
		auth := api.Group("/auth")
		{
			// GET /api/v1/auth?shop=
			auth.GET("", ctl.Auth.Install)
			// GET /api/v1/auth/callback
			auth.GET("/callback", ctl.Auth.Callback)
		}

		// webhooks Shopify 推送
		webhooks := api.Group("/webhooks")
		{
			webhooks.POST("/app-uninstalled", ctl.Webhook.AppUninstalled)
		}

		// storefront 公开接口
		api.GET("/storefront-timer", ctl.Storefront.GetTimer)

		// countdown-timer 管理后台
		timers := api.Group("/countdown-timer")
		timers.Use(middleware.SessionToken(opts.SessionToken), middleware.ShopDomain())
		{
			timers.GET("", ctl.Timer.List)
			timers.POST("", ctl.Timer.Create)
			timers.GET("/total", ctl.Timer.Counts)
			timers.GET("/:id", ctl.Timer.GetDetail)
			timers.PUT("/:id", ctl.Timer.Edit)
			timers.PATCH("/:id", ctl.Timer.Toggle)
			timers.POST("/:id/force-activate", ctl.Timer.ForceActivate)
			timers.DELETE("/:id", ctl.Timer.Delete)
		}
	}

	return r
}
