// Package config 读取环境变量配置（支持 .env）
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"3000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Database DatabaseConfig
	Redis    RedisConfig `envPrefix:"REDIS_"`
	Shopify  ShopifyConfig

	CORSOrigins         []string      `env:"CORS_ORIGINS" envSeparator:","`
	MaxTimersPerShop    int           `env:"MAX_TIMERS_PER_SHOP" envDefault:"20"`
	AuditSchedule       string        `env:"AUDIT_SCHEDULE" envDefault:"0 */10 * * * *"`
	RequireSessionToken bool          `env:"REQUIRE_SESSION_TOKEN" envDefault:"false"`
	ShopCacheTTL        time.Duration `env:"SHOP_CACHE_TTL" envDefault:"5m"`
}

// DatabaseConfig 数据库
type DatabaseConfig struct {
	Driver   string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	URL      string `env:"DATABASE_URL"`
	LogLevel string `env:"DATABASE_LOG_LEVEL" envDefault:"warn"`
}

// RedisConfig 店铺缓存，Addr 为空时不启用
type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// ShopifyConfig Shopify 应用凭证
type ShopifyConfig struct {
	APIKey     string `env:"SHOPIFY_API_KEY"`
	APISecret  string `env:"SHOPIFY_API_SECRET"`
	Scopes     string `env:"SHOPIFY_SCOPES" envDefault:"read_themes,write_script_tags"`
	Host       string `env:"SHOPIFY_HOST" envDefault:"http://localhost:3000"`
	APIVersion string `env:"SHOPIFY_API_VERSION" envDefault:"2024-01"`

	FrontendHost        string `env:"FRONTEND_HOST" envDefault:"http://localhost:5173"`
	StorefrontScriptURL string `env:"STOREFRONT_SCRIPT_URL"`
}

// ScriptSrc 店面脚本地址，默认 ${SHOPIFY_HOST}/storefront/timer.js
func (c ShopifyConfig) ScriptSrc() string {
	if c.StorefrontScriptURL != "" {
		return c.StorefrontScriptURL
	}
	return c.Host + "/storefront/timer.js"
}

// RedirectURL OAuth 回调地址
func (c ShopifyConfig) RedirectURL() string {
	return c.Host + "/api/v1/auth/callback"
}

// UninstallWebhookURL 卸载 webhook 地址
func (c ShopifyConfig) UninstallWebhookURL() string {
	return c.Host + "/api/v1/webhooks/app-uninstalled"
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load 先加载 .env（不存在时忽略），再解析环境变量
// 返回的 warning 非空表示 .env 读取出错但不影响启动
func Load(files ...string) (*Config, error) {
	var warning error
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		warning = err
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("解析环境变量失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, warning
}

// Validate 校验必填项
func (c *Config) Validate() error {
	if c.MaxTimersPerShop <= 0 {
		return fmt.Errorf("MAX_TIMERS_PER_SHOP 必须大于 0")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("不支持的 DATABASE_DRIVER: %s", c.Database.Driver)
	}
	if c.RequireSessionToken && c.Shopify.APISecret == "" {
		return fmt.Errorf("REQUIRE_SESSION_TOKEN 需要配置 SHOPIFY_API_SECRET")
	}
	return nil
}
