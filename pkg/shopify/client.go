// Package shopify Shopify 应用侧集成：OAuth、HMAC 校验、Admin API 注册
package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"countdown_timer_v1/pkg/utils"
)

// TopicAppUninstalled 卸载 webhook 主题
const TopicAppUninstalled = "app/uninstalled"

// Config 应用凭据
type Config struct {
	APIKey      string
	APISecret   string
	Scopes      string
	RedirectURL string
	APIVersion  string
}

// TokenResponse access_token 接口返回
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// Client 包装 go-shopify App 与出站 HTTP
type Client struct {
	app    goshopify.App
	cfg    Config
	http   *resty.Client
	logger zerolog.Logger

	tokenURL func(shop string) string
}

// Option 可选配置
type Option func(*Client)

// WithHTTPClient 替换出站 resty 客户端
func WithHTTPClient(c *resty.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithTokenURL 替换换取令牌的地址，测试时指向 httptest
func WithTokenURL(fn func(shop string) string) Option {
	return func(cl *Client) {
		cl.tokenURL = fn
	}
}

func NewClient(cfg Config, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		app: goshopify.App{
			ApiKey:      cfg.APIKey,
			ApiSecret:   cfg.APISecret,
			RedirectUrl: cfg.RedirectURL,
			Scope:       cfg.Scopes,
		},
		cfg:    cfg,
		http:   utils.NewHTTPClient(15*time.Second, false),
		logger: logger.With().Str("component", "shopify").Logger(),
		tokenURL: func(shop string) string {
			return fmt.Sprintf("https://%s/admin/oauth/access_token", shop)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ==================== OAuth ====================

// AuthorizeURL 拼接授权地址（go-shopify 的 AuthorizeUrl 不带 redirect_uri）
func (c *Client) AuthorizeURL(shop, state string) string {
	return fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
		shop,
		url.QueryEscape(c.cfg.APIKey),
		url.QueryEscape(c.cfg.Scopes),
		url.QueryEscape(c.cfg.RedirectURL),
		url.QueryEscape(state),
	)
}

// VerifyCallback 校验回调 query 上的 hmac
func (c *Client) VerifyCallback(u *url.URL) (bool, error) {
	return c.app.VerifyAuthorizationURL(u)
}

// ExchangeToken 用 code 换取离线 access_token
func (c *Client) ExchangeToken(ctx context.Context, shop, code string) (*TokenResponse, error) {
	var out TokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"client_id":     c.cfg.APIKey,
			"client_secret": c.cfg.APISecret,
			"code":          code,
		}).
		SetResult(&out).
		Post(c.tokenURL(shop))
	if err != nil {
		return nil, fmt.Errorf("请求 access_token 失败: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("shopify refused token exchange: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	if out.AccessToken == "" {
		return nil, errors.New("shopify token response has no access_token")
	}
	return &out, nil
}

// ==================== Webhook ====================

// VerifyWebhookRequest 校验 X-Shopify-Hmac-Sha256，读取后会重置 Body
func (c *Client) VerifyWebhookRequest(r *http.Request) bool {
	return c.app.VerifyWebhookRequest(r)
}

// ==================== Admin API ====================

func (c *Client) adminClient(shop, accessToken string) (*goshopify.Client, error) {
	opts := []goshopify.Option{}
	if c.cfg.APIVersion != "" {
		opts = append(opts, goshopify.WithVersion(c.cfg.APIVersion))
	}
	client, err := goshopify.NewClient(c.app, shop, accessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// EnsureScriptTag 店面脚本不存在时注册
func (c *Client) EnsureScriptTag(ctx context.Context, shop, accessToken, src string) error {
	client, err := c.adminClient(shop, accessToken)
	if err != nil {
		return err
	}

	tags, err := client.ScriptTag.List(ctx, struct {
		Src string `url:"src"`
	}{Src: src})
	if err != nil {
		return fmt.Errorf("failed to list script tags: %w", err)
	}
	for _, tag := range tags {
		if tag.Src == src {
			return nil
		}
	}

	if _, err := client.ScriptTag.Create(ctx, goshopify.ScriptTag{Event: "onload", Src: src}); err != nil {
		return fmt.Errorf("failed to create script tag: %w", err)
	}
	c.logger.Info().Str("shop", shop).Str("src", src).Msg("script tag registered")
	return nil
}

// EnsureUninstallWebhook 卸载 webhook 不存在时注册
func (c *Client) EnsureUninstallWebhook(ctx context.Context, shop, accessToken, address string) error {
	client, err := c.adminClient(shop, accessToken)
	if err != nil {
		return err
	}

	hooks, err := client.Webhook.List(ctx, struct {
		Topic string `url:"topic"`
	}{Topic: TopicAppUninstalled})
	if err != nil {
		return fmt.Errorf("failed to list webhooks: %w", err)
	}
	for _, h := range hooks {
		if h.Topic == TopicAppUninstalled && h.Address == address {
			return nil
		}
	}

	webhook := goshopify.Webhook{
		Topic:   TopicAppUninstalled,
		Address: address,
		Format:  "json",
	}
	if _, err := client.Webhook.Create(ctx, webhook); err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}
	c.logger.Info().Str("shop", shop).Str("address", address).Msg("uninstall webhook registered")
	return nil
}
