package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"countdown_timer_v1/internal/apperror"
	"countdown_timer_v1/internal/model"
	"countdown_timer_v1/pkg/shopify"
	"countdown_timer_v1/pkg/utils"
)

// ShopifyGateway 安装流程依赖的 Shopify 能力
type ShopifyGateway interface {
	AuthorizeURL(shop, state string) string
	VerifyCallback(u *url.URL) (bool, error)
	ExchangeToken(ctx context.Context, shop, code string) (*shopify.TokenResponse, error)
	EnsureScriptTag(ctx context.Context, shop, accessToken, src string) error
	EnsureUninstallWebhook(ctx context.Context, shop, accessToken, address string) error
}

// AuthOptions 安装完成后的注册与跳转地址
type AuthOptions struct {
	ScriptSrc      string // 店面脚本地址，空则不注册
	WebhookAddress string // 卸载 webhook 地址，空则不注册
	FrontendHost   string // 安装完成后跳转的管理后台
}

type AuthService struct {
	shops   *ShopService
	gateway ShopifyGateway
	states  *utils.StateStore
	opts    AuthOptions
	logger  zerolog.Logger
}

func NewAuthService(shops *ShopService, gateway ShopifyGateway, states *utils.StateStore, opts AuthOptions, logger zerolog.Logger) *AuthService {
	return &AuthService{
		shops:   shops,
		gateway: gateway,
		states:  states,
		opts:    opts,
		logger:  logger.With().Str("component", "auth_service").Logger(),
	}
}

// BeginInstall 生成授权链接，state 与店铺绑定
func (s *AuthService) BeginInstall(rawShop string) (string, error) {
	shop := model.NormalizeShopDomain(rawShop)
	if shop == "" {
		return "", apperror.New(apperror.CodeMissingShopDomain, "Missing shop domain")
	}
	if !model.IsValidShopDomain(shop) {
		return "", apperror.New(apperror.CodeInvalidPayload, fmt.Sprintf("Invalid shop domain: %s", rawShop))
	}

	state := uuid.NewString()
	s.states.Put(state, shop)
	return s.gateway.AuthorizeURL(shop, state), nil
}

// CompleteInstall 处理 OAuth 回调，返回跳转地址
func (s *AuthService) CompleteInstall(ctx context.Context, callback *url.URL) (string, error) {
	q := callback.Query()
	shop := model.NormalizeShopDomain(q.Get("shop"))
	code := q.Get("code")

	// 1. 参数
	if shop == "" || code == "" {
		return "", apperror.New(apperror.CodeInvalidPayload, "Missing parameters")
	}
	if !model.IsValidShopDomain(shop) {
		return "", apperror.New(apperror.CodeInvalidPayload, fmt.Sprintf("Invalid shop domain: %s", q.Get("shop")))
	}

	// 2. HMAC
	ok, err := s.gateway.VerifyCallback(callback)
	if err != nil || !ok {
		s.logger.Warn().Err(err).Str("shop", shop).Msg("OAuth 回调 HMAC 校验失败")
		return "", apperror.New(apperror.CodeUnauthorized, "Invalid HMAC")
	}

	// 3. state 一次性且必须属于同一店铺
	expected, found := s.states.Pop(q.Get("state"))
	if !found || expected != shop {
		return "", apperror.New(apperror.CodeUnauthorized, "Invalid or expired state, please restart the installation")
	}

	// 4. 换取令牌并落库
	token, err := s.gateway.ExchangeToken(ctx, shop, code)
	if err != nil {
		return "", fmt.Errorf("换取令牌失败: %w", err)
	}
	if _, err := s.shops.Install(ctx, shop, token.AccessToken, token.Scope); err != nil {
		return "", err
	}

	// 5. 注册脚本与卸载 webhook，失败不阻断安装
	if s.opts.ScriptSrc != "" {
		if err := s.gateway.EnsureScriptTag(ctx, shop, token.AccessToken, s.opts.ScriptSrc); err != nil {
			s.logger.Warn().Err(err).Str("shop", shop).Msg("注册店面脚本失败")
		}
	}
	if s.opts.WebhookAddress != "" {
		if err := s.gateway.EnsureUninstallWebhook(ctx, shop, token.AccessToken, s.opts.WebhookAddress); err != nil {
			s.logger.Warn().Err(err).Str("shop", shop).Msg("注册卸载 webhook 失败")
		}
	}

	return s.redirectAfterInstall(shop), nil
}

func (s *AuthService) redirectAfterInstall(shop string) string {
	host := s.opts.FrontendHost
	if host == "" {
		return fmt.Sprintf("https://%s/admin/apps", shop)
	}
	u, err := url.Parse(host)
	if err != nil {
		return host
	}
	q := u.Query()
	q.Set("shop", shop)
	u.RawQuery = q.Encode()
	return u.String()
}
