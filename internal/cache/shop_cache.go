// Package cache 店铺目录缓存（域名 -> 店铺）
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"countdown_timer_v1/internal/model"
)

const keyPrefix = "countdown:shop:"

// ShopCache 店铺缓存
// 只缓存解析计时器所需的字段，不缓存访问令牌
type ShopCache interface {
	Get(ctx context.Context, domain string) (*model.Shop, bool)
	Set(ctx context.Context, shop *model.Shop)
	Invalidate(ctx context.Context, domain string)
}

type cachedShop struct {
	ID          int64  `json:"id"`
	ShopDomain  string `json:"shop_domain"`
	IsInstalled bool   `json:"is_installed"`
}

// ==================== Redis 实现 ====================

type redisShopCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisShopCache 缓存读写失败只会降级为回源，不向上返回错误
func NewRedisShopCache(client *redis.Client, ttl time.Duration) ShopCache {
	return &redisShopCache{client: client, ttl: ttl}
}

func (c *redisShopCache) Get(ctx context.Context, domain string) (*model.Shop, bool) {
	raw, err := c.client.Get(ctx, keyPrefix+domain).Bytes()
	if err != nil {
		return nil, false
	}

	var item cachedShop
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, false
	}
	shop := &model.Shop{ShopDomain: item.ShopDomain, IsInstalled: item.IsInstalled}
	shop.ID = item.ID
	return shop, true
}

func (c *redisShopCache) Set(ctx context.Context, shop *model.Shop) {
	raw, err := json.Marshal(cachedShop{ID: shop.ID, ShopDomain: shop.ShopDomain, IsInstalled: shop.IsInstalled})
	if err != nil {
		return
	}
	c.client.Set(ctx, keyPrefix+shop.ShopDomain, raw, c.ttl)
}

func (c *redisShopCache) Invalidate(ctx context.Context, domain string) {
	c.client.Del(ctx, keyPrefix+domain)
}

// ==================== 空实现 ====================

type noopShopCache struct{}

// NewNoopShopCache 未配置 Redis 时使用
func NewNoopShopCache() ShopCache {
	return noopShopCache{}
}

func (noopShopCache) Get(context.Context, string) (*model.Shop, bool) { return nil, false }
func (noopShopCache) Set(context.Context, *model.Shop)                {}
func (noopShopCache) Invalidate(context.Context, string)              {}

// ==================== 连接 ====================

// NewRedisClient 建立连接并 Ping
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, errors.New("redis addr is empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
