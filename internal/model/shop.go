package model

import (
	"regexp"
	"strings"
	"time"
)

// ShopDomainSuffix Shopify 店铺域名统一后缀
const ShopDomainSuffix = ".myshopify.com"

var shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)

// Shop 已安装应用的 Shopify 店铺
type Shop struct {
	BaseModel
	// 1. 身份
	ShopDomain  string `gorm:"size:255;not null;uniqueIndex;comment:店铺域名 xxx.myshopify.com" json:"shop_domain"`
	AccessToken string `gorm:"size:255;comment:Admin API 访问令牌" json:"-"`
	Scope       string `gorm:"size:512;comment:授权范围" json:"scope"`

	// 2. 安装状态
	IsInstalled   bool       `gorm:"not null;index" json:"is_installed"`
	InstalledAt   *time.Time `gorm:"comment:最近一次安装时间" json:"installed_at"`
	UninstalledAt *time.Time `gorm:"comment:卸载时间" json:"uninstalled_at"`

	Timers []CountdownTimer `gorm:"foreignKey:ShopID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Shop) TableName() string {
	return "shops"
}

// NormalizeShopDomain 规范化店铺域名
// 去掉协议、末尾斜杠，统一小写，缺少后缀时补上 .myshopify.com
func NormalizeShopDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimRight(d, "/")
	if d == "" {
		return ""
	}
	if !strings.HasSuffix(d, ShopDomainSuffix) {
		d += ShopDomainSuffix
	}
	return d
}

// IsValidShopDomain 是否为合法的 xxx.myshopify.com 域名（需先规范化）
func IsValidShopDomain(domain string) bool {
	return shopDomainPattern.MatchString(domain)
}
