package dto

// UninstallWebhookPayload app/uninstalled 推送体（只取需要的字段）
// domain 可能是自定义域名，不用于识别店铺
type UninstallWebhookPayload struct {
	ID              int64  `json:"id"`
	ShopDomain      string `json:"shop_domain"`
	MyshopifyDomain string `json:"myshopify_domain"`
}

// Resolve 优先 shop_domain，其次 myshopify_domain
func (p UninstallWebhookPayload) Resolve() string {
	if p.ShopDomain != "" {
		return p.ShopDomain
	}
	return p.MyshopifyDomain
}

// WebhookAckResp webhook 处理结果
type WebhookAckResp struct {
	Success bool `json:"success"`
}
