package main

import "countdown_timer_v1/internal/cli"

// @title Countdown Timer API
// @version 1.0
// @description Shopify 倒计时应用：管理后台、店面与安装接口
// @host localhost:3000
// @BasePath /
func main() {
	cli.Execute()
}
