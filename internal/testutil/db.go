// Package testutil 测试公共辅助
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"countdown_timer_v1/internal/model"
	"countdown_timer_v1/pkg/database"
)

// NewTestDB 每个测试独立的内存 SQLite，结构与生产迁移一致
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(database.Options{
		Driver:   database.DriverSQLite,
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel: logger.Silent,
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	if err := database.Migrate(context.Background(), db, zerolog.Nop()); err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// SeedShop 写入一个已安装店铺
func SeedShop(t *testing.T, db *gorm.DB, domain string) *model.Shop {
	t.Helper()

	now := time.Now().UTC()
	shop := &model.Shop{
		ShopDomain:  domain,
		AccessToken: "shpat_test",
		IsInstalled: true,
		InstalledAt: &now,
	}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("创建测试店铺失败: %v", err)
	}
	return shop
}

// SeedTimer 直接落库，绕过规则校验
func SeedTimer(t *testing.T, db *gorm.DB, timer *model.CountdownTimer) *model.CountdownTimer {
	t.Helper()

	if timer.Status == "" {
		timer.Status = model.TimerStatusInactive
	}
	if timer.Message == "" {
		timer.Message = "Hurry up"
	}
	if err := db.Create(timer).Error; err != nil {
		t.Fatalf("创建测试计时器失败: %v", err)
	}
	return timer
}

// IntPtr / TimePtr 取址辅助
func IntPtr(v int) *int { return &v }

func TimePtr(v time.Time) *time.Time { return &v }
