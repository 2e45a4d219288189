package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"countdown_timer_v1/internal/model"
)

// activePositionIndexSQL 同一店铺同一位置最多一个 ACTIVE 计时器
// PostgreSQL 与 SQLite 均支持部分唯一索引
const activePositionIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS idx_timer_active_position
ON countdown_timers (shop_id, position) WHERE status = 'ACTIVE'`

// Models 需要 AutoMigrate 的模型
func Models() []interface{} {
	return []interface{}{&model.Shop{}, &model.CountdownTimer{}}
}

// Initializer 数据库初始化器
type Initializer struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewInitializer 创建初始化器
func NewInitializer(db *gorm.DB, logger zerolog.Logger) *Initializer {
	return &Initializer{db: db, logger: logger}
}

// Initialize 执行初始化
func (i *Initializer) Initialize(ctx context.Context) error {
	start := time.Now()
	i.logger.Info().Msg("[DB] 开始数据库初始化...")

	// 1. AutoMigrate
	i.logger.Info().Int("models", len(Models())).Msg("[DB] 1/2 AutoMigrate")
	if err := i.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("AutoMigrate 失败: %w", err)
	}

	// 2. 部分唯一索引
	i.logger.Info().Msg("[DB] 2/2 创建 ACTIVE 位置唯一索引")
	if err := i.db.WithContext(ctx).Exec(activePositionIndexSQL).Error; err != nil {
		// 历史数据存在冲突时索引无法建立，由巡检任务持续上报
		i.logger.Warn().Err(err).Msg("[DB] ACTIVE 位置唯一索引创建失败")
	}

	i.logger.Info().Dur("elapsed", time.Since(start)).Msg("[DB] 初始化完成")
	return nil
}

// Migrate 快速初始化
func Migrate(ctx context.Context, db *gorm.DB, logger zerolog.Logger) error {
	return NewInitializer(db, logger).Initialize(ctx)
}
