package model

import (
	"time"
)

// BaseModel 公共字段
// 计时器与店铺均为硬删除，因此不带 DeletedAt
type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
