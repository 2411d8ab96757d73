// Package model 定义数据模型
package model

import (
	"time"

	"gorm.io/gorm"
)

// KVEntry 档案键值表，一行保存一个键的完整 JSON 值
type KVEntry struct {
	Profile   string    `gorm:"column:profile;primaryKey;size:128" json:"profile"`
	Key       string    `gorm:"column:key;primaryKey;size:128" json:"key"`
	Value     string    `gorm:"column:value;type:text" json:"value"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// AutoMigrate 同步表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&KVEntry{})
}
