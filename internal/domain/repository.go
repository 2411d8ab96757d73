package domain

import "context"

// 本地存储使用的键
const (
	KeyNotes    = "notes"
	KeyCards    = "cards"
	KeyTimeline = "timeline"
	KeyStats    = "quiz:stats"
	KeyEmail    = "profile:email"
)

// KVRepository 按档案划分的键值存储，值为完整的 JSON 文本
type KVRepository interface {
	// Get 读取键值，found 为 false 表示从未写入
	Get(ctx context.Context, profile, key string) (value string, found bool, err error)

	// Set 覆盖写入键值
	Set(ctx context.Context, profile, key, value string) error

	// Delete 删除键值，不存在时不报错
	Delete(ctx context.Context, profile, key string) error

	// Profiles 返回存在数据的所有档案
	Profiles(ctx context.Context) ([]string, error)
}
