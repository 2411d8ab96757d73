package service

import (
	"context"
	"errors"

	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/pkg/code"
	"github.com/haierkeys/preppal-study-sync/pkg/logger"
	"github.com/haierkeys/preppal-study-sync/pkg/writequeue"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Store 档案键值存储：整值读写，读失败回退到默认值，
// 同一档案的读-改-写经写队列串行执行
type Store struct {
	repo   domain.KVRepository
	wq     *writequeue.Manager
	logger *zap.Logger
}

// NewStore 创建 Store
func NewStore(repo domain.KVRepository, wq *writequeue.Manager, lg *zap.Logger) *Store {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Store{repo: repo, wq: wq, logger: lg}
}

// Mutate 在档案写队列中执行 fn；fn 内只能使用 loadJSON/saveJSON，不能再次调用 Mutate
func (s *Store) Mutate(ctx context.Context, profile string, fn func(ctx context.Context) error) error {
	if s.wq == nil {
		return fn(ctx)
	}
	err := s.wq.Execute(ctx, profile, func() error { return fn(ctx) })
	switch {
	case errors.Is(err, writequeue.ErrWriteQueueFull),
		errors.Is(err, writequeue.ErrWriteQueueClosed),
		errors.Is(err, writequeue.ErrWriteTimeout):
		return code.ErrorStorage.WithDetails(err.Error())
	}
	return err
}

// loadJSON 读取并解码，缺失或损坏时返回 fallback
func loadJSON[T any](ctx context.Context, s *Store, profile, key string, fallback T) T {
	v, err := loadJSONStrict(ctx, s, profile, key, fallback)
	if err != nil {
		s.logger.Warn("kv read failed, using fallback",
			zap.String(logger.FieldProfile, profile),
			zap.String(logger.FieldKey, key),
			zap.Error(err),
		)
		return fallback
	}
	return v
}

// loadJSONStrict 缺失或损坏时返回 fallback，读失败时返回错误。
// 读-改-写路径用它，避免把默认值写回覆盖已有数据
func loadJSONStrict[T any](ctx context.Context, s *Store, profile, key string, fallback T) (T, error) {
	raw, found, err := s.repo.Get(ctx, profile, key)
	if err != nil {
		return fallback, code.ErrorStorage.WithDetails(err.Error())
	}
	if !found {
		return fallback, nil
	}
	var v T
	if err := sonic.UnmarshalString(raw, &v); err != nil {
		s.logger.Warn("kv value corrupt, using fallback",
			zap.String(logger.FieldProfile, profile),
			zap.String(logger.FieldKey, key),
			zap.Error(err),
		)
		return fallback, nil
	}
	return v, nil
}

// saveJSON 编码并覆盖写入
func saveJSON[T any](ctx context.Context, s *Store, profile, key string, v T) error {
	raw, err := sonic.MarshalString(v)
	if err != nil {
		return code.ErrorStorage.WithDetails(err.Error())
	}
	if err := s.repo.Set(ctx, profile, key, raw); err != nil {
		return code.ErrorStorage.WithDetails(err.Error())
	}
	return nil
}

// Get 读取任意键，供调试与导出使用
func Get[T any](ctx context.Context, s *Store, profile, key string, fallback T) T {
	return loadJSON(ctx, s, profile, key, fallback)
}

// Set 覆盖写入任意键
func Set[T any](ctx context.Context, s *Store, profile, key string, v T) error {
	return s.Mutate(ctx, profile, func(ctx context.Context) error {
		return saveJSON(ctx, s, profile, key, v)
	})
}

// Profiles 列出所有档案
func (s *Store) Profiles(ctx context.Context) ([]string, error) {
	profiles, err := s.repo.Profiles(ctx)
	if err != nil {
		return nil, code.ErrorStorage.WithDetails(err.Error())
	}
	return profiles, nil
}
