package dao

import (
	"context"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/internal/model"
	"github.com/haierkeys/preppal-study-sync/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// kvRepository 实现 domain.KVRepository 接口
type kvRepository struct {
	dao *Dao
}

// NewKVRepository 创建 KVRepository 实例
func NewKVRepository(dao *Dao) domain.KVRepository {
	return &kvRepository{dao: dao}
}

func (r *kvRepository) table(ctx context.Context) *gorm.DB {
	return r.dao.DB().WithContext(ctx).Model(&model.KVEntry{})
}

// Get 读取键值
func (r *kvRepository) Get(ctx context.Context, profile, key string) (string, bool, error) {
	var m model.KVEntry
	err := r.table(ctx).Where(&model.KVEntry{Profile: profile, Key: key}).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "get %s/%s", profile, key)
	}
	return m.Value, true, nil
}

// Set 覆盖写入，已存在时更新 value 与 updated_at
func (r *kvRepository) Set(ctx context.Context, profile, key, value string) error {
	m := &model.KVEntry{Profile: profile, Key: key, Value: value, UpdatedAt: time.Now()}
	err := r.dao.DB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		r.dao.Logger().Warn("kv set failed",
			zap.String(logger.FieldProfile, profile),
			zap.String(logger.FieldKey, key),
			zap.String(logger.FieldMethod, "kvRepository.Set"),
			zap.Error(err),
		)
		return errors.Wrapf(err, "set %s/%s", profile, key)
	}
	return nil
}

// Delete 删除键值
func (r *kvRepository) Delete(ctx context.Context, profile, key string) error {
	err := r.dao.DB().WithContext(ctx).
		Where(&model.KVEntry{Profile: profile, Key: key}).
		Delete(&model.KVEntry{}).Error
	return errors.Wrapf(err, "delete %s/%s", profile, key)
}

// Profiles 列出所有有数据的档案
func (r *kvRepository) Profiles(ctx context.Context) ([]string, error) {
	var profiles []string
	err := r.table(ctx).Distinct("profile").Order("profile").Pluck("profile", &profiles).Error
	if err != nil {
		return nil, errors.Wrap(err, "list profiles")
	}
	return profiles, nil
}
