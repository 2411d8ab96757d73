// Package upgrade 按版本执行档案数据的升级脚本
package upgrade

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/dao"
	"github.com/haierkeys/preppal-study-sync/internal/domain"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/mod/semver"
	"gorm.io/gorm"
)

// SchemaVersion 已执行升级脚本的记录表
type SchemaVersion struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Version     string    `gorm:"not null;uniqueIndex;type:varchar(64)" json:"version"`
	Description string    `gorm:"type:text" json:"description"`
	AppliedAt   time.Time `gorm:"not null" json:"applied_at"`
}

// TableName 指定表名
func (SchemaVersion) TableName() string {
	return "schema_version"
}

// Migration 升级脚本接口
type Migration interface {
	Version() string
	Description() string
	// Up 在事务内执行，repo 绑定到同一事务
	Up(ctx context.Context, repo domain.KVRepository) error
}

// MigrationManager 升级管理器
type MigrationManager struct {
	db         *gorm.DB
	logger     *zap.Logger
	migrations []Migration
}

// NewMigrationManager 创建升级管理器，未传入脚本时使用内置脚本
func NewMigrationManager(db *gorm.DB, logger *zap.Logger, migrations ...Migration) *MigrationManager {
	if len(migrations) == 0 {
		migrations = []Migration{
			&NoteTimestampMigrate{},
			&StatsNormalizeMigrate{},
		}
	}
	return &MigrationManager{db: db, logger: logger, migrations: migrations}
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Run 按版本从低到高执行未执行过的脚本，返回本次执行的数量
func (m *MigrationManager) Run(ctx context.Context) (int, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaVersion{}); err != nil {
		return 0, errors.Wrap(err, "failed to create schema_version table")
	}

	applied, err := m.getAppliedVersions(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get applied versions")
	}

	pending := make([]Migration, 0, len(m.migrations))
	for _, mg := range m.migrations {
		v := canonical(mg.Version())
		if !semver.IsValid(v) {
			return 0, errors.Errorf("invalid migration version %q", mg.Version())
		}
		if applied[v] {
			continue
		}
		pending = append(pending, mg)
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return semver.Compare(canonical(pending[i].Version()), canonical(pending[j].Version())) < 0
	})

	for _, mg := range pending {
		m.logger.Info("applying migration",
			zap.String("scriptVersion", mg.Version()),
			zap.String("desc", mg.Description()))

		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repo := dao.NewKVRepository(dao.New(tx, dao.WithLogger(m.logger)))
			if err := mg.Up(ctx, repo); err != nil {
				return errors.Wrap(err, "migration failed")
			}
			record := &SchemaVersion{
				Version:     canonical(mg.Version()),
				Description: mg.Description(),
				AppliedAt:   time.Now(),
			}
			return errors.Wrap(tx.Create(record).Error, "failed to record version")
		})
		if err != nil {
			return 0, errors.Wrapf(err, "failed to apply migration %s", mg.Version())
		}
		m.logger.Info("migration applied successfully", zap.String("scriptVersion", mg.Version()))
	}

	if len(pending) == 0 {
		m.logger.Debug("database is already up to date")
	} else {
		m.logger.Info("upgrade completed", zap.Int("migrations_applied", len(pending)))
	}
	return len(pending), nil
}

func (m *MigrationManager) getAppliedVersions(ctx context.Context) (map[string]bool, error) {
	var versions []SchemaVersion
	if err := m.db.WithContext(ctx).Find(&versions).Error; err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[canonical(v.Version)] = true
	}
	return applied, nil
}

// Execute 执行内置升级脚本(便捷方法)
func Execute(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	if db == nil {
		return errors.New("database not initialized")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	_, err := NewMigrationManager(db, logger).Run(ctx)
	return err
}
