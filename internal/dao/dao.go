// Package dao 实现数据访问层
package dao

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/model"
	"github.com/haierkeys/preppal-study-sync/pkg/util"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	cgosqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// DatabaseConfig 数据库连接配置
type DatabaseConfig struct {
	// Type sqlite | sqlite-cgo | mysql | postgres
	Type            string
	Path            string
	UserName        string
	Password        string
	Host            string
	Name            string
	TablePrefix     string
	Charset         string
	ParseTime       bool
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime string
	ConnMaxIdleTime string
	AutoMigrate     bool
	// Debug 输出 SQL 日志
	Debug bool
}

// Dao 持有数据库连接
type Dao struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Option Dao 可选项
type Option func(*Dao)

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(d *Dao) {
		d.logger = l
	}
}

// New 创建 Dao
func New(db *gorm.DB, opts ...Option) *Dao {
	d := &Dao{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DB 返回底层连接
func (d *Dao) DB() *gorm.DB {
	return d.db
}

// Logger 返回日志器
func (d *Dao) Logger() *zap.Logger {
	return d.logger
}

// Close 关闭连接池
func (d *Dao) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewDBEngine 根据配置打开数据库并设置连接池
func NewDBEngine(c DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(c)
	if err != nil {
		return nil, err
	}

	logMode := logger.Silent
	if c.Debug {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix, // 表名前缀，`KVEntry` 的表名为 `pp_kv_entry`
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database failed", c.Type)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(util.DurationOr(c.ConnMaxLifetime, 30*time.Minute))
	sqlDB.SetConnMaxIdleTime(util.DurationOr(c.ConnMaxIdleTime, 10*time.Minute))

	if c.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			return nil, errors.Wrap(err, "auto migrate failed")
		}
	}
	return db, nil
}

func dialectorFor(c DatabaseConfig) (gorm.Dialector, error) {
	switch c.Type {
	case "", "sqlite":
		if err := ensureDir(c.Path); err != nil {
			return nil, err
		}
		return sqlite.Open(c.Path), nil
	case "sqlite-cgo":
		if err := ensureDir(c.Path); err != nil {
			return nil, err
		}
		return cgosqlite.Open(c.Path), nil
	case "mysql":
		charset := c.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=Local",
			c.UserName, c.Password, c.Host, c.Name, charset, c.ParseTime,
		)), nil
	case "postgres":
		host, port, err := net.SplitHostPort(c.Host)
		if err != nil {
			host, port = c.Host, "5432"
		}
		return postgres.Open(fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, c.UserName, c.Password, c.Name,
		)), nil
	}
	return nil, errors.Errorf("unsupported database type %q", c.Type)
}

// ensureDir 为 SQLite 文件创建父目录，内存库跳过
func ensureDir(path string) error {
	if path == "" || strings.HasPrefix(path, "file:") || strings.Contains(path, ":memory:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), os.ModePerm)
}
