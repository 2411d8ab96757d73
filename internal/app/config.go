// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/backend"
	"github.com/haierkeys/preppal-study-sync/internal/dao"
	"github.com/haierkeys/preppal-study-sync/internal/service"
	"github.com/haierkeys/preppal-study-sync/pkg/convert"
	"github.com/haierkeys/preppal-study-sync/pkg/limiter"
	"github.com/haierkeys/preppal-study-sync/pkg/logger"
	"github.com/haierkeys/preppal-study-sync/pkg/mailer"
	"github.com/haierkeys/preppal-study-sync/pkg/util"
	"github.com/haierkeys/preppal-study-sync/pkg/workerpool"
	"github.com/haierkeys/preppal-study-sync/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File     string         `yaml:"-"` // 配置文件路径，不序列化
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	App      AppSettings    `yaml:"app"`
	Study    StudyConfig    `yaml:"study"`
	Backend  BackendConfig  `yaml:"backend"`
	Mail     MailConfig     `yaml:"mail"`
	Tracer   TracerConfig   `yaml:"tracer"`
	Limiter  LimiterConfig  `yaml:"limiter"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"warn"`
	// File 日志文件路径，为空时只输出到 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式 debug | release | test
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:":9100"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// PrivateHttpListen 私有 HTTP 监听地址（metrics / pprof），为空时不启动
	PrivateHttpListen string `yaml:"private-http-listen" default:"127.0.0.1:9101"`
	// WsMaxPayloadSize WebSocket 单条消息上限（字节）
	WsMaxPayloadSize int `yaml:"ws-max-payload-size" default:"65536"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type sqlite | sqlite-cgo | mysql | postgres
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite 数据库文件路径
	Path string `yaml:"path" default:"storage/database/preppal.sqlite3"`
	// UserName 用户名
	UserName string `yaml:"username"`
	// Password 密码
	Password string `yaml:"password"`
	// Host 主机
	Host string `yaml:"host"`
	// Name 数据库名
	Name string `yaml:"name"`
	// TablePrefix 表前缀
	TablePrefix string `yaml:"table-prefix" default:"pp_"`
	// AutoMigrate 是否启用自动迁移
	AutoMigrate bool `yaml:"auto-migrate" default:"true"`
	// Charset 字符集
	Charset string `yaml:"charset"`
	// ParseTime 是否解析时间
	ParseTime bool `yaml:"parse-time"`
	// MaxIdleConns 最大闲置连接数
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns 最大打开连接数
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
	// ConnMaxLifetime 连接最大生命周期，支持格式：30m、1h
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	// ConnMaxIdleTime 空闲连接最大生命周期
	ConnMaxIdleTime string `yaml:"conn-max-idle-time" default:"10m"`
}

// AppSettings 应用设置
type AppSettings struct {
	// DefaultContextTimeout 请求上下文超时（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`
	// UploadMaxSize 上传音频大小上限，支持 MB、KB、B 后缀
	UploadMaxSize string `yaml:"upload-max-size" default:"200MB"`
	// AutosaveDelay 编辑器自动保存防抖窗口
	AutosaveDelay string `yaml:"autosave-delay" default:"800ms"`
	// EditorIdleTimeout 空闲编辑器保存并关闭的时间
	EditorIdleTimeout string `yaml:"editor-idle-timeout" default:"30m"`
	// ReminderInterval 复习提醒任务的执行间隔
	ReminderInterval string `yaml:"reminder-interval" default:"30s"`
	// OrphanCleanupCron 孤儿卡片清理任务的 cron 表达式（分 时 日 月 周），为空则不启用
	OrphanCleanupCron string `yaml:"orphan-cleanup-cron" default:"0 4 * * *"`

	// Worker Pool 配置
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"16"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"256"`

	// Write Queue 配置
	WriteQueueCapacity int    `yaml:"write-queue-capacity" default:"100"`
	WriteQueueTimeout  string `yaml:"write-queue-timeout" default:"30s"`
	WriteQueueIdleTime string `yaml:"write-queue-idle-time" default:"10m"`
}

// StudyConfig 学习与复习排期配置
type StudyConfig struct {
	// SessionIdleTimeout 空闲学习会话的过期时间
	SessionIdleTimeout string `yaml:"session-idle-timeout" default:"2h"`
	// ReviewRatioShort 目标日期在 ShortGoalDays 以内时的复习间隔比例
	ReviewRatioShort float64 `yaml:"review-ratio-short" default:"0.2"`
	// ReviewRatioLong 其它情况的复习间隔比例
	ReviewRatioLong float64 `yaml:"review-ratio-long" default:"0.1"`
	// ShortGoalDays 天数阈值
	ShortGoalDays int `yaml:"short-goal-days" default:"30"`
	// DemoDelay 演示模式的复习延迟
	DemoDelay string `yaml:"demo-delay" default:"30s"`
}

// BackendConfig 录音/测验后端配置
type BackendConfig struct {
	// BaseURL 后端地址，为空时录音与测验接口返回未配置错误
	BaseURL string `yaml:"base-url"`
	// Timeout 单次请求超时
	Timeout string `yaml:"timeout" default:"60s"`
}

// MailConfig 复习提醒邮件配置，Host 为空时不发送
type MailConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port" default:"587"`
	UserName           string `yaml:"username"`
	Password           string `yaml:"password"`
	From               string `yaml:"from"`
	Subject            string `yaml:"subject" default:"PrepPal review reminder"`
	InsecureSkipVerify bool   `yaml:"insecure-skip-verify"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Enabled 是否启用追踪
	Enabled bool `yaml:"enabled" default:"true"`
	// Header 追踪 ID 请求头名称
	Header string `yaml:"header" default:"X-Trace-ID"`
}

// LimiterConfig 接口限流配置
type LimiterConfig struct {
	Rules []LimiterRule `yaml:"rules"`
}

// LimiterRule 单个路由的令牌桶
type LimiterRule struct {
	// Key 路由，如 /api/cards/rebuild/recordings
	Key string `yaml:"key"`
	// FillInterval 令牌填充间隔
	FillInterval string `yaml:"fill-interval" default:"1s"`
	// Capacity 桶容量
	Capacity int64 `yaml:"capacity" default:"10"`
	// Quantum 每次填充的令牌数
	Quantum int64 `yaml:"quantum" default:"1"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	if err := yaml.Unmarshal(file, c); err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，填充 YAML 中存在但值为空的字段（含 limiter 规则）
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	return c, realpath, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	if err := os.WriteFile(c.File, data, 0644); err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetLoggerConfig 获取日志配置
func (c *AppConfig) GetLoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		File:       c.Log.File,
		Production: c.Log.Production,
	}
}

// GetDatabaseConfig 获取 DAO 使用的数据库配置
func (c *AppConfig) GetDatabaseConfig() dao.DatabaseConfig {
	return dao.DatabaseConfig{
		Type:            c.Database.Type,
		Path:            c.Database.Path,
		UserName:        c.Database.UserName,
		Password:        c.Database.Password,
		Host:            c.Database.Host,
		Name:            c.Database.Name,
		TablePrefix:     c.Database.TablePrefix,
		Charset:         c.Database.Charset,
		ParseTime:       c.Database.ParseTime,
		MaxIdleConns:    c.Database.MaxIdleConns,
		MaxOpenConns:    c.Database.MaxOpenConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		ConnMaxIdleTime: c.Database.ConnMaxIdleTime,
		AutoMigrate:     c.Database.AutoMigrate,
		Debug:           c.Server.RunMode == "debug",
	}
}

// GetServiceConfig 从 AppConfig 提取 Service 层需要的配置
func (c *AppConfig) GetServiceConfig() *service.ServiceConfig {
	cfg := service.DefaultServiceConfig()

	cfg.Study.SessionIdleTimeout = util.DurationOr(c.Study.SessionIdleTimeout, cfg.Study.SessionIdleTimeout)
	cfg.Study.DemoDelay = util.DurationOr(c.Study.DemoDelay, cfg.Study.DemoDelay)
	if c.Study.ReviewRatioShort > 0 {
		cfg.Study.ReviewRatioShort = c.Study.ReviewRatioShort
	}
	if c.Study.ReviewRatioLong > 0 {
		cfg.Study.ReviewRatioLong = c.Study.ReviewRatioLong
	}
	if c.Study.ShortGoalDays > 0 {
		cfg.Study.ShortGoalDays = c.Study.ShortGoalDays
	}

	cfg.Editor.AutosaveDelay = util.DurationOr(c.App.AutosaveDelay, cfg.Editor.AutosaveDelay)
	cfg.Editor.IdleTimeout = util.DurationOr(c.App.EditorIdleTimeout, cfg.Editor.IdleTimeout)

	return cfg
}

// GetBackendConfig 获取后端客户端配置
func (c *AppConfig) GetBackendConfig() backend.Config {
	return backend.Config{
		BaseURL: c.Backend.BaseURL,
		Timeout: util.DurationOr(c.Backend.Timeout, 60*time.Second),
	}
}

// GetMailerConfig 获取邮件配置
func (c *AppConfig) GetMailerConfig() mailer.Config {
	return mailer.Config{
		Host:               c.Mail.Host,
		Port:               c.Mail.Port,
		UserName:           c.Mail.UserName,
		Password:           c.Mail.Password,
		From:               c.Mail.From,
		InsecureSkipVerify: c.Mail.InsecureSkipVerify,
	}
}

// GetLimiterRules 获取限流规则，间隔无法解析的规则被忽略
func (c *AppConfig) GetLimiterRules() []limiter.BucketRule {
	rules := make([]limiter.BucketRule, 0, len(c.Limiter.Rules))
	for _, r := range c.Limiter.Rules {
		interval, err := util.ParseDuration(r.FillInterval)
		if err != nil || r.Key == "" {
			continue
		}
		rules = append(rules, limiter.BucketRule{
			Key:          r.Key,
			FillInterval: interval,
			Capacity:     r.Capacity,
			Quantum:      r.Quantum,
		})
	}
	return rules
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()

	if c.App.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.App.WorkerPoolMaxWorkers
	}
	if c.App.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.App.WorkerPoolQueueSize
	}

	return cfg
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()

	if c.App.WriteQueueCapacity > 0 {
		cfg.QueueCapacity = c.App.WriteQueueCapacity
	}
	cfg.WriteTimeout = util.DurationOr(c.App.WriteQueueTimeout, cfg.WriteTimeout)
	cfg.IdleTimeout = util.DurationOr(c.App.WriteQueueIdleTime, cfg.IdleTimeout)

	return cfg
}

// GetUploadMaxSize 上传音频大小上限（字节）
func (c *AppConfig) GetUploadMaxSize() int64 {
	return convert.StrTo(c.App.UploadMaxSize).MustToSize(200 << 20)
}

// GetReminderInterval 复习提醒任务间隔
func (c *AppConfig) GetReminderInterval() time.Duration {
	return util.DurationOr(c.App.ReminderInterval, 30*time.Second)
}

// GetOrphanCleanupSchedule 解析孤儿卡片清理的 cron 表达式，未配置时返回 nil
func (c *AppConfig) GetOrphanCleanupSchedule() (cron.Schedule, error) {
	spec := strings.TrimSpace(c.App.OrphanCleanupCron)
	if spec == "" {
		return nil, nil
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid orphan-cleanup-cron %q", spec)
	}
	return schedule, nil
}
