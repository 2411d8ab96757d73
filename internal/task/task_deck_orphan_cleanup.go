package task

import (
	"context"

	"github.com/haierkeys/preppal-study-sync/internal/app"
	"github.com/haierkeys/preppal-study-sync/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func init() {
	Register(NewDeckOrphanCleanupTask)
}

// DeckOrphanCleanupTask 删除所属笔记已不存在的笔记卡片
type DeckOrphanCleanupTask struct {
	app      *app.App
	schedule cron.Schedule
}

// NewDeckOrphanCleanupTask 按配置的 cron 表达式创建清理任务，未配置时不启用
func NewDeckOrphanCleanupTask(a *app.App) (Task, error) {
	schedule, err := a.Config().GetOrphanCleanupSchedule()
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, nil
	}
	return &DeckOrphanCleanupTask{app: a, schedule: schedule}, nil
}

// Name 返回任务名称
func (t *DeckOrphanCleanupTask) Name() string {
	return "DeckOrphanCleanup"
}

// Schedule 返回执行计划
func (t *DeckOrphanCleanupTask) Schedule() cron.Schedule {
	return t.schedule
}

// IsStartupRun 启动时执行一次
func (t *DeckOrphanCleanupTask) IsStartupRun() bool {
	return true
}

// Run 逐个档案清理
func (t *DeckOrphanCleanupTask) Run(ctx context.Context) error {
	profiles, err := t.app.Store.Profiles(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, profile := range profiles {
		removed, err := t.app.DeckService.CleanupOrphans(ctx, profile)
		if err != nil {
			errs = append(errs, err)
			t.app.Logger().Error("task log",
				zap.String(logger.FieldTask, t.Name()),
				zap.String(logger.FieldProfile, profile),
				zap.Error(err))
			continue
		}
		if removed > 0 {
			t.app.Logger().Info("task log",
				zap.String(logger.FieldTask, t.Name()),
				zap.String(logger.FieldProfile, profile),
				zap.Int("removed", removed))
		}
	}

	if len(errs) > 0 {
		return errs[0] // 返回第一个错误
	}
	return nil
}
