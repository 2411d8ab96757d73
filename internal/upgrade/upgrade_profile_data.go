package upgrade

import (
	"context"

	"github.com/haierkeys/preppal-study-sync/internal/domain"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// eachProfileKey 对每个档案中存在的 key 执行 fn，fn 返回新值与是否需要写回
func eachProfileKey(ctx context.Context, repo domain.KVRepository, key string, fn func(raw string) (string, bool, error)) error {
	profiles, err := repo.Profiles(ctx)
	if err != nil {
		return err
	}
	for _, p := range profiles {
		raw, ok, err := repo.Get(ctx, p, key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		next, changed, err := fn(raw)
		if err != nil {
			// 无法解析的旧值保持原样，读取时按缺省值处理
			continue
		}
		if !changed {
			continue
		}
		if err := repo.Set(ctx, p, key, next); err != nil {
			return errors.Wrapf(err, "rewrite %s/%s", p, key)
		}
	}
	return nil
}

// NoteTimestampMigrate 旧笔记缺少 updatedAt 时补为 createdAt
type NoteTimestampMigrate struct{}

func (m *NoteTimestampMigrate) Version() string { return "1.1.0" }

func (m *NoteTimestampMigrate) Description() string {
	return "backfill note updatedAt from createdAt"
}

func (m *NoteTimestampMigrate) Up(ctx context.Context, repo domain.KVRepository) error {
	return eachProfileKey(ctx, repo, domain.KeyNotes, func(raw string) (string, bool, error) {
		var notes []domain.Note
		if err := sonic.UnmarshalString(raw, &notes); err != nil {
			return "", false, err
		}
		changed := false
		for i := range notes {
			if notes[i].UpdatedAt.IsZero() && !notes[i].CreatedAt.IsZero() {
				notes[i].UpdatedAt = notes[i].CreatedAt
				changed = true
			}
		}
		if !changed {
			return "", false, nil
		}
		out, err := sonic.MarshalString(notes)
		return out, err == nil, err
	})
}

// StatsNormalizeMigrate 按计数重写统计的总数与正确率
type StatsNormalizeMigrate struct{}

func (m *StatsNormalizeMigrate) Version() string { return "1.2.0" }

func (m *StatsNormalizeMigrate) Description() string {
	return "recompute stored study stats totals and accuracy"
}

func (m *StatsNormalizeMigrate) Up(ctx context.Context, repo domain.KVRepository) error {
	return eachProfileKey(ctx, repo, domain.KeyStats, func(raw string) (string, bool, error) {
		var st domain.StudyStats
		if err := sonic.UnmarshalString(raw, &st); err != nil {
			return "", false, err
		}
		fixed := st.Normalize()
		if fixed == st {
			return "", false, nil
		}
		out, err := sonic.MarshalString(fixed)
		return out, err == nil, err
	})
}
