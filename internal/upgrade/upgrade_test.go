package upgrade

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/dao"
	"github.com/haierkeys/preppal-study-sync/internal/domain"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) (*gorm.DB, domain.KVRepository) {
	t.Helper()
	db, err := dao.NewDBEngine(dao.DatabaseConfig{
		Type:         "sqlite",
		Path:         fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	require.NoError(t, err)
	d := dao.New(db)
	t.Cleanup(func() { _ = d.Close() })
	return db, dao.NewKVRepository(d)
}

type recordMigrate struct {
	version string
	ran     *[]string
	err     error
}

func (m *recordMigrate) Version() string     { return m.version }
func (m *recordMigrate) Description() string { return "record " + m.version }
func (m *recordMigrate) Up(ctx context.Context, repo domain.KVRepository) error {
	*m.ran = append(*m.ran, m.version)
	if err := repo.Set(ctx, "p", "ran:"+m.version, "1"); err != nil {
		return err
	}
	return m.err
}

func TestRunOrdersAndSkipsApplied(t *testing.T) {
	ctx := context.Background()
	db, repo := newTestDB(t)

	var ran []string
	mgr := NewMigrationManager(db, zap.NewNop(),
		&recordMigrate{version: "1.10.0", ran: &ran},
		&recordMigrate{version: "v1.2.0", ran: &ran},
		&recordMigrate{version: "1.9.1", ran: &ran},
	)
	n, err := mgr.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"v1.2.0", "1.9.1", "1.10.0"}, ran)

	n, err = mgr.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, ran, 3)

	_, found, err := repo.Get(ctx, "p", "ran:1.9.1")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestRunRollsBackFailedMigration(t *testing.T) {
	ctx := context.Background()
	db, repo := newTestDB(t)

	var ran []string
	_, err := NewMigrationManager(db, zap.NewNop(),
		&recordMigrate{version: "2.0.0", ran: &ran, err: errors.New("boom")},
	).Run(ctx)
	require.Error(t, err)

	_, found, err := repo.Get(ctx, "p", "ran:2.0.0")
	require.NoError(t, err)
	assert.False(t, found)

	var count int64
	require.NoError(t, db.Model(&SchemaVersion{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRunRejectsInvalidVersion(t *testing.T) {
	db, _ := newTestDB(t)
	var ran []string
	_, err := NewMigrationManager(db, zap.NewNop(), &recordMigrate{version: "latest", ran: &ran}).Run(context.Background())
	assert.Error(t, err)
	assert.Empty(t, ran)
}

func TestBuiltinMigrationsRepairProfileData(t *testing.T) {
	ctx := context.Background()
	db, repo := newTestDB(t)

	require.NoError(t, repo.Set(ctx, "alice", domain.KeyNotes,
		`[{"id":"n1","title":"old","created_at":"2024-05-01T10:00:00Z"},{"id":"n2","title":"new","created_at":"2024-05-01T10:00:00Z","updated_at":"2024-06-01T10:00:00Z"}]`))
	require.NoError(t, repo.Set(ctx, "alice", domain.KeyStats, `{"correct":3,"incorrect":-2,"totalAnswered":9,"accuracy":33}`))
	require.NoError(t, repo.Set(ctx, "bob", domain.KeyNotes, `not json`))

	require.NoError(t, Execute(ctx, db, nil))

	raw, _, err := repo.Get(ctx, "alice", domain.KeyNotes)
	require.NoError(t, err)
	var notes []domain.Note
	require.NoError(t, sonic.UnmarshalString(raw, &notes))
	require.Len(t, notes, 2)
	assert.Equal(t, notes[0].CreatedAt, notes[0].UpdatedAt)
	assert.Equal(t, time.June, notes[1].UpdatedAt.Month())

	raw, _, err = repo.Get(ctx, "alice", domain.KeyStats)
	require.NoError(t, err)
	var st domain.StudyStats
	require.NoError(t, sonic.UnmarshalString(raw, &st))
	assert.Equal(t, domain.StudyStats{Correct: 3, Incorrect: 0, TotalAnswered: 3, Accuracy: 100}, st)

	raw, _, err = repo.Get(ctx, "bob", domain.KeyNotes)
	require.NoError(t, err)
	assert.Equal(t, "not json", raw)
}
