package service

import (
	"context"
	"testing"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestEditors(t *testing.T, delay time.Duration) (*testServices, EditorService) {
	t.Helper()
	ts := newTestServices(t)
	ts.config.Editor.AutosaveDelay = delay
	svc := NewEditorService(ts.notes, ts.config, nil)
	t.Cleanup(func() { svc.Shutdown(context.Background()) })
	return ts, svc
}

func TestEditorDebounceCoalescesChanges(t *testing.T) {
	ts, svc := newTestEditors(t, 50*time.Millisecond)
	ctx := context.Background()

	st, err := svc.Open(ctx, "default", "")
	require.NoError(t, err)
	for _, body := range []string{"a", "ab", "abc"} {
		_, err = svc.Change(ctx, "default", st.ID, domain.NoteDraft{Title: "t", Body: body})
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		list, _ := ts.notes.List(ctx, "default", "")
		return len(list) == 1 && list[0].Body == "abc"
	}, 2*time.Second, 10*time.Millisecond)

	list, err := ts.notes.List(ctx, "default", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Versions, 1)
}

func TestEditorSilentSkipsEmptyDraft(t *testing.T) {
	ts, svc := newTestEditors(t, 10*time.Millisecond)
	ctx := context.Background()

	st, err := svc.Open(ctx, "default", "")
	require.NoError(t, err)
	_, err = svc.Change(ctx, "default", st.ID, domain.NoteDraft{Title: " ", Body: ""})
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	list, err := ts.notes.List(ctx, "default", "")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Save(ctx, "default", st.ID)
	assert.ErrorIs(t, err, code.ErrorNoteEmpty)
}

func TestEditorSaveThenUpdatesSameNote(t *testing.T) {
	ts, svc := newTestEditors(t, time.Hour)
	ctx := context.Background()

	st, err := svc.Open(ctx, "default", "")
	require.NoError(t, err)
	_, err = svc.Change(ctx, "default", st.ID, domain.NoteDraft{Title: "t", Body: "one"})
	require.NoError(t, err)
	n, err := svc.Save(ctx, "default", st.ID)
	require.NoError(t, err)

	_, err = svc.Change(ctx, "default", st.ID, domain.NoteDraft{Title: "t", Body: "two"})
	require.NoError(t, err)
	closed, err := svc.Close(ctx, "default", st.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, closed.NoteID)
	assert.False(t, closed.Dirty)

	got, err := ts.notes.Get(ctx, "default", n.ID)
	require.NoError(t, err)
	assert.Equal(t, "two", got.Body)

	_, err = svc.Change(ctx, "default", st.ID, domain.NoteDraft{Body: "x"})
	assert.ErrorIs(t, err, code.ErrorEditorNotFound)
}

func TestEditorOpenExistingNote(t *testing.T) {
	ts, svc := newTestEditors(t, time.Hour)
	ctx := context.Background()

	n, err := ts.notes.Create(ctx, "default", domain.NoteDraft{Title: "t", Body: "b"})
	require.NoError(t, err)

	st, err := svc.Open(ctx, "default", n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, st.NoteID)
	assert.False(t, st.Dirty)

	_, err = svc.Open(ctx, "default", "missing")
	assert.ErrorIs(t, err, code.ErrorNoteNotFound)

	// 其他档案看不到该编辑器
	_, err = svc.Save(ctx, "other", st.ID)
	assert.ErrorIs(t, err, code.ErrorEditorNotFound)
}

func TestEditorShutdownFlushes(t *testing.T) {
	ignore := goleak.IgnoreCurrent()
	t.Cleanup(func() {
		goleak.VerifyNone(t, ignore, goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"))
	})

	ts := newTestServices(t)
	ts.config.Editor.AutosaveDelay = time.Hour
	svc := NewEditorService(ts.notes, ts.config, nil)
	ctx := context.Background()

	st, err := svc.Open(ctx, "default", "")
	require.NoError(t, err)
	_, err = svc.Change(ctx, "default", st.ID, domain.NoteDraft{Title: "pending", Body: "x"})
	require.NoError(t, err)

	svc.Shutdown(ctx)

	list, err := ts.notes.List(ctx, "default", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "pending", list[0].Title)
}

func TestEditorMergesConcurrentUpdate(t *testing.T) {
	ts, svc := newTestEditors(t, time.Hour)
	ctx := context.Background()

	base := "質問：Aとは\n回答：一\n\n質問：Bとは\n回答：二"
	n, err := ts.notes.Create(ctx, "default", domain.NoteDraft{Title: "t", Body: base})
	require.NoError(t, err)

	st, err := svc.Open(ctx, "default", n.ID)
	require.NoError(t, err)

	// 编辑期间笔记被 API 修改
	elsewhere := "質問：Aとは\n回答：一\n\n質問：Bとは\n回答：二つ目"
	_, err = ts.notes.Update(ctx, "default", n.ID, domain.NotePatch{Body: &elsewhere})
	require.NoError(t, err)

	_, err = svc.Change(ctx, "default", st.ID, domain.NoteDraft{Title: "t", Body: "質問：Aとは何か\n回答：一\n\n質問：Bとは\n回答：二"})
	require.NoError(t, err)
	saved, err := svc.Save(ctx, "default", st.ID)
	require.NoError(t, err)
	assert.Equal(t, "質問：Aとは何か\n回答：一\n\n質問：Bとは\n回答：二つ目", saved.Body)
}
