package dto

import (
	"testing"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNoteDTO(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n := &domain.Note{
		ID: "n1", Title: "t", Body: "b", CreatedAt: now, UpdatedAt: now,
		Versions: []domain.NoteVersion{{ID: "v1", TakenAt: now, Body: "b"}},
	}

	got := NewNoteDTO(n)
	require.NotNil(t, got)
	assert.Equal(t, "n1", got.ID)
	assert.Equal(t, []string{}, got.Tags)
	assert.Equal(t, 1, got.VersionCount)
	assert.Equal(t, now, got.UpdatedAt)
	assert.Nil(t, NewNoteDTO(nil))
}

func TestNoteUpdatePatch(t *testing.T) {
	title := "new"
	tags := " a, ,b "
	p := (&NoteUpdateRequest{Title: &title, Tags: &tags}).Patch()

	n := &domain.Note{Title: "old", Body: "keep", Tags: []string{"x"}}
	p.Apply(n)
	assert.Equal(t, "new", n.Title)
	assert.Equal(t, "keep", n.Body)
	assert.Equal(t, []string{"a", "b"}, n.Tags)

	empty := ""
	p = (&NoteUpdateRequest{Tags: &empty}).Patch()
	p.Apply(n)
	assert.Empty(t, n.Tags)
}

func TestNewCardDTOList(t *testing.T) {
	cards := []domain.Flashcard{
		{ID: "c1", Question: "Q", Answer: "A", NoteID: "n1"},
		{ID: "c2", Question: "Q2", Answer: "A2", RecordingID: "r1"},
	}
	got := NewCardDTOList(cards)
	require.Len(t, got, 2)
	assert.Equal(t, "n1", got[0].NoteID)
	assert.Equal(t, "r1", got[1].RecordingID)
	assert.Equal(t, "A2", got[1].Answer)

	assert.Empty(t, NewCardDTOList(nil))
}

func TestNewTimelineDTOList(t *testing.T) {
	when := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	got := NewTimelineDTOList([]domain.TimelineEntry{{ID: "e1", When: when, Label: "Review", Email: "x@y.z"}})
	require.Len(t, got, 1)
	assert.Equal(t, when, got[0].When)
	assert.Equal(t, "Review", got[0].Label)
}
