package diff

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestMergeTextsShortcuts(t *testing.T) {
	assert.Equal(t, MergeResult{Content: "mine"}, MergeTexts("base", "mine", "base"))
	assert.Equal(t, MergeResult{Content: "theirs"}, MergeTexts("base", "base", "theirs"))
	assert.Equal(t, MergeResult{Content: "same"}, MergeTexts("base", "same", "same"))
}

func TestMergeTextsDisjointEdits(t *testing.T) {
	base := "質問：Pとは\n回答：確率\n\n質問：Qとは\n回答：分布"
	ours := "質問：Pとは何か\n回答：確率\n\n質問：Qとは\n回答：分布"
	theirs := "質問：Pとは\n回答：確率\n\n質問：Qとは\n回答：累積分布"

	got := MergeTexts(base, ours, theirs)
	assert.False(t, got.HasConflict)
	assert.Equal(t, "質問：Pとは何か\n回答：確率\n\n質問：Qとは\n回答：累積分布", got.Content)
}

func TestMergeTextsConflictKeepsOurs(t *testing.T) {
	base := strings.Repeat("abc ", 20)
	got := MergeTexts(base, "zzzz", base+"tail")
	assert.True(t, got.HasConflict)
	assert.Equal(t, "zzzz", got.Content)
}

// 头尾两端的独立修改都应保留
func TestMergeTextsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("prefix and suffix edits both survive", prop.ForAll(
		func(mid string) bool {
			base := "alpha beta gamma\n" + mid + "\nomega psi chi"
			ours := "HEAD " + base
			theirs := base + " TAIL"
			got := MergeTexts(base, ours, theirs)
			return !got.HasConflict && got.Content == "HEAD "+base+" TAIL"
		},
		gen.AlphaString(),
	))

	properties.Property("unchanged side yields the other", prop.ForAll(
		func(base, other string) bool {
			return MergeTexts(base, other, base).Content == other &&
				MergeTexts(base, base, other).Content == other
		},
		gen.AlphaString(), gen.AlphaString(),
	))

	properties.TestingRun(t)
}
