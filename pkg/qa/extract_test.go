package qa

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestExtractPairs(t *testing.T) {
	got := Extract("質問：Pとは何か？\n回答：確率変数。\n質問：Qとは\n回答：累積分布。")

	assert.Equal(t, []Pair{
		{Question: "Pとは何か？", Answer: "確率変数。"},
		{Question: "Qとは", Answer: "累積分布。"},
	}, got)
}

func TestExtractOrphanAnswer(t *testing.T) {
	got := Extract("回答：これは答えのみ。")

	assert.Equal(t, []Pair{{Question: QuestionPlaceholder, Answer: "これは答えのみ。"}}, got)
}

func TestExtractEmpty(t *testing.T) {
	assert.Empty(t, Extract(""))
	assert.Empty(t, Extract(" \r\n\t "))
	assert.Empty(t, Extract("just some prose\nwith no markers"))
}

func TestExtractMissingAnswer(t *testing.T) {
	got := Extract("Q: what is entropy?\nsome filler")

	assert.Equal(t, []Pair{{Question: "what is entropy?", Answer: AnswerPlaceholder}}, got)
}

func TestExtractLatinMarkersCaseInsensitive(t *testing.T) {
	got := Extract("q: one\r\na: uno\r\nQ：two\r\nA ： dos")

	assert.Equal(t, []Pair{
		{Question: "one", Answer: "uno"},
		{Question: "two", Answer: "dos"},
	}, got)
}

func TestExtractSynonymPrefixes(t *testing.T) {
	got := Extract("設問：微分とは\n解答：変化率")

	assert.Equal(t, []Pair{{Question: "微分とは", Answer: "変化率"}}, got)
}

func TestExtractLaterAnswerOverwrites(t *testing.T) {
	got := Extract("Q: a\nA: first\nA: second")

	assert.Equal(t, []Pair{{Question: "a", Answer: "second"}}, got)
}

func TestExtractNarrowsToReviewSection(t *testing.T) {
	text := strings.Join([]string{
		"見出し：講義メモ",
		"Q: outside before",
		"A: ignored",
		"復習用Q&A",
		"Q: inside",
		"A: kept",
		"要点：まとめ",
		"Q: outside after",
		"A: ignored too",
	}, "\n")

	assert.Equal(t, []Pair{{Question: "inside", Answer: "kept"}}, Extract(text))
}

func TestExtractReviewSectionToEnd(t *testing.T) {
	text := "前置き\n復習用Q&A\n質問：X\n回答：Y"

	assert.Equal(t, []Pair{{Question: "X", Answer: "Y"}}, Extract(text))
}

func TestExtractIdeographicSpace(t *testing.T) {
	got := Extract("質問　：　空白\n回答：あり")

	assert.Equal(t, []Pair{{Question: "空白", Answer: "あり"}}, got)
}

func TestExtractProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	line := gen.OneGenOf(
		gen.AlphaString().Map(func(s string) string { return "Q: " + s }),
		gen.AlphaString().Map(func(s string) string { return "A: " + s }),
		gen.AlphaString(),
	)

	properties.Property("deterministic and never yields empty sides", prop.ForAll(
		func(lines []string) bool {
			text := strings.Join(lines, "\n")
			first := Extract(text)
			second := Extract(text)
			if len(first) != len(second) {
				return false
			}
			for i := range first {
				if first[i] != second[i] || first[i].Question == "" || first[i].Answer == "" {
					return false
				}
			}
			return true
		},
		gen.SliceOf(line),
	))

	properties.Property("no more pairs than marker lines", prop.ForAll(
		func(lines []string) bool {
			markers := 0
			for _, l := range lines {
				if questionPattern.MatchString(strings.TrimSpace(l)) || answerPattern.MatchString(strings.TrimSpace(l)) {
					markers++
				}
			}
			return len(Extract(strings.Join(lines, "\n"))) <= markers
		},
		gen.SliceOf(line),
	))

	properties.TestingRun(t)
}
