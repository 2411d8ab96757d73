package qa

import (
	"regexp"
	"strings"
)

// SectionMarker narrows extraction to the review section when present
// SectionMarker 出现时仅在复习区段内抽取
const SectionMarker = "復習用Q&A"

// Placeholders substituted for a missing side of a pair
// 缺失一侧时使用的占位文本
const (
	QuestionPlaceholder = "(質問が抽出できませんでした)"
	AnswerPlaceholder   = "(回答が抽出できませんでした)"
)

// SectionHeadings end the review section
// SectionHeadings 结束复习区段的标题
var SectionHeadings = []string{
	"見出し",
	"要点",
	"キーワード",
	"ToDo",
	"学習用付録",
	"用語メモ",
	"重要引用",
	"未決事項",
}

// QuestionPrefixes open a new pair
// QuestionPrefixes 开启新问答对的前缀
var QuestionPrefixes = []string{"Q", "質問", "設問"}

// AnswerPrefixes fill the pending pair
// AnswerPrefixes 填充待定问答对的前缀
var AnswerPrefixes = []string{"A", "回答", "解答"}

var (
	questionPattern = markerPattern(QuestionPrefixes)
	answerPattern   = markerPattern(AnswerPrefixes)
	headingPattern  = regexp.MustCompile(`(?m)^ *(?:` + alternation(SectionHeadings) + `)` + space + `[:：]`)
)

// space also covers the ideographic space used in Japanese text
const space = `[\s\p{Zs}]*`

// markerPattern matches "<prefix><sep><text>", Latin prefixes case-insensitively
func markerPattern(prefixes []string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^(?:` + alternation(prefixes) + `)` + space + `[:：]` + space + `(.+)$`)
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}
