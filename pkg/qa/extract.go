// Package qa extracts question/answer pairs from note and summary text
// Package qa 从笔记和摘要文本中抽取问答对
package qa

import (
	"strings"
)

// Pair one extracted question and answer
// Pair 抽取出的一组问答
type Pair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Extract returns the question/answer pairs found in text, in order.
// It is pure: no state, no I/O, same input gives the same output.
// Extract 按顺序返回文本中的问答对，纯函数
func Extract(text string) []Pair {
	text = strings.TrimSpace(normalizeNewlines(text))
	if text == "" {
		return []Pair{}
	}

	var pairs []Pair
	for _, line := range strings.Split(reviewSection(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := questionPattern.FindStringSubmatch(line); m != nil {
			pairs = append(pairs, Pair{Question: strings.TrimSpace(m[1])})
			continue
		}
		if m := answerPattern.FindStringSubmatch(line); m != nil {
			answer := strings.TrimSpace(m[1])
			if len(pairs) > 0 {
				pairs[len(pairs)-1].Answer = answer
			} else {
				pairs = append(pairs, Pair{Answer: answer})
			}
		}
	}

	out := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if p.Question == "" && p.Answer == "" {
			continue
		}
		if p.Question == "" {
			p.Question = QuestionPlaceholder
		}
		if p.Answer == "" {
			p.Answer = AnswerPlaceholder
		}
		out = append(out, p)
	}
	return out
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}

// reviewSection narrows text to the review section when the marker is present,
// cut at the next recognized heading
func reviewSection(text string) string {
	idx := strings.Index(text, SectionMarker)
	if idx < 0 {
		return text
	}
	tail := text[idx:]
	// skip the marker line itself so a heading on it cannot end the section
	body := tail
	if nl := strings.IndexByte(tail, '\n'); nl >= 0 {
		body = tail[nl+1:]
	} else {
		return tail
	}
	if loc := headingPattern.FindStringIndex(body); loc != nil {
		return tail[:len(tail)-len(body)+loc[0]]
	}
	return tail
}
