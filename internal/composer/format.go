package composer

import (
	"fmt"
	"iter"
	"strings"
	"unicode"
)

// FollowUpsHeading introduces the numbered question list in a formatted reply.
const FollowUpsHeading = "**Some questions to consider:**"

// FollowUpQuestions yields the sentences of text that end in '?', trimmed
// and in order. Sentences end at '.', '?' or '!'. The sequence is lazy and
// can be ranged over more than once.
func FollowUpQuestions(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := 0
		for i, r := range text {
			if r != '.' && r != '?' && r != '!' {
				continue
			}
			sentence := strings.TrimSpace(text[start : i+1])
			start = i + 1
			if r == '?' && sentence != "?" && !yield(sentence) {
				return
			}
		}
	}
}

// ExtractFollowUpQuestions collects FollowUpQuestions into a slice.
func ExtractFollowUpQuestions(text string) []string {
	out := []string{}
	for q := range FollowUpQuestions(text) {
		out = append(out, q)
	}
	return out
}

// countQuestions returns the number of question sentences in text.
func countQuestions(text string) int {
	n := 0
	for range FollowUpQuestions(text) {
		n++
	}
	return n
}

// FormatProfessionalResponse assembles the factual block, the empathy block
// when present and a numbered follow-up list when present. Empty parts are
// left out entirely.
func FormatProfessionalResponse(factual, empathy string, followUps []string) string {
	parts := []string{factual}
	if empathy != "" {
		parts = append(parts, "\n"+empathy)
	}
	if len(followUps) > 0 {
		parts = append(parts, "\n"+FollowUpsHeading)
		for i, q := range followUps {
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, q))
		}
	}
	return strings.Join(parts, "\n")
}

// CombineResponses joins the two passes with a blank line.
func CombineResponses(factual, engagement string) string {
	return strings.TrimSpace(factual + "\n\n" + engagement)
}

// Preserves reports whether text carries factual verbatim or near-verbatim.
// Case, whitespace runs and markdown emphasis are ignored, and each factual
// sentence may appear on its own with its final punctuation dropped.
func Preserves(text, factual string) bool {
	want := normalize(factual)
	if want == "" {
		return true
	}
	got := normalize(text)
	if strings.Contains(got, want) {
		return true
	}
	for _, s := range sentences(want) {
		if !strings.Contains(got, s) {
			return false
		}
	}
	return true
}

func normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '*', '_', '`':
			return -1
		case '’':
			return '\''
		}
		return unicode.ToLower(r)
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// sentences splits normalized text into sentences without their
// terminators. Empty pieces are dropped.
func sentences(s string) []string {
	var out []string
	for _, piece := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '?' || r == '!' || r == '\n'
	}) {
		if p := strings.TrimSpace(piece); p != "" {
			out = append(out, p)
		}
	}
	return out
}
