package extract

import (
	"regexp"
	"sort"
	"strings"

	"MediaScope/internal/domain"
)

const (
	summarySentences = 3
	summaryMaxChars  = 800
	previewMaxChars  = 1200
	keywordMaxCount  = 10
)

// English and Indonesian stop words excluded from keyword ranking.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "are": true, "was": true, "will": true,
	"you": true, "your": true, "have": true, "has": true, "not": true,
	"but": true,
	"dan": true, "yang": true, "untuk": true, "dengan": true, "dari": true,
	"atau": true, "akan": true, "pada": true, "dalam": true, "tidak": true,
	"ini": true, "itu": true, "ada": true, "juga": true, "saat": true,
}

var (
	whitespaceExpr = regexp.MustCompile(`\s+`)
	sentenceExpr   = regexp.MustCompile(`(?s)(.*?[.!?])(?:\s+|$)`)
	wordExpr       = regexp.MustCompile(`[a-zA-Z\x{00C0}-\x{00FF}][a-zA-Z\x{00C0}-\x{00FF}0-9_-]{2,}`)
)

// Summarizer reduces normalized document text to a short summary. The
// default is a leading-sentences strategy; callers may swap in another.
type Summarizer func(text string) string

// BuildDocument derives summary, keywords and preview from extracted text.
func BuildDocument(title, text string, summarize Summarizer) *domain.DocumentFindings {
	normalized := NormalizeWhitespace(text)
	if summarize == nil {
		summarize = LeadingSentences
	}

	summary := summarize(normalized)
	if summary == "" {
		summary = "The text content is very short or could not be extracted."
	}

	return &domain.DocumentFindings{
		Title:       title,
		Summary:     truncate(summary, summaryMaxChars),
		Keywords:    Keywords(normalized, keywordMaxCount),
		TextPreview: truncate(normalized, previewMaxChars),
		CharCount:   len(normalized),
	}
}

// NormalizeWhitespace collapses all runs of whitespace into single spaces.
func NormalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceExpr.ReplaceAllString(text, " "))
}

// LeadingSentences returns the first few sentences of normalized text.
func LeadingSentences(text string) string {
	matches := sentenceExpr.FindAllStringSubmatch(text, summarySentences)
	if len(matches) == 0 {
		return strings.TrimSpace(text)
	}

	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, strings.TrimSpace(m[1]))
	}
	return strings.Join(parts, " ")
}

// Keywords ranks words by frequency, excluding stop words and short tokens.
// Equal frequencies preserve first-appearance order.
func Keywords(text string, max int) []string {
	words := wordExpr.FindAllString(strings.ToLower(text), -1)

	counts := make(map[string]int)
	order := make(map[string]int)
	for i, w := range words {
		if stopwords[w] {
			continue
		}
		if _, seen := counts[w]; !seen {
			order[w] = i
		}
		counts[w]++
	}

	unique := make([]string, 0, len(counts))
	for w := range counts {
		unique = append(unique, w)
	}
	sort.Slice(unique, func(i, j int) bool {
		if counts[unique[i]] != counts[unique[j]] {
			return counts[unique[i]] > counts[unique[j]]
		}
		return order[unique[i]] < order[unique[j]]
	})

	if len(unique) > max {
		unique = unique[:max]
	}
	return unique
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
