package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadingSentences(t *testing.T) {
	t.Parallel()

	text := "First sentence. Second one! Third here? Fourth is dropped."
	assert.Equal(t, "First sentence. Second one! Third here?", LeadingSentences(text))
}

func TestLeadingSentencesNoTerminator(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no punctuation at all", LeadingSentences("no punctuation at all"))
}

func TestKeywordsFrequencyRanked(t *testing.T) {
	t.Parallel()

	text := "neural networks process images. networks learn features. images contain features and networks."
	keywords := Keywords(text, 3)

	assert.Equal(t, []string{"networks", "images", "features"}, keywords)
}

func TestKeywordsExcludeStopwordsAndShortTokens(t *testing.T) {
	t.Parallel()

	keywords := Keywords("the cat and the dog ran to it", 10)
	assert.NotContains(t, keywords, "the")
	assert.NotContains(t, keywords, "and")
	assert.NotContains(t, keywords, "it")
	assert.NotContains(t, keywords, "ran")
	assert.Contains(t, keywords, "cat")
	assert.Contains(t, keywords, "dog")
}

func TestBuildDocumentBounds(t *testing.T) {
	t.Parallel()

	doc := BuildDocument("Title", "   Some   spaced\n\ttext here.   ", nil)
	assert.Equal(t, "Title", doc.Title)
	assert.Equal(t, "Some spaced text here.", doc.Summary)
	assert.Equal(t, len("Some spaced text here."), doc.CharCount)
}

func TestBuildDocumentEmptyText(t *testing.T) {
	t.Parallel()

	doc := BuildDocument("Title", "", nil)
	assert.NotEmpty(t, doc.Summary)
	assert.Empty(t, doc.Keywords)
	assert.Zero(t, doc.CharCount)
}

func TestBuildDocumentCustomSummarizer(t *testing.T) {
	t.Parallel()

	doc := BuildDocument("Title", "ignored body", func(string) string { return "custom" })
	assert.Equal(t, "custom", doc.Summary)
}
