package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MediaScope/internal/domain"
)

const sampleHTML = `<!doctype html>
<html>
<head>
  <title>Ocean Currents</title>
  <style>body { color: red; }</style>
</head>
<body>
  <script>console.log("tracking");</script>
  <h1>Ocean currents explained</h1>
  <p>Currents move heat around the planet. Currents shape regional climate.
  Plankton drift follows currents across entire basins.</p>
</body>
</html>`

func TestWebPageExtractor(t *testing.T) {
	t.Parallel()

	e := NewWebPageExtractor()
	findings, err := e.Analyze(context.Background(), &domain.Resource{Data: []byte(sampleHTML)}, domain.Options{})
	require.NoError(t, err)

	doc := findings.Document
	require.NotNil(t, doc)
	assert.Equal(t, "Ocean Currents", doc.Title)
	assert.NotContains(t, doc.TextPreview, "console.log")
	assert.NotContains(t, doc.TextPreview, "color: red")
	assert.Contains(t, doc.Summary, "Currents move heat")
	assert.Contains(t, doc.Keywords, "currents")
}

func TestWebPageExtractorEmptyPage(t *testing.T) {
	t.Parallel()

	e := NewWebPageExtractor()
	_, err := e.Analyze(context.Background(),
		&domain.Resource{Data: []byte("<html><body><script>x()</script></body></html>")}, domain.Options{})
	assert.Equal(t, domain.CodeExtractionFailed, domain.CodeOf(err))
}

func TestPDFExtractorUnparseable(t *testing.T) {
	t.Parallel()

	e := NewPDFExtractor(10)
	_, err := e.Analyze(context.Background(), &domain.Resource{Data: []byte("%PDF-1.4 truncated garbage")}, domain.Options{})
	assert.Equal(t, domain.CodeExtractionFailed, domain.CodeOf(err))
}

func TestTextExtractor(t *testing.T) {
	t.Parallel()

	e := NewTextExtractor()
	findings, err := e.Analyze(context.Background(),
		&domain.Resource{Data: []byte("Glaciers retreat yearly. Glaciers feed rivers. Rivers carry sediment.")},
		domain.Options{})
	require.NoError(t, err)

	assert.Equal(t, domain.FamilyText, findings.Family)
	assert.Contains(t, findings.Document.Keywords, "glaciers")
	assert.Contains(t, findings.Document.Summary, "Glaciers retreat yearly.")
}

func TestTextExtractorEmpty(t *testing.T) {
	t.Parallel()

	e := NewTextExtractor()
	_, err := e.Analyze(context.Background(), &domain.Resource{Data: []byte("   \n\t ")}, domain.Options{})
	assert.Equal(t, domain.CodeExtractionFailed, domain.CodeOf(err))
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(NewTextExtractor())

	e, err := r.Resolve(domain.FamilyText)
	require.NoError(t, err)
	assert.Equal(t, domain.FamilyText, e.Family())

	_, err = r.Resolve(domain.FamilyVideo)
	assert.Error(t, err)
}
