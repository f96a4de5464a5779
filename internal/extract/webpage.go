package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"MediaScope/internal/domain"
	"MediaScope/internal/ports"
)

// WebPageExtractor strips markup from an HTML document and derives a
// summary and keywords. No classifier call is involved.
type WebPageExtractor struct {
	Summarize Summarizer
}

var _ ports.Extractor = (*WebPageExtractor)(nil)

// NewWebPageExtractor builds the extractor with the default summarizer.
func NewWebPageExtractor() *WebPageExtractor {
	return &WebPageExtractor{}
}

// Family identifies the extractor inside the registry.
func (e *WebPageExtractor) Family() domain.ContentFamily {
	return domain.FamilyWebPage
}

// Analyze parses the HTML, removes non-content elements and builds the
// document findings from the remaining text.
func (e *WebPageExtractor) Analyze(_ context.Context, res *domain.Resource, _ domain.Options) (*domain.Findings, error) {
	reader, err := res.Open()
	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, domain.StageExtract, "open resource", err)
	}
	defer reader.Close()

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, domain.WrapError(domain.CodeExtractionFailed, domain.StageExtract, "parse html", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find("script, style, noscript").Remove()
	text := NormalizeWhitespace(doc.Find("body").Text())
	if text == "" {
		// Fragment documents may lack an explicit body element.
		text = NormalizeWhitespace(doc.Text())
	}

	if text == "" {
		return nil, domain.NewError(domain.CodeExtractionFailed, domain.StageExtract,
			"page contains no extractable text")
	}

	if title == "" {
		title = "Web Page"
	}

	return &domain.Findings{
		Family:         domain.FamilyWebPage,
		Document:       BuildDocument(title, text, e.Summarize),
		UnitsProcessed: 1,
		UnitsTotal:     1,
	}, nil
}
