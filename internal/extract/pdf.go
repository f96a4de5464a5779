package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"MediaScope/internal/domain"
	"MediaScope/internal/ports"
)

// PDFExtractor pulls plain text per page, up to a page cap, and derives a
// summary and keywords from the concatenated text.
type PDFExtractor struct {
	Summarize Summarizer
	pageCap   int
}

var _ ports.Extractor = (*PDFExtractor)(nil)

// NewPDFExtractor bounds extraction to pageCap pages.
func NewPDFExtractor(pageCap int) *PDFExtractor {
	if pageCap < 1 {
		pageCap = 10
	}
	return &PDFExtractor{pageCap: pageCap}
}

// Family identifies the extractor inside the registry.
func (e *PDFExtractor) Family() domain.ContentFamily {
	return domain.FamilyPDF
}

// Analyze reads the document page by page. An unparseable document or one
// with zero extractable text fails extraction; a single bad page is skipped.
func (e *PDFExtractor) Analyze(_ context.Context, res *domain.Resource, _ domain.Options) (*domain.Findings, error) {
	data, err := resourceBytes(res)
	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, domain.StageExtract, "read resource", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.WrapError(domain.CodeExtractionFailed, domain.StageExtract, "parse pdf", err)
	}

	totalPages := reader.NumPage()
	pages := totalPages
	if pages > e.pageCap {
		pages = e.pageCap
	}

	var (
		parts     []string
		extracted int
		skipped   int
	)
	for n := 1; n <= pages; n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			skipped++
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			skipped++
			continue
		}
		text = NormalizeWhitespace(text)
		if text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("[page %d] %s", n, text))
		extracted++
	}

	combined := strings.Join(parts, " ")
	if combined == "" {
		return nil, domain.NewError(domain.CodeExtractionFailed, domain.StageExtract,
			"pdf contains no extractable text")
	}

	return &domain.Findings{
		Family:         domain.FamilyPDF,
		Document:       BuildDocument("PDF Document", combined, e.Summarize),
		UnitsProcessed: extracted,
		UnitsTotal:     totalPages,
		Skipped:        skipped,
	}, nil
}

func resourceBytes(res *domain.Resource) ([]byte, error) {
	if res.InMemory() {
		return res.Data, nil
	}
	reader, err := res.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
