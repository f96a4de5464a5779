package extract

import (
	"context"

	"MediaScope/internal/domain"
	"MediaScope/internal/ports"
)

// TextExtractor derives summary and keywords directly from plain text.
type TextExtractor struct {
	Summarize Summarizer
}

var _ ports.Extractor = (*TextExtractor)(nil)

// NewTextExtractor builds the extractor with the default summarizer.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Family identifies the extractor inside the registry.
func (e *TextExtractor) Family() domain.ContentFamily {
	return domain.FamilyText
}

// Analyze treats the resource as UTF-8 text.
func (e *TextExtractor) Analyze(_ context.Context, res *domain.Resource, _ domain.Options) (*domain.Findings, error) {
	data, err := resourceBytes(res)
	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, domain.StageExtract, "read resource", err)
	}

	text := NormalizeWhitespace(string(data))
	if text == "" {
		return nil, domain.NewError(domain.CodeExtractionFailed, domain.StageExtract,
			"document contains no text")
	}

	return &domain.Findings{
		Family:         domain.FamilyText,
		Document:       BuildDocument("Text Document", text, e.Summarize),
		UnitsProcessed: 1,
		UnitsTotal:     1,
	}, nil
}
