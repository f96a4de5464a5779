package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MediaScope/internal/domain"
	"MediaScope/internal/extract"
	"MediaScope/internal/fetcher"
	"MediaScope/internal/locator"
	"MediaScope/internal/logging"
)

type stubClassifier struct {
	predictions []domain.Prediction
	err         error
}

func (s *stubClassifier) ClassifyImage(_ context.Context, _ []byte) ([]domain.Prediction, error) {
	return s.predictions, s.err
}

type recordingHistory struct {
	mu   sync.Mutex
	rows []domain.HistoryRow
	err  error
}

func (r *recordingHistory) Save(_ context.Context, row domain.HistoryRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, row)
	return nil
}

func (r *recordingHistory) ListRecent(_ context.Context, _ int) ([]domain.HistoryRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.HistoryRow(nil), r.rows...), nil
}

func (r *recordingHistory) PruneBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *recordingHistory) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = nil
	return nil
}

func (r *recordingHistory) saved() []domain.HistoryRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.HistoryRow(nil), r.rows...)
}

type mapTranslator struct {
	entries map[string]string
	err     error
}

func (m *mapTranslator) Translate(label string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.entries[label], nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// corruptPNG sniffs as image/png but cannot be decoded.
func corruptPNG() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), []byte("definitely not pixel data")...)
}

func newTestPipeline(t *testing.T, classifier *stubClassifier, history *recordingHistory, translator *mapTranslator) *Pipeline {
	t.Helper()
	logger := logging.NewWithWriter(io.Discard, "debug")

	registry := extract.NewRegistry()
	registry.Register(extract.NewImageExtractor(classifier))
	registry.Register(extract.NewTextExtractor())

	return New(Deps{
		Locator:    locator.New(nil, logger),
		Fetcher:    fetcher.New(nil, nil, fetcher.Config{TempDir: t.TempDir()}, logger),
		Extractors: registry,
		History:    history,
		Translator: translator,
		Logger:     logger,
		Workers:    2,
	})
}

func TestAnalyzeImageUpload(t *testing.T) {
	t.Parallel()

	classifier := &stubClassifier{predictions: []domain.Prediction{
		{Label: "tabby", Confidence: 0.91},
		{Label: "tiger cat", Confidence: 0.05},
	}}
	history := &recordingHistory{}
	p := newTestPipeline(t, classifier, history, nil)

	result, err := p.Analyze(context.Background(),
		domain.Input{Data: testPNG(t), Name: "cat.png"},
		domain.Options{SourceTag: "upload"})
	require.NoError(t, err)

	assert.Equal(t, domain.FamilyImage, result.Family)
	assert.NotEmpty(t, result.RequestID)
	assert.Equal(t, "cat.png", result.SourceName)
	assert.Equal(t, "upload", result.SourceTag)
	require.NotEmpty(t, result.Labels)
	assert.Equal(t, "tabby", result.Labels[0].Label)
	assert.InDelta(t, 0.91, result.Labels[0].Score, 1e-9)

	rows := history.saved()
	require.Len(t, rows, 1)
	assert.Equal(t, result.RequestID, rows[0].RequestID)
	assert.Equal(t, "cat.png", rows[0].Name)
	assert.Equal(t, "tabby", rows[0].TopLabel)
}

func TestAnalyzeErrorsAreTyped(t *testing.T) {
	t.Parallel()

	history := &recordingHistory{}
	p := newTestPipeline(t, &stubClassifier{}, history, nil)

	_, err := p.Analyze(context.Background(),
		domain.Input{Data: corruptPNG(), Name: "broken.png"},
		domain.Options{})
	require.Error(t, err)

	perr, ok := domain.AsPipelineError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeDecodeFailed, perr.Code)

	// Failed analyses never reach the journal.
	assert.Empty(t, history.saved())
}

func TestAnalyzeTranslationApplied(t *testing.T) {
	t.Parallel()

	classifier := &stubClassifier{predictions: []domain.Prediction{
		{Label: "dog", Confidence: 0.8},
		{Label: "cat", Confidence: 0.1},
	}}
	translator := &mapTranslator{entries: map[string]string{"dog": "anjing"}}
	p := newTestPipeline(t, classifier, &recordingHistory{}, translator)

	result, err := p.Analyze(context.Background(),
		domain.Input{Data: testPNG(t), Name: "dog.png"},
		domain.Options{Translate: true})
	require.NoError(t, err)

	require.Len(t, result.Labels, 2)
	assert.Equal(t, "anjing", result.Labels[0].Translated)
	// No mapping known for "cat": the raw label stands in.
	assert.Equal(t, "cat", result.Labels[1].Translated)
}

func TestAnalyzeTranslatorFailureDegrades(t *testing.T) {
	t.Parallel()

	classifier := &stubClassifier{predictions: []domain.Prediction{{Label: "dog", Confidence: 0.8}}}
	translator := &mapTranslator{err: errors.New("dictionary offline")}
	p := newTestPipeline(t, classifier, &recordingHistory{}, translator)

	result, err := p.Analyze(context.Background(),
		domain.Input{Data: testPNG(t), Name: "dog.png"},
		domain.Options{Translate: true})
	require.NoError(t, err)
	assert.Equal(t, "dog", result.Labels[0].Translated)
}

func TestAnalyzeHistoryFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()

	classifier := &stubClassifier{predictions: []domain.Prediction{{Label: "dog", Confidence: 0.8}}}
	history := &recordingHistory{err: errors.New("database down")}
	p := newTestPipeline(t, classifier, history, nil)

	result, err := p.Analyze(context.Background(),
		domain.Input{Data: testPNG(t), Name: "dog.png"},
		domain.Options{})
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestAnalyzeBatchIsolatesFailures(t *testing.T) {
	t.Parallel()

	classifier := &stubClassifier{predictions: []domain.Prediction{{Label: "tabby", Confidence: 0.9}}}
	history := &recordingHistory{}
	p := newTestPipeline(t, classifier, history, nil)

	good := testPNG(t)
	inputs := []domain.Input{
		{Data: good, Name: "first.png"},
		{Data: corruptPNG(), Name: "second.png"},
		{Data: good, Name: "third.png"},
	}

	outcomes := p.AnalyzeBatch(context.Background(), inputs, domain.Options{})
	require.Len(t, outcomes, 3)

	require.NoError(t, outcomes[0].Err)
	assert.Equal(t, "first.png", outcomes[0].Result.SourceName)

	require.Error(t, outcomes[1].Err)
	assert.Equal(t, domain.CodeDecodeFailed, domain.CodeOf(outcomes[1].Err))
	assert.Nil(t, outcomes[1].Result)

	require.NoError(t, outcomes[2].Err)
	assert.Equal(t, "third.png", outcomes[2].Result.SourceName)

	// Only the two successes are journaled.
	assert.Len(t, history.saved(), 2)
}

func TestAnalyzeBatchEmpty(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, &stubClassifier{}, &recordingHistory{}, nil)
	outcomes := p.AnalyzeBatch(context.Background(), nil, domain.Options{})
	assert.Empty(t, outcomes)
}

func TestAnalyzeUnsupportedUpload(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, &stubClassifier{}, &recordingHistory{}, nil)

	_, err := p.Analyze(context.Background(),
		domain.Input{Data: []byte{0x00, 0x01, 0x02, 0x03}, Name: "blob.bin"},
		domain.Options{})
	require.Error(t, err)
	assert.Equal(t, domain.CodeUnsupportedContent, domain.CodeOf(err))
}
