package httpapi

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"MediaScope/internal/domain"
	"MediaScope/internal/pipeline"
	"MediaScope/internal/ports"
)

// Analyzer is the inbound port the HTTP layer drives.
type Analyzer interface {
	Analyze(ctx context.Context, in domain.Input, opts domain.Options) (*domain.AnalysisResult, error)
	AnalyzeBatch(ctx context.Context, inputs []domain.Input, opts domain.Options) []pipeline.Outcome
}

// Server exposes the analysis pipeline over REST.
type Server struct {
	analyzer Analyzer
	history  ports.HistoryRepository
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	router   *gin.Engine
}

// NewServer wires routes onto a fresh engine. The gatherer may be nil when
// metrics are not exposed.
func NewServer(analyzer Analyzer, history ports.HistoryRepository, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		analyzer: analyzer,
		history:  history,
		gatherer: gatherer,
		logger:   logger,
		router:   r,
	}
	s.setupRoutes()
	return s
}

// Handler returns the underlying HTTP handler for embedding in an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.POST("/api/analyze", s.handleAnalyze)
	s.router.POST("/api/analyze/batch", s.handleAnalyzeBatch)
	s.router.GET("/api/history", s.handleHistoryList)
	s.router.DELETE("/api/history", s.handleHistoryClear)
	if s.gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// analyzeRequest is the JSON body form of a URL analysis.
type analyzeRequest struct {
	URL           string  `json:"url" binding:"required"`
	TopK          int     `json:"top_k"`
	MinConfidence float64 `json:"min_confidence"`
	Translate     bool    `json:"translate"`
	Source        string  `json:"source"`
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var in domain.Input
	var opts domain.Options

	if isMultipart(c) {
		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart request must carry a \"file\" part"})
			return
		}
		data, err := readUpload(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
			return
		}
		in = domain.Input{Data: data, Name: file.Filename}
		opts = formOptions(c)
	} else {
		var req analyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "body must be JSON with a \"url\" field"})
			return
		}
		in = domain.Input{URL: req.URL}
		opts = domain.Options{
			TopK:          req.TopK,
			MinConfidence: req.MinConfidence,
			Translate:     req.Translate,
			SourceTag:     req.Source,
		}
	}

	result, err := s.analyzer.Analyze(c.Request.Context(), in, opts)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResultPayload(result))
}

func (s *Server) handleAnalyzeBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "batch analysis requires a multipart form"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form must carry at least one \"files\" part"})
		return
	}

	inputs := make([]domain.Input, 0, len(files))
	for _, file := range files {
		data, err := readUpload(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file " + file.Filename})
			return
		}
		inputs = append(inputs, domain.Input{Data: data, Name: file.Filename})
	}

	outcomes := s.analyzer.AnalyzeBatch(c.Request.Context(), inputs, formOptions(c))

	items := make([]batchItemPayload, len(outcomes))
	for i, outcome := range outcomes {
		items[i].Name = inputs[i].DisplayName()
		if outcome.Err != nil {
			items[i].Error = toErrorPayload(outcome.Err)
			continue
		}
		items[i].Result = toResultPayload(outcome.Result)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) handleHistoryList(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	rows, err := s.history.ListRecent(c.Request.Context(), limit)
	if err != nil {
		s.warn("list history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot read history"})
		return
	}

	payload := make([]historyPayload, len(rows))
	for i, row := range rows {
		payload[i] = toHistoryPayload(row)
	}
	c.JSON(http.StatusOK, gin.H{"items": payload})
}

func (s *Server) handleHistoryClear(c *gin.Context) {
	if err := s.history.Clear(c.Request.Context()); err != nil {
		s.warn("clear history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot clear history"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) writeError(c *gin.Context, err error) {
	perr, ok := domain.AsPipelineError(err)
	if !ok {
		perr = domain.Internalize(domain.StageLocate, err)
	}
	c.JSON(statusForCode(perr.Code), toErrorPayload(perr))
}

// statusForCode maps stable pipeline codes onto HTTP statuses.
func statusForCode(code domain.Code) int {
	switch code {
	case domain.CodeUnsupportedContent:
		return http.StatusUnsupportedMediaType
	case domain.CodeUnsupportedURLShape:
		return http.StatusUnprocessableEntity
	case domain.CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case domain.CodeFetchTimeout:
		return http.StatusGatewayTimeout
	case domain.CodeFetchFailed, domain.CodeInferenceFailed:
		return http.StatusBadGateway
	case domain.CodeDecodeFailed, domain.CodeExtractionFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func isMultipart(c *gin.Context) bool {
	ct := c.ContentType()
	return ct == "multipart/form-data"
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// formOptions reads analysis options from form fields; malformed numbers
// fall back to defaults rather than failing the upload.
func formOptions(c *gin.Context) domain.Options {
	opts := domain.Options{
		Translate: c.PostForm("translate") == "true",
		SourceTag: c.PostForm("source"),
	}
	if raw := c.PostForm("top_k"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			opts.TopK = parsed
		}
	}
	if raw := c.PostForm("min_confidence"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			opts.MinConfidence = parsed
		}
	}
	return opts
}

func (s *Server) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

// labelPayload is one aggregated label in the response body.
type labelPayload struct {
	Label      string  `json:"label"`
	Translated string  `json:"translated,omitempty"`
	Score      float64 `json:"score"`
	Frames     int     `json:"frames,omitempty"`
}

type resultPayload struct {
	RequestID      string         `json:"request_id"`
	Family         string         `json:"family"`
	Labels         []labelPayload `json:"labels,omitempty"`
	Title          string         `json:"title,omitempty"`
	Summary        string         `json:"summary,omitempty"`
	Keywords       []string       `json:"keywords,omitempty"`
	TextPreview    string         `json:"text_preview,omitempty"`
	CharCount      int            `json:"char_count,omitempty"`
	Insight        string         `json:"insight"`
	UnitsProcessed int            `json:"units_processed"`
	UnitsTotal     int            `json:"units_total"`
	UnitsSkipped   int            `json:"units_skipped,omitempty"`
	ElapsedMs      int64          `json:"elapsed_ms"`
	SourceName     string         `json:"source_name"`
	SourceTag      string         `json:"source_tag,omitempty"`
	CompletedAt    time.Time      `json:"completed_at"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

type batchItemPayload struct {
	Name   string         `json:"name"`
	Result *resultPayload `json:"result,omitempty"`
	Error  *errorPayload  `json:"error,omitempty"`
}

type historyPayload struct {
	ID            int64     `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	RequestID     string    `json:"request_id"`
	Name          string    `json:"name"`
	Family        string    `json:"family"`
	TopLabel      string    `json:"top_label,omitempty"`
	TopConfidence float64   `json:"top_confidence,omitempty"`
	Source        string    `json:"source,omitempty"`
}

func toResultPayload(result *domain.AnalysisResult) *resultPayload {
	labels := make([]labelPayload, len(result.Labels))
	for i, label := range result.Labels {
		labels[i] = labelPayload{
			Label:      label.Label,
			Translated: label.Translated,
			Score:      label.Score,
			Frames:     label.Frames,
		}
	}
	return &resultPayload{
		RequestID:      result.RequestID,
		Family:         string(result.Family),
		Labels:         labels,
		Title:          result.Title,
		Summary:        result.Summary,
		Keywords:       result.Keywords,
		TextPreview:    result.TextPreview,
		CharCount:      result.CharCount,
		Insight:        result.Insight,
		UnitsProcessed: result.UnitsProcessed,
		UnitsTotal:     result.UnitsTotal,
		UnitsSkipped:   result.UnitsSkipped,
		ElapsedMs:      result.Elapsed.Milliseconds(),
		SourceName:     result.SourceName,
		SourceTag:      result.SourceTag,
		CompletedAt:    result.CompletedAt,
	}
}

func toErrorPayload(err error) *errorPayload {
	perr, ok := domain.AsPipelineError(err)
	if !ok {
		perr = domain.Internalize(domain.StageLocate, err)
	}
	return &errorPayload{
		Code:    string(perr.Code),
		Stage:   string(perr.Stage),
		Message: perr.Message,
	}
}

func toHistoryPayload(row domain.HistoryRow) historyPayload {
	return historyPayload{
		ID:            row.ID,
		CreatedAt:     row.CreatedAt,
		RequestID:     row.RequestID,
		Name:          row.Name,
		Family:        string(row.Family),
		TopLabel:      row.TopLabel,
		TopConfidence: row.TopConfidence,
		Source:        row.Source,
	}
}
