package domain

import "time"

// ContentFamily is the coarse kind of media a request refers to.
// It is determined once by the locator and never re-derived mid-pipeline.
type ContentFamily string

const (
	FamilyImage       ContentFamily = "image"
	FamilyVideo       ContentFamily = "video"
	FamilyYouTube     ContentFamily = "youtube"
	FamilyWebPage     ContentFamily = "webpage"
	FamilyPDF         ContentFamily = "pdf"
	FamilyText        ContentFamily = "text"
	FamilyUnsupported ContentFamily = "unsupported"
)

// ClassifierBacked reports whether results for this family come from the
// image classifier rather than text extraction.
func (f ContentFamily) ClassifierBacked() bool {
	return f == FamilyImage || f == FamilyVideo || f == FamilyYouTube
}

// Input is a single inbound analysis request: either uploaded bytes with an
// original filename, or a URL string.
type Input struct {
	URL  string
	Data []byte
	Name string
}

// IsUpload reports whether the input carries uploaded bytes.
func (in Input) IsUpload() bool {
	return in.URL == ""
}

// DisplayName returns the filename for uploads or the URL otherwise.
func (in Input) DisplayName() string {
	if in.IsUpload() {
		if in.Name != "" {
			return in.Name
		}
		return "upload"
	}
	return in.URL
}

// Options tunes one analysis request.
type Options struct {
	TopK          int
	MinConfidence float64
	Translate     bool
	SourceTag     string
}

const (
	DefaultTopK = 5
	MinTopK     = 3
	MaxTopK     = 10
)

// Normalize clamps option values into their documented ranges.
func (o Options) Normalize() Options {
	if o.TopK == 0 {
		o.TopK = DefaultTopK
	}
	if o.TopK < MinTopK {
		o.TopK = MinTopK
	}
	if o.TopK > MaxTopK {
		o.TopK = MaxTopK
	}
	if o.MinConfidence < 0 {
		o.MinConfidence = 0
	}
	if o.MinConfidence > 1 {
		o.MinConfidence = 1
	}
	return o
}

// Prediction is one label with its confidence in [0,1].
type Prediction struct {
	Label      string
	Confidence float64
}

// FrameFindings holds classifier output for one sampled video frame.
type FrameFindings struct {
	Index       int
	Timestamp   time.Duration
	Predictions []Prediction
}

// DocumentFindings holds extraction output for text-backed families.
type DocumentFindings struct {
	Title       string
	Summary     string
	Keywords    []string
	TextPreview string
	CharCount   int
}

// Findings is the family-specific raw extraction payload produced by an
// extractor before aggregation. Exactly one of Image, Frames, or Document is
// populated depending on the family.
type Findings struct {
	Family         ContentFamily
	Image          []Prediction
	Frames         []FrameFindings
	Document       *DocumentFindings
	UnitsProcessed int
	UnitsTotal     int
	Skipped        int
}

// ScoredLabel is one aggregated label in the unified result. Score is the
// raw confidence for single images and the summed confidence across sampled
// frames for video.
type ScoredLabel struct {
	Label      string
	Translated string
	Score      float64
	Frames     int
}

// AnalysisResult is the unified output of one pipeline invocation.
// It is created once by the aggregator and immutable thereafter.
type AnalysisResult struct {
	RequestID      string
	Family         ContentFamily
	Labels         []ScoredLabel
	Title          string
	Summary        string
	Keywords       []string
	TextPreview    string
	CharCount      int
	Insight        string
	UnitsProcessed int
	UnitsTotal     int
	UnitsSkipped   int
	Elapsed        time.Duration
	SourceName     string
	SourceTag      string
	CompletedAt    time.Time
}

// HistoryRow is the persisted snapshot of one successful analysis.
type HistoryRow struct {
	ID            int64
	CreatedAt     time.Time
	RequestID     string
	Name          string
	Family        ContentFamily
	TopLabel      string
	TopConfidence float64
	Source        string
}
