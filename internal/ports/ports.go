package ports

import (
	"context"
	"errors"
	"time"

	"MediaScope/internal/domain"
)

// Classifier is the external image-classification collaborator. It receives
// one JPEG-encoded frame and returns labels ranked by confidence in [0,1].
// The classifier is assumed safely reentrant for concurrent calls.
type Classifier interface {
	ClassifyImage(ctx context.Context, jpeg []byte) ([]domain.Prediction, error)
}

// ResolvedVideo describes a video file materialized by a VideoResolver.
type ResolvedVideo struct {
	Path  string
	MIME  string
	Size  int64
	Title string
}

// Typed failures reported by video resolvers.
var (
	ErrVideoNotFound   = errors.New("video not found")
	ErrVideoPlaylist   = errors.New("url resolves to a playlist")
	ErrVideoRestricted = errors.New("video is restricted")
)

// VideoResolver retrieves an externally hosted video (YouTube) into a local
// file under destDir. Only single videos are accepted; playlists fail with
// ErrVideoPlaylist.
type VideoResolver interface {
	Resolve(ctx context.Context, url, destDir string) (ResolvedVideo, error)
}

// Translator localizes a classifier label. Failure must degrade to the
// original label at the call site, never fail the request.
type Translator interface {
	Translate(label string) (string, error)
}

// Extractor turns one fetched resource into family-specific raw findings.
type Extractor interface {
	Family() domain.ContentFamily
	Analyze(ctx context.Context, res *domain.Resource, opts domain.Options) (*domain.Findings, error)
}

// HistoryRepository persists successful analysis results for later querying.
type HistoryRepository interface {
	Save(ctx context.Context, row domain.HistoryRow) error
	ListRecent(ctx context.Context, limit int) ([]domain.HistoryRow, error)
	Clear(ctx context.Context) error
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
