package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"

	"MediaScope/internal/domain"
	"MediaScope/internal/ports"
)

// VideoMeta describes a probed video container.
type VideoMeta struct {
	TotalFrames int
	FPS         float64
	Duration    time.Duration
}

// SampledFrame is one decoded frame produced by a FrameSource. Index is the
// position in the original frame sequence, Data a JPEG encoding.
type SampledFrame struct {
	Index int
	Data  []byte
}

// FrameSource decodes a video container and yields sampled frames. The
// ffmpeg-backed implementation lives in infrastructure; tests use stubs.
type FrameSource interface {
	Probe(ctx context.Context, path string) (VideoMeta, error)
	SampleFrames(ctx context.Context, path string, stride, max int) ([]SampledFrame, error)
}

// VideoExtractor samples frames at a bounded stride and classifies each.
// One failed frame is recorded as skipped; the extraction only fails when
// every sampled frame fails.
type VideoExtractor struct {
	frames     FrameSource
	classifier ports.Classifier
	frameCap   int
	logger     *slog.Logger
}

var _ ports.Extractor = (*VideoExtractor)(nil)

// NewVideoExtractor wires the frame source and classifier; frameCap bounds
// the number of analyzed frames regardless of video length.
func NewVideoExtractor(frames FrameSource, classifier ports.Classifier, frameCap int, logger *slog.Logger) *VideoExtractor {
	if frameCap < 1 {
		frameCap = 12
	}
	return &VideoExtractor{frames: frames, classifier: classifier, frameCap: frameCap, logger: logger}
}

// Family identifies the extractor inside the registry.
func (e *VideoExtractor) Family() domain.ContentFamily {
	return domain.FamilyVideo
}

// Analyze probes the container, samples at most frameCap frames, and runs
// inference per frame with per-frame timestamps for provenance.
func (e *VideoExtractor) Analyze(ctx context.Context, res *domain.Resource, _ domain.Options) (*domain.Findings, error) {
	if res.InMemory() {
		return nil, domain.NewError(domain.CodeInternal, domain.StageExtract,
			"video extraction requires a file-backed resource")
	}

	meta, err := e.frames.Probe(ctx, res.Path)
	if err != nil {
		return nil, domain.WrapError(domain.CodeDecodeFailed, domain.StageExtract, "probe container", err)
	}
	if meta.TotalFrames < 1 {
		return nil, domain.NewError(domain.CodeDecodeFailed, domain.StageExtract,
			"container has no decodable frames")
	}

	stride := SamplingStride(meta.TotalFrames, e.frameCap)
	sampled, err := e.frames.SampleFrames(ctx, res.Path, stride, e.frameCap)
	if err != nil {
		return nil, domain.WrapError(domain.CodeDecodeFailed, domain.StageExtract, "sample frames", err)
	}
	if len(sampled) == 0 {
		return nil, domain.NewError(domain.CodeDecodeFailed, domain.StageExtract,
			"no frames could be decoded")
	}
	if len(sampled) > e.frameCap {
		sampled = sampled[:e.frameCap]
	}

	findings := &domain.Findings{
		Family:     domain.FamilyVideo,
		UnitsTotal: meta.TotalFrames,
	}

	for _, frame := range sampled {
		if err := ctx.Err(); err != nil {
			return nil, domain.WrapError(domain.CodeInternal, domain.StageExtract, "extraction canceled", err)
		}

		payload, err := normalizeFrame(frame.Data)
		if err != nil {
			e.debug("frame decode failed, skipping", "index", frame.Index, "error", err)
			findings.Skipped++
			continue
		}

		predictions, err := e.classifier.ClassifyImage(ctx, payload)
		if err != nil {
			e.debug("frame inference failed, skipping", "index", frame.Index, "error", err)
			findings.Skipped++
			continue
		}

		findings.Frames = append(findings.Frames, domain.FrameFindings{
			Index:       frame.Index,
			Timestamp:   frameTimestamp(frame.Index, meta.FPS),
			Predictions: rankPredictions(predictions),
		})
	}

	if len(findings.Frames) == 0 {
		return nil, domain.NewError(domain.CodeInferenceFailed, domain.StageExtract,
			fmt.Sprintf("inference failed for all %d sampled frames", len(sampled)))
	}

	findings.UnitsProcessed = len(findings.Frames)
	return findings, nil
}

// YouTubeExtractor reuses video frame sampling for retrieved YouTube files,
// re-tagging the findings with its own family.
type YouTubeExtractor struct {
	video *VideoExtractor
}

var _ ports.Extractor = (*YouTubeExtractor)(nil)

// NewYouTubeExtractor wraps an existing video extractor.
func NewYouTubeExtractor(video *VideoExtractor) *YouTubeExtractor {
	return &YouTubeExtractor{video: video}
}

// Family identifies the extractor inside the registry.
func (e *YouTubeExtractor) Family() domain.ContentFamily {
	return domain.FamilyYouTube
}

// Analyze delegates to the video extractor over the downloaded file.
func (e *YouTubeExtractor) Analyze(ctx context.Context, res *domain.Resource, opts domain.Options) (*domain.Findings, error) {
	findings, err := e.video.Analyze(ctx, res, opts)
	if err != nil {
		return nil, err
	}
	findings.Family = domain.FamilyYouTube
	return findings, nil
}

// SamplingStride is the frame-skip interval bounding analysis cost:
// max(1, totalFrames/cap) so at most cap frames are sampled.
func SamplingStride(totalFrames, cap int) int {
	if cap < 1 {
		return 1
	}
	stride := totalFrames / cap
	if stride < 1 {
		return 1
	}
	return stride
}

func frameTimestamp(index int, fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(index) / fps * float64(time.Second))
}

// normalizeFrame re-decodes the sampled frame and bounds its dimensions
// before handing it to the classifier.
func normalizeFrame(jpegData []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(jpegData))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return encodeForClassifier(img)
}

func (e *VideoExtractor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
