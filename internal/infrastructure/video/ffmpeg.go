package video

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"MediaScope/internal/extract"
)

// FFmpegSource decodes video containers with the ffmpeg toolchain. Sampled
// frames land as JPEGs in a per-call scratch directory that is always removed.
type FFmpegSource struct {
	tempDir string
	timeout time.Duration
	logger  *slog.Logger
}

var _ extract.FrameSource = (*FFmpegSource)(nil)

// NewFFmpegSource builds a frame source writing scratch frames under tempDir.
func NewFFmpegSource(tempDir string, timeout time.Duration, logger *slog.Logger) *FFmpegSource {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &FFmpegSource{tempDir: tempDir, timeout: timeout, logger: logger}
}

// probeStream is the subset of ffprobe stream output the sampler needs.
type probeStream struct {
	CodecType    string `json:"codec_type"`
	NBFrames     string `json:"nb_frames"`
	AvgFrameRate string `json:"avg_frame_rate"`
	Duration     string `json:"duration"`
}

// Probe inspects the container and derives total frame count, frame rate
// and duration from the first video stream.
func (s *FFmpegSource) Probe(_ context.Context, path string) (extract.VideoMeta, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return extract.VideoMeta{}, fmt.Errorf("ffprobe %s: %w", filepath.Base(path), err)
	}

	var payload struct {
		Streams []probeStream `json:"streams"`
		Format  struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return extract.VideoMeta{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	for _, stream := range payload.Streams {
		if stream.CodecType != "video" {
			continue
		}
		meta := extract.VideoMeta{
			FPS:      parseFrameRate(stream.AvgFrameRate),
			Duration: parseSeconds(stream.Duration, payload.Format.Duration),
		}
		meta.TotalFrames = parseFrameCount(stream.NBFrames, meta.FPS, meta.Duration)
		return meta, nil
	}

	return extract.VideoMeta{}, fmt.Errorf("no video stream in %s", filepath.Base(path))
}

// SampleFrames decodes every stride-th frame up to max into JPEG files and
// returns their contents ordered by original frame index.
func (s *FFmpegSource) SampleFrames(ctx context.Context, path string, stride, max int) ([]extract.SampledFrame, error) {
	if stride < 1 {
		stride = 1
	}
	if max < 1 {
		max = 1
	}

	scratch, err := os.MkdirTemp(s.tempDir, "frames-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			s.warn("remove scratch dir", "dir", scratch, "error", rmErr)
		}
	}()

	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	pattern := filepath.Join(scratch, "frame-%06d.jpg")
	selector := fmt.Sprintf("not(mod(n\\,%d))", stride)
	err = ffmpeg.Input(path).
		Output(pattern, ffmpeg.KwArgs{
			"vf":       "select=" + selector,
			"vsync":    "0",
			"frames:v": max,
			"q:v":      "2",
		}).
		OverWriteOutput().
		Silent(true).
		WithTimeout(timeout).
		Run()
	if err != nil {
		return nil, fmt.Errorf("sample frames from %s: %w", filepath.Base(path), err)
	}

	return collectFrames(scratch, stride)
}

// collectFrames reads the numbered JPEG outputs back in sequence order and
// maps each onto its original frame index.
func collectFrames(scratch string, stride int) ([]extract.SampledFrame, error) {
	entries, err := os.ReadDir(scratch)
	if err != nil {
		return nil, fmt.Errorf("read scratch dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".jpg") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	frames := make([]extract.SampledFrame, 0, len(names))
	for i, name := range names {
		data, err := os.ReadFile(filepath.Join(scratch, name))
		if err != nil {
			return nil, fmt.Errorf("read frame %s: %w", name, err)
		}
		frames = append(frames, extract.SampledFrame{Index: i * stride, Data: data})
	}
	return frames, nil
}

// parseFrameRate turns ffprobe's "num/den" rational into frames per second.
func parseFrameRate(raw string) float64 {
	parts := strings.SplitN(raw, "/", 2)
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil || num <= 0 {
		return 0
	}
	if len(parts) == 1 {
		return num
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den <= 0 {
		return 0
	}
	return num / den
}

func parseSeconds(values ...string) time.Duration {
	for _, raw := range values {
		if seconds, err := strconv.ParseFloat(raw, 64); err == nil && seconds > 0 {
			return time.Duration(seconds * float64(time.Second))
		}
	}
	return 0
}

// parseFrameCount prefers the container's declared count and falls back to
// fps*duration for containers that omit nb_frames (webm does).
func parseFrameCount(raw string, fps float64, duration time.Duration) int {
	if total, err := strconv.Atoi(raw); err == nil && total > 0 {
		return total
	}
	if fps > 0 && duration > 0 {
		return int(fps * duration.Seconds())
	}
	return 0
}

func (s *FFmpegSource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
