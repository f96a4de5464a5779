package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"MediaScope/internal/ports"
)

// YtdlpResolver retrieves YouTube videos through the yt-dlp executable.
// Metadata is inspected first so playlists and unavailable videos are
// rejected before any download traffic.
type YtdlpResolver struct {
	binary    string
	maxHeight int
	maxBytes  int64
	logger    *slog.Logger
}

var _ ports.VideoResolver = (*YtdlpResolver)(nil)

// NewYtdlpResolver wires the executable path and download bounds.
func NewYtdlpResolver(binary string, maxHeight int, maxBytes int64, logger *slog.Logger) *YtdlpResolver {
	if binary == "" {
		binary = "yt-dlp"
	}
	if maxHeight <= 0 {
		maxHeight = 720
	}
	return &YtdlpResolver{binary: binary, maxHeight: maxHeight, maxBytes: maxBytes, logger: logger}
}

// videoInfo is the subset of the yt-dlp JSON dump the resolver reads.
type videoInfo struct {
	ID    string `json:"id"`
	Type  string `json:"_type"`
	Title string `json:"title"`
	Ext   string `json:"ext"`
}

// Resolve downloads a single video into destDir and returns its local path.
func (r *YtdlpResolver) Resolve(ctx context.Context, url, destDir string) (ports.ResolvedVideo, error) {
	info, err := r.inspect(ctx, url)
	if err != nil {
		return ports.ResolvedVideo{}, err
	}
	if info.Type == "playlist" || info.Type == "multi_video" {
		return ports.ResolvedVideo{}, ports.ErrVideoPlaylist
	}

	outputTemplate := filepath.Join(destDir, info.ID+".%(ext)s")
	args := []string{
		"--no-playlist",
		"--no-progress",
		"--format", fmt.Sprintf("best[height<=%d]", r.maxHeight),
		"--output", outputTemplate,
	}
	if r.maxBytes > 0 {
		args = append(args, "--max-filesize", fmt.Sprintf("%d", r.maxBytes))
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return ports.ResolvedVideo{}, classifyRunError(err, stderr.String())
	}

	path, err := locateDownload(destDir, info.ID)
	if err != nil {
		return ports.ResolvedVideo{}, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return ports.ResolvedVideo{}, fmt.Errorf("stat downloaded video: %w", err)
	}

	r.debug("video retrieved", "url", url, "path", path, "bytes", stat.Size())
	return ports.ResolvedVideo{
		Path:  path,
		MIME:  mimeForExt(filepath.Ext(path)),
		Size:  stat.Size(),
		Title: info.Title,
	}, nil
}

// inspect dumps metadata without downloading to learn the entry kind.
func (r *YtdlpResolver) inspect(ctx context.Context, url string) (videoInfo, error) {
	cmd := exec.CommandContext(ctx, r.binary, "-J", "--flat-playlist", "--no-progress", url)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return videoInfo{}, classifyRunError(err, stderr.String())
	}

	var info videoInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return videoInfo{}, fmt.Errorf("parse video metadata: %w", err)
	}
	return info, nil
}

// classifyRunError maps yt-dlp stderr onto the typed resolver failures.
func classifyRunError(err error, stderr string) error {
	lowered := strings.ToLower(stderr)
	switch {
	case strings.Contains(lowered, "video unavailable"),
		strings.Contains(lowered, "does not exist"):
		return ports.ErrVideoNotFound
	case strings.Contains(lowered, "private video"),
		strings.Contains(lowered, "sign in to confirm"),
		strings.Contains(lowered, "age-restricted"):
		return ports.ErrVideoRestricted
	case strings.Contains(lowered, "playlist"):
		return ports.ErrVideoPlaylist
	}
	if stderr != "" {
		return fmt.Errorf("yt-dlp: %s: %w", firstLine(stderr), err)
	}
	return fmt.Errorf("yt-dlp: %w", err)
}

// locateDownload finds the file yt-dlp wrote; the extension is chosen by the
// selected format and is not known up front.
func locateDownload(destDir, id string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(destDir, id+".*"))
	if err != nil {
		return "", fmt.Errorf("scan download dir: %w", err)
	}
	for _, match := range matches {
		if !strings.HasSuffix(match, ".part") {
			return match, nil
		}
	}
	return "", fmt.Errorf("downloaded video %s not found in %s", id, destDir)
}

func mimeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/x-matroska"
	default:
		return "application/octet-stream"
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

func (r *YtdlpResolver) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
