package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"MediaScope/internal/domain"
	"MediaScope/internal/ports"
)

// Fetcher materializes an input into a Resource with bounded time and size.
// Small payloads stay in memory; video lands in a temporary file so the
// frame decoder can work on a path. Partial downloads are discarded.
type Fetcher struct {
	client   *http.Client
	resolver ports.VideoResolver
	tempDir  string
	maxBytes int64
	timeout  time.Duration
	logger   *slog.Logger
}

// Config bounds one fetch invocation.
type Config struct {
	TempDir  string
	MaxBytes int64
	Timeout  time.Duration
}

// New wires the fetcher; a nil client gets a default without its own timeout
// (the per-fetch deadline governs instead).
func New(client *http.Client, resolver ports.VideoResolver, cfg Config, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 50 << 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &Fetcher{
		client:   client,
		resolver: resolver,
		tempDir:  cfg.TempDir,
		maxBytes: cfg.MaxBytes,
		timeout:  cfg.Timeout,
		logger:   logger,
	}
}

// Fetch produces the resource for one classified input. Uploads never touch
// the network; URL fetches honor the size ceiling and wall-clock timeout.
func (f *Fetcher) Fetch(ctx context.Context, in domain.Input, family domain.ContentFamily) (*domain.Resource, error) {
	switch {
	case in.IsUpload():
		return f.fromUpload(in, family)
	case family == domain.FamilyYouTube:
		return f.fromYouTube(ctx, in.URL)
	default:
		return f.fromURL(ctx, in.URL, family)
	}
}

func (f *Fetcher) fromUpload(in domain.Input, family domain.ContentFamily) (*domain.Resource, error) {
	if int64(len(in.Data)) > f.maxBytes {
		return nil, domain.NewError(domain.CodePayloadTooLarge, domain.StageFetch,
			fmt.Sprintf("upload exceeds %d bytes", f.maxBytes))
	}

	res := &domain.Resource{
		MIME: http.DetectContentType(in.Data),
		Size: int64(len(in.Data)),
		Name: in.DisplayName(),
	}

	// Frame extraction needs a real file; everything else stays buffered.
	if family == domain.FamilyVideo {
		path, err := f.spill(in.Data)
		if err != nil {
			return nil, domain.WrapError(domain.CodeInternal, domain.StageFetch, "spill upload", err)
		}
		res.Path = path
		return res, nil
	}

	res.Data = in.Data
	return res, nil
}

func (f *Fetcher) fromURL(ctx context.Context, rawURL string, family domain.ContentFamily) (*domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, domain.WrapError(domain.CodeFetchFailed, domain.StageFetch, "build request", err)
	}
	req.Header.Set("User-Agent", "MediaScope/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.classifyFetchErr(err, "request url")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, domain.NewError(domain.CodeFetchFailed, domain.StageFetch,
			fmt.Sprintf("server returned status %d", resp.StatusCode))
	}

	limited := io.LimitReader(resp.Body, f.maxBytes+1)

	if family == domain.FamilyVideo {
		return f.streamToFile(limited, resp, rawURL)
	}

	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, f.classifyFetchErr(err, "read body")
	}
	if int64(len(data)) > f.maxBytes {
		return nil, domain.NewError(domain.CodePayloadTooLarge, domain.StageFetch,
			fmt.Sprintf("download exceeds %d bytes", f.maxBytes))
	}

	return &domain.Resource{
		Data: data,
		MIME: resp.Header.Get("Content-Type"),
		Size: int64(len(data)),
		Name: rawURL,
	}, nil
}

func (f *Fetcher) streamToFile(body io.Reader, resp *http.Response, rawURL string) (*domain.Resource, error) {
	tmp, err := os.CreateTemp(f.tempDir, "mediascope-*.bin")
	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, domain.StageFetch, "create temp file", err)
	}

	written, err := io.Copy(tmp, body)
	closeErr := tmp.Close()

	discard := func(perr *domain.Error) (*domain.Resource, error) {
		if rmErr := os.Remove(tmp.Name()); rmErr != nil {
			f.warn("remove partial download", "path", tmp.Name(), "error", rmErr)
		}
		return nil, perr
	}

	if err != nil {
		return discard(f.classifyFetchErr(err, "stream body"))
	}
	if closeErr != nil {
		return discard(domain.WrapError(domain.CodeInternal, domain.StageFetch, "close temp file", closeErr))
	}
	if written > f.maxBytes {
		return discard(domain.NewError(domain.CodePayloadTooLarge, domain.StageFetch,
			fmt.Sprintf("download exceeds %d bytes", f.maxBytes)))
	}

	return &domain.Resource{
		Path: tmp.Name(),
		MIME: resp.Header.Get("Content-Type"),
		Size: written,
		Name: rawURL,
	}, nil
}

func (f *Fetcher) fromYouTube(ctx context.Context, rawURL string) (*domain.Resource, error) {
	if f.resolver == nil {
		return nil, domain.NewError(domain.CodeFetchFailed, domain.StageFetch,
			"video retrieval is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resolved, err := f.resolver.Resolve(ctx, rawURL, f.tempDir)
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrVideoPlaylist):
			return nil, domain.WrapError(domain.CodeUnsupportedURLShape, domain.StageFetch,
				"playlists are not supported", err)
		case errors.Is(err, context.DeadlineExceeded):
			return nil, domain.WrapError(domain.CodeFetchTimeout, domain.StageFetch,
				"video retrieval timed out", err)
		default:
			return nil, domain.WrapError(domain.CodeFetchFailed, domain.StageFetch,
				"retrieve video", err)
		}
	}

	if resolved.Size > f.maxBytes {
		if rmErr := os.Remove(resolved.Path); rmErr != nil {
			f.warn("remove oversized video", "path", resolved.Path, "error", rmErr)
		}
		return nil, domain.NewError(domain.CodePayloadTooLarge, domain.StageFetch,
			fmt.Sprintf("video exceeds %d bytes", f.maxBytes))
	}

	name := resolved.Title
	if name == "" {
		name = rawURL
	}

	return &domain.Resource{
		Path: resolved.Path,
		MIME: resolved.MIME,
		Size: resolved.Size,
		Name: name,
	}, nil
}

func (f *Fetcher) spill(data []byte) (string, error) {
	tmp, err := os.CreateTemp(f.tempDir, "mediascope-*.bin")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return tmp.Name(), nil
}

func (f *Fetcher) classifyFetchErr(err error, op string) *domain.Error {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return domain.WrapError(domain.CodeFetchTimeout, domain.StageFetch, op+" timed out", err)
	}
	return domain.WrapError(domain.CodeFetchFailed, domain.StageFetch, op, err)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func (f *Fetcher) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
