package locator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"MediaScope/internal/domain"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".bmp": true, ".gif": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
}

var youtubeHosts = map[string]bool{
	"youtube.com":     true,
	"www.youtube.com": true,
	"m.youtube.com":   true,
	"youtu.be":        true,
}

// Locator determines the content family of an input. It never downloads
// bodies: URL classification uses at most a lightweight metadata probe.
type Locator struct {
	client *http.Client
	logger *slog.Logger
}

// New wires an HTTP client for URL probing; a nil client gets a default.
func New(client *http.Client, logger *slog.Logger) *Locator {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Locator{client: client, logger: logger}
}

// Classify resolves the content family of an input. Unsupported inputs
// surface a typed error alongside FamilyUnsupported.
func (l *Locator) Classify(ctx context.Context, in domain.Input) (domain.ContentFamily, error) {
	if in.IsUpload() {
		return l.classifyUpload(in)
	}
	return l.classifyURL(ctx, in.URL)
}

func (l *Locator) classifyUpload(in domain.Input) (domain.ContentFamily, error) {
	ext := strings.ToLower(path.Ext(in.Name))
	sniffed := http.DetectContentType(sniffHead(in.Data))

	switch {
	case imageExtensions[ext]:
		if agreesWith(sniffed, "image/") {
			return domain.FamilyImage, nil
		}
	case videoExtensions[ext]:
		if agreesWith(sniffed, "video/") {
			return domain.FamilyVideo, nil
		}
	case ext == ".pdf":
		if strings.HasPrefix(sniffed, "application/pdf") || looksLikePDF(in.Data) {
			return domain.FamilyPDF, nil
		}
	case ext == ".txt" || ext == ".md":
		if agreesWith(sniffed, "text/") {
			return domain.FamilyText, nil
		}
	}

	l.debug("upload rejected", "name", in.Name, "ext", ext, "sniffed", sniffed)
	return domain.FamilyUnsupported, domain.NewError(
		domain.CodeUnsupportedContent, domain.StageLocate,
		fmt.Sprintf("file extension %q does not match detected type %q", ext, sniffed))
}

func (l *Locator) classifyURL(ctx context.Context, rawURL string) (domain.ContentFamily, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return domain.FamilyUnsupported, domain.NewError(
			domain.CodeUnsupportedURLShape, domain.StageLocate,
			"url must use http or https")
	}

	// Hostname match takes priority over any content-type probing.
	if IsYouTubeURL(parsed) {
		return domain.FamilyYouTube, nil
	}

	contentType, err := l.probe(ctx, rawURL)
	if err != nil {
		return domain.FamilyUnsupported, err
	}

	if family, ok := familyForContentType(contentType); ok {
		return family, nil
	}
	if family, ok := familyForPath(parsed.Path); ok {
		return family, nil
	}

	l.debug("url unclassified", "url", rawURL, "contentType", contentType)
	return domain.FamilyUnsupported, domain.NewError(
		domain.CodeUnsupportedContent, domain.StageLocate,
		fmt.Sprintf("cannot determine media kind for content type %q", contentType))
}

// probe issues a HEAD request, falling back to a ranged GET for servers
// that reject HEAD, and reads only the declared content type.
func (l *Locator) probe(ctx context.Context, rawURL string) (string, error) {
	contentType, status, err := l.probeOnce(ctx, http.MethodHead, rawURL)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		contentType, status, err = l.probeOnce(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		return "", domain.WrapError(domain.CodeFetchFailed, domain.StageLocate, "probe url", err)
	}
	if status >= http.StatusBadRequest {
		return "", domain.NewError(domain.CodeFetchFailed, domain.StageLocate,
			fmt.Sprintf("probe returned status %d", status))
	}
	return contentType, nil
}

func (l *Locator) probeOnce(ctx context.Context, method, rawURL string) (contentType string, status int, err error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("build probe request: %w", err)
	}
	req.Header.Set("User-Agent", "MediaScope/1.0")
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-511")
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("probe request: %w", err)
	}
	defer resp.Body.Close()

	return resp.Header.Get("Content-Type"), resp.StatusCode, nil
}

// IsYouTubeURL reports whether the parsed URL points at a known YouTube host.
func IsYouTubeURL(u *url.URL) bool {
	return youtubeHosts[strings.ToLower(u.Hostname())]
}

func familyForContentType(contentType string) (domain.ContentFamily, bool) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return domain.FamilyImage, true
	case strings.HasPrefix(ct, "video/"):
		return domain.FamilyVideo, true
	case ct == "application/pdf":
		return domain.FamilyPDF, true
	case ct == "text/html", ct == "application/xhtml+xml":
		return domain.FamilyWebPage, true
	case strings.HasPrefix(ct, "text/"):
		return domain.FamilyText, true
	}
	return domain.FamilyUnsupported, false
}

func familyForPath(urlPath string) (domain.ContentFamily, bool) {
	ext := strings.ToLower(path.Ext(urlPath))
	switch {
	case imageExtensions[ext]:
		return domain.FamilyImage, true
	case videoExtensions[ext]:
		return domain.FamilyVideo, true
	case ext == ".pdf":
		return domain.FamilyPDF, true
	case ext == ".txt":
		return domain.FamilyText, true
	}
	return domain.FamilyUnsupported, false
}

func sniffHead(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}

func looksLikePDF(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "%PDF"
}

func agreesWith(sniffed, prefix string) bool {
	// DetectContentType falls back to octet-stream for containers it does
	// not know (mkv, avi); trust the extension in that case.
	return strings.HasPrefix(sniffed, prefix) || sniffed == "application/octet-stream"
}

func (l *Locator) debug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}
