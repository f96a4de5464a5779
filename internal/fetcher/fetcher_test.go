package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"MediaScope/internal/domain"
	"MediaScope/internal/ports"
)

func TestFetchUploadStaysInMemory(t *testing.T) {
	t.Parallel()

	f := New(nil, nil, Config{TempDir: t.TempDir()}, nil)
	res, err := f.Fetch(context.Background(), domain.Input{Name: "a.png", Data: []byte("imagedata")}, domain.FamilyImage)
	if err != nil {
		t.Fatalf("fetch returned error: %v", err)
	}
	defer res.Close()

	if !res.InMemory() {
		t.Fatal("image upload should stay in memory")
	}
	if res.Size != int64(len("imagedata")) {
		t.Fatalf("unexpected size %d", res.Size)
	}
}

func TestFetchVideoUploadSpillsToTempFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	f := New(nil, nil, Config{TempDir: dir}, nil)
	res, err := f.Fetch(context.Background(), domain.Input{Name: "a.mp4", Data: []byte("videodata")}, domain.FamilyVideo)
	if err != nil {
		t.Fatalf("fetch returned error: %v", err)
	}

	if res.InMemory() {
		t.Fatal("video upload should land in a temp file")
	}
	if _, err := os.Stat(res.Path); err != nil {
		t.Fatalf("temp file missing: %v", err)
	}

	if err := res.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(res.Path); !os.IsNotExist(err) {
		t.Fatal("temp file should be removed after close")
	}
	// Idempotent.
	if err := res.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestFetchURLNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := New(server.Client(), nil, Config{TempDir: t.TempDir()}, nil)
	_, err := f.Fetch(context.Background(), domain.Input{URL: server.URL + "/gone"}, domain.FamilyImage)
	if domain.CodeOf(err) != domain.CodeFetchFailed {
		t.Fatalf("expected FETCH_FAILED, got %v", err)
	}
}

func TestFetchURLTooLarge(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer server.Close()

	f := New(server.Client(), nil, Config{TempDir: t.TempDir(), MaxBytes: 1024}, nil)
	_, err := f.Fetch(context.Background(), domain.Input{URL: server.URL + "/big"}, domain.FamilyImage)
	if domain.CodeOf(err) != domain.CodePayloadTooLarge {
		t.Fatalf("expected PAYLOAD_TOO_LARGE, got %v", err)
	}
}

func TestFetchURLTimeoutDiscardsPartialVideo(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	dir := t.TempDir()
	f := New(server.Client(), nil, Config{TempDir: dir, Timeout: 50 * time.Millisecond}, nil)
	_, err := f.Fetch(context.Background(), domain.Input{URL: server.URL + "/slow.mp4"}, domain.FamilyVideo)
	if domain.CodeOf(err) != domain.CodeFetchTimeout {
		t.Fatalf("expected FETCH_TIMEOUT, got %v", err)
	}

	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatalf("read temp dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("partial download left behind: %v", entries)
	}
}

func TestFetchVideoURLStreamsToFile(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("fake-container"))
	}))
	defer server.Close()

	f := New(server.Client(), nil, Config{TempDir: t.TempDir()}, nil)
	res, err := f.Fetch(context.Background(), domain.Input{URL: server.URL + "/v.mp4"}, domain.FamilyVideo)
	if err != nil {
		t.Fatalf("fetch returned error: %v", err)
	}
	defer res.Close()

	if res.InMemory() {
		t.Fatal("video fetch should stream to disk")
	}
	if res.MIME != "video/mp4" {
		t.Fatalf("unexpected mime %s", res.MIME)
	}
}

type stubResolver struct {
	video ports.ResolvedVideo
	err   error
}

func (s stubResolver) Resolve(ctx context.Context, url, destDir string) (ports.ResolvedVideo, error) {
	return s.video, s.err
}

func TestFetchYouTubePlaylistRejected(t *testing.T) {
	t.Parallel()

	f := New(nil, stubResolver{err: ports.ErrVideoPlaylist}, Config{TempDir: t.TempDir()}, nil)
	_, err := f.Fetch(context.Background(), domain.Input{URL: "https://youtube.com/playlist?list=x"}, domain.FamilyYouTube)
	if domain.CodeOf(err) != domain.CodeUnsupportedURLShape {
		t.Fatalf("expected UNSUPPORTED_URL_SHAPE, got %v", err)
	}
}

func TestFetchYouTubeResolvedVideo(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := dir + "/yt.mp4"
	if err := os.WriteFile(path, []byte("yt-bytes"), 0o644); err != nil {
		t.Fatalf("write stub video: %v", err)
	}

	f := New(nil, stubResolver{video: ports.ResolvedVideo{Path: path, MIME: "video/mp4", Size: 8, Title: "clip"}},
		Config{TempDir: dir}, nil)

	res, err := f.Fetch(context.Background(), domain.Input{URL: "https://youtu.be/abc"}, domain.FamilyYouTube)
	if err != nil {
		t.Fatalf("fetch returned error: %v", err)
	}
	if res.Path != path || res.Name != "clip" {
		t.Fatalf("unexpected resource: %+v", res)
	}
}
