package domain

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
)

// Resource is the fetched content handed to an extractor. It owns either an
// in-memory buffer or an exclusively-owned temporary file, never both.
// The owning pipeline invocation must call Close on every exit path.
type Resource struct {
	Data []byte
	Path string
	MIME string
	Size int64
	Name string

	released bool
}

// InMemory reports whether the resource is buffered rather than on disk.
func (r *Resource) InMemory() bool {
	return r.Path == ""
}

// Open returns a reader over the resource contents.
func (r *Resource) Open() (io.ReadCloser, error) {
	if r.InMemory() {
		return io.NopCloser(bytes.NewReader(r.Data)), nil
	}
	return os.Open(r.Path)
}

// Close releases the backing temporary file, if any. It is idempotent and
// tolerates the file already being gone.
func (r *Resource) Close() error {
	if r == nil || r.released {
		return nil
	}
	r.released = true
	if r.Path == "" {
		return nil
	}
	if err := os.Remove(r.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
