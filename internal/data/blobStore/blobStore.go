package blobStore

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlobStore holds uploaded source files until an ingest job has extracted them.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Fetch makes the blob available as a local file. cleanup removes any temporary copy.
	Fetch(ctx context.Context, key string) (localPath string, cleanup func(), err error)
	Delete(ctx context.Context, key string) error
}

// NewKey builds a collision free key that keeps the original extension, extraction dispatches on it.
func NewKey(fileName string) string {
	base := filepath.Base(fileName)
	base = strings.ReplaceAll(base, " ", "_")
	return path.Join(time.Now().UTC().Format("2006/01/02"), fmt.Sprintf("%s-%s", uuid.NewString(), base))
}
