package storage

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get when no blob exists under the key.
var ErrNotFound = errors.New("blob not found")

type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ItemKey is the blob key under which an item's XML source is kept.
func ItemKey(itemID string) string { return "items/" + itemID + ".xml" }
