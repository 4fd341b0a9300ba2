// Package store provides content-addressed blob storage for state
// checkpoints. Blobs are immutable: the content identifier is derived from
// the bytes, so a Put of identical data is idempotent.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrNotFound is returned by Get when no blob exists for the identifier.
var ErrNotFound = errors.New("blob not found")

// BlobStore is the minimal content-addressed interface the checkpoint
// manager depends on. Implementations must be safe for concurrent use.
type BlobStore interface {
	// Put stores data and returns its content identifier.
	Put(ctx context.Context, data []byte) (string, error)

	// Get retrieves the blob for cid, or ErrNotFound.
	Get(ctx context.Context, cid string) ([]byte, error)

	// Pin marks cid as retained. Backends without retention semantics
	// treat it as a no-op existence check.
	Pin(ctx context.Context, cid string) error
}

// ContentID derives the identifier for a blob: hex sha256 of the bytes.
// Local backends use it directly; the IPFS backend defers to the daemon.
func ContentID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
