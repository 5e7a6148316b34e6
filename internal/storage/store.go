/*
Responsibilities
- Persist decoded resources under content-derived identifiers
- Keep writes atomic: temp file, then rename
- Never write outside the data directory

Identical bytes always map to the same identifier, so repeated saves are
idempotent.
*/
package storage

import (
	"context"

	"github.com/rohmanhakim/clipmd/pkg/failure"
)

// ResourceStore persists one resource and returns its opaque identifier.
type ResourceStore interface {
	Save(ctx context.Context, data []byte, mimeType string, filename string) (string, failure.ClassifiedError)
}

var _ ResourceStore = (*FileStore)(nil)
var _ ResourceStore = (*BoltStore)(nil)
