package service

import (
	"context"
	"io"

	"github.com/noah-isme/docserver-api/pkg/ocr"
)

// Actor roles resolved at the HTTP boundary.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Actor is the authenticated principal a lifecycle call acts on behalf of.
// It is resolved once at the boundary and threaded through; the core never
// re-derives it.
type Actor struct {
	ID   uint
	Role string
}

// FileStore abstracts the content store holding submission and template
// files.
type FileStore interface {
	Put(ctx context.Context, scope, filename string, reader io.Reader) (string, error)
	Get(ctx context.Context, objectURL string) ([]byte, error)
	Delete(ctx context.Context, objectURL string) error
}

// ReviewClient abstracts the external automated-review service. The client
// converts its own call failures into a synthetic NEEDS_FIX verdict, so
// Review never returns an error.
type ReviewClient interface {
	Review(ctx context.Context, fileBytes []byte, filename string) ocr.Verdict
}

// ReviewScheduler detaches an automated review run from the caller's
// request path.
type ReviewScheduler interface {
	Schedule(submissionID uint)
}
