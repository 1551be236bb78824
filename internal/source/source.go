package source

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/workfin/practice-api/internal/models"
)

// RawRecord is one upstream record before normalization, keyed by the source
// system's own field names.
type RawRecord map[string]any

// PingResult reports a lightweight reachability check.
type PingResult struct {
	Message string
	Tables  []string
}

// Source streams raw records for one entity type. Implementations push each
// record through visit and stop on the first visit error; they classify their
// own failures but never retry, retry policy belongs to the caller.
type Source interface {
	Fetch(ctx context.Context, entityType models.EntityType, visit func(RawRecord) error) error
	Ping(ctx context.Context) (PingResult, error)
}

// TableReader is implemented by sources that can stream an arbitrary named
// table beyond the canonical entity mapping. The patient sync uses it to read
// the debtor enrichment table.
type TableReader interface {
	FetchTable(ctx context.Context, table string, visit func(RawRecord) error) error
}

// ErrNotAuthenticated means the connection has no stored credentials. Callers
// surface this as a configuration problem rather than a sync failure.
var ErrNotAuthenticated = errors.New("source: connection is not authenticated")

// Error classifies a source failure. Transient failures (timeouts, upstream
// 5xx) may be retried by the scheduler on its next run; terminal ones
// (bad request, unsupported entity) will fail the same way every time.
type Error struct {
	Op        string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	kind := "terminal"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("source: %s: %s: %v", e.Op, kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transient wraps err as a retryable source failure.
func Transient(op string, err error) error {
	return &Error{Op: op, Transient: true, Err: err}
}

// Terminal wraps err as a permanent source failure.
func Terminal(op string, err error) error {
	return &Error{Op: op, Transient: false, Err: err}
}

// Unsupported marks an entity type the source cannot serve.
func Unsupported(entityType models.EntityType) error {
	return Terminal("fetch", errors.Errorf("entity type %q is not supported by this source", entityType))
}

// IsTransient reports whether err is a retryable source failure.
func IsTransient(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Transient
}
