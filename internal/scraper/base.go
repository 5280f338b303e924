// Fetcher contract and the error taxonomy the sync engine relies on

package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-jobwatch-automation/internal/models"
)

// ErrSessionExpired means the portal rejected the saved session. It needs an
// out-of-band re-login; retrying does not help.
var ErrSessionExpired = errors.New("session expired")

// TransportError is a network, timeout or unexpected-status failure on one
// page request.
type TransportError struct {
	Page int
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Fetcher produces the full result set for one cycle. Any error means the
// result is unusable; callers must not deliver a partial set.
type Fetcher interface {
	FetchAll(ctx context.Context, filters models.FetchFilters) ([]models.Posting, error)
}

// Response is a buffered API response.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Requester issues authenticated GET requests with the saved session.
type Requester interface {
	Get(ctx context.Context, url string, params map[string]any, headers map[string]string, timeout time.Duration) (*Response, error)
}

// Session is an open, authenticated requester that must be closed.
type Session interface {
	Requester
	Close() error
}

// SessionOpener opens a session from the saved session artifact. It returns
// ErrSessionExpired when no artifact exists.
type SessionOpener func(ctx context.Context) (Session, error)
