package store

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrLocked means another process already owns the seen-set.
var ErrLocked = errors.New("another jobwatch instance holds the lock")

// Lock takes an exclusive, non-blocking lock on path+".lock". Two processes
// sharing one seen-set would corrupt it.
func Lock(path string) (unlock func() error, err error) {
	fl := flock.New(path + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", fl.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, fl.Path())
	}
	return fl.Unlock, nil
}
