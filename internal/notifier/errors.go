package notifier

import (
	"errors"
	"fmt"

	"github.com/jmylchreest/traynote/internal/model"
)

// Routing errors. Only ErrDuplicateID is returned to callers of Notifier.Show;
// the others are logged and the request is dropped.
var (
	// ErrBackendUnavailable means the fallback backend was required but could not be built.
	ErrBackendUnavailable = errors.New("fallback backend unavailable")
	// ErrNoTarget means the native backend was chosen but no tray or window was supplied.
	ErrNoTarget = errors.New("no target - cannot show notification")
	// ErrDuplicateID means the caller reused the id of an outstanding notification.
	ErrDuplicateID = errors.New("notification id already registered")
)

// DuplicateIDError reports an attempt to register an id that is already owned.
type DuplicateIDError struct {
	ID    model.ID
	Owner Owner
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("notification %d already owned by %s backend", e.ID, e.Owner.Kind)
}

func (e *DuplicateIDError) Unwrap() error {
	return ErrDuplicateID
}

// BackendError wraps a failure reported by a backend.
type BackendError struct {
	Backend Backend
	Op      string
	Cause   error
}

func (e *BackendError) Error() string {
	return e.Backend.String() + " " + e.Op + ": " + e.Cause.Error()
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}
