package domain

import (
	"fmt"

	"github.com/herdline/herdline"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// UpdateInFlightError signals that an acceptance update for the same report
// is still pending. Only one mutation per report may be in flight.
type UpdateInFlightError struct {
	Kind herdline.Kind
	ID   string
}

func (e UpdateInFlightError) Error() string {
	return fmt.Sprintf("update already in flight for %s/%s", e.Kind, e.ID)
}

// Is enables errors.Is matching on UpdateInFlightError.
func (e UpdateInFlightError) Is(target error) bool {
	_, ok := target.(UpdateInFlightError)
	if ok {
		return true
	}
	_, ok = target.(*UpdateInFlightError)
	return ok
}

// ErrUpdateInFlight is the sentinel error for concurrent acceptance updates.
var ErrUpdateInFlight = UpdateInFlightError{}
