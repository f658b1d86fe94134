package rta

import (
	"errors"
	"fmt"
)

// ErrUnauthorized marks a definitive 401 from the backend: the bearer token
// is dead and the gateway session must be revoked. Transport failures never
// map to this error.
var ErrUnauthorized = errors.New("backend rejected bearer token")

// BackendError carries the backend's {detail} message for a non-2xx
// response so handlers can surface it verbatim in the dismissible banner.
type BackendError struct {
	Status int
	Detail string
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// Detail extracts the user-facing message from a backend call error,
// falling back to a generic string for transport-level failures.
func Detail(err error) string {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Error()
	}
	return "the service is temporarily unavailable, please try again"
}
