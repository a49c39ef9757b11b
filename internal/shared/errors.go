package shared

import (
	"errors"
	"fmt"
)

// RequestError is used when we want a specific error message and StatusCode.
// Sane defaults are listed below. For routes that need custom error messages,
// a request error can be generated and a handler expects the router to return
// the exact message inside the request error msg.
//
// Error codes should be bubbled where the RequestError msg is expected to be
// returned to the user. If the user should see a generic error message but
// the error chain should include more detail for logging purposes, then a
// generic error should be added that provides context
type RequestError struct {
	StatusCode int
	Err        error
}

func (r *RequestError) Error() string {
	return fmt.Sprintf("status %d: err %v", r.StatusCode, r.Err)
}

// Sentinels for the relay's failure taxonomy. Wrap with %w so callers can
// branch on them with errors.Is.
var (
	ErrStoreUnavailable = errors.New("quota store unavailable")
	ErrMalformedPayload = errors.New("malformed completion payload")
)

var (
	ErrInvalidRequest = &RequestError{Err: errors.New("invalid request body"), StatusCode: 400}

	ErrRateLimited = &RequestError{Err: errors.New("Rate limit exceeded, come back tomorrow!"), StatusCode: 429}

	ErrInternalServerError = &RequestError{Err: errors.New("internal server error"), StatusCode: 500}
	ErrUpstreamFailed      = &RequestError{Err: errors.New("upstream request failed"), StatusCode: 502}
)
