package services

import (
	"errors"
	"fmt"
)

// ErrPipelineBusy is returned when a run is requested while another is active
var ErrPipelineBusy = errors.New("pipeline is already running")

// ErrJobNotFound is returned by job stores for unknown or expired ids
var ErrJobNotFound = errors.New("job not found")

// InputError reports an input table that cannot start a run
type InputError struct {
	Source string
	Err    error
}

func (e *InputError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("falha ao ler arquivo: %v", e.Err)
	}
	return fmt.Sprintf("falha ao ler arquivo %s: %v", e.Source, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// LookupKind classifies lookup failures
type LookupKind int

const (
	LookupNotFound LookupKind = iota + 1
	LookupRateLimited
	LookupHTTPStatus
	LookupTransport
)

func (k LookupKind) String() string {
	switch k {
	case LookupNotFound:
		return "not_found"
	case LookupRateLimited:
		return "rate_limited"
	case LookupHTTPStatus:
		return "http_status"
	case LookupTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// LookupError is a per-identifier lookup failure. Message is the exact text
// written to the error report.
type LookupError struct {
	Kind       LookupKind
	StatusCode int
	Message    string
	Err        error
}

func (e *LookupError) Error() string { return e.Message }

func (e *LookupError) Unwrap() error { return e.Err }

// IsLookupKind reports whether err is a LookupError of the given kind
func IsLookupKind(err error, kind LookupKind) bool {
	var le *LookupError
	return errors.As(err, &le) && le.Kind == kind
}
