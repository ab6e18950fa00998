package service

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of resolution failures.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindNetwork
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindNetwork:
		return "network"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ResolveError is the only error type Resolve returns.
type ResolveError struct {
	Kind ErrorKind
	City string
	Err  error
}

func (e *ResolveError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("City '%s' not found", e.City)
	case KindNetwork:
		return fmt.Sprintf("Network error: %v", e.Err)
	default:
		return fmt.Sprintf("An error occurred: %v", e.Err)
	}
}

func (e *ResolveError) Unwrap() error { return e.Err }

// KindOf returns the ErrorKind carried by err, or 0 when err is not a *ResolveError.
func KindOf(err error) ErrorKind {
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}
