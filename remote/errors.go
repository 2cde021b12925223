package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrNotFound    = errors.New("remote: not found")
	ErrPermission  = errors.New("remote: permission denied")
	ErrUnavailable = errors.New("remote: unavailable")
)

// Kind classifies a remote failure. The loader treats every kind the same;
// views may pick a message by kind.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindPermission Kind = "permission"
	KindNotFound   Kind = "not_found"
	KindUnknown    Kind = "unknown"
)

// FetchError is a failed live fetch of a collection.
type FetchError struct {
	Collection string
	Kind       Kind
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %q: %s: %v", e.Collection, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// AsFetchError wraps err in a FetchError for collection unless it already is one.
func AsFetchError(collection string, err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{Collection: collection, Kind: Classify(err), Err: err}
}

// Classify maps an error onto a Kind.
func Classify(err error) Kind {
	var ne net.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermission):
		return KindPermission
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &ne):
		return KindNetwork
	default:
		return KindUnknown
	}
}
