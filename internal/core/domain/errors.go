package domain

import (
	"fmt"
	"net/http"
)

// ParseError reports a malformed or out-of-range geometry source file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EmptyInputError means no usable track points were found, so neither a
// centroid nor a heatmap can be derived.
type EmptyInputError struct {
	Dir string
}

func (e *EmptyInputError) Error() string {
	if e.Dir == "" {
		return "no track points found"
	}
	return fmt.Sprintf("no track points found in %s", e.Dir)
}

// ExternalFetchError reports a network failure or non-2xx response from the
// road-work dataset endpoint.
type ExternalFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ExternalFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *ExternalFetchError) Unwrap() error { return e.Err }

// ClassificationAmbiguity marks a record id listed in more than one lookup
// table. It is resolved by precedence and is never fatal.
type ClassificationAmbiguity struct {
	GlobalID int64 `json:"global_id"`
}

func (a ClassificationAmbiguity) Error() string {
	return fmt.Sprintf("global_id %d is listed as both new and degraded", a.GlobalID)
}
