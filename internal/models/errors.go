package models

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds reported in a crawl run summary
const (
	FailureKindMissingElement = "missing_element"
	FailureKindStoreWrite     = "store_write"
	FailureKindFetch          = "fetch"
	FailureKindUnknown        = "unknown"
)

// MissingElementError is returned when a page lacks a required element
type MissingElementError struct {
	Element string
}

func (e *MissingElementError) Error() string {
	return fmt.Sprintf("missing required element <%s>", e.Element)
}

// StoreWriteError wraps a failed put against the page table
type StoreWriteError struct {
	Table string
	Title string
	Err   error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("failed to write page %q to table %s: %v", e.Title, e.Table, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

// ConfigParseError is reported when the invocation payload is not a JSON
// object. It is never fatal: callers fall back to the default configuration.
type ConfigParseError struct {
	Input string
	Err   error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("invalid crawl configuration %q: %v", truncate(e.Input, 64), e.Err)
}

func (e *ConfigParseError) Unwrap() error {
	return e.Err
}

// FetchError is returned by the fetch engine when a page could not be retrieved
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FailureKind classifies a per-page error for reporting
func FailureKind(err error) string {
	var (
		missing *MissingElementError
		store   *StoreWriteError
		fetch   *FetchError
	)

	switch {
	case errors.As(err, &missing):
		return FailureKindMissingElement
	case errors.As(err, &store):
		return FailureKindStoreWrite
	case errors.As(err, &fetch):
		return FailureKindFetch
	default:
		return FailureKindUnknown
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
