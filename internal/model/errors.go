package model

import (
	"errors"
	"fmt"
	"log/slog"
)

// Exit codes of the kevhost binary.
const (
	ExitOK          = 0
	ExitLookup      = 1
	ExitFeedFetch   = 2
	ExitConfig      = 3
	ExitUpload      = 4
	ExitUnspecified = 1
)

var (
	ErrEmptyTarget = errors.New("target IP address is empty")
	ErrNoFeedData  = errors.New("feed has no vulnerabilities field")
)

// ConfigError reports a missing or invalid configuration value.
type ConfigError struct {
	Key     string // shodan_api_key, timeout, ...
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Message)
}

func (e *ConfigError) Attr(name string) slog.Attr {
	return slog.Group(
		name,
		slog.String("key", e.Key),
		slog.String("message", e.Message),
	)
}

// ConfigErrDetails returns all ConfigErrors joined in err.
func ConfigErrDetails(err error) []*ConfigError {
	switch e := err.(type) {
	case nil:
		return nil
	case *ConfigError:
		return []*ConfigError{e}
	case interface{ Unwrap() []error }:
		var ret []*ConfigError
		for _, u := range e.Unwrap() {
			ret = append(ret, ConfigErrDetails(u)...)
		}
		return ret
	case interface{ Unwrap() error }:
		return ConfigErrDetails(e.Unwrap())
	}
	return nil
}

// LookupKind classifies a failed host lookup.
type LookupKind string

const (
	LookupAuth        LookupKind = "auth"
	LookupNotFound    LookupKind = "not_found"
	LookupRateLimited LookupKind = "rate_limited"
	LookupTransient   LookupKind = "transient"
	LookupInvalid     LookupKind = "invalid"
	LookupUnknown     LookupKind = "unknown"
)

// LookupError is any failure of the host-intelligence call.
type LookupError struct {
	Target     string
	Kind       LookupKind
	StatusCode int    // 0 when no response was received
	Message    string // message reported by the service, if any
	Err        error
}

func (e *LookupError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("host lookup %s failed (%s, status %d): %s", e.Target, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("host lookup %s failed (%s): %s", e.Target, e.Kind, msg)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the same request may succeed.
func (e *LookupError) Retryable() bool {
	return e.Kind == LookupRateLimited || e.Kind == LookupTransient
}

// FeedFetchError is a network, status or parse failure of the KEV feed.
type FeedFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FeedFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching KEV feed %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetching KEV feed %s: %v", e.URL, e.Err)
}

func (e *FeedFetchError) Unwrap() error {
	return e.Err
}

// UploadError wraps a failed BOM upload.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return "uploading BOM: " + e.Err.Error()
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// ExitCode maps err to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		ce *ConfigError
		le *LookupError
		fe *FeedFetchError
		ue *UploadError
	)
	switch {
	case errors.As(err, &ce):
		return ExitConfig
	case errors.As(err, &le):
		return ExitLookup
	case errors.As(err, &fe):
		return ExitFeedFetch
	case errors.As(err, &ue):
		return ExitUpload
	default:
		return ExitUnspecified
	}
}
