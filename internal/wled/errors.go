package wled

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// ErrorType represents the category of a fetch failure
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (reset, unreachable, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates the device did not answer before the deadline
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the device refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeHTTP indicates an HTTP-level error (non-200 status code)
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed response (invalid JSON, missing fields)
	ErrTypeParse
	// ErrTypeCanceled indicates the run was aborted while the request was in flight
	ErrTypeCanceled
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeCanceled:
		return "Canceled"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// FetchError represents a failure to retrieve an artifact from a device
type FetchError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Err        error     // Underlying error (if any)
	Device     string    // Device address (host:port)
	Artifact   Artifact  // Artifact being fetched
}

// Error implements the error interface
func (e *FetchError) Error() string {
	prefix := e.Type.String()
	if e.Artifact != "" {
		prefix = fmt.Sprintf("%s (%s)", prefix, e.Artifact)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *FetchError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a typed FetchError
func ClassifyNetworkError(err error, device string) *FetchError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return &FetchError{
			Type:    ErrTypeCanceled,
			Message: "Request canceled",
			Err:     err,
			Device:  device,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return &FetchError{
			Type:    ErrTypeTimeout,
			Message: "Request timed out",
			Err:     err,
			Device:  device,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &FetchError{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
			Device:  device,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &FetchError{
				Type:    ErrTypeConnectionRefused,
				Message: "Device refused connection",
				Err:     err,
				Device:  device,
			}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
			return &FetchError{
				Type:    ErrTypeNetwork,
				Message: "Host unreachable",
				Err:     err,
				Device:  device,
			}
		}
		if errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &FetchError{
				Type:    ErrTypeNetwork,
				Message: "Network unreachable",
				Err:     err,
				Device:  device,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return ClassifyNetworkError(urlErr.Err, device)
	}

	return &FetchError{
		Type:    ErrTypeNetwork,
		Message: "Network error occurred",
		Err:     err,
		Device:  device,
	}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *FetchError {
	classified := ClassifyNetworkError(err, "")
	if classified != nil {
		if classified.Type == ErrTypeNetwork {
			classified.Message = message
		} else {
			classified.Message = message + ": " + classified.Message
		}
		return classified
	}
	return &FetchError{
		Type:    ErrTypeNetwork,
		Message: message,
		Err:     err,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, message string) *FetchError {
	return &FetchError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *FetchError {
	return &FetchError{
		Type:    ErrTypeParse,
		Message: message,
		Err:     err,
	}
}

func fetchErrorType(err error) (ErrorType, bool) {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Type, true
	}
	return 0, false
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS)
func IsNetworkError(err error) bool {
	t, ok := fetchErrorType(err)
	return ok && (t == ErrTypeNetwork || t == ErrTypeTimeout || t == ErrTypeConnectionRefused || t == ErrTypeDNS)
}

// IsTimeout checks if an error is a fetch timeout
func IsTimeout(err error) bool {
	t, ok := fetchErrorType(err)
	return ok && t == ErrTypeTimeout
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	t, ok := fetchErrorType(err)
	return ok && t == ErrTypeHTTP
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	t, ok := fetchErrorType(err)
	return ok && t == ErrTypeParse
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		return err.Error()
	}

	switch fetchErr.Type {
	case ErrTypeTimeout:
		return "Device not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Device refused connection"
	case ErrTypeDNS:
		return "Cannot resolve device hostname"
	case ErrTypeHTTP:
		return fmt.Sprintf("Device error (HTTP %d)", fetchErr.StatusCode)
	case ErrTypeParse:
		return "Malformed device response: " + fetchErr.Message
	case ErrTypeCanceled:
		return "Backup canceled"
	default:
		return "Network error: " + fetchErr.Message
	}
}
