package discovery

import "fmt"

// DiscoveryError reports that the mDNS listener could not be opened or used.
// It is fatal to a backup run: without a listener no device can be found.
type DiscoveryError struct {
	Op  string // Operation that failed (e.g., "create resolver", "browse")
	Err error  // Underlying error
}

// Error implements the error interface
func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DiscoveryError) Unwrap() error {
	return e.Err
}
