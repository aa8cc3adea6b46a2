package boundary

import "fmt"

// HostError is a failure reported by a host-implemented callback through its
// status out-parameter.
type HostError struct {
	Method    string
	Message   string
	Code      int32
	ErrorKind int32
}

func (e *HostError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("host %s failed with code %d", e.Method, e.Code)
	}
	return fmt.Sprintf("host %s failed: %s", e.Method, e.Message)
}
