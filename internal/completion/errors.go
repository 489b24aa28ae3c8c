package completion

import "fmt"

// NetworkError is a transport-level failure: the request never produced an
// HTTP response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("completion network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServiceError means the endpoint was reachable but answered with a
// non-success status.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("completion service error: status %d", e.StatusCode)
}

// MalformedResponseError means the endpoint answered with a success status
// but the reply text could not be extracted from the expected shape.
type MalformedResponseError struct {
	Detail string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed completion response: %s", e.Detail)
}
