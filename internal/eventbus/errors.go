package eventbus

import "fmt"

// DispatchError describes one failed subscriber invocation during Publish.
// Exactly one of Err or Panic is the origin of the failure; when the recovered
// panic value is itself an error it is also stored in Err.
type DispatchError struct {
	Kind       string
	Subscriber any
	Err        error
	Panic      any
	Stack      []byte
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("subscriber %T panicked handling %q: %v", e.Subscriber, e.Kind, e.Panic)
	}
	return fmt.Sprintf("subscriber %T failed handling %q: %v", e.Subscriber, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Recovered reports whether the failure was a panic.
func (e *DispatchError) Recovered() bool {
	return e.Panic != nil
}
