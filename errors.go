package emigo

import "fmt"

// EPCError is a protocol-level failure: an unknown method, or some other
// failure that occurred before a task ever ran. It is a distinct type
// (rather than a plain string error) so a caller's failed Deferred can be
// discriminated from a ReturnError with errors.As.
type EPCError struct {
	Message string
}

func (e *EPCError) Error() string { return e.Message }

// newUnknownMethodError builds the EPC-error payload for an inbound call
// naming a method that isn't registered.
func newUnknownMethodError(name string) *EPCError {
	return &EPCError{Message: fmt.Sprintf("EPC-ERROR: No such method : %s", name)}
}

// ReturnError is an application-level failure: a registered task's body
// returned or panicked with an error while handling an inbound call.
type ReturnError struct {
	Message string
}

func (e *ReturnError) Error() string { return e.Message }

// newTaskFailureError formats a task's failure the way it crosses the wire
// in a return-error message: the method name, the raw argument list it was
// invoked with, and the failure itself.
func newTaskFailureError(name, argsText string, cause error) *ReturnError {
	return &ReturnError{Message: fmt.Sprintf("FAILED in %s: %s with ERROR: %q", name, argsText, cause.Error())}
}
