package bridge

import (
	"errors"
	"fmt"
)

// Error categories raised by generated modules. Exceptions raised by
// the interpreted code keep their Python class name as category.
const (
	SerializationError   = "SerializationError"
	DeserializationError = "DeserializationError"
	LinkError            = "LinkError"
	InterpreterError     = "InterpreterError"
	RuntimeError         = "RuntimeError"
)

// Error is a categorized failure crossing the language boundary.
type Error struct {
	Category string
	Message  string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Category
	}
	return e.Category + ": " + e.Message
}

func Errorf(category, format string, args ...any) *Error {
	return &Error{Category: category, Message: fmt.Sprintf(format, args...)}
}

// IsCategory reports whether any error in err's chain is an *Error of
// the given category.
func IsCategory(err error, category string) bool {
	var e *Error
	return errors.As(err, &e) && e.Category == category
}

// ErrPoolClosed is returned when acquiring a worker from a closed pool.
var ErrPoolClosed = errors.New("bridge: pool closed")
