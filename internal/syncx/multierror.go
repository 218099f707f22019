// Package syncx holds small concurrency helpers shared across the module.
package syncx

import (
	"fmt"
	"strings"
	"sync"
)

// MultiError collects errors from concurrent teardown paths and
// implements the error interface.
type MultiError struct {
	mu     sync.Mutex
	errors []error
}

// Add appends a non-nil error.
func (me *MultiError) Add(err error) {
	if err == nil {
		return
	}
	me.mu.Lock()
	me.errors = append(me.errors, err)
	me.mu.Unlock()
}

// Errors returns a copy of the collected errors.
func (me *MultiError) Errors() []error {
	me.mu.Lock()
	defer me.mu.Unlock()
	out := make([]error, len(me.errors))
	copy(out, me.errors)
	return out
}

// ToError returns nil when nothing was collected, otherwise the
// MultiError itself.
func (me *MultiError) ToError() error {
	me.mu.Lock()
	defer me.mu.Unlock()
	if len(me.errors) == 0 {
		return nil
	}
	return me
}

func (me *MultiError) Error() string {
	me.mu.Lock()
	defer me.mu.Unlock()
	switch len(me.errors) {
	case 0:
		return ""
	case 1:
		return me.errors[0].Error()
	}
	parts := make([]string, len(me.errors))
	for i, err := range me.errors {
		parts[i] = fmt.Sprintf("[%d] %s", i+1, err.Error())
	}
	return "multiple errors occurred:\n" + strings.Join(parts, "\n")
}

// Unwrap exposes the collected errors to errors.Is / errors.As.
func (me *MultiError) Unwrap() []error {
	return me.Errors()
}
