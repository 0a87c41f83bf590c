package errors

import (
	"errors"
	"sync"
)

// FileError ties a failure to the input file that produced it.
type FileError struct {
	File string
	Err  error
}

// Error implements the error interface
func (fe *FileError) Error() string {
	return fe.File + ": " + fe.Err.Error()
}

// Unwrap returns the wrapped error
func (fe *FileError) Unwrap() error {
	return fe.Err
}

// ErrorCollector collects per-file failures of a multi-file render so a
// single bad input does not stop the rest of the batch.
type ErrorCollector struct {
	errors []FileError
	mutex  sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors: make([]FileError, 0),
	}
}

// Add records an error for a file. Nil errors are ignored.
func (ec *ErrorCollector) Add(file string, err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, FileError{File: file, Err: err})
}

// GetErrors returns a copy of the collected errors in insertion order
func (ec *ErrorCollector) GetErrors() []FileError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]FileError, len(ec.errors))
	copy(result, ec.errors)
	return result
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.errors) > 0
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = ec.errors[:0]
}

// Err joins the collected errors, or returns nil when there are none.
func (ec *ErrorCollector) Err() error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	if len(ec.errors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(ec.errors))
	for i := range ec.errors {
		errs = append(errs, &ec.errors[i])
	}
	return errors.Join(errs...)
}
