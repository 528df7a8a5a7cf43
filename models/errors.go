package models

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNoActiveClass    = errors.New("no class selected")
	ErrAlreadyExists    = errors.New("class already exists")
	ErrNotFound         = errors.New("not found")
	ErrEmptyName        = errors.New("name cannot be empty")
	ErrInvalidName      = errors.New("invalid student name")
	ErrInvalidClassName = errors.New("invalid class name")
	ErrNoStudents       = errors.New("class has no students")
)

// ParseError is returned when a line of a persisted roster cannot be read.
// It is fatal for the load that produced it.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PersistenceError wraps an I/O failure against the backing store of a class.
type PersistenceError struct {
	Op    string
	Class string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s class %q: %v", e.Op, e.Class, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
