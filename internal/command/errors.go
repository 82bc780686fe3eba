package command

import (
	"errors"
	"fmt"
	"strings"
)

// Command errors.
var (
	// ErrInvalidOperation indicates an operation that is not valid in the
	// current state (undo on empty history, a second running loop).
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrInvalidArgument indicates a programmer error in the arguments of a
	// call (nil command, empty group).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyInput indicates a blank command line.
	ErrEmptyInput = errors.New("empty command line")

	// ErrCommandNotFound indicates no command is registered under a name.
	ErrCommandNotFound = errors.New("command not found")

	// ErrResolveFailed indicates a command was found but could not be built
	// or bound to its arguments.
	ErrResolveFailed = errors.New("command resolve failed")

	// ErrNotRegistered is returned by a Catalog for unknown (group, name)
	// pairs.
	ErrNotRegistered = errors.New("not registered")
)

// ParseError is returned by Parse.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ArgumentError reports an invalid argument passed by the caller.
type ArgumentError struct {
	Arg     string
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Arg, e.Message)
}

// Is matches ErrInvalidArgument.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// NotFoundError reports an unregistered command name.
type NotFoundError struct {
	Group string
	Name  string
	Args  []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("command %q not found in group %q", e.Name, e.Group)
}

// Is matches ErrCommandNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrCommandNotFound
}

// ResolveError reports a command that was found but could not be built or
// bound to the supplied arguments.
type ResolveError struct {
	Group  string
	Name   string
	Args   []string
	Reason string
	Err    error
}

func (e *ResolveError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "resolve %q", e.Name)
	if len(e.Args) > 0 {
		fmt.Fprintf(&b, " %v", e.Args)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Is matches ErrResolveFailed.
func (e *ResolveError) Is(target error) bool {
	return target == ErrResolveFailed
}

// ConstructionError wraps a factory failure reported by a Catalog.
type ConstructionError struct {
	Group string
	Name  string
	Err   error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construct %s.%s: %v", e.Group, e.Name, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}
