package compile

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"struct-mapper/internal/common"
)

var (
	ErrPanic          = errors.New("panic while mapping")
	ErrFactoryResult  = errors.New("factory returned an unusable value")
	ErrHandlerResult  = errors.New("exception handler returned an unusable value")
	ErrUnresolvedType = errors.New("no mapping for runtime type")
	ErrSourceMismatch = errors.New("source value does not match the mapper")
)

// MappingError reports a failure while a mapper was executing.
type MappingError struct {
	// Path is the target member path the failure occurred at, e.g. "Items[2].Price".
	Path    string
	Source  reflect.Type
	Target  reflect.Type
	RuleSet string
	// CallID correlates the failure with debug logs of the root call.
	CallID string
	Err    error
}

func (e *MappingError) Error() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "mapping %s -> %s (%s)", common.TypeName(e.Source), common.TypeName(e.Target), e.RuleSet)
	if e.Path != "" {
		sb.WriteString(" at " + e.Path)
	}

	if e.CallID != "" {
		sb.WriteString(" [call " + e.CallID + "]")
	}

	sb.WriteString(": " + e.Err.Error())

	return sb.String()
}

func (e *MappingError) Unwrap() error { return e.Err }

// pathError carries the member path of a failure up to the root call.
type pathError struct {
	segments []string
	err      error
}

func (e *pathError) Error() string { return e.path() + ": " + e.err.Error() }

func (e *pathError) Unwrap() error { return e.err }

func (e *pathError) path() string {
	var sb strings.Builder
	for i, s := range e.segments {
		if i > 0 && !strings.HasPrefix(s, "[") {
			sb.WriteString(".")
		}
		sb.WriteString(s)
	}

	return sb.String()
}

// at prepends a path segment to the failure.
func at(segment string, err error) error {
	if pe, ok := err.(*pathError); ok {
		pe.segments = append([]string{segment}, pe.segments...)
		return pe
	}

	return &pathError{segments: []string{segment}, err: err}
}

// split separates the member path from the failure.
func split(err error) (string, error) {
	if pe, ok := err.(*pathError); ok {
		return pe.path(), pe.err
	}

	return "", err
}
