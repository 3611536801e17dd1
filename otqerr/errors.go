// Package otqerr defines the error kinds shared across the object-tree
// query engine (ot, path, dump). Call sites wrap these sentinels with
// fmt.Errorf("...: %w", ...) and callers compare with errors.Is.
package otqerr

import "errors"

var (
	// ErrInvalidArgument is returned for NULL/zero-size inputs to public APIs.
	ErrInvalidArgument = errors.New("otquery: invalid argument")

	// ErrParse is returned when a JSON document or path expression is malformed.
	// The parser stops at the offending offset; the caller may inspect the
	// residual unparsed input.
	ErrParse = errors.New("otquery: parse error")

	// ErrIncompatible is returned when a filter/compare operates on
	// structurally mismatched data (e.g. a POD adaptor comparison across
	// incompatible field shapes).
	ErrIncompatible = errors.New("otquery: incompatible operands")

	// ErrNotSupported names a recognised but unimplemented feature
	// combination. No package in this module returns it.
	ErrNotSupported = errors.New("otquery: not supported")

	// ErrTransport names a failed registry round-trip. No package in this
	// module returns it: the registry adaptor passes a Fetcher's error
	// through unchanged, which ends the iteration of the expensive entry
	// being read; the affected subtree is not replaced with null.
	ErrTransport = errors.New("otquery: transport error")

	// ErrOutOfMemory names an allocation failure during path/expr
	// compilation or cache insertion. No package in this module returns it.
	ErrOutOfMemory = errors.New("otquery: out of memory")
)

// ParseErrorAt wraps ErrParse with the byte offset at which parsing stopped.
type ParseErrorAt struct {
	Offset int
	Reason string
}

func (e *ParseErrorAt) Error() string {
	if e.Reason == "" {
		return ErrParse.Error()
	}
	return ErrParse.Error() + ": " + e.Reason
}

func (e *ParseErrorAt) Unwrap() error { return ErrParse }
