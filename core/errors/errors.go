// Package errors provides the conversion failure taxonomy shared by the
// SingStar converter packages.
//
// Only the sentinel errors defined here abort a conversion. Degraded
// conditions (missing tempo, inconsistent duet flags, malformed single
// notes) are reported through the log sink and never surface as errors.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for fatal conversion failures.
var (
	// ErrEmptyInput indicates the byte source contained no data.
	ErrEmptyInput = errors.New("empty input")
	// ErrDecode indicates the input was undecodable under both the
	// declared/default encoding and the legacy fallback.
	ErrDecode = errors.New("undecodable input")
	// ErrParse indicates the document was structurally unparsable under
	// both attempted encodings.
	ErrParse = errors.New("unparsable document")
)

// DecodeError reports a failed text decode with the encodings that were
// attempted.
type DecodeError struct {
	Attempted []string // encoding names, in attempt order
	Err       error    // underlying error, if any
}

func (e *DecodeError) Error() string {
	if len(e.Attempted) > 0 {
		return fmt.Sprintf("decode failed under %v: %v", e.Attempted, e.Err)
	}
	return fmt.Sprintf("decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return ErrDecode }

// ParseError reports a structurally unparsable document.
type ParseError struct {
	Encoding string // encoding in effect for the final attempt
	Err      error  // underlying parser error
}

func (e *ParseError) Error() string {
	if e.Encoding != "" {
		return fmt.Sprintf("parse failed under %s: %v", e.Encoding, e.Err)
	}
	return fmt.Sprintf("parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// NewDecode creates a DecodeError.
func NewDecode(err error, attempted ...string) *DecodeError {
	return &DecodeError{Attempted: attempted, Err: err}
}

// NewParse creates a ParseError.
func NewParse(encoding string, err error) *ParseError {
	return &ParseError{Encoding: encoding, Err: err}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
