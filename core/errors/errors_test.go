package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

// TestDecodeErrorUnwrap verifies DecodeError unwraps to ErrDecode.
func TestDecodeErrorUnwrap(t *testing.T) {
	err := NewDecode(fmt.Errorf("bad byte"), "utf-8", "windows-1252")
	if !stderrors.Is(err, ErrDecode) {
		t.Error("DecodeError should unwrap to ErrDecode")
	}
	if !strings.Contains(err.Error(), "windows-1252") {
		t.Errorf("message should name attempted encodings, got %q", err.Error())
	}
}

// TestParseErrorUnwrap verifies ParseError unwraps to ErrParse.
func TestParseErrorUnwrap(t *testing.T) {
	err := NewParse("utf-8", fmt.Errorf("unexpected EOF"))
	if !stderrors.Is(err, ErrParse) {
		t.Error("ParseError should unwrap to ErrParse")
	}
	if !strings.Contains(err.Error(), "utf-8") {
		t.Errorf("message should name the encoding, got %q", err.Error())
	}
}

// TestWrapNil verifies Wrap and Wrapf pass nil through.
func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}
}

// TestWrapPreservesSentinel verifies wrapped errors still match sentinels.
func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrap(ErrEmptyInput, "reading melody.xml")
	if !Is(err, ErrEmptyInput) {
		t.Error("wrapped error should match ErrEmptyInput")
	}
}

// TestAs verifies As extracts typed errors through wrapping.
func TestAs(t *testing.T) {
	err := Wrap(NewParse("windows-1252", fmt.Errorf("boom")), "parsing")
	var pe *ParseError
	if !As(err, &pe) {
		t.Fatal("As should find ParseError")
	}
	if pe.Encoding != "windows-1252" {
		t.Errorf("Encoding = %q, want windows-1252", pe.Encoding)
	}
}
