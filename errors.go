package main

import (
	"errors"
	"fmt"
)

// ErrDecryption is returned when an encrypted key cannot be opened with the
// given passphrase.
var ErrDecryption = errors.New("decryption failed (wrong passphrase or corrupted data?)")

// ErrorKind classifies failures so callers can tell them apart.
type ErrorKind int

const (
	KindUsage ErrorKind = iota + 1
	KindGenerate
	KindEncode
	KindDecrypt
	KindIO
)

func (k ErrorKind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindGenerate:
		return "key generation"
	case KindEncode:
		return "encoding"
	case KindDecrypt:
		return "decryption"
	case KindIO:
		return "i/o"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a kinded error returned by the top-level operations.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// kindOf returns the kind of the outermost *Error in err's chain, or zero.
func kindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if kindOf(err) == KindUsage {
		return 2
	}
	return 1
}
