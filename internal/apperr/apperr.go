// Package apperr defines the error kinds that terminate a run.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindIO            Kind = "IO_ERROR"
	KindDecode        Kind = "DECODE_ERROR"
	KindSerialization Kind = "SERIALIZATION_ERROR"
	KindConfig        Kind = "CONFIG_ERROR"
)

// Error carries the kind, the failed operation and, when relevant, the path
// involved.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + ": " + e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrDecode)
// works across wrapping.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Op == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrIO            = &Error{Kind: KindIO}
	ErrDecode        = &Error{Kind: KindDecode}
	ErrSerialization = &Error{Kind: KindSerialization}
	ErrConfig        = &Error{Kind: KindConfig}
)

func IO(op, path string, err error) error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}

func Decode(op, path string, err error) error {
	return &Error{Kind: KindDecode, Op: op, Path: path, Err: err}
}

func Serialization(op string, err error) error {
	return &Error{Kind: KindSerialization, Op: op, Err: err}
}

func Config(op string, err error) error {
	return &Error{Kind: KindConfig, Op: op, Err: err}
}

// Configf builds a config error from a format string.
func Configf(op, format string, args ...any) error {
	return Config(op, fmt.Errorf(format, args...))
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
