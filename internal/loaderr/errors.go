// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package loaderr defines the failure taxonomy shared by every stage of a
// definition load. Each failure kind is a sentinel matched with errors.Is;
// the concrete *Error carries the element path and source line where the
// failure was detected.
package loaderr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingClass          = errors.New("missing class")
	ErrMissingKey            = errors.New("missing key")
	ErrInvalidID             = errors.New("missing or invalid global id")
	ErrIncompatibleClass     = errors.New("unresolved or incompatible class")
	ErrConstructorNotFound   = errors.New("constructor not found")
	ErrAmbiguousConstructor  = errors.New("ambiguous constructor")
	ErrInvalidMemberType     = errors.New("invalid member type")
	ErrUnsupportedCollection = errors.New("unsupported or ambiguous collection member")
	ErrUnknownMember         = errors.New("unknown member")
	ErrReservedMember        = errors.New("reserved member name")
	ErrAmbiguousElement      = errors.New("more than one matching element")
	ErrDuplicateIdentity     = errors.New("duplicate global identity")
	ErrIdentityMismatch      = errors.New("key bound to a different global identity")
	ErrRegistryCapacity      = errors.New("registry capacity exceeded")
	ErrKeysNotLoaded         = errors.New("keys not yet loaded")
	ErrKeysAlreadyLoaded     = errors.New("keys already loaded")
	ErrObjectsAlreadyLoaded  = errors.New("objects already loaded")
	ErrDuplicateAlias        = errors.New("duplicate alias")
	ErrFormat                = errors.New("format error")
	ErrUnresolvedReference   = errors.New("unresolved reference")
	ErrIncompatibleValue     = errors.New("incompatible bound value")
)

// Locator is anything that can point at a place in a source document.
type Locator interface {
	Path() string
	Line() int
}

// Error is a load failure of a given Kind, optionally pinned to a document location.
type Error struct {
	Kind  error
	Path  string
	Line  int
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Path != "" {
		sb.WriteString(" at ")
		sb.WriteString(e.Path)
		if e.Line > 0 {
			fmt.Fprintf(&sb, " (line %d)", e.Line)
		}
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// New creates an unlocated error of the given kind.
func New(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// At creates an error of the given kind located at loc.
func At(loc Locator, kind error, format string, args ...any) *Error {
	e := New(kind, format, args...)
	if loc != nil {
		e.Path = loc.Path()
		e.Line = loc.Line()
	}
	return e
}

// Wrap creates an error of the given kind with an underlying cause.
// A cause that already is an *Error with a location is returned unchanged so
// the innermost location wins.
func Wrap(loc Locator, kind error, cause error, format string, args ...any) error {
	var le *Error
	if errors.As(cause, &le) && le.Path != "" {
		return cause
	}
	e := At(loc, kind, format, args...)
	e.Cause = cause
	return e
}

// Locate attaches loc to err when err is an *Error that has no location yet.
// Any other error is returned unchanged.
func Locate(loc Locator, err error) error {
	var le *Error
	if loc == nil || !errors.As(err, &le) || le.Path != "" {
		return err
	}
	cp := *le
	cp.Path, cp.Line = loc.Path(), loc.Line()
	return &cp
}
