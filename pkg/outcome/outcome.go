// SPDX-License-Identifier: AGPL-3.0-or-later

// Package outcome provides a two-branch result value used throughout
// hopline in place of error-prone early returns scattered across a long
// function body. A chain of steps that each return an Outcome stops at
// the first Failure, carrying its reason to the caller.
package outcome

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// Outcome is the result of a computation that can fail with a reason
// instead of (or alongside) returning a value. The zero value is a
// Success holding the zero value of T.
type Outcome[T any] struct {
	value  T
	reason string
	failed bool
}

// Success wraps v as a successful Outcome.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{value: v}
}

// Failure constructs a failed Outcome carrying reason, prefixed with a
// "[file:line]" marker captured at the call site (spec §7's mandatory
// site-marker invariant). Grounded on original_source/npipes/utils/
// track.py's track(), which does the same by inspecting the caller's
// stack frame.
func Failure[T any](reason string) Outcome[T] {
	return Outcome[T]{reason: track(reason), failed: true}
}

// Propagate re-types an already-constructed Failure for a new T without
// stamping a second site marker, mirroring how the original's bind
// operator forwards a lower layer's Failure unchanged rather than
// re-wrapping it. Propagate on a Success returns a Success holding the
// zero value of U (the value is not carried over); callers only use it
// once Failed() is known true.
func Propagate[T, U any](o Outcome[T]) Outcome[U] {
	return Outcome[U]{reason: o.reason, failed: o.failed}
}

func track(s string) string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return s
	}
	return fmt.Sprintf("[%s:%d] %s", filepath.Base(file), line, s)
}

// Ok reports whether the Outcome is a Success.
func (o Outcome[T]) Ok() bool { return !o.failed }

// Failed reports whether the Outcome is a Failure.
func (o Outcome[T]) Failed() bool { return o.failed }

// Value returns the held value. Only meaningful when Ok() is true.
func (o Outcome[T]) Value() T { return o.value }

// Reason returns the failure reason. Only meaningful when Failed() is true.
func (o Outcome[T]) Reason() string { return o.reason }

// Chain applies f to the value of o if o is a Success, short-circuiting
// to o's Failure (re-typed to f's return type) otherwise. This is the
// explicit-early-return evaluation of the "chain" operation described in
// the design: there is no operator overloading in Go, so call sites read
// top-to-bottom instead of using an infix bind.
func Chain[T, U any](o Outcome[T], f func(T) Outcome[U]) Outcome[U] {
	if o.failed {
		return Propagate[T, U](o)
	}
	return f(o.value)
}

// Map transforms the value of a Success without the possibility of
// introducing a new Failure.
func Map[T, U any](o Outcome[T], f func(T) U) Outcome[U] {
	if o.failed {
		return Propagate[T, U](o)
	}
	return Success(f(o.value))
}
