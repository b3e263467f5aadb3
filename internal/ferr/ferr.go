// Package ferr defines the typed sentinel errors shared across the
// files-diff packages. Each kind is a disambiguator type paired with a
// sentinel, following the typed-sentinel idiom: callers check kind with
// the Is* helper (which composes through wrapping via errors.As) rather
// than comparing error values directly.
package ferr

import (
	"errors"
	"fmt"
)

type (
	Typed[DISAMB any] interface {
		error
		GetErrorType() DISAMB
	}

	errorString[DISAMB any] struct {
		value string
	}

	errorTypedWrapped[DISAMB any] struct {
		wrapped error
	}
)

func (e *errorString[_]) Error() string { return e.value }

func (e *errorString[DISAMB]) GetErrorType() (d DISAMB) { return d }

func (e *errorTypedWrapped[_]) Error() string { return e.wrapped.Error() }

func (e *errorTypedWrapped[DISAMB]) GetErrorType() (d DISAMB) { return d }

func (e *errorTypedWrapped[_]) Unwrap() error { return e.wrapped }

// NewWithType creates a typed sentinel error carrying text.
func NewWithType[DISAMB any](text string) Typed[DISAMB] {
	return &errorString[DISAMB]{value: text}
}

// WrapWithType wraps err, tagging it with DISAMB for IsTyped.
func WrapWithType[DISAMB any](err error) Typed[DISAMB] {
	return &errorTypedWrapped[DISAMB]{wrapped: err}
}

// IsTyped reports whether err (or anything it wraps) carries DISAMB.
func IsTyped[DISAMB any](err error) bool {
	var typed Typed[DISAMB]
	return errors.As(err, &typed)
}

// MakeTypedSentinel creates a sentinel error and its matching checker.
func MakeTypedSentinel[DISAMB any](text string) (
	sentinel Typed[DISAMB],
	check func(error) bool,
) {
	sentinel = NewWithType[DISAMB](text)
	check = func(err error) bool {
		return IsTyped[DISAMB](err)
	}
	return sentinel, check
}

// Wrap wraps err with fmt.Errorf's %w verb, adding no text of its own,
// so errors.Is/errors.As still see through it. Returns nil for
// a nil err so call sites can write `return ferr.Wrap(err)` unconditionally.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w", err)
}

// Errorf formats a new error, wrapping any %w verb exactly like fmt.Errorf.
func Errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// Is is errors.Is, re-exported so call sites only need this package.
func Is(err, target error) bool { return errors.Is(err, target) }

// As is errors.As, re-exported so call sites only need this package.
func As(err error, target any) bool { return errors.As(err, target) }

type (
	mismatchedBaseDisamb   struct{}
	corruptDeltaDisamb     struct{}
	corruptFormatDisamb    struct{}
	unsupportedAlgoDisamb  struct{}
	unsupportedEntryDisamb struct{}
	malformedArchiveDisamb struct{}
	incompletePatchDisamb  struct{}
	ioDisamb               struct{}
)

var (
	// ErrMismatchedBase: the supplied before does not match the patch's
	// recorded before_fingerprint, or an archive apply cannot find a
	// referenced entry.
	ErrMismatchedBase, IsMismatchedBase = MakeTypedSentinel[mismatchedBaseDisamb](
		"mismatched base",
	)

	// ErrCorruptDelta: the compressed or raw delta payload is invalid,
	// or decoded output disagrees with the recorded after_fingerprint.
	ErrCorruptDelta, IsCorruptDelta = MakeTypedSentinel[corruptDeltaDisamb](
		"corrupt delta",
	)

	// ErrCorruptFormat: the patch or patch-set container is truncated,
	// has bad magic, or violates schema constraints.
	ErrCorruptFormat, IsCorruptFormat = MakeTypedSentinel[corruptFormatDisamb](
		"corrupt format",
	)

	// ErrUnsupportedAlgorithm: tag value not known to this version.
	ErrUnsupportedAlgorithm, IsUnsupportedAlgorithm = MakeTypedSentinel[unsupportedAlgoDisamb](
		"unsupported algorithm",
	)

	// ErrUnsupportedEntry: ZIP entry uses an unimplemented compression
	// method.
	ErrUnsupportedEntry, IsUnsupportedEntry = MakeTypedSentinel[unsupportedEntryDisamb](
		"unsupported zip entry",
	)

	// ErrMalformedArchive: ZIP structural error, including duplicate
	// names.
	ErrMalformedArchive, IsMalformedArchive = MakeTypedSentinel[malformedArchiveDisamb](
		"malformed archive",
	)

	// ErrIncompletePatchSet: the before archive contains a path absent
	// from the patch set on apply.
	ErrIncompletePatchSet, IsIncompletePatchSet = MakeTypedSentinel[incompletePatchDisamb](
		"incomplete patch set",
	)

	// ErrIo: underlying read/write failure; always wraps the original
	// cause so errors.Unwrap reaches it.
	ErrIo, IsIo = MakeTypedSentinel[ioDisamb]("io error")
)

// WrapIo tags err (typically from the standard library) as an Io-kind
// failure while preserving it in the unwrap chain.
func WrapIo(err error) error {
	if err == nil {
		return nil
	}
	return WrapWithType[ioDisamb](err)
}
