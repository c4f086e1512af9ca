package domain

import (
	"context"
	"errors"
	"strings"
)

// ErrorKind classifies render failures.
type ErrorKind uint8

const (
	// KindUnavailable means the executor could not run at all. The next executor is tried.
	KindUnavailable ErrorKind = iota + 1
	// KindKernelRejected means the kernel ran and refused the input.
	KindKernelRejected
	// KindTimeout means the deadline elapsed before a result arrived.
	KindTimeout
	// KindDecode means the kernel output was malformed. Handled like KindKernelRejected.
	KindDecode
	// KindCache means a cache invariant was violated for this request.
	KindCache
)

// String returns a readable kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindKernelRejected:
		return "kernel rejected"
	case KindTimeout:
		return "timeout"
	case KindDecode:
		return "decode error"
	case KindCache:
		return "cache error"
	default:
		return "unknown"
	}
}

// Retryable reports whether the coordinator may move on to the next executor.
func (k ErrorKind) Retryable() bool {
	return k == KindUnavailable
}

// RenderError is the error every executor returns.
type RenderError struct {
	Kind     ErrorKind
	Executor string
	Err      error
}

// NewRenderError builds a RenderError.
func NewRenderError(kind ErrorKind, executor string, err error) *RenderError {
	return &RenderError{Kind: kind, Executor: executor, Err: err}
}

func (e *RenderError) Error() string {
	var b strings.Builder
	if e.Executor != "" {
		b.WriteString(e.Executor)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RenderError) Unwrap() error { return e.Err }

// KindOf classifies err. Unclassified errors count as kernel rejections, deadline
// errors count as timeouts.
func KindOf(err error) ErrorKind {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Kind
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrTruncatedInput), errors.Is(err, ErrInvalidGeometry), errors.Is(err, ErrUnsupportedFormat):
		return KindDecode
	case errors.Is(err, ErrDoubleComplete), errors.Is(err, ErrCacheClosed), errors.Is(err, ErrUnknownFingerprint),
		errors.Is(err, ErrAbandoned):
		return KindCache
	default:
		return KindKernelRejected
	}
}

// Attempt records one step of the render chain.
type Attempt struct {
	Executor string
	Kind     ErrorKind
	Err      error
}

// ChainError describes every attempt made for a render that produced no real mesh.
type ChainError struct {
	Fingerprint Fingerprint
	Attempts    []Attempt
}

func (e *ChainError) Error() string {
	var b strings.Builder
	b.WriteString("render ")
	b.WriteString(e.Fingerprint.Short())
	b.WriteString(" failed")
	if len(e.Attempts) == 0 {
		b.WriteString(": ")
		b.WriteString(ErrNoExecutors.Error())
		return b.String()
	}
	for i, a := range e.Attempts {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(a.Executor)
		b.WriteString(" ")
		b.WriteString(a.Kind.String())
		cause := a.Err
		var re *RenderError
		if errors.As(cause, &re) {
			cause = re.Err
		}
		if cause != nil {
			b.WriteString(" (")
			b.WriteString(cause.Error())
			b.WriteString(")")
		}
	}
	return b.String()
}

// Unwrap exposes every attempt's cause to errors.Is and errors.As.
func (e *ChainError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}

// Last returns the final attempt, if any.
func (e *ChainError) Last() (Attempt, bool) {
	if len(e.Attempts) == 0 {
		return Attempt{}, false
	}
	return e.Attempts[len(e.Attempts)-1], true
}
