package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

var (
	ErrEmptyQuery   = errors.New("empty query")
	ErrQueryTooLong = errors.New("query too long")
)

var (
	ErrHistoryNotFound = errors.New("history entry not found")
	ErrStorage         = errors.New("storage failure")
)

var (
	ErrResponderFailed = errors.New("responder failed")
	ErrLinksFailed     = errors.New("link lookup failed")
)

var (
	ErrDependencyMissing = errors.New("dependency missing")
)

// FailureKind - категория сбоя, по которой вызывающий код решает, что показать пользователю
type FailureKind string

const (
	FailureDependencyUnavailable FailureKind = "dependency_unavailable"
	FailureInputInvalid          FailureKind = "input_invalid"
	FailureUpstreamUnavailable   FailureKind = "upstream_unavailable"
	FailureStorage               FailureKind = "storage_failure"
)

type Failure struct {
	Kind FailureKind
	Op   string
	Err  error
}

func NewFailure(kind FailureKind, op string, err error) error {
	return &Failure{Kind: kind, Op: op, Err: err}
}

func (f *Failure) Error() string {
	if f.Op == "" {
		return fmt.Sprintf("%s: %v", f.Kind, f.Err)
	}
	return fmt.Sprintf("%s: %s: %v", f.Kind, f.Op, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf возвращает пустую строку, если в цепочке нет Failure
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
