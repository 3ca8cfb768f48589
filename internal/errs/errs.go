package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindMalformedSpec      Kind = "malformed_spec"
	KindNotFound           Kind = "not_found"
	KindEmptyResult        Kind = "empty_result"
	KindComposition        Kind = "composition"
	KindExportConfig       Kind = "export_config"
	KindPlaceholderMissing Kind = "placeholder_missing"
	KindNetwork            Kind = "network"
	KindQueryExecution     Kind = "query_execution"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Sentinels for errors.Is. A sentinel matches any *Error of the same kind;
// query execution failures also match ErrNetwork.
var (
	ErrMalformedSpec      = &Error{Kind: KindMalformedSpec}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrEmptyResult        = &Error{Kind: KindEmptyResult}
	ErrComposition        = &Error{Kind: KindComposition}
	ErrExportConfig       = &Error{Kind: KindExportConfig}
	ErrPlaceholderMissing = &Error{Kind: KindPlaceholderMissing}
	ErrNetwork            = &Error{Kind: KindNetwork}
	ErrQueryExecution     = &Error{Kind: KindQueryExecution}
)

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Msg != "" || t.Err != nil {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return e.Kind == KindQueryExecution && t.Kind == KindNetwork
}

// KindOf returns the kind of the outermost *Error in err's chain, or ""
// when err is not classified.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return ""
}

func newf(kind Kind, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

func MalformedSpec(format string, args ...any) error {
	return newf(KindMalformedSpec, nil, format, args...)
}

func NotFound(format string, args ...any) error {
	return newf(KindNotFound, nil, format, args...)
}

func EmptyResult(format string, args ...any) error {
	return newf(KindEmptyResult, nil, format, args...)
}

func ExportConfig(format string, args ...any) error {
	return newf(KindExportConfig, nil, format, args...)
}

func PlaceholderMissing(format string, args ...any) error {
	return newf(KindPlaceholderMissing, nil, format, args...)
}

func Composition(cause error, format string, args ...any) error {
	return newf(KindComposition, cause, format, args...)
}

func Network(cause error, format string, args ...any) error {
	return newf(KindNetwork, cause, format, args...)
}

func QueryExecution(cause error, format string, args ...any) error {
	return newf(KindQueryExecution, cause, format, args...)
}
