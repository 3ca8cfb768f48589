// Package errs defines the error taxonomy shared by the resolution
// pipeline. Every failure that crosses a component boundary is an *Error
// carrying a Kind, so callers can branch with errors.Is against the
// exported sentinels or classify with KindOf.
package errs
