// Package apperr defines the error kinds surfaced by the matching API.
//
// Every error carries an oops code whose last dot-separated segment is the
// reason used to pick the HTTP status.
package apperr

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Error codes. The reason segment maps to 400, 404 and 500 respectively.
const (
	// CodeValidation marks malformed or missing input
	CodeValidation = "request.validate.invalid"
	// CodeNotFound marks a person id with no record
	CodeNotFound = "person.get.not_found"
	// CodeStorage marks a failed database or blob store call
	CodeStorage = "store.failure"
)

// Validation reports input the caller must fix.
func Validation(msg string, kv ...any) error {
	return oops.Code(CodeValidation).With(kv...).New(msg)
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) error {
	return oops.Code(CodeValidation).Errorf(format, args...)
}

// NotFound reports a missing person.
func NotFound(msg string, kv ...any) error {
	return oops.Code(CodeNotFound).With(kv...).New(msg)
}

// Storage wraps a failure of the record store or the blob store. The
// underlying message is kept so it can be surfaced to the caller.
func Storage(err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}
	return oops.Code(CodeStorage).With(kv...).Wrapf(err, "%s", msg)
}

// CodeOf returns the code attached to err, or "" for plain errors.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code := fmt.Sprintf("%v", oopsErr.Code())
	if code == "<nil>" {
		return ""
	}
	return code
}

// FieldsOf returns the structured context attached to err.
func FieldsOf(err error) map[string]any {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}
	return oopsErr.Context()
}

// IsValidation reports whether err was created by Validation or Validationf.
func IsValidation(err error) bool {
	return reason(CodeOf(err)) == "invalid"
}

// IsNotFound reports whether err was created by NotFound.
func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

// IsStorage reports whether err was created by Storage.
func IsStorage(err error) bool {
	return reason(CodeOf(err)) == "failure"
}

// HTTPStatus maps an error kind to the response status. Anything without a
// known code is an internal failure.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func reason(code string) string {
	idx := strings.LastIndex(code, ".")
	if idx == -1 {
		return code
	}
	return code[idx+1:]
}
