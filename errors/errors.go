package errors

import (
	stderrors "errors"
	"fmt"

	"encore.dev/beta/errs"
	"encore.dev/rlog"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = stderrors.New("record not found")

// ErrExists is returned by stores when a unique key is already taken.
var ErrExists = stderrors.New("record already exists")

// wrap internal error with logging while returning a generic error to the user.
// safe suggests that the error is not user-facing.
func SafeInternalError(err error, msg string) error {
	rlog.Error("internal error", "msg", msg, "error", err)

	return &errs.Error{
		Code:    errs.Internal,
		Message: "internal error occurred",
	}
}

func BadRequestError(msg string) error {
	return &errs.Error{Code: errs.InvalidArgument, Message: msg}
}

func NotFoundError(err error, resource string) error {
	if err != nil {
		rlog.Error("not found error", "resource", resource, "error", err)
	}

	return &errs.Error{
		Code:    errs.NotFound,
		Message: fmt.Sprintf("requested %s was not found", resource),
	}
}

func ConflictError(msg string) error {
	return &errs.Error{Code: errs.AlreadyExists, Message: msg}
}

func PreconditionError(msg string) error {
	return &errs.Error{Code: errs.FailedPrecondition, Message: msg}
}

// FromStore maps a store error onto an API error for resource.
func FromStore(err error, resource, msg string) error {
	if err == nil {
		return nil
	}

	if stderrors.Is(err, ErrNotFound) {
		return NotFoundError(err, resource)
	}
	if stderrors.Is(err, ErrExists) {
		return ConflictError(resource + " already exists")
	}

	return SafeInternalError(err, msg)
}

// IsAPIError reports whether err already carries an API error code.
func IsAPIError(err error) bool {
	var apiErr *errs.Error
	return stderrors.As(err, &apiErr)
}

// IsNotFound reports whether err is a store miss or an API NotFound error.
func IsNotFound(err error) bool {
	if stderrors.Is(err, ErrNotFound) {
		return true
	}

	return errs.Code(err) == errs.NotFound
}
