package service

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Kind classifies a service failure; handlers map it to an HTTP status.
type Kind int

const (
	KindStorage Kind = iota
	KindValidation
	KindConflict
	KindAuth
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	default:
		return "storage"
	}
}

// Error is the error type returned by every service method.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field messages for validation failures.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

const (
	MsgInternal           = "internal server error"
	MsgIncorrectCreds     = "incorrect credentials"
	MsgNotAuthenticated   = "not authenticated"
	MsgProjectNotFound    = "project not found"
	MsgEmailRegistered    = "email already registered"
	MsgUsernameTaken      = "username already taken"
	MsgMissingFields      = "missing required fields"
	MsgInvalidProjectData = "invalid project data"
	MsgAlreadyMember      = "already a member of this project"
	MsgNotInterested      = "user has not shown interest in this project"
	MsgInvalidInterest    = "invalid interest decision"
)

func validationError(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func conflictError(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func authError(msg string) *Error {
	return &Error{Kind: KindAuth, Message: msg}
}

func notFoundError(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func storageError(err error) *Error {
	return &Error{Kind: KindStorage, Message: MsgInternal, Err: err}
}

// KindOf reports the Kind of err. Errors that are not *Error are storage
// failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// newValidator returns a validator that reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// fieldErrors converts validator output into a field -> message map.
func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "is required"
		case "email":
			out[fe.Field()] = "must be a valid email"
		case "min", "gte":
			out[fe.Field()] = "must be at least " + fe.Param()
		case "max", "lte":
			out[fe.Field()] = "must be at most " + fe.Param()
		case "oneof":
			out[fe.Field()] = "must be one of " + fe.Param()
		default:
			out[fe.Field()] = "is invalid"
		}
	}
	return out
}
