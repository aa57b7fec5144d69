package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeNotFound     Code = "NOT_FOUND"
	CodeRejected     Code = "MUTATION_REJECTED"
	CodeTransport    Code = "TRANSPORT_ERROR"
	CodeConfig       Code = "CONFIG_ERROR"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// Metadata describes how a coded failure is presented to the operator.
type Metadata struct {
	Retryable     bool
	Surface       bool
	PublicMessage string
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		Retryable:     false,
		Surface:       true,
		PublicMessage: "validation failed",
	},
	CodeUnauthorized: {
		Retryable:     false,
		Surface:       true,
		PublicMessage: "invalid authorization",
	},
	CodeNotFound: {
		Retryable:     false,
		Surface:       true,
		PublicMessage: "resource not found",
	},
	CodeRejected: {
		Retryable:     false,
		Surface:       true,
		PublicMessage: "request declined",
	},
	CodeTransport: {
		Retryable:     true,
		Surface:       false,
		PublicMessage: "backend unreachable",
	},
	CodeConfig: {
		Retryable:     false,
		Surface:       true,
		PublicMessage: "client misconfigured",
	},
	CodeInternal: {
		Retryable:     false,
		Surface:       true,
		PublicMessage: "internal error",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// PublicMessage extracts an operator-facing message for any error. Coded
// errors with a server-supplied message surface it verbatim; everything else
// falls back to the generic message for the code.
func PublicMessage(err error) string {
	typed := As(err)
	if typed == nil {
		return MetadataFor(CodeInternal).PublicMessage
	}
	if typed.Message() != "" {
		return typed.Message()
	}
	return MetadataFor(typed.Code()).PublicMessage
}
