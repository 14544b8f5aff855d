package mxapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorCode is a machine-readable Matrix error code ("errcode").
type ErrorCode string

const (
	CodeForbidden              ErrorCode = "M_FORBIDDEN"
	CodeUnknownToken           ErrorCode = "M_UNKNOWN_TOKEN"
	CodeMissingToken           ErrorCode = "M_MISSING_TOKEN"
	CodeBadJSON                ErrorCode = "M_BAD_JSON"
	CodeNotJSON                ErrorCode = "M_NOT_JSON"
	CodeNotFound               ErrorCode = "M_NOT_FOUND"
	CodeLimitExceeded          ErrorCode = "M_LIMIT_EXCEEDED"
	CodeUnrecognized           ErrorCode = "M_UNRECOGNIZED"
	CodeUnknown                ErrorCode = "M_UNKNOWN"
	CodeMissingParam           ErrorCode = "M_MISSING_PARAM"
	CodeInvalidParam           ErrorCode = "M_INVALID_PARAM"
	CodeTooLarge               ErrorCode = "M_TOO_LARGE"
	CodeUnsupportedRoomVersion ErrorCode = "M_UNSUPPORTED_ROOM_VERSION"
)

// Error is the standard Matrix JSON error envelope.
type Error struct {
	Code    ErrorCode `json:"errcode"`
	Message string    `json:"error"`
	// RetryAfterMs accompanies M_LIMIT_EXCEEDED.
	RetryAfterMs int64 `json:"retry_after_ms,omitempty"`

	// Status overrides the HTTP status derived from Code. It is not serialized.
	Status int `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new error envelope.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new error envelope with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithStatus returns a copy of e that is written with the given HTTP status.
func (e *Error) WithStatus(status int) *Error {
	c := *e
	c.Status = status
	return &c
}

// HTTPStatus returns the status the envelope is written with.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return e.Code.HTTPStatus()
}

// ErrorTransformer is a function that maps an application error to an error envelope.
// If it returns nil, the default transformer logic should be applied.
type ErrorTransformer func(error) *Error

// DefaultErrorTransformer maps marshalling, validation and standard Go errors
// to error envelopes.
func DefaultErrorTransformer(err error) *Error {
	if err == nil {
		return nil
	}

	var envelope *Error
	if errors.As(err, &envelope) {
		return envelope
	}

	var marshalErr *MarshalError
	if errors.As(err, &marshalErr) {
		switch {
		case errors.Is(marshalErr.Kind, ErrPathNotMatched):
			return NewError(CodeUnrecognized, "unrecognized request").WithStatus(http.StatusNotFound)
		case errors.Is(marshalErr.Kind, ErrMissingHeader):
			return Errorf(CodeMissingParam, "missing header %s", marshalErr.Field)
		case errors.Is(err, ErrMissingField):
			return Errorf(CodeMissingParam, "missing parameter %s", marshalErr.Field)
		case errors.Is(marshalErr.Kind, ErrFieldDecode) && marshalErr.Field == "body":
			return Errorf(CodeNotJSON, "request body is not a JSON object: %v", marshalErr.Err)
		case errors.Is(marshalErr.Kind, ErrFieldDecode):
			return Errorf(CodeBadJSON, "invalid value for %s: %v", marshalErr.Field, marshalErr.Err)
		}
		return NewError(CodeUnknown, err.Error()).WithStatus(http.StatusInternalServerError)
	}

	var versionErr *VersionError
	if errors.As(err, &versionErr) {
		return NewError(CodeUnrecognized, versionErr.Error())
	}

	if errors.Is(err, ErrBodyTooLarge) {
		return NewError(CodeTooLarge, "request body too large")
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(CodeUnknown, "request timeout").WithStatus(http.StatusGatewayTimeout)
	}

	if errors.Is(err, context.Canceled) {
		return NewError(CodeUnknown, "context canceled").WithStatus(499)
	}

	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		messages := make([]string, 0, len(valErrs))
		for _, ve := range valErrs {
			messages = append(messages, ve.Field()+": "+formatValidationError(ve))
		}
		return NewError(CodeInvalidParam, strings.Join(messages, "; "))
	}

	// Handle multi-errors (errors.Join)
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		errs := u.Unwrap()
		if len(errs) > 0 {
			firstMapped := DefaultErrorTransformer(errs[0])
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			return &Error{
				Code:    firstMapped.Code,
				Message: strings.Join(msgs, "; "),
				Status:  firstMapped.Status,
			}
		}
	}

	return NewError(CodeUnknown, err.Error())
}

// HTTPStatus maps an ErrorCode to an HTTP status code.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeBadJSON, CodeNotJSON, CodeMissingParam, CodeInvalidParam, CodeUnrecognized, CodeUnsupportedRoomVersion:
		return http.StatusBadRequest
	case CodeUnknownToken, CodeMissingToken:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", ve.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	case "iso3166_1_alpha2":
		return "must be a two-letter country code"
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}

// errorFromMessage decodes an error response. Bodies that are not a Matrix
// error envelope become M_UNKNOWN with the body as message.
func errorFromMessage(msg *Message) *Error {
	var e Error
	if err := json.Unmarshal(msg.Body, &e); err != nil || e.Code == "" {
		e = Error{Code: CodeUnknown, Message: strings.TrimSpace(string(msg.Body))}
		if e.Message == "" {
			e.Message = http.StatusText(msg.Status)
		}
	}
	e.Status = msg.Status
	return &e
}

func writeError(w http.ResponseWriter, envelope *Error, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(envelope.HTTPStatus())
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		// Headers already sent, nothing we can do. Log for debugging.
		logger.Error("failed to encode error response",
			slog.String("errcode", string(envelope.Code)),
			slog.String("error", envelope.Message),
			slog.Any("cause", err))
	}
}
