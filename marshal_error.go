package mxapi

import (
	"errors"
	"fmt"
)

// Definition errors. They are reported while an endpoint is defined and mean
// the endpoint was authored incorrectly; they are never produced at call time.
var (
	ErrConflictingPlacement = errors.New("field has more than one placement")
	ErrMultipleBodyTypes    = errors.New("more than one newtype or raw body field")
	ErrMixedBodyKinds       = errors.New("newtype or raw body field mixed with body fields")
	ErrMultipleQueryMaps    = errors.New("more than one query map field")
	ErrMixedQueryKinds      = errors.New("query map field mixed with query fields")
	ErrPathFieldMismatch    = errors.New("path fields do not match path template placeholders")
	ErrBodyOnSafeMethod     = errors.New("body field on a method without a request body")
	ErrInvalidMetadata      = errors.New("invalid endpoint metadata")
	ErrInvalidHistory       = errors.New("invalid path history")
	ErrUnsupportedPlacement = errors.New("placement not supported here")
	ErrUnsupportedFieldType = errors.New("field type not supported by its placement")
	ErrInvalidDefault       = errors.New("invalid field default")
	ErrInvalidTag           = errors.New("invalid mxapi struct tag")
)

// Per-call errors.
var (
	ErrUnsupportedVersion = errors.New("no path available for requested version")
	ErrInvalidPathValue   = errors.New("invalid path value")
	ErrInvalidHeaderValue = errors.New("invalid header value")
	ErrPathNotMatched     = errors.New("path does not match endpoint")
	ErrFieldDecode        = errors.New("failed to decode field")
	ErrFieldEncode        = errors.New("failed to encode field")
	ErrMissingHeader      = errors.New("missing required header")
	ErrMissingField       = errors.New("missing required field")
)

// DefinitionError describes a contradiction in an endpoint definition.
// Kind is one of the definition sentinels above and can be tested with errors.Is.
type DefinitionError struct {
	Endpoint string
	Field    string
	Kind     error
	Detail   string
}

func (e *DefinitionError) Error() string {
	msg := "mxapi: "
	if e.Endpoint != "" {
		msg += e.Endpoint + ": "
	}
	if e.Field != "" {
		msg += "field " + e.Field + ": "
	}
	msg += e.Kind.Error()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *DefinitionError) Unwrap() error { return e.Kind }

// MarshalError is returned when a single message cannot be marshalled.
// Field names the offending field or path segment, when there is one.
type MarshalError struct {
	Kind  error
	Field string
	Err   error
}

func (e *MarshalError) Error() string {
	msg := "mxapi: " + e.Kind.Error()
	if e.Field != "" {
		msg += " " + fmt.Sprintf("%q", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MarshalError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// VersionError is returned when no history entry is old enough to serve the
// requested protocol version.
type VersionError struct {
	Requested Version
	Oldest    Version
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("mxapi: version %s is older than the oldest supported version %s", e.Requested, e.Oldest)
}

func (e *VersionError) Unwrap() error { return ErrUnsupportedVersion }

func fieldDecodeError(field string, err error) *MarshalError {
	return &MarshalError{Kind: ErrFieldDecode, Field: field, Err: err}
}
