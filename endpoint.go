package mxapi

import (
	"errors"
	"fmt"
	"reflect"
)

// EndpointInfo is the type-erased view of an Endpoint used by routing,
// policy hooks and tooling.
type EndpointInfo interface {
	Metadata() Metadata
	RequiresAuth() bool
	RateLimited() bool
	Resolve(v Version) (PathTemplate, error)
	MatchPath(path string) (Version, bool)
	Describe() Description
}

// Endpoint binds endpoint metadata to a request type Req and a response type
// Res. Both must be structs whose fields carry mxapi tags.
//
// An Endpoint is immutable and safe for concurrent use.
type Endpoint[Req, Res any] struct {
	meta      Metadata
	templates []PathTemplate
	request   *MessageShape
	response  *MessageShape
}

var _ EndpointInfo = (*Endpoint[struct{}, struct{}])(nil)

// Define validates meta against the shapes of Req and Res and returns the
// endpoint. All definition errors are joined; each one wraps a sentinel such as
// ErrMixedBodyKinds and can be tested with errors.Is.
func Define[Req, Res any](meta Metadata) (*Endpoint[Req, Res], error) {
	var errs []error
	if meta.Method == "" {
		errs = append(errs, &DefinitionError{Endpoint: meta.Name, Kind: ErrInvalidMetadata, Detail: "method is required"})
	}
	for _, err := range meta.History.check() {
		var defErr *DefinitionError
		if errors.As(err, &defErr) {
			defErr.Endpoint = meta.Name
		}
		errs = append(errs, err)
	}

	templates := make([]PathTemplate, len(meta.History))
	for i, entry := range meta.History {
		t, err := ParsePathTemplate(entry.Path)
		if err != nil {
			errs = append(errs, &DefinitionError{Endpoint: meta.Name, Kind: ErrInvalidHistory, Detail: err.Error()})
			continue
		}
		templates[i] = t
	}

	request, err := ShapeOf(reflect.TypeFor[Req]())
	if err != nil {
		errs = append(errs, fmt.Errorf("mxapi: %s request: %w", meta.Name, err))
	} else {
		errs = append(errs, validateShape(meta, templates, request, requestSide)...)
	}
	response, err := ShapeOf(reflect.TypeFor[Res]())
	if err != nil {
		errs = append(errs, fmt.Errorf("mxapi: %s response: %w", meta.Name, err))
	} else {
		errs = append(errs, validateShape(meta, templates, response, responseSide)...)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &Endpoint[Req, Res]{
		meta:      meta,
		templates: templates,
		request:   request,
		response:  response,
	}, nil
}

// MustDefine is like Define but panics on error. Definition errors are bugs in
// the endpoint's authoring, so catalogues define their endpoints with it at
// package initialization.
func MustDefine[Req, Res any](meta Metadata) *Endpoint[Req, Res] {
	e, err := Define[Req, Res](meta)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Endpoint[Req, Res]) Metadata() Metadata { return e.meta }

// RequiresAuth returns the declared authentication flag. It is not enforced here.
func (e *Endpoint[Req, Res]) RequiresAuth() bool { return e.meta.Authentication }

// RateLimited returns the declared rate-limit flag. It is not enforced here.
func (e *Endpoint[Req, Res]) RateLimited() bool { return e.meta.RateLimited }

func (e *Endpoint[Req, Res]) RequestShape() *MessageShape  { return e.request }
func (e *Endpoint[Req, Res]) ResponseShape() *MessageShape { return e.response }

// Resolve returns the path template serving version v.
func (e *Endpoint[Req, Res]) Resolve(v Version) (PathTemplate, error) {
	_, i, err := e.resolve(v)
	if err != nil {
		return PathTemplate{}, err
	}
	return e.templates[i], nil
}

// IsDeprecated reports whether the endpoint is deprecated at version v.
func (e *Endpoint[Req, Res]) IsDeprecated(v Version) bool {
	return e.meta.History.IsDeprecated(v)
}

// MatchPath matches an escaped request path against the history, newest
// template first, and returns the version of the matching entry.
func (e *Endpoint[Req, Res]) MatchPath(path string) (Version, bool) {
	for i := len(e.templates) - 1; i >= 0; i-- {
		if _, ok := e.templates[i].match(path); ok {
			return e.meta.History[i].Version, true
		}
	}
	return Version{}, false
}

func (e *Endpoint[Req, Res]) resolve(v Version) (HistoryEntry, int, error) {
	entry, err := e.meta.History.Resolve(v)
	if err != nil {
		return HistoryEntry{}, 0, err
	}
	for i, h := range e.meta.History {
		if h.Version.Equal(entry.Version) {
			return entry, i, nil
		}
	}
	return HistoryEntry{}, 0, &VersionError{Requested: v}
}
