package mxapi

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sync"

	"github.com/samber/lo"
)

// QueryPair is one key/value pair of a query string. A field of type
// []QueryPair or map[string]string can hold an endpoint's whole query string.
type QueryPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// QueryKind is the query shape of a message.
type QueryKind int

const (
	QueryNone QueryKind = iota
	QueryFields
	QueryMap
)

// BodyKind is the body shape of a message.
type BodyKind int

const (
	BodyNone BodyKind = iota
	// BodyFields aggregates body fields into one JSON object.
	BodyFields
	// BodyTransparent encodes a single newtype body field as the whole body.
	BodyTransparent
	// BodyRaw copies a single raw body field verbatim.
	BodyRaw
)

// MessageShape is the synthesized wire layout of a request or response type.
// Shapes are derived once per Go type and are read-only afterwards.
type MessageShape struct {
	Type reflect.Type

	// Fields lists every classified field in declaration order.
	Fields   []*FieldSpec
	Path     []*FieldSpec
	Query    []*FieldSpec
	QueryMap []*FieldSpec
	Header   []*FieldSpec
	Body     []*FieldSpec
	// Whole holds newtype and raw body fields.
	Whole []*FieldSpec

	pathRecord   *textRecord
	queryRecord  *textRecord
	headerRecord *textRecord
	bodyRecord   *bodyRecord
}

// QueryKind reports the query shape. Only meaningful on a validated shape.
func (s *MessageShape) QueryKind() QueryKind {
	switch {
	case len(s.QueryMap) > 0:
		return QueryMap
	case len(s.Query) > 0:
		return QueryFields
	}
	return QueryNone
}

// BodyKind reports the body shape. Only meaningful on a validated shape.
func (s *MessageShape) BodyKind() BodyKind {
	switch {
	case len(s.Whole) > 0 && s.Whole[0].Placement == PlacementRawBody:
		return BodyRaw
	case len(s.Whole) > 0:
		return BodyTransparent
	case len(s.Body) > 0:
		return BodyFields
	}
	return BodyNone
}

// hasBody reports whether any field is carried in the body.
func (s *MessageShape) hasBody() bool { return len(s.Body)+len(s.Whole) > 0 }

// jsonBody reports whether the body is JSON encoded.
func (s *MessageShape) jsonBody() bool {
	k := s.BodyKind()
	return k == BodyFields || k == BodyTransparent
}

type shapeResult struct {
	shape *MessageShape
	err   error
}

var shapeCache sync.Map // reflect.Type -> shapeResult

// ShapeOf synthesizes the message shape of struct type t. Results, including
// failures, are cached per type.
func ShapeOf(t reflect.Type) (*MessageShape, error) {
	if cached, ok := shapeCache.Load(t); ok {
		r := cached.(shapeResult)
		return r.shape, r.err
	}
	shape, err := synthesize(t)
	actual, _ := shapeCache.LoadOrStore(t, shapeResult{shape: shape, err: err})
	r := actual.(shapeResult)
	return r.shape, r.err
}

var queryPairsType = reflect.TypeFor[[]QueryPair]()

func synthesize(t reflect.Type) (*MessageShape, error) {
	if t.Kind() != reflect.Struct {
		return nil, &DefinitionError{Kind: ErrUnsupportedFieldType, Detail: fmt.Sprintf("%s is not a struct", t)}
	}
	s := &MessageShape{Type: t}
	var errs []error
	for _, sf := range reflect.VisibleFields(t) {
		if len(sf.Index) > 1 || !sf.IsExported() || sf.Tag.Get(tagName) == "-" {
			continue
		}
		if sf.Anonymous {
			errs = append(errs, &DefinitionError{Field: sf.Name, Kind: ErrUnsupportedFieldType,
				Detail: "embedded fields are not supported, use a flattened body field"})
			continue
		}
		f, err := classify(sf)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := checkFieldType(f); err != nil {
			errs = append(errs, err)
			continue
		}
		if f.HasDefault {
			v, err := f.decodeDefault()
			if err != nil {
				errs = append(errs, &DefinitionError{Field: f.GoName, Kind: ErrInvalidDefault, Detail: err.Error()})
				continue
			}
			f.defaultValue = v
		}
		s.Fields = append(s.Fields, f)
		switch f.Placement {
		case PlacementPath:
			s.Path = append(s.Path, f)
		case PlacementQuery:
			s.Query = append(s.Query, f)
		case PlacementQueryMap:
			s.QueryMap = append(s.QueryMap, f)
		case PlacementHeader:
			s.Header = append(s.Header, f)
		case PlacementBody:
			s.Body = append(s.Body, f)
		case PlacementNewtypeBody, PlacementRawBody:
			s.Whole = append(s.Whole, f)
		}
	}
	errs = append(errs, duplicateNames(s.Path, func(f *FieldSpec) string { return f.Name })...)
	errs = append(errs, duplicateNames(s.Query, func(f *FieldSpec) string { return f.Name })...)
	errs = append(errs, duplicateNames(s.Header, func(f *FieldSpec) string { return http.CanonicalHeaderKey(f.HeaderName) })...)
	errs = append(errs, duplicateNames(lo.Reject(s.Body, func(f *FieldSpec, _ int) bool { return f.Flatten }),
		func(f *FieldSpec) string { return f.Name })...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	s.pathRecord = newTextRecord(s.Path)
	s.queryRecord = newTextRecord(s.Query)
	s.headerRecord = newTextRecord(s.Header)
	s.bodyRecord = &bodyRecord{fields: s.Body}
	return s, nil
}

func checkFieldType(f *FieldSpec) error {
	ok := true
	switch f.Placement {
	case PlacementPath:
		ok = f.typ.Kind() != reflect.Pointer && textType(f.typ, false)
	case PlacementQuery, PlacementHeader:
		ok = textType(f.typ, true)
	case PlacementQueryMap:
		ok = f.typ == queryPairsType ||
			(f.typ.Kind() == reflect.Map && f.typ.Key().Kind() == reflect.String && f.typ.Elem().Kind() == reflect.String)
	case PlacementRawBody:
		ok = f.typ.Kind() == reflect.Slice && f.typ.Elem().Kind() == reflect.Uint8
	}
	if !ok {
		return &DefinitionError{Field: f.GoName, Kind: ErrUnsupportedFieldType,
			Detail: fmt.Sprintf("%s cannot be a %s field", f.typ, f.Placement)}
	}
	return nil
}

func duplicateNames(fields []*FieldSpec, key func(*FieldSpec) string) []error {
	var errs []error
	seen := make(map[string]bool)
	for _, f := range fields {
		k := key(f)
		if seen[k] {
			errs = append(errs, &DefinitionError{Field: f.GoName, Kind: ErrInvalidTag,
				Detail: fmt.Sprintf("duplicate %s name %q", f.Placement, k)})
		}
		seen[k] = true
	}
	return errs
}
