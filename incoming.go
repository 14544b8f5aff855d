package mxapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"reflect"
	"slices"
	"strings"
)

// IncomingRequest unmarshals msg into a request value. The path is matched
// against the history newest template first. It is used by the serving side.
//
// A path that matches no template yields ErrPathNotMatched, which callers treat
// as a routing miss rather than a bad request.
func (e *Endpoint[Req, Res]) IncomingRequest(msg *Message) (*Req, error) {
	for i := len(e.templates) - 1; i >= 0; i-- {
		if segments, ok := e.templates[i].match(msg.Path); ok {
			return e.decodeRequest(msg, e.meta.History[i].Version, segments)
		}
	}
	return nil, &MarshalError{Kind: ErrPathNotMatched, Field: msg.Path}
}

// IncomingRequestAt is like IncomingRequest but only matches the template that
// serves version v.
func (e *Endpoint[Req, Res]) IncomingRequestAt(msg *Message, v Version) (*Req, error) {
	entry, i, err := e.resolve(v)
	if err != nil {
		return nil, err
	}
	segments, ok := e.templates[i].match(msg.Path)
	if !ok {
		return nil, &MarshalError{Kind: ErrPathNotMatched, Field: msg.Path}
	}
	return e.decodeRequest(msg, entry.Version, segments)
}

// IncomingResponse unmarshals a response message. A status of 400 or above is
// decoded as an error envelope and returned as *Error.
func (e *Endpoint[Req, Res]) IncomingResponse(msg *Message) (*Res, error) {
	if msg.Status >= http.StatusBadRequest {
		return nil, errorFromMessage(msg)
	}
	var res Res
	dst := reflect.ValueOf(&res).Elem()
	s := e.response
	if err := decodeHeaders(s, dst, msg.Header); err != nil {
		return nil, err
	}
	if err := decodeBody(s, dst, msg.Body); err != nil {
		return nil, err
	}
	return &res, nil
}

func (e *Endpoint[Req, Res]) decodeRequest(msg *Message, v Version, segments map[string]string) (*Req, error) {
	var req Req
	dst := reflect.ValueOf(&req).Elem()
	s := e.request

	pathValues := make(map[string][]string, len(s.Path))
	for _, f := range s.Path {
		pathValues[f.GoName] = []string{segments[f.placeholder(v)]}
	}
	if err := s.pathRecord.decode(dst, pathValues); err != nil {
		return nil, err
	}
	if err := decodeQuery(s, dst, msg.Query); err != nil {
		return nil, err
	}
	if err := decodeHeaders(s, dst, msg.Header); err != nil {
		return nil, err
	}
	if !isSafeMethod(e.meta.Method) {
		if err := decodeBody(s, dst, msg.Body); err != nil {
			return nil, err
		}
	}
	return &req, nil
}

func decodeQuery(s *MessageShape, dst reflect.Value, pairs []QueryPair) error {
	switch s.QueryKind() {
	case QueryMap:
		if len(pairs) == 0 {
			return nil
		}
		f := s.QueryMap[0]
		out := dst.FieldByIndex(f.index)
		if f.typ == queryPairsType {
			out.Set(reflect.ValueOf(slices.Clone(pairs)))
			return nil
		}
		m := reflect.MakeMapWithSize(f.typ, len(pairs))
		for _, p := range pairs {
			m.SetMapIndex(reflect.ValueOf(p.Key).Convert(f.typ.Key()), reflect.ValueOf(p.Value).Convert(f.typ.Elem()))
		}
		out.Set(m)

	case QueryFields:
		byKey := make(map[string][]string)
		for _, p := range pairs {
			byKey[p.Key] = append(byKey[p.Key], p.Value)
		}
		record := make(map[string][]string, len(s.Query))
		for _, f := range s.Query {
			vals, ok := byKey[f.Name]
			if !ok {
				switch {
				case f.HasDefault:
					vals = []string{f.Default}
				case f.required():
					return fieldDecodeError(f.Name, ErrMissingField)
				default:
					continue
				}
			}
			record[f.GoName] = vals
		}
		return s.queryRecord.decode(dst, record)
	}
	return nil
}

func decodeHeaders(s *MessageShape, dst reflect.Value, h http.Header) error {
	record := make(map[string][]string, len(s.Header))
	for _, f := range s.Header {
		vals := headerValues(h, f.HeaderName)
		if len(vals) == 0 {
			switch {
			case f.HasDefault:
				vals = []string{f.Default}
			case f.required():
				return &MarshalError{Kind: ErrMissingHeader, Field: f.HeaderName}
			default:
				continue
			}
		}
		record[f.GoName] = vals
	}
	return s.headerRecord.decode(dst, record)
}

// headerValues looks name up case-insensitively, also in headers that were
// built without canonical keys.
func headerValues(h http.Header, name string) []string {
	if vals := h.Values(name); len(vals) > 0 {
		return vals
	}
	for k, vals := range h {
		if strings.EqualFold(k, name) {
			return vals
		}
	}
	return nil
}

func decodeBody(s *MessageShape, dst reflect.Value, body []byte) error {
	switch s.BodyKind() {
	case BodyRaw:
		f := s.Whole[0]
		if body != nil {
			dst.FieldByIndex(f.index).Set(reflect.ValueOf(bytes.Clone(body)).Convert(f.typ))
		}
	case BodyTransparent:
		f := s.Whole[0]
		if len(bytes.TrimSpace(body)) == 0 {
			if f.required() {
				return fieldDecodeError(f.Name, ErrMissingField)
			}
			return nil
		}
		ptr := reflect.New(f.typ)
		if err := json.Unmarshal(body, ptr.Interface()); err != nil {
			return fieldDecodeError(f.Name, err)
		}
		dst.FieldByIndex(f.index).Set(ptr.Elem())
	case BodyFields:
		return s.bodyRecord.decode(dst, body)
	}
	return nil
}
