package mxapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"slices"
	"strings"

	"github.com/samber/lo"
)

const jsonContentType = "application/json"

// OutgoingRequest marshals req into a message for protocol version v.
// It is used by the calling side.
func (e *Endpoint[Req, Res]) OutgoingRequest(req *Req, v Version) (*Message, error) {
	if req == nil {
		req = new(Req)
	}
	entry, i, err := e.resolve(v)
	if err != nil {
		return nil, err
	}
	src := reflect.ValueOf(req).Elem()
	s := e.request

	path, err := encodePath(s, e.templates[i], entry.Version, src)
	if err != nil {
		return nil, err
	}
	query, err := encodeQuery(s, src)
	if err != nil {
		return nil, err
	}
	msg := &Message{
		Method: e.meta.Method,
		Path:   path,
		Query:  query,
		Header: make(http.Header),
	}
	if err := encodeHeaders(s, src, msg.Header); err != nil {
		return nil, err
	}
	if msg.Body, err = encodeBody(s, src); err != nil {
		return nil, err
	}
	if s.jsonBody() && msg.Body != nil && msg.Header.Get("Content-Type") == "" {
		msg.Header.Set("Content-Type", jsonContentType)
	}
	return msg, nil
}

// OutgoingResponse marshals res into a response message with status 200.
// It is used by the serving side.
func (e *Endpoint[Req, Res]) OutgoingResponse(res *Res) (*Message, error) {
	if res == nil {
		res = new(Res)
	}
	src := reflect.ValueOf(res).Elem()
	s := e.response

	msg := &Message{Status: http.StatusOK, Header: make(http.Header)}
	if err := encodeHeaders(s, src, msg.Header); err != nil {
		return nil, err
	}
	var err error
	if msg.Body, err = encodeBody(s, src); err != nil {
		return nil, err
	}
	if s.jsonBody() && msg.Body != nil && msg.Header.Get("Content-Type") == "" {
		msg.Header.Set("Content-Type", jsonContentType)
	}
	return msg, nil
}

func encodePath(s *MessageShape, t PathTemplate, v Version, src reflect.Value) (string, error) {
	values, err := s.pathRecord.encode(src)
	if err != nil {
		return "", err
	}
	segments := make(map[string]string, len(s.Path))
	for _, f := range s.Path {
		text := ""
		if vals := values[f.GoName]; len(vals) > 0 {
			text = vals[0]
		}
		if strings.Contains(text, "/") {
			return "", &MarshalError{Kind: ErrInvalidPathValue, Field: f.Name,
				Err: fmt.Errorf("%q contains a path separator", text)}
		}
		segments[f.placeholder(v)] = url.PathEscape(text)
	}
	return t.render(segments), nil
}

func encodeQuery(s *MessageShape, src reflect.Value) ([]QueryPair, error) {
	switch s.QueryKind() {
	case QueryMap:
		v := src.FieldByIndex(s.QueryMap[0].index)
		if v.Type() == queryPairsType {
			return slices.Clone(v.Interface().([]QueryPair)), nil
		}
		keys := lo.Map(v.MapKeys(), func(k reflect.Value, _ int) string { return k.String() })
		slices.Sort(keys)
		pairs := make([]QueryPair, 0, len(keys))
		for _, k := range keys {
			val := v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key()))
			pairs = append(pairs, QueryPair{Key: k, Value: val.String()})
		}
		return pairs, nil

	case QueryFields:
		values, err := s.queryRecord.encode(src)
		if err != nil {
			return nil, err
		}
		var pairs []QueryPair
		for _, f := range s.Query {
			if f.omitted(src.FieldByIndex(f.index)) {
				continue
			}
			for _, val := range values[f.GoName] {
				pairs = append(pairs, QueryPair{Key: f.Name, Value: val})
			}
		}
		return pairs, nil
	}
	return nil, nil
}

func encodeHeaders(s *MessageShape, src reflect.Value, h http.Header) error {
	values, err := s.headerRecord.encode(src)
	if err != nil {
		return err
	}
	for _, f := range s.Header {
		if f.omitted(src.FieldByIndex(f.index)) {
			continue
		}
		for _, val := range values[f.GoName] {
			if !validHeaderValue(val) {
				return &MarshalError{Kind: ErrInvalidHeaderValue, Field: f.HeaderName,
					Err: fmt.Errorf("%q is not a single-line value", val)}
			}
			h.Add(f.HeaderName, val)
		}
	}
	return nil
}

// validHeaderValue rejects line breaks and other control characters.
func validHeaderValue(v string) bool {
	return !strings.ContainsFunc(v, func(r rune) bool {
		return (r < 0x20 && r != '\t') || r == 0x7f
	})
}

func encodeBody(s *MessageShape, src reflect.Value) ([]byte, error) {
	switch s.BodyKind() {
	case BodyRaw:
		return bytes.Clone(src.FieldByIndex(s.Whole[0].index).Bytes()), nil
	case BodyTransparent:
		f := s.Whole[0]
		v := src.FieldByIndex(f.index)
		if f.omitted(v) {
			return nil, nil
		}
		b, err := json.Marshal(v.Interface())
		if err != nil {
			return nil, &MarshalError{Kind: ErrFieldEncode, Field: f.Name, Err: err}
		}
		return b, nil
	case BodyFields:
		return s.bodyRecord.encode(src)
	}
	return nil, nil
}
