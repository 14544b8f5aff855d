package mxapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/gorilla/schema"
	"github.com/samber/lo"
)

var (
	schemaEncoder = schema.NewEncoder()
	schemaDecoder = schema.NewDecoder()
)

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
}

// textRecord aggregates the path, query or header fields of a message into a
// synthesized struct so that gorilla/schema encodes and decodes them together.
// Record keys are Go field names, which are unique within the source struct.
type textRecord struct {
	typ    reflect.Type
	fields []*FieldSpec
}

func newTextRecord(fields []*FieldSpec) *textRecord {
	sfs := make([]reflect.StructField, len(fields))
	for i, f := range fields {
		sfs[i] = reflect.StructField{
			Name: fmt.Sprintf("F%d", i),
			Type: f.typ,
			Tag:  reflect.StructTag(fmt.Sprintf(`schema:%q`, f.GoName)),
		}
	}
	return &textRecord{typ: reflect.StructOf(sfs), fields: fields}
}

// encode returns the text values of every record field keyed by Go field name.
func (r *textRecord) encode(src reflect.Value) (map[string][]string, error) {
	rec := reflect.New(r.typ)
	for i, f := range r.fields {
		rec.Elem().Field(i).Set(src.FieldByIndex(f.index))
	}
	out := make(map[string][]string, len(r.fields))
	if len(r.fields) == 0 {
		return out, nil
	}
	if err := schemaEncoder.Encode(rec.Interface(), out); err != nil {
		return nil, &MarshalError{Kind: ErrFieldEncode, Err: err}
	}
	return out, nil
}

// decode fills dst from text values keyed by Go field name.
func (r *textRecord) decode(dst reflect.Value, values map[string][]string) error {
	if len(r.fields) == 0 {
		return nil
	}
	rec := reflect.New(r.typ)
	if err := schemaDecoder.Decode(rec.Interface(), values); err != nil {
		return r.decodeError(err)
	}
	for i, f := range r.fields {
		dst.FieldByIndex(f.index).Set(rec.Elem().Field(i))
	}
	return nil
}

func (r *textRecord) decodeError(err error) error {
	var multi schema.MultiError
	if !errors.As(err, &multi) || len(multi) == 0 {
		return fieldDecodeError("", err)
	}
	keys := lo.Keys(map[string]error(multi))
	slices.Sort(keys)
	key := keys[0]
	goName, _, _ := strings.Cut(key, ".")
	field := goName
	if f, ok := lo.Find(r.fields, func(f *FieldSpec) bool { return f.GoName == goName }); ok {
		field = f.Name
	}
	return fieldDecodeError(field, multi[key])
}

// textKinds are the leaf kinds gorilla/schema converts in both directions.
var textKinds = []reflect.Kind{
	reflect.String, reflect.Bool,
	reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
	reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
	reflect.Float32, reflect.Float64,
}

// textType reports whether t can be carried by a textual placement.
// Slices are allowed when repeated values make sense.
func textType(t reflect.Type, allowSlice bool) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if allowSlice && t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	return slices.Contains(textKinds, t.Kind())
}

// decodeText decodes a single text value into a new value of type t.
func decodeText(t reflect.Type, text string) (reflect.Value, error) {
	rec := reflect.New(reflect.StructOf([]reflect.StructField{{
		Name: "V",
		Type: t,
		Tag:  `schema:"v"`,
	}}))
	if err := schemaDecoder.Decode(rec.Interface(), map[string][]string{"v": {text}}); err != nil {
		return reflect.Value{}, err
	}
	return rec.Elem().Field(0), nil
}

// decodeDefault decodes the declared default of f into a fresh value.
func (f *FieldSpec) decodeDefault() (reflect.Value, error) {
	if f.Placement.isTextual() {
		return decodeText(f.typ, f.Default)
	}
	ptr := reflect.New(f.typ)
	if err := json.Unmarshal([]byte(f.Default), ptr.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}

// bodyRecord aggregates plain body fields into one JSON object, members in
// declaration order.
type bodyRecord struct {
	fields []*FieldSpec
}

func (r *bodyRecord) encode(src reflect.Value) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	for _, f := range r.fields {
		v := src.FieldByIndex(f.index)
		if f.omitted(v) {
			continue
		}
		raw, err := json.Marshal(v.Interface())
		if err != nil {
			return nil, &MarshalError{Kind: ErrFieldEncode, Field: f.Name, Err: err}
		}
		if f.Flatten {
			if bytes.Equal(raw, []byte("null")) {
				continue
			}
			if len(raw) < 2 || raw[0] != '{' {
				return nil, &MarshalError{Kind: ErrFieldEncode, Field: f.Name, Err: errors.New("flattened value is not a JSON object")}
			}
			members := raw[1 : len(raw)-1]
			if len(members) == 0 {
				continue
			}
			if n > 0 {
				buf.WriteByte(',')
			}
			buf.Write(members)
			n++
			continue
		}
		key, _ := json.Marshal(f.Name)
		if n > 0 {
			buf.WriteByte(',')
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(raw)
		n++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *bodyRecord) decode(dst reflect.Value, body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err != nil {
		return fieldDecodeError("body", err)
	}
	for _, f := range r.fields {
		out := dst.FieldByIndex(f.index)
		if f.Flatten {
			ptr := reflect.New(f.typ)
			if err := json.Unmarshal(body, ptr.Interface()); err != nil {
				return fieldDecodeError(f.Name, err)
			}
			v := ptr.Elem()
			if v.Kind() == reflect.Pointer && v.Elem().IsZero() {
				continue
			}
			out.Set(v)
			continue
		}
		raw, ok := members[f.Name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			switch {
			case f.HasDefault:
				v, err := f.decodeDefault()
				if err != nil {
					return fieldDecodeError(f.Name, err)
				}
				out.Set(v)
			case f.required():
				return fieldDecodeError(f.Name, ErrMissingField)
			}
			continue
		}
		ptr := reflect.New(f.typ)
		if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
			return fieldDecodeError(f.Name, err)
		}
		out.Set(ptr.Elem())
	}
	return nil
}
