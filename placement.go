package mxapi

import (
	"fmt"
	"reflect"
	"strings"
)

// Placement is the wire location of a request or response field.
type Placement int

const (
	// PlacementBody fields are members of the JSON body object.
	PlacementBody Placement = iota
	// PlacementPath fields fill a path template placeholder.
	PlacementPath
	// PlacementQuery fields are named query string parameters.
	PlacementQuery
	// PlacementQueryMap holds the whole query string as key/value pairs.
	PlacementQueryMap
	// PlacementHeader fields are HTTP headers.
	PlacementHeader
	// PlacementNewtypeBody is the entire JSON body, with no enclosing object.
	PlacementNewtypeBody
	// PlacementRawBody is the entire body as opaque bytes.
	PlacementRawBody
)

var placementNames = map[Placement]string{
	PlacementBody:        "body",
	PlacementPath:        "path",
	PlacementQuery:       "query",
	PlacementQueryMap:    "query_map",
	PlacementHeader:      "header",
	PlacementNewtypeBody: "newtype_body",
	PlacementRawBody:     "raw_body",
}

func (p Placement) String() string {
	if s, ok := placementNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Placement(%d)", int(p))
}

func (p Placement) isTextual() bool {
	return p == PlacementPath || p == PlacementQuery || p == PlacementHeader
}

// OmitPolicy controls whether a field is left out of an outgoing message.
type OmitPolicy int

const (
	// AlwaysEncode writes the field even when it holds its zero value.
	AlwaysEncode OmitPolicy = iota
	// OmitIfAbsent skips nil pointers, slices and maps, and zero values of
	// other optional fields.
	OmitIfAbsent
	// OmitIfEqualsDefault skips the field when it equals its declared default.
	OmitIfEqualsDefault
)

func (o OmitPolicy) String() string {
	switch o {
	case AlwaysEncode:
		return "always"
	case OmitIfAbsent:
		return "absent"
	case OmitIfEqualsDefault:
		return "default"
	}
	return fmt.Sprintf("OmitPolicy(%d)", int(o))
}

// PlaceholderAlias renames a path field for one history entry, for endpoints
// whose placeholder was renamed between protocol versions.
type PlaceholderAlias struct {
	Version     Version
	Placeholder string
}

// FieldSpec is the classified form of one struct field.
type FieldSpec struct {
	// Name is the wire name: query key, body member, or path placeholder.
	Name       string
	GoName     string
	Placement  Placement
	HeaderName string

	Optional   bool
	HasDefault bool
	// Default is text for path, query and header fields and JSON for body fields.
	Default string
	Omit    OmitPolicy

	// Deprecated is informational and only surfaces through Describe.
	Deprecated bool
	// Flatten splices a body field's object members into the body object.
	Flatten bool
	Aliases []PlaceholderAlias

	index        []int
	typ          reflect.Type
	defaultValue reflect.Value
}

// Type returns the Go type of the field.
func (f *FieldSpec) Type() reflect.Type { return f.typ }

// placeholder returns the path placeholder name used for f in the history
// entry for version v.
func (f *FieldSpec) placeholder(v Version) string {
	for _, a := range f.Aliases {
		if a.Version.Equal(v) {
			return a.Placeholder
		}
	}
	return f.Name
}

func (f *FieldSpec) required() bool { return !f.Optional && !f.HasDefault }

// omitted evaluates the omission policy against the field's current value.
func (f *FieldSpec) omitted(v reflect.Value) bool {
	switch f.Omit {
	case OmitIfAbsent:
		return v.IsZero()
	case OmitIfEqualsDefault:
		return f.defaultValue.IsValid() && reflect.DeepEqual(v.Interface(), f.defaultValue.Interface())
	}
	return false
}

const tagName = "mxapi"

// classify turns a struct field and its mxapi tag into a FieldSpec.
// A field without a placement keyword is a body field.
func classify(sf reflect.StructField) (*FieldSpec, error) {
	f := &FieldSpec{
		GoName:    sf.Name,
		Placement: PlacementBody,
		index:     sf.Index,
		typ:       sf.Type,
	}
	fail := func(kind error, format string, args ...any) error {
		return &DefinitionError{Field: sf.Name, Kind: kind, Detail: fmt.Sprintf(format, args...)}
	}

	var placements []string
	omit := ""
	for _, part := range strings.Split(sf.Tag.Get(tagName), ",") {
		part = strings.TrimSpace(part)
		key, value, hasValue := strings.Cut(part, "=")
		switch {
		case part == "":
		case part == "body":
			f.Placement = PlacementBody
			placements = append(placements, part)
		case part == "path":
			f.Placement = PlacementPath
			placements = append(placements, part)
		case part == "query":
			f.Placement = PlacementQuery
			placements = append(placements, part)
		case part == "query_map":
			f.Placement = PlacementQueryMap
			placements = append(placements, part)
		case part == "newtype_body":
			f.Placement = PlacementNewtypeBody
			placements = append(placements, part)
		case part == "raw_body":
			f.Placement = PlacementRawBody
			placements = append(placements, part)
		case key == "header" && hasValue:
			if value == "" {
				return nil, fail(ErrInvalidTag, "empty header name")
			}
			f.Placement = PlacementHeader
			f.HeaderName = value
			placements = append(placements, key)
		case part == "optional":
			f.Optional = true
		case part == "deprecated":
			f.Deprecated = true
		case part == "flatten":
			f.Flatten = true
		case key == "default" && hasValue:
			f.HasDefault = true
			f.Default = value
		case key == "name" && hasValue && value != "":
			f.Name = value
		case key == "omit" && hasValue:
			omit = value
		case key == "alias" && hasValue:
			ver, placeholder, ok := strings.Cut(value, ":")
			if !ok || placeholder == "" {
				return nil, fail(ErrInvalidTag, "alias %q must be version:placeholder", value)
			}
			v, err := ParseVersion(ver)
			if err != nil {
				return nil, fail(ErrInvalidTag, "alias %q: %v", value, err)
			}
			f.Aliases = append(f.Aliases, PlaceholderAlias{Version: v, Placeholder: placeholder})
		default:
			return nil, fail(ErrInvalidTag, "unknown option %q", part)
		}
	}
	if len(placements) > 1 {
		return nil, fail(ErrConflictingPlacement, "%s", strings.Join(placements, ", "))
	}

	if f.Name == "" {
		f.Name = jsonName(sf)
	}

	switch f.typ.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map:
		if f.Placement != PlacementRawBody && f.Placement != PlacementPath {
			f.Optional = true
		}
	}
	if f.Placement == PlacementPath && (f.Optional || f.HasDefault) {
		return nil, fail(ErrInvalidTag, "path fields are always required")
	}
	if f.Flatten && f.Placement != PlacementBody {
		return nil, fail(ErrInvalidTag, "flatten only applies to body fields")
	}
	if len(f.Aliases) > 0 && f.Placement != PlacementPath {
		return nil, fail(ErrInvalidTag, "alias only applies to path fields")
	}

	switch omit {
	case "":
		switch {
		case f.HasDefault:
			f.Omit = OmitIfEqualsDefault
		case f.Optional:
			f.Omit = OmitIfAbsent
		default:
			f.Omit = AlwaysEncode
		}
	case "always":
		f.Omit = AlwaysEncode
	case "absent":
		f.Omit = OmitIfAbsent
	case "default":
		f.Omit = OmitIfEqualsDefault
	default:
		return nil, fail(ErrInvalidTag, "unknown omit policy %q", omit)
	}
	if f.HasDefault && f.Omit == OmitIfAbsent {
		// An omitted zero value would decode as the default, not as zero.
		return nil, fail(ErrInvalidDefault, "omit=absent cannot be combined with a default")
	}
	if f.Omit == OmitIfEqualsDefault && !f.HasDefault {
		return nil, fail(ErrInvalidDefault, "omit=default requires a default")
	}
	return f, nil
}

func jsonName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return sf.Name
	}
	return name
}
