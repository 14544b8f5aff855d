package mxapi

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// messageSide selects the rules that apply to a shape.
type messageSide int

const (
	requestSide messageSide = iota
	responseSide
)

func (s messageSide) String() string {
	if s == responseSide {
		return "response"
	}
	return "request"
}

// validateShape runs the structural checks for one message shape against the
// endpoint metadata. It reports every violation, not just the first.
func validateShape(meta Metadata, templates []PathTemplate, s *MessageShape, side messageSide) []error {
	var errs []error
	fail := func(kind error, field, format string, args ...any) {
		errs = append(errs, &DefinitionError{
			Endpoint: meta.Name,
			Field:    field,
			Kind:     kind,
			Detail:   side.String() + ": " + fmt.Sprintf(format, args...),
		})
	}
	names := func(fields []*FieldSpec) string {
		return strings.Join(lo.Map(fields, func(f *FieldSpec, _ int) string { return f.GoName }), ", ")
	}

	if len(s.Whole) > 1 {
		fail(ErrMultipleBodyTypes, "", "%s", names(s.Whole))
	}
	if len(s.Whole) > 0 && len(s.Body) > 0 {
		fail(ErrMixedBodyKinds, "", "%s and %s", names(s.Whole), names(s.Body))
	}
	if len(s.QueryMap) > 1 {
		fail(ErrMultipleQueryMaps, "", "%s", names(s.QueryMap))
	}
	if len(s.QueryMap) > 0 && len(s.Query) > 0 {
		fail(ErrMixedQueryKinds, "", "%s and %s", names(s.QueryMap), names(s.Query))
	}

	if side == responseSide {
		for _, f := range slices.Concat(s.Path, s.Query, s.QueryMap) {
			fail(ErrUnsupportedPlacement, f.GoName, "responses cannot have %s fields", f.Placement)
		}
		return errs
	}

	if isSafeMethod(meta.Method) && s.hasBody() {
		fail(ErrBodyOnSafeMethod, "", "%s request with body fields %s", meta.Method, names(append(slices.Clone(s.Body), s.Whole...)))
	}

	for _, f := range s.Path {
		for _, a := range f.Aliases {
			if !lo.ContainsBy(meta.History, func(e HistoryEntry) bool { return e.Version.Equal(a.Version) }) {
				fail(ErrInvalidTag, f.GoName, "alias for version %s which is not in the history", a.Version)
			}
		}
	}
	for i, entry := range meta.History {
		if i >= len(templates) || templates[i].raw == "" {
			continue
		}
		want := templates[i].Placeholders()
		got := lo.Map(s.Path, func(f *FieldSpec, _ int) string { return f.placeholder(entry.Version) })
		missing, extra := lo.Difference(want, got)
		if len(missing) > 0 || len(extra) > 0 {
			fail(ErrPathFieldMismatch, "", "%s (%s): placeholders without field %v, fields without placeholder %v",
				entry.Path, entry.Version, missing, extra)
		}
		if dups := lo.FindDuplicates(got); len(dups) > 0 {
			fail(ErrPathFieldMismatch, "", "%s (%s): placeholders bound to more than one field %v",
				entry.Path, entry.Version, dups)
		}
	}
	return errs
}
