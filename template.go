package mxapi

import (
	"fmt"
	"net/url"
	"strings"
)

// PathTemplate is a parsed path such as "/_matrix/media/v3/download/{serverName}/{mediaId}".
// Segments wrapped in braces are placeholders.
type PathTemplate struct {
	raw      string
	segments []templateSegment
}

type templateSegment struct {
	literal     string
	placeholder string
}

func (s templateSegment) isPlaceholder() bool { return s.placeholder != "" }

// ParsePathTemplate parses a path template. Placeholder names must be unique.
func ParsePathTemplate(raw string) (PathTemplate, error) {
	if !strings.HasPrefix(raw, "/") {
		return PathTemplate{}, fmt.Errorf("path template %q must start with /", raw)
	}
	parts := strings.Split(raw[1:], "/")
	segments := make([]templateSegment, 0, len(parts))
	seen := make(map[string]bool)
	for _, part := range parts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			name := part[1 : len(part)-1]
			if name == "" || strings.ContainsAny(name, "{}") {
				return PathTemplate{}, fmt.Errorf("path template %q: malformed placeholder %q", raw, part)
			}
			if seen[name] {
				return PathTemplate{}, fmt.Errorf("path template %q: duplicate placeholder %q", raw, name)
			}
			seen[name] = true
			segments = append(segments, templateSegment{placeholder: name})
			continue
		}
		if strings.ContainsAny(part, "{}") {
			return PathTemplate{}, fmt.Errorf("path template %q: malformed segment %q", raw, part)
		}
		segments = append(segments, templateSegment{literal: part})
	}
	return PathTemplate{raw: raw, segments: segments}, nil
}

func (t PathTemplate) String() string { return t.raw }

// Placeholders returns the placeholder names in template order.
func (t PathTemplate) Placeholders() []string {
	var names []string
	for _, s := range t.segments {
		if s.isPlaceholder() {
			names = append(names, s.placeholder)
		}
	}
	return names
}

// render substitutes every placeholder with the already-escaped value in values.
func (t PathTemplate) render(values map[string]string) string {
	var b strings.Builder
	for _, s := range t.segments {
		b.WriteByte('/')
		if s.isPlaceholder() {
			b.WriteString(values[s.placeholder])
		} else {
			b.WriteString(s.literal)
		}
	}
	return b.String()
}

// match matches an escaped request path against the template and returns the
// unescaped placeholder values.
func (t PathTemplate) match(path string) (map[string]string, bool) {
	if !strings.HasPrefix(path, "/") {
		return nil, false
	}
	parts := strings.Split(path[1:], "/")
	if len(parts) != len(t.segments) {
		return nil, false
	}
	values := make(map[string]string)
	for i, s := range t.segments {
		if !s.isPlaceholder() {
			if parts[i] != s.literal {
				return nil, false
			}
			continue
		}
		v, err := url.PathUnescape(parts[i])
		if err != nil {
			return nil, false
		}
		values[s.placeholder] = v
	}
	return values, true
}
