package mxapi

import (
	"github.com/samber/lo"
)

// Description is a serializable summary of an endpoint, used by tooling.
type Description struct {
	Name           string               `json:"name" yaml:"name"`
	Description    string               `json:"description,omitempty" yaml:"description,omitempty"`
	Method         string               `json:"method" yaml:"method"`
	Authentication bool                 `json:"authentication" yaml:"authentication"`
	RateLimited    bool                 `json:"rate_limited" yaml:"rate_limited"`
	History        []HistoryDescription `json:"history" yaml:"history"`
	Request        []FieldDescription   `json:"request,omitempty" yaml:"request,omitempty"`
	Response       []FieldDescription   `json:"response,omitempty" yaml:"response,omitempty"`
}

type HistoryDescription struct {
	Version    string `json:"version" yaml:"version"`
	Path       string `json:"path" yaml:"path"`
	Deprecated bool   `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
}

type FieldDescription struct {
	Name       string `json:"name" yaml:"name"`
	Placement  string `json:"placement" yaml:"placement"`
	Type       string `json:"type" yaml:"type"`
	Header     string `json:"header,omitempty" yaml:"header,omitempty"`
	Optional   bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Default    string `json:"default,omitempty" yaml:"default,omitempty"`
	Deprecated bool   `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Flatten    bool   `json:"flatten,omitempty" yaml:"flatten,omitempty"`
}

// Describe summarizes the endpoint's metadata and both message shapes.
func (e *Endpoint[Req, Res]) Describe() Description {
	return Description{
		Name:           e.meta.Name,
		Description:    e.meta.Description,
		Method:         e.meta.Method,
		Authentication: e.meta.Authentication,
		RateLimited:    e.meta.RateLimited,
		History: lo.Map(e.meta.History, func(h HistoryEntry, _ int) HistoryDescription {
			return HistoryDescription{Version: h.Version.String(), Path: h.Path, Deprecated: h.Deprecated}
		}),
		Request:  describeFields(e.request),
		Response: describeFields(e.response),
	}
}

func describeFields(s *MessageShape) []FieldDescription {
	return lo.Map(s.Fields, func(f *FieldSpec, _ int) FieldDescription {
		return FieldDescription{
			Name:       f.Name,
			Placement:  f.Placement.String(),
			Type:       f.typ.String(),
			Header:     f.HeaderName,
			Optional:   f.Optional,
			Default:    f.Default,
			Deprecated: f.Deprecated,
			Flatten:    f.Flatten,
		}
	})
}
