package mxapi

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.0", "1.0"},
		{"v1.11", "1.11"},
		{"1", "1.0"},
		{"1.2.3", "1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseVersion(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.String() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, v)
			}
		})
	}

	if _, err := ParseVersion("latest"); err == nil {
		t.Error("expected error for non-numeric version")
	}
}

func TestVersion_Compare(t *testing.T) {
	v10, v11, v111 := MustParseVersion("1.0"), MustParseVersion("1.1"), MustParseVersion("1.11")
	if !v10.Less(v11) || !v11.Less(v111) {
		t.Error("expected 1.0 < 1.1 < 1.11")
	}
	if !v11.Equal(MustParseVersion("v1.1.0")) {
		t.Error("expected 1.1 == v1.1.0")
	}
	var zero Version
	if !zero.IsZero() || !zero.Less(v10) {
		t.Error("expected zero version to sort first")
	}
	if zero.String() != "" {
		t.Errorf("expected empty string for zero version, got %q", zero.String())
	}
}

func TestVersion_UnmarshalText(t *testing.T) {
	var v Version
	if err := v.UnmarshalText([]byte("1.7")); err != nil {
		t.Fatal(err)
	}
	if v.String() != "1.7" {
		t.Errorf("expected 1.7, got %s", v)
	}
	if err := v.UnmarshalText([]byte("x")); err == nil {
		t.Error("expected error")
	}
}

func TestHistory_Resolve(t *testing.T) {
	h := History{
		Since("1.0", "/_matrix/media/r0/download/{serverName}/{mediaId}"),
		Since("1.1", "/_matrix/media/v3/download/{server_name}/{media_id}"),
	}

	tests := []struct {
		version string
		want    string
	}{
		{"1.0", "/_matrix/media/r0/download/{serverName}/{mediaId}"},
		{"1.1", "/_matrix/media/v3/download/{server_name}/{media_id}"},
		{"1.5", "/_matrix/media/v3/download/{server_name}/{media_id}"},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			e, err := h.Resolve(MustParseVersion(tt.version))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if e.Path != tt.want {
				t.Errorf("expected %s, got %s", tt.want, e.Path)
			}
		})
	}

	_, err := h.Resolve(MustParseVersion("0.9"))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
	var verErr *VersionError
	if !errors.As(err, &verErr) || verErr.Oldest.String() != "1.0" {
		t.Errorf("expected VersionError naming 1.0, got %v", err)
	}
}

func TestHistory_IsDeprecated(t *testing.T) {
	h := History{
		Since("1.1", "/_matrix/media/v3/config"),
		DeprecatedSince("1.11", "/_matrix/media/v3/config"),
	}
	if h.IsDeprecated(MustParseVersion("1.10")) {
		t.Error("expected 1.10 not deprecated")
	}
	if !h.IsDeprecated(MustParseVersion("1.11")) {
		t.Error("expected 1.11 deprecated")
	}
	if h.IsDeprecated(MustParseVersion("1.0")) {
		t.Error("expected unsupported version not to be deprecated")
	}
	if got := h.Latest().Version.String(); got != "1.11" {
		t.Errorf("expected latest 1.11, got %s", got)
	}
}

func TestHistory_Check(t *testing.T) {
	tests := []struct {
		name string
		h    History
		errs int
	}{
		{"valid", History{Since("1.0", "/a"), Since("1.1", "/b")}, 0},
		{"empty", nil, 1},
		{"not increasing", History{Since("1.1", "/a"), Since("1.0", "/b")}, 1},
		{"duplicate version", History{Since("1.1", "/a"), Since("1.1", "/b")}, 1},
		{"deprecated not last", History{DeprecatedSince("1.0", "/a"), Since("1.1", "/b")}, 1},
		{"missing version", History{{Path: "/a"}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.h.check()
			if len(errs) != tt.errs {
				t.Fatalf("expected %d errors, got %v", tt.errs, errs)
			}
			for _, err := range errs {
				if !errors.Is(err, ErrInvalidHistory) {
					t.Errorf("expected ErrInvalidHistory, got %v", err)
				}
			}
		})
	}
}

func TestParsePathTemplate(t *testing.T) {
	tmpl, err := ParsePathTemplate("/_matrix/client/v3/rooms/{room_id}/send/{event_type}/{txn_id}")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"room_id", "event_type", "txn_id"}, tmpl.Placeholders()); diff != "" {
		t.Errorf("placeholders mismatch (-want +got):\n%s", diff)
	}

	for _, raw := range []string{
		"no/leading/slash",
		"/a/{}",
		"/a/{x}/{x}",
		"/a/b{x}",
		"/a/{x{y}}",
	} {
		if _, err := ParsePathTemplate(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestPathTemplate_RenderAndMatch(t *testing.T) {
	tmpl, err := ParsePathTemplate("/_matrix/client/v3/pushrules/global/")
	if err != nil {
		t.Fatal(err)
	}
	if got := tmpl.render(nil); got != "/_matrix/client/v3/pushrules/global/" {
		t.Errorf("expected trailing slash to be kept, got %s", got)
	}
	if _, ok := tmpl.match("/_matrix/client/v3/pushrules/global"); ok {
		t.Error("expected path without trailing slash not to match")
	}

	tmpl, err = ParsePathTemplate("/rooms/{room_id}/state")
	if err != nil {
		t.Fatal(err)
	}
	values, ok := tmpl.match("/rooms/%21abc%3Aexample.org/state")
	if !ok {
		t.Fatal("expected match")
	}
	if values["room_id"] != "!abc:example.org" {
		t.Errorf("expected unescaped room id, got %q", values["room_id"])
	}
	if _, ok := tmpl.match("/rooms/a/b/state"); ok {
		t.Error("expected extra segment not to match")
	}
}
