package mxapi

import (
	"fmt"

	"github.com/hashicorp/go-version"
)

// Version is a protocol version such as "1.0" or "v1.11".
// The zero Version sorts before every parsed version.
type Version struct {
	v *version.Version
}

// ParseVersion parses a protocol version string.
func ParseVersion(s string) (Version, error) {
	v, err := version.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("mxapi: invalid version %q: %w", s, err)
	}
	return Version{v: v.Core()}, nil
}

// MustParseVersion is like ParseVersion but panics on error.
// It is meant for statically authored endpoint definitions.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool { return v.v == nil }

// Compare returns -1, 0 or 1 depending on whether v is older than, equal to
// or newer than o.
func (v Version) Compare(o Version) int {
	switch {
	case v.v == nil && o.v == nil:
		return 0
	case v.v == nil:
		return -1
	case o.v == nil:
		return 1
	}
	return v.v.Compare(o.v)
}

func (v Version) Less(o Version) bool  { return v.Compare(o) < 0 }
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// String returns the version as "major.minor", or the full core version when
// a patch component is present.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	seg := v.v.Segments()
	if len(seg) >= 3 && seg[2] != 0 {
		return fmt.Sprintf("%d.%d.%d", seg[0], seg[1], seg[2])
	}
	return fmt.Sprintf("%d.%d", seg[0], seg[1])
}

func (v Version) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *Version) UnmarshalText(b []byte) error {
	parsed, err := ParseVersion(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
