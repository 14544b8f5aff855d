package mxid

import (
	"strings"
)

const mxcScheme = "mxc://"

// MxcURI references content in a homeserver's media repository:
// "mxc://<server-name>/<media-id>".
type MxcURI string

func ParseMxcURI(s string) (MxcURI, error) {
	u := MxcURI(s)
	if _, _, err := u.Parts(); err != nil {
		return "", err
	}
	return u, nil
}

// NewMxcURI builds the URI of a media item.
func NewMxcURI(server ServerName, mediaID string) MxcURI {
	return MxcURI(mxcScheme + string(server) + "/" + mediaID)
}

func (u MxcURI) String() string { return string(u) }

// Parts splits the URI into its server name and media ID.
func (u MxcURI) Parts() (ServerName, string, error) {
	fail := func(reason string) error { return &ParseError{Kind: "mxc URI", Value: string(u), Reason: reason} }
	rest, ok := strings.CutPrefix(string(u), mxcScheme)
	if !ok {
		return "", "", fail("must start with " + mxcScheme)
	}
	server, mediaID, ok := strings.Cut(rest, "/")
	if !ok || mediaID == "" {
		return "", "", fail("missing media ID")
	}
	for _, r := range mediaID {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return "", "", fail("media ID must be URL-safe base64 characters")
		}
	}
	if reason := checkServerName(server); reason != "" {
		return "", "", fail("server name " + reason)
	}
	return ServerName(server), mediaID, nil
}

// Valid reports whether u parses.
func (u MxcURI) Valid() bool {
	_, _, err := u.Parts()
	return err == nil
}

func (u *MxcURI) UnmarshalText(text []byte) error {
	v, err := ParseMxcURI(string(text))
	if err != nil {
		return err
	}
	*u = v
	return nil
}
