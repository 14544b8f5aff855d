// Package mxid provides the Matrix identifier types carried in endpoint paths
// and event contents. Every type is a string underneath, so it can be used
// directly as a path, query or body field. Parsing validates the grammar;
// UnmarshalText runs the same checks when a value is decoded from the wire.
package mxid

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// ErrInvalidID is wrapped by every parse error.
var ErrInvalidID = errors.New("mxid: invalid identifier")

// ParseError describes why a value is not a valid identifier.
type ParseError struct {
	Kind   string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("mxid: invalid %s %q: %s", e.Kind, e.Value, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrInvalidID }

// maxIDLength is the longest identifier a homeserver accepts, sigil included.
const maxIDLength = 255

// ServerName is a homeserver name: a DNS name or IP literal with optional port.
type ServerName string

// ParseServerName validates s as a server name.
func ParseServerName(s string) (ServerName, error) {
	if reason := checkServerName(s); reason != "" {
		return "", &ParseError{Kind: "server name", Value: s, Reason: reason}
	}
	return ServerName(s), nil
}

func (s ServerName) String() string { return string(s) }

func (s *ServerName) UnmarshalText(text []byte) error {
	v, err := ParseServerName(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Host returns the server name without its port.
func (s ServerName) Host() string {
	host, _ := splitPort(string(s))
	return host
}

func checkServerName(s string) string {
	if s == "" {
		return "empty"
	}
	if len(s) > maxIDLength {
		return "too long"
	}
	host, port := splitPort(s)
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return "invalid port"
		}
	}
	switch {
	case strings.HasPrefix(host, "["):
		if !strings.HasSuffix(host, "]") {
			return "unterminated IPv6 literal"
		}
		addr, err := netip.ParseAddr(host[1 : len(host)-1])
		if err != nil || !addr.Is6() {
			return "invalid IPv6 literal"
		}
	case host == "":
		return "missing host"
	default:
		for _, r := range host {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '.') {
				return fmt.Sprintf("invalid character %q", r)
			}
		}
	}
	return ""
}

// splitPort splits an optional ":port" suffix, leaving IPv6 literals intact.
func splitPort(s string) (host, port string) {
	i := strings.LastIndexByte(s, ':')
	if i < 0 || strings.HasSuffix(s, "]") {
		return s, ""
	}
	if strings.HasPrefix(s, "[") && !strings.HasSuffix(s[:i], "]") {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// parseSigilled splits "<sigil>localpart:server".
func parseSigilled(kind string, sigil byte, s string) (string, ServerName, error) {
	fail := func(reason string) error { return &ParseError{Kind: kind, Value: s, Reason: reason} }
	if len(s) > maxIDLength {
		return "", "", fail("too long")
	}
	if len(s) == 0 || s[0] != sigil {
		return "", "", fail(fmt.Sprintf("must start with %q", sigil))
	}
	local, server, ok := strings.Cut(s[1:], ":")
	if !ok {
		return "", "", fail("missing server name")
	}
	if local == "" {
		return "", "", fail("empty localpart")
	}
	if reason := checkServerName(server); reason != "" {
		return "", "", fail("server name " + reason)
	}
	return local, ServerName(server), nil
}

// RoomID is an opaque room identifier such as "!n8f893n9:example.com".
type RoomID string

func ParseRoomID(s string) (RoomID, error) {
	if _, _, err := parseSigilled("room ID", '!', s); err != nil {
		return "", err
	}
	return RoomID(s), nil
}

func (id RoomID) String() string { return string(id) }

// Server returns the server part of a valid room ID.
func (id RoomID) Server() ServerName {
	_, server, _ := strings.Cut(string(id), ":")
	return ServerName(server)
}

func (id *RoomID) UnmarshalText(text []byte) error {
	v, err := ParseRoomID(string(text))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// EventID identifies an event. Room versions 1 and 2 use "$opaque:server";
// later versions use a bare "$hash".
type EventID string

func ParseEventID(s string) (EventID, error) {
	if len(s) < 2 || s[0] != '$' {
		return "", &ParseError{Kind: "event ID", Value: s, Reason: `must start with "$" and be non-empty`}
	}
	if len(s) > maxIDLength {
		return "", &ParseError{Kind: "event ID", Value: s, Reason: "too long"}
	}
	if strings.Contains(s, ":") {
		if _, _, err := parseSigilled("event ID", '$', s); err != nil {
			return "", err
		}
	}
	return EventID(s), nil
}

func (id EventID) String() string { return string(id) }

func (id *EventID) UnmarshalText(text []byte) error {
	v, err := ParseEventID(string(text))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// UserID is a fully-qualified user identifier such as "@carl:example.com".
type UserID string

func ParseUserID(s string) (UserID, error) {
	local, _, err := parseSigilled("user ID", '@', s)
	if err != nil {
		return "", err
	}
	for _, r := range local {
		// Historical user IDs may contain any printable ASCII except ':'.
		if r < 0x21 || r > 0x7e {
			return "", &ParseError{Kind: "user ID", Value: s, Reason: fmt.Sprintf("invalid character %q in localpart", r)}
		}
	}
	return UserID(s), nil
}

func (id UserID) String() string { return string(id) }

// Localpart returns the part between the sigil and the server name.
func (id UserID) Localpart() string {
	local, _, _ := strings.Cut(string(id), ":")
	return strings.TrimPrefix(local, "@")
}

// Server returns the server part of a valid user ID.
func (id UserID) Server() ServerName {
	_, server, _ := strings.Cut(string(id), ":")
	return ServerName(server)
}

func (id *UserID) UnmarshalText(text []byte) error {
	v, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*id = v
	return nil
}
