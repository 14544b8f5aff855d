package mxapi

import (
	"fmt"
	"net/http"
	"slices"
)

// Metadata describes an endpoint independently of its request and response
// types. It is authored once, statically, and never mutated.
type Metadata struct {
	// Name identifies the endpoint in logs and tooling, e.g. "get_content".
	Name        string
	Description string

	Method string

	// Authentication and RateLimited are declarations only. They are exposed to
	// a Policy and to tooling but never enforced by the marshaller.
	Authentication bool
	RateLimited    bool

	History History
}

// HistoryEntry maps a protocol version to the path template that is valid from
// that version onward.
type HistoryEntry struct {
	Version Version
	Path    string

	// Deprecated marks the endpoint as deprecated from Version on. It is still
	// served. Only the last entry may be deprecated.
	Deprecated bool
}

// Since returns a history entry valid from version v.
func Since(v, path string) HistoryEntry {
	return HistoryEntry{Version: MustParseVersion(v), Path: path}
}

// DeprecatedSince returns a trailing history entry that marks the endpoint as
// deprecated from version v while still serving path.
func DeprecatedSince(v, path string) HistoryEntry {
	return HistoryEntry{Version: MustParseVersion(v), Path: path, Deprecated: true}
}

// History is ordered oldest first, strictly increasing by version.
type History []HistoryEntry

// Resolve returns the newest entry whose version is not newer than v.
func (h History) Resolve(v Version) (HistoryEntry, error) {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Version.Compare(v) <= 0 {
			return h[i], nil
		}
	}
	var oldest Version
	if len(h) > 0 {
		oldest = h[0].Version
	}
	return HistoryEntry{}, &VersionError{Requested: v, Oldest: oldest}
}

// Latest returns the newest entry. It panics on an empty history.
func (h History) Latest() HistoryEntry { return h[len(h)-1] }

// IsDeprecated reports whether the endpoint is deprecated at version v.
func (h History) IsDeprecated(v Version) bool {
	e, err := h.Resolve(v)
	return err == nil && e.Deprecated
}

func (h History) check() []error {
	if len(h) == 0 {
		return []error{&DefinitionError{Kind: ErrInvalidHistory, Detail: "history is empty"}}
	}
	var errs []error
	for i, e := range h {
		if e.Version.IsZero() {
			errs = append(errs, &DefinitionError{Kind: ErrInvalidHistory, Detail: fmt.Sprintf("entry %d has no version", i)})
			continue
		}
		if i > 0 && !h[i-1].Version.Less(e.Version) {
			errs = append(errs, &DefinitionError{Kind: ErrInvalidHistory,
				Detail: fmt.Sprintf("version %s does not follow %s", e.Version, h[i-1].Version)})
		}
		if e.Deprecated && i != len(h)-1 {
			errs = append(errs, &DefinitionError{Kind: ErrInvalidHistory,
				Detail: fmt.Sprintf("deprecated entry %s is not the last entry", e.Version)})
		}
	}
	return errs
}

// safeMethods never carry a request body.
var safeMethods = []string{http.MethodGet, http.MethodHead}

func isSafeMethod(method string) bool { return slices.Contains(safeMethods, method) }
