package mxapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
)

// ErrBodyTooLarge is returned when a body exceeds the configured read limit.
var ErrBodyTooLarge = errors.New("mxapi: body too large")

// Message is a wire-level HTTP request or response, independent of any
// transport. Messages are created per call and never shared.
type Message struct {
	Method string
	// Path is the escaped request path, without query string.
	Path string
	// Query preserves the order of the query string.
	Query  []QueryPair
	Header http.Header
	Body   []byte
	// Status is set on responses only.
	Status int
}

// RawQuery encodes the query pairs in order.
func (m *Message) RawQuery() string {
	var b strings.Builder
	for i, p := range m.Query {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// ParseQuery parses a raw query string, keeping pair order.
func ParseQuery(raw string) ([]QueryPair, error) {
	var pairs []QueryPair
	for raw != "" {
		var part string
		part, raw, _ = strings.Cut(raw, "&")
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, fmt.Errorf("mxapi: invalid query key %q: %w", k, err)
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, fmt.Errorf("mxapi: invalid query value %q: %w", v, err)
		}
		pairs = append(pairs, QueryPair{Key: key, Value: value})
	}
	return pairs, nil
}

// URL joins baseURL with the message path and query. baseURL is used verbatim
// apart from a trailing slash, so an escaped path is never re-encoded.
func (m *Message) URL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/") + m.Path
	if q := m.RawQuery(); q != "" {
		u += "?" + q
	}
	return u
}

// HTTPRequest converts a request message into an *http.Request against baseURL.
func (m *Message) HTTPRequest(ctx context.Context, baseURL string) (*http.Request, error) {
	var body io.Reader
	if len(m.Body) > 0 {
		body = bytes.NewReader(m.Body)
	}
	req, err := http.NewRequestWithContext(ctx, m.Method, m.URL(baseURL), body)
	if err != nil {
		return nil, fmt.Errorf("mxapi: building request: %w", err)
	}
	for k, vals := range m.Header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// ReadRequest converts an incoming *http.Request into a message. A limit of
// zero or less disables the body size check.
func ReadRequest(r *http.Request, limit int64) (*Message, error) {
	query, err := ParseQuery(r.URL.RawQuery)
	if err != nil {
		return nil, err
	}
	msg := &Message{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Query:  query,
		Header: r.Header.Clone(),
	}
	if r.Body != nil {
		if msg.Body, err = readLimited(r.Body, limit); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

// ReadResponse converts an *http.Response into a message and closes its body.
func ReadResponse(resp *http.Response, limit int64) (*Message, error) {
	defer resp.Body.Close()
	body, err := readLimited(resp.Body, limit)
	if err != nil {
		return nil, err
	}
	return &Message{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}

// Write writes a response message to w.
func (m *Message) Write(w http.ResponseWriter) error {
	for k, vals := range m.Header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	status := m.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(m.Body) == 0 {
		return nil
	}
	_, err := w.Write(m.Body)
	return err
}

// bodyLimit converts a configured size to a read limit. Sizes beyond what
// readLimited can count are clamped rather than wrapped.
func bodyLimit(size uint64) int64 {
	if size >= math.MaxInt64 {
		return math.MaxInt64 - 1
	}
	return int64(size)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, ErrBodyTooLarge
	}
	return b, nil
}
