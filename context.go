package mxapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Context carries the endpoint being served along with the HTTP request.
// Interceptors and policies receive it; handlers can recover it from their
// context.Context with FromContext.
type Context interface {
	context.Context

	// EndpointID is the endpoint's metadata name, e.g. "get_content".
	EndpointID() string
	Endpoint() EndpointInfo
	// Version is the version of the history entry whose path matched.
	Version() Version
	HTTPRequest() *http.Request
	HTTPWriter() http.ResponseWriter
}

type contextKey struct{}

// rpcContext is the per-request state shared by App and Handler.
type rpcContext struct {
	context.Context
	endpoint EndpointInfo
	version  Version
	request  *http.Request
	writer   http.ResponseWriter

	errorTransformer   ErrorTransformer
	maskInternalErrors bool
	interceptors       []UnaryInterceptor
	policy             Policy
	logger             *slog.Logger
	validate           *validator.Validate
	maxRequestBodySize uint64
}

var _ Context = (*rpcContext)(nil)

func (c *rpcContext) EndpointID() string              { return c.endpoint.Metadata().Name }
func (c *rpcContext) Endpoint() EndpointInfo          { return c.endpoint }
func (c *rpcContext) Version() Version                { return c.version }
func (c *rpcContext) HTTPRequest() *http.Request      { return c.request }
func (c *rpcContext) HTTPWriter() http.ResponseWriter { return c.writer }

func newContext(parent context.Context, w http.ResponseWriter, r *http.Request, ep EndpointInfo, v Version) *rpcContext {
	ctx := &rpcContext{
		endpoint:           ep,
		version:            v,
		request:            r,
		writer:             w,
		maxRequestBodySize: defaultMaxRequestBodySize,
	}
	ctx.Context = context.WithValue(parent, contextKey{}, ctx)
	return ctx
}

// FromContext returns the Context of the call being served.
func FromContext(ctx context.Context) (Context, bool) {
	if c, ok := ctx.(*rpcContext); ok {
		return c, true
	}
	c, ok := ctx.Value(contextKey{}).(*rpcContext)
	if !ok {
		return nil, false
	}
	// Keep deadlines and values added on top of the served context.
	derived := *c
	derived.Context = ctx
	return &derived, true
}

// SetHeader sets an HTTP response header from inside a handler.
// It is a no-op outside of a served call.
func SetHeader(ctx context.Context, key, value string) {
	if c, ok := FromContext(ctx); ok && c.HTTPWriter() != nil {
		c.HTTPWriter().Header().Set(key, value)
	}
}

func (c *rpcContext) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// NewContext returns a Context for ep outside of a served request, so that
// interceptors and policies can be called directly in tests.
func NewContext(parent context.Context, ep EndpointInfo, v Version) Context {
	return newContext(parent, nil, nil, ep, v)
}
