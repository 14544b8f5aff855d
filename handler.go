package mxapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/elnormous/contenttype"
	"github.com/go-playground/validator/v10"

	"github.com/broady/mxapi/mxid"
)

const defaultMaxRequestBodySize = 1 << 20

var (
	jsonMediaType   = contenttype.NewMediaType(jsonContentType)
	defaultValidate = NewValidator()
)

// NewValidator returns the validator used on decoded requests, with the
// identifier checks of package mxid registered. Extend it and pass it to
// App.WithValidator to add more.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := mxid.RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}

// Route is a handler that can be registered with an App.
// It is exported so users can pass it to Register, but sealed so they cannot implement it.
type Route interface {
	Endpoint() EndpointInfo
	serveHTTP(ctx *rpcContext)
}

// Handler serves one endpoint with a typed function.
type Handler[Req, Res any] struct {
	endpoint           *Endpoint[Req, Res]
	fn                 func(context.Context, *Req) (*Res, error)
	interceptors       []UnaryInterceptor
	maxRequestBodySize *uint64
	skipValidation     bool
}

var _ Route = (*Handler[struct{}, struct{}])(nil)

// NewHandler binds fn to the endpoint ep. fn receives the unmarshalled and
// validated request; a nil response is written as the zero response.
func NewHandler[Req, Res any](ep *Endpoint[Req, Res], fn func(context.Context, *Req) (*Res, error)) *Handler[Req, Res] {
	return &Handler[Req, Res]{endpoint: ep, fn: fn}
}

// WithUnaryInterceptor adds an interceptor to this handler.
// Handler interceptors run after the App's.
func (h *Handler[Req, Res]) WithUnaryInterceptor(i UnaryInterceptor) *Handler[Req, Res] {
	h.interceptors = append(h.interceptors, i)
	return h
}

// WithMaxRequestBodySize overrides the App's request body limit.
// A value of 0 means no limit.
func (h *Handler[Req, Res]) WithMaxRequestBodySize(size uint64) *Handler[Req, Res] {
	h.maxRequestBodySize = &size
	return h
}

// WithSkipValidation disables validate tag checks on decoded requests.
func (h *Handler[Req, Res]) WithSkipValidation() *Handler[Req, Res] {
	h.skipValidation = true
	return h
}

func (h *Handler[Req, Res]) Endpoint() EndpointInfo { return h.endpoint }

// ServeHTTP serves the handler on its own, with default settings.
// Paths that do not match the endpoint's history are answered with M_UNRECOGNIZED.
func (h *Handler[Req, Res]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	v, ok := h.endpoint.MatchPath(r.URL.EscapedPath())
	if !ok {
		writeError(w, NewError(CodeUnrecognized, "unrecognized request").WithStatus(http.StatusNotFound), nil)
		return
	}
	if r.Method != h.endpoint.meta.Method {
		w.Header().Set("Allow", h.endpoint.meta.Method)
		writeError(w, NewError(CodeUnrecognized, "method not allowed").WithStatus(http.StatusMethodNotAllowed), nil)
		return
	}
	h.serveHTTP(newContext(r.Context(), w, r, h.endpoint, v))
}

func (h *Handler[Req, Res]) serveHTTP(ctx *rpcContext) {
	if ctx.policy != nil {
		if err := ctx.policy(ctx); err != nil {
			handleError(ctx, err)
			return
		}
	}

	req, err := h.decodeRequest(ctx)
	if err != nil {
		handleError(ctx, err)
		return
	}

	allInterceptors := make([]UnaryInterceptor, 0, len(ctx.interceptors)+len(h.interceptors))
	allInterceptors = append(allInterceptors, ctx.interceptors...)
	allInterceptors = append(allInterceptors, h.interceptors...)
	chain := chainInterceptors(allInterceptors)

	finalHandler := func(c context.Context, reqAny any) (any, error) {
		typed, ok := reqAny.(*Req)
		if !ok {
			return nil, Errorf(CodeUnknown, "interceptor modified request type incorrectly")
		}
		return h.fn(c, typed)
	}

	var resAny any
	if chain != nil {
		resAny, err = chain(ctx, req, finalHandler)
	} else {
		resAny, err = finalHandler(ctx, req)
	}
	if err != nil {
		handleError(ctx, err)
		return
	}

	var res *Res
	if resAny != nil {
		var ok bool
		if res, ok = resAny.(*Res); !ok {
			handleError(ctx, fmt.Errorf("mxapi: %s: interceptor returned %T", ctx.EndpointID(), resAny))
			return
		}
	}

	msg, err := h.endpoint.OutgoingResponse(res)
	if err != nil {
		handleError(ctx, err)
		return
	}
	if err := msg.Write(ctx.writer); err != nil {
		// Response may be partially written, nothing we can do. Log for debugging.
		ctx.log().Error("failed to write response",
			slog.String("endpoint", ctx.EndpointID()),
			slog.Any("error", err))
	}
}

func (h *Handler[Req, Res]) decodeRequest(ctx *rpcContext) (*Req, error) {
	limit := ctx.maxRequestBodySize
	if h.maxRequestBodySize != nil {
		limit = *h.maxRequestBodySize
	}
	msg, err := ReadRequest(ctx.request, bodyLimit(limit))
	if err != nil {
		return nil, err
	}

	if h.endpoint.request.jsonBody() && len(msg.Body) > 0 && ctx.request.Header.Get("Content-Type") != "" {
		ctype, err := contenttype.GetMediaType(ctx.request)
		if err != nil || !ctype.Matches(jsonMediaType) {
			return nil, Errorf(CodeNotJSON, "content type %q is not JSON", ctx.request.Header.Get("Content-Type")).
				WithStatus(http.StatusUnsupportedMediaType)
		}
	}

	req, err := h.endpoint.IncomingRequestAt(msg, ctx.version)
	if err != nil {
		return nil, err
	}

	if !h.skipValidation {
		validate := ctx.validate
		if validate == nil {
			validate = defaultValidate
		}
		if err := validate.StructCtx(ctx, req); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func handleError(ctx *rpcContext, err error) {
	var envelope *Error
	if ctx.errorTransformer != nil {
		envelope = ctx.errorTransformer(err)
	}
	if envelope == nil {
		envelope = DefaultErrorTransformer(err)
	}
	if ctx.maskInternalErrors && envelope.HTTPStatus() >= http.StatusInternalServerError {
		masked := *envelope
		masked.Message = "internal server error"
		envelope = &masked
	}
	writeError(ctx.writer, envelope, ctx.logger)
}
