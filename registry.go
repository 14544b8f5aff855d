package mxapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// App serves a set of endpoint handlers.
// Routing is single-endpoint path matching over the registered handlers in
// registration order: the first handler whose history matches the path wins.
// Use Handler() to get an http.Handler for use with http.ListenAndServe.
type App struct {
	mu                 sync.RWMutex
	routes             []Route
	errorTransformer   ErrorTransformer
	maskInternalErrors bool
	interceptors       []UnaryInterceptor
	middlewares        []func(http.Handler) http.Handler
	policy             Policy
	logger             *slog.Logger
	validate           *validator.Validate
	maxRequestBodySize uint64
}

func NewApp() *App {
	return &App{
		maxRequestBodySize: defaultMaxRequestBodySize,
	}
}

// WithConfig applies the serving settings of cfg.
func (a *App) WithConfig(cfg Config) *App {
	a.maxRequestBodySize = cfg.MaxBodySize
	a.maskInternalErrors = cfg.MaskInternalErrors
	return a
}

// WithErrorTransformer adds a custom error transformer.
// It returns the app for chaining.
func (a *App) WithErrorTransformer(fn ErrorTransformer) *App {
	a.errorTransformer = fn
	return a
}

// WithMaskInternalErrors enables masking of internal error messages.
// This is useful in production to avoid leaking sensitive information.
// The original error is still available to interceptors and logging.
func (a *App) WithMaskInternalErrors() *App {
	a.maskInternalErrors = true
	return a
}

// WithUnaryInterceptor adds a global interceptor.
// Global interceptors are executed before handler-level interceptors.
// Within each level, interceptors execute in the order they were added.
func (a *App) WithUnaryInterceptor(i UnaryInterceptor) *App {
	a.interceptors = append(a.interceptors, i)
	return a
}

// WithMiddleware adds an HTTP middleware to wrap the app.
// Middleware is applied in the order added (first added is outermost).
func (a *App) WithMiddleware(mw func(http.Handler) http.Handler) *App {
	a.middlewares = append(a.middlewares, mw)
	return a
}

// WithPolicy sets the hook that enforces authentication and rate limiting.
func (a *App) WithPolicy(p Policy) *App {
	a.policy = p
	return a
}

// WithLogger sets a custom logger for the app.
// If not set, slog.Default() will be used.
func (a *App) WithLogger(logger *slog.Logger) *App {
	a.logger = logger
	return a
}

// WithValidator replaces the validator run on decoded requests, for example
// one with custom validations registered.
func (a *App) WithValidator(v *validator.Validate) *App {
	a.validate = v
	return a
}

// WithMaxRequestBodySize sets the default maximum request body size for all handlers.
// Individual handlers can override this with Handler.WithMaxRequestBodySize.
// A value of 0 means no limit. Default is 1MB (1 << 20).
func (a *App) WithMaxRequestBodySize(size uint64) *App {
	a.maxRequestBodySize = size
	return a
}

// Register adds handlers to the app. Registering a second handler for an
// endpoint name replaces the first and logs a warning.
func (a *App) Register(routes ...Route) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, r := range routes {
		name := r.Endpoint().Metadata().Name
		i := slices.IndexFunc(a.routes, func(existing Route) bool {
			return existing.Endpoint().Metadata().Name == name
		})
		if i < 0 {
			a.routes = append(a.routes, r)
			continue
		}
		a.log().Warn("duplicate route registration",
			slog.String("endpoint", name),
			slog.String("method", r.Endpoint().Metadata().Method))
		a.routes[i] = r
	}
}

// Endpoints returns the registered endpoints in registration order.
func (a *App) Endpoints() []EndpointInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]EndpointInfo, len(a.routes))
	for i, r := range a.routes {
		out[i] = r.Endpoint()
	}
	return out
}

// Handler returns an http.Handler for use with http.ListenAndServe or other
// HTTP servers. The returned handler includes all configured middleware.
//
// Example:
//
//	app := mxapi.NewApp().WithMiddleware(middleware.CORS(middleware.CORSAllowAll))
//	http.ListenAndServe(":8008", app.Handler())
func (a *App) Handler() http.Handler {
	var h http.Handler = http.HandlerFunc(a.serveHTTP)
	// Apply middleware in reverse order so first added is outermost
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		h = a.middlewares[i](h)
	}
	return h
}

func (a *App) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}

func (a *App) serveHTTP(w http.ResponseWriter, req *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			a.log().Error("PANIC recovered",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			writeError(w, NewError(CodeUnknown, fmt.Sprintf("internal server error (panic): %v", rec)), a.logger)
		}
	}()

	path := req.URL.EscapedPath()

	a.mu.RLock()
	routes := slices.Clone(a.routes)
	a.mu.RUnlock()

	var allowed []string
	for _, r := range routes {
		ep := r.Endpoint()
		v, ok := ep.MatchPath(path)
		if !ok {
			continue
		}
		if ep.Metadata().Method != req.Method {
			allowed = append(allowed, ep.Metadata().Method)
			continue
		}

		ctx := newContext(req.Context(), w, req, ep, v)
		ctx.errorTransformer = a.errorTransformer
		ctx.maskInternalErrors = a.maskInternalErrors
		ctx.interceptors = a.interceptors
		ctx.policy = a.policy
		ctx.logger = a.logger
		ctx.validate = a.validate
		ctx.maxRequestBodySize = a.maxRequestBodySize
		r.serveHTTP(ctx)
		return
	}

	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		writeError(w, Errorf(CodeUnrecognized, "method %s not allowed", req.Method).
			WithStatus(http.StatusMethodNotAllowed), a.logger)
		return
	}
	writeError(w, NewError(CodeUnrecognized, "unrecognized request").WithStatus(http.StatusNotFound), a.logger)
}
