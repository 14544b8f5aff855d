package mxapi

import (
	"context"
)

// HandlerFunc represents the next handler in an interceptor chain.
// It is passed to [UnaryInterceptor] functions to invoke the next interceptor
// or the final handler.
type HandlerFunc func(ctx context.Context, req any) (res any, err error)

// UnaryInterceptor is a hook that wraps handler execution.
//
//	func timing(ctx mxapi.Context, req any, handler mxapi.HandlerFunc) (any, error) {
//	    start := time.Now()
//	    res, err := handler(ctx, req)
//	    log.Printf("%s took %v", ctx.EndpointID(), time.Since(start))
//	    return res, err
//	}
//
// req and res are pointers to the endpoint's request and response structs.
// Interceptors run after the request was unmarshalled and validated, so they
// may short-circuit by returning an error without calling handler.
type UnaryInterceptor func(ctx Context, req any, handler HandlerFunc) (res any, err error)

// Policy runs before the request is read. It is where authentication and
// rate limiting are enforced, using ctx.Endpoint().RequiresAuth() and
// ctx.Endpoint().RateLimited(). A non-nil error aborts the call.
type Policy func(ctx Context) error

// chainInterceptors combines multiple interceptors into a single one.
// The first interceptor in the slice is the outer-most one (runs first).
func chainInterceptors(interceptors []UnaryInterceptor) UnaryInterceptor {
	if len(interceptors) == 0 {
		return nil
	}
	if len(interceptors) == 1 {
		return interceptors[0]
	}
	return func(ctx Context, req any, handler HandlerFunc) (any, error) {
		chain := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			current := interceptors[i]
			next := chain
			chain = func(c context.Context, req any) (any, error) {
				mc, ok := FromContext(c)
				if !ok {
					// Someone replaced the context entirely; keep the call metadata.
					mc = ctx
				}
				return current(mc, req, next)
			}
		}
		return chain(ctx, req)
	}
}
