package nextware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// Wrap adapts a settling handler to the chain's continuation contract. The
// continuation is guarded before anything can observe it, the handler runs,
// and the result is translated into at most one continuation call: next(nil)
// on success, next(err) on failure, nothing at all when the response already
// began transmission.
func Wrap(h AsyncHandler) Handler {
	return func(w http.ResponseWriter, r *http.Request, next Next) {
		next = onceNext(next)
		settle(w, next, catch(func() error { return h(w, r) }))
	}
}

// WrapError is Wrap for error-chain handlers.
func WrapError(h AsyncErrorHandler) ErrorHandler {
	return func(cause error, w http.ResponseWriter, r *http.Request, next Next) {
		next = onceNext(next)
		settle(w, next, catch(func() error { return h(cause, w, r) }))
	}
}

// WrapParam is Wrap for param hooks, value and name forwarded unchanged.
func WrapParam(h AsyncParamHandler) ParamHandler {
	return func(w http.ResponseWriter, r *http.Request, next Next, value, name string) {
		next = onceNext(next)
		settle(w, next, catch(func() error { return h(w, r, value, name) }))
	}
}

// settle translates a settled handler result into a continuation call. A
// response that already started transmission means the handler dealt with
// the request itself and the chain must not advance.
func settle(w http.ResponseWriter, next Next, err error) {
	if headersSent(w) {
		return
	}
	next(err)
}

// catch runs fn, converting a panic into the returned error. A user failure
// never escapes the wrapper boundary; it is re-expressed on the error chain.
func catch(fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			if e, ok := v.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("handler panic: %v", v)
		}
	}()
	return fn()
}

// headersSent reports whether the response began transmission. Handlers
// dispatched by a Router always receive a chi WrapResponseWriter; a bare
// writer reports false, which keeps Wrap usable on its own.
func headersSent(w http.ResponseWriter) bool {
	if ww, ok := w.(middleware.WrapResponseWriter); ok {
		return ww.Status() != 0
	}
	return false
}
