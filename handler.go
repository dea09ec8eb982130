package nextware

import "net/http"

// Next is the continuation a handler invokes to hand control to the rest of
// the chain. Calling it with nil proceeds to the next handler; calling it
// with a non-nil error diverts to the error-handling chain.
type Next func(err error)

// Handler is a chain handler that manages its continuation itself: it must
// either write a response or call next exactly once.
type Handler func(w http.ResponseWriter, r *http.Request, next Next)

// ErrorHandler is a chain handler invoked only when an upstream handler
// passed an error to its continuation.
type ErrorHandler func(err error, w http.ResponseWriter, r *http.Request, next Next)

// AsyncHandler settles by returning: a nil result proceeds to the next
// handler, a non-nil result enters the error chain. The continuation is
// driven automatically by Wrap; the handler never sees it.
type AsyncHandler func(w http.ResponseWriter, r *http.Request) error

// AsyncErrorHandler is the settling variant of ErrorHandler.
type AsyncErrorHandler func(err error, w http.ResponseWriter, r *http.Request) error

// ParamHandler runs before the route chain for a named URL parameter. The
// shape is fixed at five parameters; name repeats the registered parameter
// name and is rarely needed.
type ParamHandler func(w http.ResponseWriter, r *http.Request, next Next, value, name string)

// AsyncParamHandler is the settling variant of ParamHandler.
type AsyncParamHandler func(w http.ResponseWriter, r *http.Request, value, name string) error

// link is one normalized element of a route chain. Exactly one of h and eh
// is set.
type link struct {
	h  Handler
	eh ErrorHandler
}
