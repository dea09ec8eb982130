package nextware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/go-nextware/nextware/validation"
)

// DefaultMethods is the verb set enabled on a Router unless WithMethods
// narrows it.
var DefaultMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodDelete, http.MethodHead, http.MethodOptions,
}

// Router decorates a chi.Router with async-aware registration methods.
// Every handler argument — settling or continuation style — is normalized
// before it reaches the underlying router, so the two styles mix freely in
// one chain. Wrapping the same chi router twice yields decorators with
// identical behavior.
type Router struct {
	mux     chi.Router
	log     zerolog.Logger
	methods map[string]bool
	parent  *Router

	mu         sync.RWMutex
	errStack   []ErrorHandler
	paramNames []string
	params     map[string][]ParamHandler
	bodies     map[string]reflect.Type
	names      map[string]string // route name -> key
	patterns   map[string]string // key -> pattern template
}

// Option configures a Router at construction time.
type Option func(*Router)

// WithLogger sets the logger used by the terminal error responder. The
// default is a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(rt *Router) { rt.log = l }
}

// WithMethods restricts which HTTP verbs carry an …Async registration
// method. Calling a verb outside the set panics at first invocation, the
// same way a missing method on the underlying router would.
func WithMethods(methods ...string) Option {
	return func(rt *Router) {
		rt.methods = make(map[string]bool, len(methods))
		for _, m := range methods {
			rt.methods[strings.ToUpper(m)] = true
		}
	}
}

// Augment wraps an existing chi router. The router is used in place, not
// copied; routes registered on it directly keep working.
func Augment(mux chi.Router, opts ...Option) *Router {
	rt := &Router{
		mux:      mux,
		log:      zerolog.Nop(),
		methods:  make(map[string]bool, len(DefaultMethods)),
		params:   make(map[string][]ParamHandler),
		bodies:   make(map[string]reflect.Type),
		names:    make(map[string]string),
		patterns: make(map[string]string),
	}
	for _, m := range DefaultMethods {
		rt.methods[m] = true
	}
	for _, o := range opts {
		o(rt)
	}
	return rt
}

// NewRouter builds a fresh chi router and augments it.
func NewRouter(opts ...Option) *Router {
	return Augment(chi.NewRouter(), opts...)
}

// Mux returns the underlying chi router.
func (rt *Router) Mux() chi.Router { return rt.mux }

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}

func (rt *Router) GetAsync(pattern any, handlers ...any) *RouteChain {
	return rt.handle(http.MethodGet, pattern, handlers)
}

func (rt *Router) PostAsync(pattern any, handlers ...any) *RouteChain {
	return rt.handle(http.MethodPost, pattern, handlers)
}

func (rt *Router) PutAsync(pattern any, handlers ...any) *RouteChain {
	return rt.handle(http.MethodPut, pattern, handlers)
}

func (rt *Router) PatchAsync(pattern any, handlers ...any) *RouteChain {
	return rt.handle(http.MethodPatch, pattern, handlers)
}

func (rt *Router) DeleteAsync(pattern any, handlers ...any) *RouteChain {
	return rt.handle(http.MethodDelete, pattern, handlers)
}

func (rt *Router) HeadAsync(pattern any, handlers ...any) *RouteChain {
	return rt.handle(http.MethodHead, pattern, handlers)
}

func (rt *Router) OptionsAsync(pattern any, handlers ...any) *RouteChain {
	return rt.handle(http.MethodOptions, pattern, handlers)
}

// AllAsync registers the chain for every HTTP verb.
func (rt *Router) AllAsync(pattern any, handlers ...any) *RouteChain {
	pat, links := rt.normalized(pattern, handlers)
	key := "ALL " + pat
	rt.remember(key, pat)
	rt.mux.Handle(pat, rt.chain(key, links))
	return &RouteChain{rt: rt, key: key}
}

// UseAsync registers chain middleware. Normal handlers become middleware on
// the underlying router and therefore must be registered before any route
// (chi enforces this). Error handlers go on the router-level error stack and
// may be registered at any time, including after the routes whose failures
// they should observe.
func (rt *Router) UseAsync(handlers ...any) {
	links, err := normalizeHandlers(handlers)
	if err != nil {
		panic(err)
	}
	for _, l := range links {
		if l.eh != nil {
			rt.mu.Lock()
			rt.errStack = append(rt.errStack, l.eh)
			rt.mu.Unlock()
			continue
		}
		rt.mux.Use(rt.middlewareFor(l.h))
	}
}

// ParamAsync registers a hook that runs before the route chain whenever the
// matched route exposes the named URL parameter. Hooks run in registration
// order, once per request.
func (rt *Router) ParamAsync(name string, handler any) {
	ph, err := normalizeParam(handler)
	if err != nil {
		panic(err)
	}
	rt.mu.Lock()
	if _, ok := rt.params[name]; !ok {
		rt.paramNames = append(rt.paramNames, name)
	}
	rt.params[name] = append(rt.params[name], ph)
	rt.mu.Unlock()
}

// RouteAsync mounts a sub-router at pattern and returns it augmented.
// Errors unhandled by the sub-router bubble up to this router's error stack.
func (rt *Router) RouteAsync(pattern any) *Router {
	pat, err := patternString(pattern)
	if err != nil {
		panic(err)
	}
	sub := rt.mux.Route(pat, func(chi.Router) {})
	child := Augment(sub, WithLogger(rt.log))
	child.methods = rt.methods
	child.parent = rt
	return child
}

func (rt *Router) handle(method string, pattern any, handlers []any) *RouteChain {
	if !rt.methods[method] {
		panic(fmt.Sprintf("nextware: method %s is not augmented on this router", method))
	}
	pat, links := rt.normalized(pattern, handlers)
	key := method + " " + pat
	rt.remember(key, pat)
	rt.mux.Method(method, pat, rt.chain(key, links))
	return &RouteChain{rt: rt, key: key}
}

func (rt *Router) normalized(pattern any, handlers []any) (string, []link) {
	pat, err := patternString(pattern)
	if err != nil {
		panic(err)
	}
	links, err := normalizeHandlers(handlers)
	if err != nil {
		panic(err)
	}
	return pat, links
}

func (rt *Router) remember(key, pattern string) {
	rt.mu.Lock()
	rt.patterns[key] = pattern
	rt.mu.Unlock()
}

// chain builds the http.Handler dispatching one route's links.
func (rt *Router) chain(key string, links []link) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ww := wrapWriter(w, r)
		r = withStash(r)
		r, ok := rt.checkBody(key, ww, r)
		if !ok {
			return
		}
		rt.run(append(rt.paramLinks(r), links...), 0, nil, ww, r)
	}
}

// run walks the chain: a nil error selects the next normal link, a live
// error the next error link. Falling off the end hands a live error to the
// router error stack, or answers 404 when nothing was written.
func (rt *Router) run(links []link, start int, err error, w chimw.WrapResponseWriter, r *http.Request) {
	for i := start; i < len(links); i++ {
		l := links[i]
		if (err != nil) != (l.eh != nil) {
			continue
		}
		next := func(i int) Next {
			return func(e error) { rt.run(links, i+1, e, w, r) }
		}(i)
		if err != nil {
			l.eh(err, w, r, next)
		} else {
			l.h(w, r, next)
		}
		return
	}
	if err != nil {
		rt.serveError(err, w, r)
		return
	}
	if w.Status() == 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "NOT_FOUND", http.StatusText(http.StatusNotFound), nil)
	}
}

// serveError walks the router-level error handlers, then the parent's, and
// finally the terminal responder.
func (rt *Router) serveError(err error, w chimw.WrapResponseWriter, r *http.Request) {
	rt.mu.RLock()
	stack := make([]ErrorHandler, len(rt.errStack))
	copy(stack, rt.errStack)
	rt.mu.RUnlock()

	var step func(i int, e error)
	step = func(i int, e error) {
		if e == nil {
			// swallowed; nothing left to run
			if w.Status() == 0 {
				writeError(w, http.StatusNotFound, "NOT_FOUND", "NOT_FOUND", http.StatusText(http.StatusNotFound), nil)
			}
			return
		}
		if i < len(stack) {
			stack[i](e, w, r, func(e2 error) { step(i+1, e2) })
			return
		}
		if rt.parent != nil {
			rt.parent.serveError(e, w, r)
			return
		}
		rt.respondError(e, w, r)
	}
	step(0, err)
}

// respondError logs and answers a JSON 500 unless the response already
// started.
func (rt *Router) respondError(err error, w chimw.WrapResponseWriter, r *http.Request) {
	rt.log.Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("unhandled handler error")
	if w.Status() != 0 {
		return
	}
	writeError(w, http.StatusInternalServerError, "INTERNAL", "UNHANDLED_ERROR", err.Error(), nil)
}

// middlewareFor bridges a chain handler into chi's middleware shape for
// UseAsync: next(nil) proceeds into the inner handler, next(err) enters the
// router error chain.
func (rt *Router) middlewareFor(h Handler) func(http.Handler) http.Handler {
	return func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := wrapWriter(w, r)
			r = withStash(r)
			h(ww, r, func(err error) {
				if err != nil {
					rt.serveError(err, ww, r)
					return
				}
				inner.ServeHTTP(ww, r)
			})
		})
	}
}

// paramLinks builds links for every registered param hook whose name appears
// in the matched route's URL parameters, in registration order.
func (rt *Router) paramLinks(r *http.Request) []link {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	var links []link
	for _, name := range rt.paramNames {
		value, ok := urlParam(rctx, name)
		if !ok {
			continue
		}
		for _, ph := range rt.params[name] {
			ph, name, value := ph, name, value
			links = append(links, link{h: func(w http.ResponseWriter, req *http.Request, next Next) {
				ph(w, req, next, value, name)
			}})
		}
	}
	return links
}

func urlParam(rctx *chi.Context, name string) (string, bool) {
	for i, k := range rctx.URLParams.Keys {
		if k == name {
			return rctx.URLParams.Values[i], true
		}
	}
	return "", false
}

func wrapWriter(w http.ResponseWriter, r *http.Request) chimw.WrapResponseWriter {
	if ww, ok := w.(chimw.WrapResponseWriter); ok {
		return ww
	}
	return chimw.NewWrapResponseWriter(w, r.ProtoMajor)
}

// checkBody enforces a ValidateBody rule registered for the route. On
// success the body is restored for downstream handlers and the decoded DTO
// lands in the request context for BodyAs; on failure the envelope is
// written and the chain never starts.
func (rt *Router) checkBody(key string, w chimw.WrapResponseWriter, r *http.Request) (*http.Request, bool) {
	rt.mu.RLock()
	t, ok := rt.bodies[key]
	rt.mu.RUnlock()
	if !ok {
		return r, true
	}

	b, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "BODY_READ", "failed to read request body", nil)
		return r, false
	}
	var probe any
	if len(b) == 0 || json.Unmarshal(b, &probe) != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "INVALID_BODY", "Invalid JSON body", nil)
		return r, false
	}

	if t != nil {
		var v any
		if t.Kind() == reflect.Ptr {
			v = reflect.New(t.Elem()).Interface()
		} else {
			v = reflect.New(t).Interface()
		}
		if err := json.Unmarshal(b, v); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "INVALID_BODY", "Invalid JSON body", nil)
			return r, false
		}
		if err := validation.Validate(v); err != nil {
			fields := detailsFromValidation(validation.Format(err, v))
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "INVALID_ATTRIBUTES", "Validation failed", fields)
			return r, false
		}
		r = r.WithContext(context.WithValue(r.Context(), validatedBodyKey, v))
	}

	// restore body for downstream handlers
	r.Body = io.NopCloser(bytes.NewReader(b))
	return r, true
}

// RouteChain provides chainable configuration for the route just registered.
type RouteChain struct {
	rt  *Router
	key string
}

// ValidateBody registers an optional DTO value for the previously registered
// route. If dto is nil the router only checks that the request body is valid
// JSON. A non-nil example value is decoded into a fresh instance of its type
// and run through validation before any handler executes.
func (rc *RouteChain) ValidateBody(dto any) *RouteChain {
	if rc == nil || rc.key == "" {
		return rc
	}
	var t reflect.Type
	if dto != nil {
		t = reflect.TypeOf(dto)
	}
	rc.rt.mu.Lock()
	rc.rt.bodies[rc.key] = t
	rc.rt.mu.Unlock()
	return rc
}

// Name assigns a stable name to the previously registered route so it can be
// looked up with URLFor:
//
//	rt.GetAsync("/users/{id}", handler).Name("user.show")
func (rc *RouteChain) Name(name string) *RouteChain {
	if rc == nil || rc.key == "" || name == "" {
		return rc
	}
	rc.rt.mu.Lock()
	rc.rt.names[name] = rc.key
	rc.rt.mu.Unlock()
	return rc
}

var placeholderRE = regexp.MustCompile(`\{([a-zA-Z0-9_]+)(:[^}]+)?\}`)

// URLFor builds a path for a named route using the provided params map.
// Parameters replace placeholders like {id} or {id:regex} in the route
// template. Returns false when the name is unknown; missing params render
// empty.
func (rt *Router) URLFor(name string, params map[string]string) (string, bool) {
	rt.mu.RLock()
	key, ok := rt.names[name]
	tpl, ok2 := rt.patterns[key]
	rt.mu.RUnlock()
	if !ok || !ok2 {
		return "", false
	}
	out := placeholderRE.ReplaceAllStringFunc(tpl, func(m string) string {
		parts := placeholderRE.FindStringSubmatch(m)
		if len(parts) >= 2 {
			if v, ok := params[parts[1]]; ok {
				return v
			}
		}
		return ""
	})
	return out, true
}
