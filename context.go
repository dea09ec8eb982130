package nextware

import (
	"context"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5"
)

type ctxKey string

const (
	stashKey         ctxKey = "nextware.stash"
	validatedBodyKey ctxKey = "nextware.validated_body"
)

// withStash makes sure the request carries the per-request store. Requests
// already carrying one (a Use middleware ran first) pass through unchanged.
func withStash(r *http.Request) *http.Request {
	if r.Context().Value(stashKey) != nil {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), stashKey, map[string]any{}))
}

// Set attaches a per-request value visible to every later handler in the
// chain. Outside a Router-dispatched request it is a no-op. The store is not
// meant for use from handler-spawned goroutines.
func Set(r *http.Request, key string, v any) {
	if m, ok := r.Context().Value(stashKey).(map[string]any); ok {
		m[key] = v
	}
}

// Get returns a value attached with Set.
func Get(r *http.Request, key string) (any, bool) {
	m, ok := r.Context().Value(stashKey).(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// Param returns a URL parameter value by name. It delegates to chi.URLParam
// but keeps handlers free from importing chi directly.
func Param(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// BodyAs retrieves the request body previously decoded and validated by
// RouteChain.ValidateBody and asserts it to T. The returned bool is false
// when no validated body is present or it cannot be asserted to T.
func BodyAs[T any](r *http.Request) (T, bool) {
	var zero T
	if r == nil {
		return zero, false
	}
	v := r.Context().Value(validatedBodyKey)
	if v == nil {
		return zero, false
	}
	if vv, ok := v.(T); ok {
		return vv, true
	}
	// try pointer -> value conversion
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && rv.Elem().IsValid() && rv.Elem().CanInterface() {
		if val, ok := rv.Elem().Interface().(T); ok {
			return val, true
		}
	}
	return zero, false
}
