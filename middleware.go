package nextware

import (
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger returns chain middleware that logs one line per request.
// The chain runs synchronously, so status, size and duration are read after
// next returns.
func RequestLogger(l zerolog.Logger) Handler {
	return func(w http.ResponseWriter, r *http.Request, next Next) {
		start := time.Now()
		next(nil)

		status, size := 0, 0
		if ww, ok := w.(chimw.WrapResponseWriter); ok {
			status, size = ww.Status(), ww.BytesWritten()
		}
		l.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", status).
			Int("size", size).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// CORSOptions configures the CORS middleware. Zero values fall back to a
// wildcard origin and the common verb list.
type CORSOptions struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// CORS returns chain middleware that applies simple CORS headers and
// short-circuits preflight requests with 204.
func CORS(opts CORSOptions) Handler {
	return func(w http.ResponseWriter, r *http.Request, next Next) {
		origin := "*"
		if len(opts.AllowedOrigins) > 0 {
			origin = opts.AllowedOrigins[0]
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)

		methods := "GET,POST,PUT,PATCH,DELETE,OPTIONS"
		if len(opts.AllowedMethods) > 0 {
			methods = strings.Join(opts.AllowedMethods, ",")
		}
		w.Header().Set("Access-Control-Allow-Methods", methods)

		if len(opts.AllowedHeaders) > 0 {
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(opts.AllowedHeaders, ","))
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(nil)
	}
}
