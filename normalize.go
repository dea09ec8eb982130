package nextware

import (
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
)

// InvalidArgumentError reports a registration argument that is neither a
// path, a pattern, a handler function, nor a slice of those. Registration
// methods panic with it, so the mistake surfaces at the call site rather
// than at request time.
type InvalidArgumentError struct {
	Kind string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("nextware: argument of type %s is not a path, *regexp.Regexp, handler, or slice of handlers; see the Router registration docs", e.Kind)
}

func kindOf(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

// normalizeHandlers flattens a registration argument list into chain links.
// Slices are walked recursively, order preserved.
func normalizeHandlers(args []any) ([]link, error) {
	links := make([]link, 0, len(args))
	for _, a := range args {
		ls, err := normalizeArg(a)
		if err != nil {
			return nil, err
		}
		links = append(links, ls...)
	}
	return links, nil
}

// normalizeArg maps one argument to its chain links. Settling variants are
// passed through Wrap/WrapError so the chain only ever sees continuation
// handlers; plain http handlers proceed automatically unless they wrote a
// response.
func normalizeArg(a any) ([]link, error) {
	switch v := a.(type) {
	case Handler:
		return []link{{h: v}}, nil
	case func(http.ResponseWriter, *http.Request, Next):
		return []link{{h: v}}, nil
	case ErrorHandler:
		return []link{{eh: v}}, nil
	case func(error, http.ResponseWriter, *http.Request, Next):
		return []link{{eh: v}}, nil
	case AsyncHandler:
		return []link{{h: Wrap(v)}}, nil
	case func(http.ResponseWriter, *http.Request) error:
		return []link{{h: Wrap(v)}}, nil
	case AsyncErrorHandler:
		return []link{{eh: WrapError(v)}}, nil
	case func(error, http.ResponseWriter, *http.Request) error:
		return []link{{eh: WrapError(v)}}, nil
	case http.HandlerFunc:
		return []link{{h: adaptHTTP(v)}}, nil
	case func(http.ResponseWriter, *http.Request):
		return []link{{h: adaptHTTP(v)}}, nil
	case http.Handler:
		return []link{{h: adaptHTTP(v.ServeHTTP)}}, nil
	}

	rv := reflect.ValueOf(a)
	if rv.IsValid() && rv.Kind() == reflect.Slice {
		links := make([]link, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ls, err := normalizeArg(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			links = append(links, ls...)
		}
		return links, nil
	}
	return nil, &InvalidArgumentError{Kind: kindOf(a)}
}

// normalizeParam maps a param-hook argument to a ParamHandler.
func normalizeParam(h any) (ParamHandler, error) {
	switch v := h.(type) {
	case ParamHandler:
		return v, nil
	case func(http.ResponseWriter, *http.Request, Next, string, string):
		return v, nil
	case AsyncParamHandler:
		return WrapParam(v), nil
	case func(http.ResponseWriter, *http.Request, string, string) error:
		return WrapParam(v), nil
	}
	return nil, &InvalidArgumentError{Kind: kindOf(h)}
}

// patternString renders a route pattern argument into chi's pattern syntax.
// Strings pass through untouched. A *regexp.Regexp matches a single path
// segment (chi regex params stop at "/") and is exposed as the "pattern"
// URL parameter; anchors are trimmed.
func patternString(p any) (string, error) {
	switch v := p.(type) {
	case string:
		return v, nil
	case *regexp.Regexp:
		src := strings.TrimPrefix(v.String(), "^")
		src = strings.TrimSuffix(src, "$")
		src = strings.TrimPrefix(src, "/")
		return "/{pattern:" + src + "}", nil
	}
	return "", &InvalidArgumentError{Kind: kindOf(p)}
}

// adaptHTTP bridges a plain http handler into the chain: it runs, then the
// chain proceeds unless the handler wrote a response.
func adaptHTTP(h func(http.ResponseWriter, *http.Request)) Handler {
	return func(w http.ResponseWriter, r *http.Request, next Next) {
		h(w, r)
		if !headersSent(w) {
			next(nil)
		}
	}
}
