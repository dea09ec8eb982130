package nextware

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHandlerShapes(t *testing.T) {
	t.Parallel()

	links, err := normalizeHandlers([]any{
		func(w http.ResponseWriter, r *http.Request, next Next) { next(nil) },
		func(w http.ResponseWriter, r *http.Request) error { return nil },
		func(err error, w http.ResponseWriter, r *http.Request, next Next) { next(err) },
		func(err error, w http.ResponseWriter, r *http.Request) error { return err },
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	})
	require.NoError(t, err)
	require.Len(t, links, 5)

	assert.NotNil(t, links[0].h)
	assert.NotNil(t, links[1].h)
	assert.NotNil(t, links[2].eh)
	assert.NotNil(t, links[3].eh)
	assert.NotNil(t, links[4].h)
}

func TestNormalizeFlattensSlicesInOrder(t *testing.T) {
	t.Parallel()

	mk := func() AsyncHandler {
		return func(w http.ResponseWriter, r *http.Request) error { return nil }
	}
	links, err := normalizeHandlers([]any{
		[]any{mk(), []AsyncHandler{mk(), mk()}},
		mk(),
	})
	require.NoError(t, err)
	assert.Len(t, links, 4)
}

func TestNormalizeRejectsUnknownKinds(t *testing.T) {
	t.Parallel()

	_, err := normalizeHandlers([]any{42})
	var iae *InvalidArgumentError
	require.ErrorAs(t, err, &iae)
	assert.Equal(t, "int", iae.Kind)

	_, err = normalizeHandlers([]any{nil})
	require.ErrorAs(t, err, &iae)
	assert.Equal(t, "nil", iae.Kind)

	// one bad element poisons the whole slice
	_, err = normalizeHandlers([]any{[]any{func(w http.ResponseWriter, r *http.Request) error { return nil }, "nope"}})
	require.ErrorAs(t, err, &iae)
	assert.Equal(t, "string", iae.Kind)
}

func TestPatternString(t *testing.T) {
	t.Parallel()

	pat, err := patternString("/users/{id}")
	require.NoError(t, err)
	assert.Equal(t, "/users/{id}", pat)

	pat, err = patternString(regexp.MustCompile(`^/[0-9]+$`))
	require.NoError(t, err)
	assert.Equal(t, "/{pattern:[0-9]+}", pat)

	_, err = patternString(7)
	var iae *InvalidArgumentError
	require.ErrorAs(t, err, &iae)
	assert.Equal(t, "int", iae.Kind)
}

func TestNormalizeParamShapes(t *testing.T) {
	t.Parallel()

	ph, err := normalizeParam(func(w http.ResponseWriter, r *http.Request, next Next, value, name string) {
		next(nil)
	})
	require.NoError(t, err)
	assert.NotNil(t, ph)

	ph, err = normalizeParam(func(w http.ResponseWriter, r *http.Request, value, name string) error {
		return nil
	})
	require.NoError(t, err)
	assert.NotNil(t, ph)

	_, err = normalizeParam("id")
	var iae *InvalidArgumentError
	require.ErrorAs(t, err, &iae)
	assert.Equal(t, "string", iae.Kind)
}
