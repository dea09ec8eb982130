package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/go-nextware/nextware"
)

type createNote struct {
	Title string `json:"title" validate:"required,min=3"`
	Body  string `json:"body" validate:"required"`
}

var notes = map[int]string{1: "first note"}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "3:04PM"}).
		With().Timestamp().Logger()

	rt := nextware.NewRouter(nextware.WithLogger(log))
	rt.UseAsync(nextware.RequestLogger(log))
	rt.UseAsync(nextware.CORS(nextware.CORSOptions{}))

	// resolve {id} once for every route that uses it
	rt.ParamAsync("id", func(w http.ResponseWriter, r *http.Request, value, name string) error {
		id, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("bad %s %q: %w", name, value, err)
		}
		note, ok := notes[id]
		if !ok {
			return errors.New("note not found")
		}
		nextware.Set(r, "note", note)
		return nil
	})

	rt.GetAsync("/notes/{id}", func(w http.ResponseWriter, r *http.Request) error {
		note, _ := nextware.Get(r, "note")
		return json.NewEncoder(w).Encode(map[string]any{"note": note})
	}).Name("note.show")

	rt.PostAsync("/notes", func(w http.ResponseWriter, r *http.Request) error {
		body, _ := nextware.BodyAs[createNote](r)
		notes[len(notes)+1] = body.Body
		w.WriteHeader(http.StatusCreated)
		return json.NewEncoder(w).Encode(body)
	}).ValidateBody(createNote{})

	// error middleware sees every handler failure above
	rt.UseAsync(func(err error, w http.ResponseWriter, r *http.Request, next nextware.Next) {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("handler failed")
		next(err)
	})

	log.Info().Str("addr", ":8080").Msg("listening")
	if err := http.ListenAndServe(":8080", rt); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
