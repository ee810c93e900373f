package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ppiankov/selah/internal/match"
	"github.com/ppiankov/selah/internal/scripture"
)

const (
	msgBookRequired = "Book parameter is required."
	msgUnavailable  = "NLP Agent is currently waking up or overwhelmed. Please retry in a moment."
	msgLogic        = "The NLP agent processed the request but encountered a logic error."
	msgRateLimited  = "Too many requests. Please retry in a moment."
)

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type healthBody struct {
	Status string `json:"status"`
	Uptime string `json:"uptime,omitempty"`
	Verses int    `json:"verses"`
}

type booksBody struct {
	Books []bookInfo `json:"books"`
}

type bookInfo struct {
	Name     string `json:"name"`
	Chapters int    `json:"chapters"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, healthBody{
		Status: "alive",
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Verses: s.pipeline.Corpus().Len(),
	})
}

func (s *Server) handleBooks(w http.ResponseWriter, _ *http.Request) {
	c := s.pipeline.Corpus()
	if c.IsEmpty() {
		respondError(w, http.StatusServiceUnavailable, errorBody{Error: scripture.ErrCorpusUnavailable.Error()})
		return
	}

	books := c.Books()
	body := booksBody{Books: make([]bookInfo, 0, len(books))}
	for _, name := range books {
		body.Books = append(body.Books, bookInfo{Name: name, Chapters: c.MaxChapter(name)})
	}
	respond(w, http.StatusOK, body)
}

func (s *Server) handlePassage(w http.ResponseWriter, r *http.Request) {
	raw, ok := rawReference(w, r)
	if !ok {
		return
	}

	passage, err := s.pipeline.Passage(r.Context(), raw)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	respond(w, http.StatusOK, passage)
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	raw, ok := rawReference(w, r)
	if !ok {
		return
	}

	report, err := s.pipeline.Match(r.Context(), raw)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	respond(w, http.StatusOK, report)
}

// rawReference reads the reference from the query: either the individual
// book/chapter/verse parameters or a single "ref" string.
func rawReference(w http.ResponseWriter, r *http.Request) (scripture.RawReference, bool) {
	q := r.URL.Query()

	if ref := q.Get("ref"); ref != "" && q.Get("book") == "" {
		raw, err := scripture.ParseReference(ref)
		if err != nil {
			respondError(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return scripture.RawReference{}, false
		}
		return raw, true
	}

	raw := scripture.RawReference{
		Book:         q.Get("book"),
		StartChapter: q.Get("startChapter"),
		StartVerse:   q.Get("startVerse"),
		EndChapter:   q.Get("endChapter"),
		EndVerse:     q.Get("endVerse"),
	}
	if raw.Book == "" {
		respondError(w, http.StatusBadRequest, errorBody{Error: msgBookRequired})
		return raw, false
	}
	return raw, true
}

// respondFailure maps a lookup or matching error to a status code
func (s *Server) respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	respondError(w, status, body)
}

func classify(err error) (int, errorBody) {
	switch scripture.KindOf(err) {
	case 0:
	case scripture.KindCorpusUnavailable:
		return http.StatusServiceUnavailable, errorBody{Error: err.Error()}
	case scripture.KindUnknownBook, scripture.KindReferenceOutOfBounds:
		return http.StatusNotFound, errorBody{Error: err.Error()}
	default:
		return http.StatusBadRequest, errorBody{Error: err.Error()}
	}

	var logicErr *match.LogicError
	switch {
	case errors.Is(err, match.ErrUnavailable):
		return http.StatusServiceUnavailable, errorBody{Error: msgUnavailable}
	case errors.As(err, &logicErr):
		return http.StatusUnprocessableEntity, errorBody{Error: msgLogic, Details: logicErr.Details}
	case errors.Is(err, match.ErrLogic):
		return http.StatusUnprocessableEntity, errorBody{Error: msgLogic, Details: err.Error()}
	default:
		return http.StatusBadGateway, errorBody{Error: err.Error()}
	}
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, body errorBody) {
	respond(w, status, body)
}
