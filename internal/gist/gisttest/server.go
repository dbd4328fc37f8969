// Package gisttest provides an in-memory stand-in for the gists API.
package gisttest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789abcdef"

type file struct {
	name    string
	content string
}

type record struct {
	raw   []byte // served verbatim when set
	files []file
}

// Server stores gists in memory and assigns 32-character hex ids, the
// shape GitHub uses.
type Server struct {
	// Token, when set, must be presented as "token <Token>".
	Token string

	mu      sync.Mutex
	gists   map[string]*record
	created []CreateCall
	router  chi.Router
}

// CreateCall records what a create request carried.
type CreateCall struct {
	Description string
	Public      bool
	Files       map[string]string
	UserAgent   string
}

// NewServer returns an empty fake.
func NewServer() *Server {
	s := &Server{gists: map[string]*record{}}
	r := chi.NewRouter()
	r.Post("/gists", s.handleCreate)
	r.Get("/gists/{id}", s.handleGet)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.Token != "" && r.Header.Get("Authorization") != "token "+s.Token {
		writeError(w, http.StatusUnauthorized, "Bad credentials")
		return
	}
	s.router.ServeHTTP(w, r)
}

// Calls returns the create requests seen so far.
func (s *Server) Calls() []CreateCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CreateCall(nil), s.created...)
}

// PutRaw makes GET /gists/{id} answer with body exactly as given.
func (s *Server) PutRaw(id string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gists[id] = &record{raw: body}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
		Public      bool   `json:"public"`
		Files       map[string]struct {
			Content string `json:"content"`
		} `json:"files"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}
	if len(req.Files) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "Validation Failed")
		return
	}
	id, err := gonanoid.Generate(idAlphabet, 32)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rec := &record{}
	call := CreateCall{
		Description: req.Description,
		Public:      req.Public,
		Files:       map[string]string{},
		UserAgent:   r.UserAgent(),
	}
	for name, f := range req.Files {
		rec.files = append(rec.files, file{name: name, content: f.Content})
		call.Files[name] = f.Content
	}

	s.mu.Lock()
	s.gists[id] = rec
	s.created = append(s.created, call)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "public": req.Public, "description": req.Description})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	rec, ok := s.gists[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if rec.raw != nil {
		_, _ = w.Write(rec.raw)
		return
	}
	_, _ = w.Write(render(id, rec.files))
}

// render writes the files object by hand so key order follows insertion.
func render(id string, files []file) []byte {
	var buf bytes.Buffer
	idJSON, _ := json.Marshal(id)
	buf.WriteString(`{"id":`)
	buf.Write(idJSON)
	buf.WriteString(`,"files":{`)
	for i, f := range files {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(f.name)
		body, _ := json.Marshal(map[string]any{"filename": f.name, "content": f.content, "truncated": false})
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteString(`}}`)
	return buf.Bytes()
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"message":           msg,
		"documentation_url": "https://docs.github.com/rest",
	})
}
