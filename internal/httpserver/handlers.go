package httpserver

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"catalog-share/internal/share"
)

const notConfiguredMessage = "This server has not been configured to generate new share URLs."

type createResponse struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)
	content, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Message: fmt.Sprintf("Share exceeds the %s limit", humanize.IBytes(uint64(s.maxBytes))),
			})
			return
		}
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Unable to read request body"})
		return
	}
	if len(content) == 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Share content cannot be empty"})
		return
	}

	created, err := s.shares.Mint(r.Context(), content)
	if err != nil {
		s.mintError(w, err)
		return
	}

	path := SharePath + "/" + created.ID
	u := s.shareURL(r, path)
	w.Header().Set("Location", u)
	s.writeJSON(w, http.StatusCreated, createResponse{ID: created.ID, Path: path, URL: u})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	doc, err := s.shares.Resolve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.resolveError(w, err)
		return
	}

	etag := etagFor(doc)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.Header().Set("ETag", etag)
	_, _ = w.Write(doc)
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.shares.Resolve(r.Context(), id); err != nil {
		s.resolveError(w, err)
		return
	}

	png, err := qrcode.Encode(s.shareURL(r, SharePath+"/"+id), qrcode.Medium, 256)
	if err != nil {
		s.logger.Error("encode qr code", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// mintError answers a failed mint. The router has already logged it.
func (s *Server) mintError(w http.ResponseWriter, err error) {
	var (
		te *share.TransformError
		be *share.BackendError
	)
	switch {
	case errors.Is(err, share.ErrNotConfigured):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Message: notConfiguredMessage})
	case errors.As(err, &te):
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Message: te.Message})
	case errors.As(err, &be):
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Message: be.Error()})
	default:
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Share could not be created"})
	}
}

// resolveError answers a failed resolve in plain text.
func (s *Server) resolveError(w http.ResponseWriter, err error) {
	var (
		up *share.UnknownPrefixError
		te *share.TransformError
		be *share.BackendError
	)
	switch {
	case errors.As(err, &up):
		http.Error(w, up.Error(), http.StatusBadRequest)
	case errors.As(err, &te):
		http.Error(w, te.Message, http.StatusInternalServerError)
	case errors.As(err, &be):
		http.Error(w, be.Error(), http.StatusNotFound)
	default:
		http.Error(w, "Share not found", http.StatusNotFound)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", "error", err)
	}
}

func etagFor(content []byte) string {
	sum := sha256.Sum256(content)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}
