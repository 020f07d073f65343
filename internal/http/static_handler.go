package http

import (
	"net/http"
	"os"
	"path/filepath"
)

const (
	indexPage    = "index.html"
	notFoundPage = "notfound.html"
)

// StaticPages serves the landing and not-found pages from a directory.
type StaticPages struct {
	dir string
}

// NewStaticPages creates a StaticPages rooted at dir.
func NewStaticPages(dir string) *StaticPages {
	return &StaticPages{dir: dir}
}

// Index serves index.html.
func (s *StaticPages) Index(w http.ResponseWriter, r *http.Request) {
	if !s.serve(w, indexPage, http.StatusOK) {
		writeError(w, http.StatusNotFound, "not found")
	}
}

// NotFound serves notfound.html with a 404, or a JSON 404 if the page is missing.
func (s *StaticPages) NotFound(w http.ResponseWriter, r *http.Request) {
	if !s.serve(w, notFoundPage, http.StatusNotFound) {
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *StaticPages) serve(w http.ResponseWriter, name string, status int) bool {
	contents, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return false
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(contents)
	return true
}
