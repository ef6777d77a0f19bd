package api

import (
	_ "embed"
	"net/http"
)

//go:embed index.html
var indexPage []byte

// Index serves the single-page UI.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexPage)
}
