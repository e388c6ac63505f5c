package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/toricodesthings/pdf-compression-service/internal/format"
	"github.com/toricodesthings/pdf-compression-service/internal/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, types.ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
	})
}

func (s *Server) sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return s.sanitizeMessage(err.Error())
}

const (
	maxClientMessageBytes = 300
	maxLogStringBytes     = 200
)

// sanitizeMessage hides server-side paths from client-facing errors.
func (s *Server) sanitizeMessage(msg string) string {
	if s.cfg.WorkDir != "" {
		msg = strings.ReplaceAll(msg, s.cfg.WorkDir, "[tmp]")
	}
	msg = strings.ReplaceAll(msg, os.TempDir(), "[tmp]")
	return format.Truncate(msg, maxClientMessageBytes)
}

func sanitizeLogString(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	return format.Truncate(s, maxLogStringBytes)
}

func allowedFile(name string) bool {
	i := strings.LastIndex(name, ".")
	return i >= 0 && strings.EqualFold(name[i+1:], "pdf")
}

// safeFilename reduces an uploaded name to a flat ASCII token that is safe to
// join onto a directory and to echo in Content-Disposition.
func safeFilename(name string) string {
	name = norm.NFKD.String(name)
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)

	var b strings.Builder
	for _, field := range strings.Fields(name) {
		if b.Len() > 0 {
			b.WriteByte('_')
		}
		for _, r := range field {
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_') {
				b.WriteRune(r)
			}
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" || !allowedFile(out) {
		return "document.pdf"
	}
	return out
}

// spaHandler serves the built frontend and falls back to index.html for
// paths the client-side router owns.
type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.staticPath, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))

	fi, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && fi.IsDir()) {
		index := filepath.Join(h.staticPath, h.indexPath)
		if _, err := os.Stat(index); err != nil {
			http.Error(w, "Error serving React app: index.html not found", http.StatusNotFound)
			return
		}
		http.ServeFile(w, r, index)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
}
