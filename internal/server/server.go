// Package server exposes the local store over a small read-only web UI:
// an overview page, rendered training reports and the human/LLM label
// agreement matrix.
package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/npovlab/npovscan/internal/database"
	"github.com/npovlab/npovscan/internal/labeler"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for browsing collected data.
type Server struct {
	db    *database.DB
	pages map[string]*template.Template
	mux   *http.ServeMux
}

// New creates a new Server.
func New(db *database.DB) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"accuracy": func(v *float64) string {
			if v == nil {
				return "n/a"
			}
			return fmt.Sprintf("%.3f", *v)
		},
		"percent": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v*100)
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "model.html", "labels.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/model/", s.handleModel)
	s.mux.HandleFunc("/labels", s.handleLabels)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	stats, err := s.db.GetStats()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	runs, _ := s.db.GetRecentRuns(10)
	latest, _ := s.db.GetLatestTreeModel()

	s.render(w, "index.html", map[string]any{
		"Stats":  stats,
		"Runs":   runs,
		"Latest": latest,
	})
}

// handleModel serves /model/ for the newest snapshot and /model/<id> for
// a specific one.
func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	var (
		model *database.TreeModel
		err   error
	)
	idStr := strings.TrimPrefix(r.URL.Path, "/model/")
	if idStr == "" {
		model, err = s.db.GetLatestTreeModel()
	} else {
		id, perr := strconv.ParseInt(idStr, 10, 64)
		if perr != nil {
			http.NotFound(w, r)
			return
		}
		model, err = s.db.GetTreeModel(id)
		if err == nil && model == nil {
			http.NotFound(w, r)
			return
		}
	}
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "model.html", map[string]any{
		"Model": model,
	})
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.db.GetLabelPairs()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "labels.html", map[string]any{
		"Comparison": labeler.Compare(pairs),
		"Labels":     labeler.Labels(),
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port. It binds to loopback
// only; the UI has no authentication.
func Serve(db *database.DB, port int) error {
	srv, err := New(db)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
