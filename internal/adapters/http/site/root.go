// Package site serves the home page that links to the games and the
// backoffice tools.
package site

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/okian/jumper/internal/config"
	"github.com/okian/jumper/pkg/logger"
)

// Error constants
var (
	ErrRender = errors.New("home page render failed")
	ErrServe  = errors.New("home page serve failed")
)

// Links are the destinations shown on the pages. Empty values render as "#".
type Links struct {
	TommyJumper string
	ArgoCD      string
	Grafana     string
	Jaeger      string
	Loki        string
	Prometheus  string
}

// LinksFromConfig copies the link settings out of cfg.
func LinksFromConfig(cfg *config.Config) Links {
	return Links{
		TommyJumper: cfg.TommyJumperURL,
		ArgoCD:      cfg.ArgoCDURL,
		Grafana:     cfg.GrafanaURL,
		Jaeger:      cfg.JaegerURL,
		Loki:        cfg.LokiURL,
		Prometheus:  cfg.PrometheusURL,
	}
}

func (l Links) withDefaults() Links {
	for _, p := range []*string{&l.TommyJumper, &l.ArgoCD, &l.Grafana, &l.Jaeger, &l.Loki, &l.Prometheus} {
		if *p == "" {
			*p = "#"
		}
	}
	return l
}

// RootHandler renders the home, about and backoffice pages.
type RootHandler struct {
	links Links
	pages map[string]*template.Template
	log   logger.Logger
}

// NewRootHandler parses the embedded templates.
func NewRootHandler(links Links, log logger.Logger) (*RootHandler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	if log == nil {
		log = logger.Get().Named("site")
	}
	return &RootHandler{links: links.withDefaults(), pages: pages, log: log}, nil
}

// Register attaches the home page routes to mux.
// Routes:
//
//	GET /            -> index page
//	GET /about       -> about page
//	GET /backoffice  -> backoffice links
//	GET /healthz     -> {"result":"OK - healthy"}
//	GET /metrics     -> {"status":"ok"}
func Register(_ context.Context, mux *http.ServeMux, h *RootHandler) {
	if mux == nil {
		panic("mux is nil")
	}
	if h == nil {
		panic("root handler is nil")
	}

	mux.HandleFunc("GET /{$}", h.page("index"))
	mux.HandleFunc("GET /about", h.page("about"))
	mux.HandleFunc("GET /backoffice", h.page("backoffice"))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"result": "OK - healthy"})
	})
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})
}

func (h *RootHandler) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := h.pages[name].ExecuteTemplate(&buf, "layout", h.links); err != nil {
			h.log.Error(r.Context(), "render page",
				logger.String("page", name),
				logger.Error(err),
			)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
