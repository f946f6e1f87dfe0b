package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/focal-dev/focal/internal/store"
)

// Server is the focal HTTP API server. It owns the write path to the item
// collection (single-writer discipline) and assembles a scoring Context at
// the request boundary; the engine itself never reads a clock.
type Server struct {
	db         *store.DB
	router     chi.Router
	version    string
	started    time.Time
	maxVisible int

	// now is the boundary clock, swappable in tests.
	now func() time.Time
}

// New creates a new Server with the given database and version string.
func New(db *store.DB, maxVisible int, version string) *Server {
	s := &Server{
		db:         db,
		version:    version,
		started:    time.Now(),
		maxVisible: maxVisible,
		now:        time.Now,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/items", s.handleListItems)
		r.Post("/items", s.handleCreateItem)
		r.Get("/focus", s.handleFocus)

		r.Route("/items/{itemID}", func(r chi.Router) {
			r.Delete("/", s.handleRemove)
			r.Post("/events", s.handleEvent)
			r.Post("/pin", s.handlePin)
			r.Post("/unpin", s.handleUnpin)
			r.Post("/quiet", s.handleQuiet)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}
