package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hanamahes78/sshsift/internal/config"
	"github.com/hanamahes78/sshsift/internal/db"
	"github.com/hanamahes78/sshsift/internal/store"
	"github.com/hanamahes78/sshsift/internal/watchhub"
	"github.com/hanamahes78/sshsift/internal/webui"
)

type API struct {
	cfg   *config.Config
	db    *db.DB
	store *store.Store
	hub   *watchhub.Hub
}

func New(cfg *config.Config, dbc *db.DB, hub *watchhub.Hub) *API {
	return &API{cfg: cfg, db: dbc, store: store.New(dbc), hub: hub}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// GET /events?category=login&username=alice&address=10.0.0.5&since_seconds=3600&limit=100
	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		f := store.EventFilter{
			Category: r.URL.Query().Get("category"),
			Username: r.URL.Query().Get("username"),
			Address:  r.URL.Query().Get("address"),
		}
		if s := r.URL.Query().Get("since_seconds"); s != "" {
			sec, err := strconv.Atoi(s)
			if err != nil || sec < 0 {
				http.Error(w, "bad since_seconds", 400)
				return
			}
			f.Since = time.Now().Add(-time.Duration(sec) * time.Second)
		}
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				http.Error(w, "bad limit", 400)
				return
			}
			f.Limit = n
		}
		events, err := a.store.ListSSHEvents(r.Context(), f)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if events == nil {
			events = []store.SSHEvent{}
		}
		_ = json.NewEncoder(w).Encode(events)
	})

	// GET /stats returns per-category totals.
	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		counts, err := a.store.CountByCategory(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"categories": counts})
	})

	// SSE stream of freshly classified records.
	r.Get("/watch/events", func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", 500)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		ch := a.hub.Subscribe(64)
		defer a.hub.Unsubscribe(ch)

		flusher.Flush()
		for {
			select {
			case <-r.Context().Done():
				return
			case b, ok := <-ch:
				if !ok {
					return
				}
				_, _ = w.Write([]byte("data: "))
				_, _ = w.Write(b)
				_, _ = w.Write([]byte("\n\n"))
				flusher.Flush()
			}
		}
	})

	// Web UI at the root.
	if ui, err := webui.Handler(); err == nil {
		r.Handle("/*", ui)
	} else {
		log.Printf("api: web ui unavailable: %v", err)
	}

	return r
}
