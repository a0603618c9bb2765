package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alexhrsu/monitor-reliability-feed/internal/ingest"
	"github.com/alexhrsu/monitor-reliability-feed/internal/store"
	"github.com/alexhrsu/monitor-reliability-feed/pkg/reliability"
)

// Server provides the HTTP API.
type Server struct {
	store     store.Store
	engine    *reliability.Engine
	collector *ingest.Collector
	port      int
}

// New creates a new HTTP server.
func New(s store.Store, engine *reliability.Engine, collector *ingest.Collector, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		store:     s,
		engine:    engine,
		collector: collector,
		port:      port,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", s.handleListProducts)
		r.Get("/products/{productID}", s.handleProductReport)
		r.Get("/products/{productID}/mentions", s.handleProductMentions)
		r.Get("/products/{productID}/history", s.handleProductHistory)
		r.Get("/compare", s.handleCompare)
		r.Get("/categories", s.handleCategories)
		r.Get("/categories/{category}/top", s.handleTop)
		r.Get("/categories/{category}/avoid", s.handleAvoid)
		r.Get("/issues/trending", s.handleTrendingIssues)
		r.Post("/collect", s.handleCollect)
	})

	return r
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("relfeed server listening on %s\n", addr)
	return http.ListenAndServe(addr, s.Router())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	opts := store.ProductListOpts{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("q"),
		Limit:    queryInt(r, "limit", 100),
	}

	products, err := s.store.ListProducts(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  products,
		"count": len(products),
	})
}

func (s *Server) handleProductReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "productID")

	snap, err := s.loadSnapshot(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Errorf("unknown product %q", id))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	category, err := s.loadCategorySnapshots(ctx, snap.Product.Category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, s.engine.Report(snap, category, time.Now()))
}

func (s *Server) handleProductMentions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "productID")

	if _, err := s.store.GetProduct(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Errorf("unknown product %q", id))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	opts := store.MentionListOpts{Limit: queryInt(r, "limit", 100)}
	if since := r.URL.Query().Get("since"); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			opts.Since = t
		}
	}

	mentions, err := s.store.ListMentions(ctx, id, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  mentions,
		"count": len(mentions),
	})
}

func (s *Server) handleProductHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "productID")

	if _, err := s.store.GetProduct(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Errorf("unknown product %q", id))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	since := time.Now().AddDate(0, -6, 0)
	if v := r.URL.Query().Get("since"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			since = t
		}
	}

	history, err := s.store.ScoreHistory(ctx, id, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  history,
		"count": len(history),
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids := splitIDs(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("ids query parameter is required"))
		return
	}

	snapshots := make(map[string]reliability.Snapshot, len(ids))
	for _, id := range ids {
		snap, err := s.loadSnapshot(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		snapshots[id] = snap
	}

	writeJSON(w, http.StatusOK, s.engine.Compare(ids, snapshots, time.Now()))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  categories,
		"count": len(categories),
	})
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	s.handleRanking(w, r, s.engine.TopProducts)
}

func (s *Server) handleAvoid(w http.ResponseWriter, r *http.Request) {
	s.handleRanking(w, r, s.engine.AvoidProducts)
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request,
	rank func([]reliability.ProductReliability, int) []reliability.ProductReliability) {

	ctx := r.Context()
	category := chi.URLParam(r, "category")
	n := queryInt(r, "n", 10)

	snapshots, err := s.loadCategorySnapshots(ctx, category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(snapshots) == 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown category %q", category))
		return
	}

	ranked := rank(s.engine.ScoreAll(snapshots), n)
	writeJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"data":     ranked,
		"count":    len(ranked),
	})
}

func (s *Server) handleTrendingIssues(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var snapshots []reliability.Snapshot
	var err error
	if category := r.URL.Query().Get("category"); category != "" {
		snapshots, err = s.loadCategorySnapshots(ctx, category)
	} else {
		snapshots, err = s.loadAllSnapshots(ctx)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	trending := s.engine.TrendingIssues(snapshots, time.Now(), queryInt(r, "n", 20))
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  trending,
		"count": len(trending),
	})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	res, err := s.collector.CollectAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) loadSnapshot(ctx context.Context, id string) (reliability.Snapshot, error) {
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return reliability.Snapshot{}, err
	}
	mentions, err := s.store.ListMentions(ctx, id, store.MentionListOpts{})
	if err != nil {
		return reliability.Snapshot{}, err
	}
	return reliability.Snapshot{Product: *product, Mentions: mentions}, nil
}

func (s *Server) loadCategorySnapshots(ctx context.Context, category string) ([]reliability.Snapshot, error) {
	products, err := s.store.ListProducts(ctx, store.ProductListOpts{Category: category, Limit: 1000})
	if err != nil {
		return nil, err
	}
	snapshots := make([]reliability.Snapshot, 0, len(products))
	for i := range products {
		mentions, err := s.store.ListMentions(ctx, products[i].ID, store.MentionListOpts{})
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, reliability.Snapshot{Product: products[i], Mentions: mentions})
	}
	return snapshots, nil
}

func (s *Server) loadAllSnapshots(ctx context.Context) ([]reliability.Snapshot, error) {
	return s.loadCategorySnapshots(ctx, "")
}

func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
