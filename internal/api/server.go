// Package api exposes the momentum engine over HTTP: pipeline triggers,
// current momentum reads, live websocket broadcasts and operational
// endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/kinderlystv-png/heys-cascade/internal/cascade"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
	"github.com/kinderlystv-png/heys-cascade/internal/metrics"
)

// Server wires the engine to its HTTP surface.
type Server struct {
	engine  *cascade.Engine
	hub     *Hub
	metrics *metrics.Registry
	limiter *rate.Limiter

	mu      sync.Mutex
	records map[string]*domain.Day
	profile domain.Profile
	last    *domain.Result

	httpSrv *http.Server
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// NewServer builds the HTTP surface. The hub and metrics registry are
// subscribed to the engine by the caller.
func NewServer(addr string, engine *cascade.Engine, hub *Hub, reg *metrics.Registry, profile domain.Profile) *Server {
	s := &Server{
		engine:  engine,
		hub:     hub,
		metrics: reg,
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		records: make(map[string]*domain.Day),
		profile: profile,
	}

	r := mux.NewRouter()
	r.HandleFunc("/v1/day", s.handleDay).Methods("POST")
	r.HandleFunc("/v1/momentum", s.handleMomentum).Methods("GET")
	r.HandleFunc("/v1/ws", s.handleWS).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.Handle("/metrics", reg.Handler()).Methods("GET")

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	log.Info().Str("component", "api").Str("addr", s.httpSrv.Addr).Msg("http server listening")
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// handleDay upserts a day record and triggers a recomputation. The stored
// record map doubles as the raw-record window for baselines and backfill.
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	var day domain.Day
	if err := json.NewDecoder(r.Body).Decode(&day); err != nil {
		http.Error(w, "invalid day record: "+err.Error(), http.StatusBadRequest)
		return
	}
	if day.Date == "" {
		day.Date = domain.DateKey(time.Now())
	}
	if _, err := time.Parse(domain.DateLayout, day.Date); err != nil {
		http.Error(w, "invalid date: "+day.Date, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.records[day.Date] = &day
	s.engine.Invalidate("day upsert " + day.Date)

	started := time.Now()
	res, err := s.engine.Compute(cascade.ComputeInput{
		Day:     &day,
		Records: s.records,
		Profile: s.profile,
		Now:     time.Now(),
	})
	if err == nil {
		s.last = res
	}
	s.mu.Unlock()

	if err != nil {
		s.metrics.Computes.WithLabelValues("error").Inc()
		http.Error(w, "computation failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.metrics.ComputeDuration.Observe(time.Since(started).Seconds())
	s.metrics.Computes.WithLabelValues("ok").Inc()

	writeJSON(w, http.StatusOK, res)
}

// handleMomentum returns the most recent result, recomputing for today when
// none is held yet.
func (s *Server) handleMomentum(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	s.mu.Lock()
	res := s.last
	if res == nil {
		now := time.Now()
		day := s.records[domain.DateKey(now)]
		var err error
		res, err = s.engine.Compute(cascade.ComputeInput{
			Day:     day,
			Records: s.records,
			Profile: s.profile,
			Now:     now,
		})
		if err != nil {
			s.mu.Unlock()
			http.Error(w, "computation failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		s.last = res
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Str("component", "api").Err(err).Msg("websocket upgrade failed")
		return
	}
	id := s.hub.Add(conn)

	// Reader only watches for close; the hub owns writes.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.Remove(id)
				return
			}
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"ready":       s.engine.Ready(),
		"subscribers": s.hub.Count(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Str("component", "api").Err(err).Msg("response encode failed")
	}
}
