// Package api exposes the simulation engine over HTTP for a polling
// client. GET endpoints are public read-only snapshots; POST endpoints
// drive the control plane and can be gated behind a bearer token.
// Input validation lives here: the engine trusts its callers.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/talgya/paddysim/internal/engine"
	"github.com/talgya/paddysim/internal/simulation"
)

// Server serves the simulation state over HTTP.
type Server struct {
	Eng      *engine.Engine
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POSTs open.
}

// Handler builds the full route table with middleware applied.
func (s *Server) Handler() http.Handler {
	controlLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/snapshot", s.handleSnapshot)

	mux.HandleFunc("/control", s.adminOnly(RateLimitMiddleware(controlLimiter, s.handleControl)))
	mux.HandleFunc("/speed", s.adminOnly(RateLimitMiddleware(controlLimiter, s.handleSpeed)))
	mux.HandleFunc("/params", s.adminOnly(RateLimitMiddleware(controlLimiter, s.handleParams)))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	handler := s.Handler()
	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of allowed origins;
// localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminOnly wraps a handler to require bearer token auth on POST
// requests when an admin key is configured.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey != "" {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.AdminKey {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]string{
		"service": "rice-yield-simulator",
		"message": "Backend is running",
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Eng.Snapshot())
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	switch req.Action {
	case "start":
		s.Eng.Start()
	case "start_instant":
		s.Eng.StartInstant()
	case "pause":
		s.Eng.Pause()
	case "resume":
		s.Eng.Resume()
	case "reset":
		s.Eng.Reset()
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Multiplier *float64 `json:"multiplier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Multiplier == nil {
		http.Error(w, "missing multiplier", http.StatusBadRequest)
		return
	}

	s.Eng.SetSpeed(*req.Multiplier)
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	var patch engine.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	if err := validatePatch(patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.Eng.UpdateParameters(patch)
	writeJSON(w, map[string]string{"status": "ok"})
}

// validatePatch rejects malformed parameter values before they reach
// the engine, which does not validate (daysPerCycle=0 would make
// day-progress division undefined).
func validatePatch(p engine.Patch) error {
	if p.PlantingMonth != nil && (*p.PlantingMonth < 1 || *p.PlantingMonth > 12) {
		return fmt.Errorf("plantingMonth must be 1-12")
	}
	if p.IrrigationType != nil && !simulation.ValidIrrigation(*p.IrrigationType) {
		return fmt.Errorf("unknown irrigationType %q", *p.IrrigationType)
	}
	if p.ENSOState != nil && !simulation.ValidENSO(*p.ENSOState) {
		return fmt.Errorf("unknown ensoState %q", *p.ENSOState)
	}
	if p.TyphoonProbability != nil && (*p.TyphoonProbability < 0 || *p.TyphoonProbability > 100) {
		return fmt.Errorf("typhoonProbability must be 0-100")
	}
	if p.CyclesTarget != nil && *p.CyclesTarget < 1 {
		return fmt.Errorf("cyclesTarget must be positive")
	}
	if p.DaysPerCycle != nil && *p.DaysPerCycle < 1 {
		return fmt.Errorf("daysPerCycle must be positive")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
