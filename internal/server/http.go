package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/zeusync/intersim/internal/core/events/bus"
	"github.com/zeusync/intersim/internal/core/models"
	"github.com/zeusync/intersim/internal/core/observability/log"
	"github.com/zeusync/intersim/internal/core/route"
	"github.com/zeusync/intersim/internal/core/simulation"
	"github.com/zeusync/intersim/internal/runner"
)

type spawnRequest struct {
	From *models.Approach `json:"from"`
	To   *models.Approach `json:"to"`
}

type statsResponse struct {
	Tick   uint64               `json:"tick"`
	Counts simulation.Counts    `json:"counts"`
	Stats  simulation.Stats     `json:"stats"`
	Server Stats                `json:"server"`
	Bus    *bus.EventBusMetrics `json:"bus,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.feed.Latest())
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	snap := s.feed.Latest()
	resp := statsResponse{
		Tick:   snap.Tick,
		Counts: snap.Counts,
		Stats:  snap.Stats,
		Server: s.GetStats(),
	}
	if s.events != nil {
		m := s.events.GetMetrics()
		resp.Bus = &m
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	var req spawnRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}
	if req.From == nil || req.To == nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: from and to are required", ErrInvalidRequest))
		return
	}

	err := s.feed.RequestSpawn(*req.From, *req.To)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusAccepted, req)
	case errors.Is(err, route.ErrInvalidRoute):
		s.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, runner.ErrQueueFull):
		s.writeError(w, http.StatusTooManyRequests, err)
	default:
		s.logger.Error("Spawn request failed", log.Error(err))
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("Failed to write response", log.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
