package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MikeSquared-Agency/sibyl/internal/agent"
	"github.com/MikeSquared-Agency/sibyl/internal/hermes"
	"github.com/MikeSquared-Agency/sibyl/internal/reading"
)

type readingResponse struct {
	Success bool             `json:"success"`
	Reading *reading.Reading `json:"reading,omitempty"`
	Error   string           `json:"error,omitempty"`
	Details []string         `json:"details,omitempty"`
}

// createReading handles POST /api/reading. Provider details are logged by
// the service and never echoed to the caller.
func (s *Server) createReading(w http.ResponseWriter, r *http.Request) {
	var req reading.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, readingResponse{Error: "Invalid request data", Details: []string{err.Error()}})
		return
	}

	rd, err := s.deps.Readings.Generate(r.Context(), req)
	if err != nil {
		var verr *reading.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, readingResponse{Error: "Invalid request data", Details: verr.Violations})
			return
		}
		writeJSON(w, http.StatusInternalServerError, readingResponse{Error: "Failed to generate reading"})
		return
	}

	if req.UserID == "" {
		req.UserID = strings.TrimSpace(r.Header.Get("X-User-ID"))
	}
	s.archive(r.Context(), req, rd)

	writeJSON(w, http.StatusOK, readingResponse{Success: true, Reading: rd})
}

// archive stores the reading and announces it. Failures are logged only; the
// caller already has a valid reading.
func (s *Server) archive(ctx context.Context, req reading.Request, rd *reading.Reading) {
	if s.deps.Archive == nil || req.UserID == "" {
		return
	}
	id, err := s.deps.Archive.SaveReading(ctx, req.UserID, req, rd)
	if err != nil {
		s.logger.Error("failed to save reading", "user_id", req.UserID, "error", err)
		return
	}
	if s.deps.Events == nil {
		return
	}
	err = s.deps.Events.PublishReading(hermes.ReadingGenerated{
		ReadingID:   id.String(),
		UserID:      req.UserID,
		ReadingType: req.Type(),
		Card:        rd.CardDrawn,
		Element:     string(rd.CardElement),
		Model:       rd.Model,
	})
	if err != nil {
		s.logger.Warn("failed to publish reading event", "reading_id", id, "error", err)
	}
}

type agentResponse struct {
	Success bool `json:"success"`
	*agent.Response
	Error string `json:"error,omitempty"`
}

// askAgent handles POST /api/agent.
func (s *Server) askAgent(w http.ResponseWriter, r *http.Request) {
	var req agent.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, agentResponse{Error: "Invalid data"})
		return
	}

	resp, err := s.deps.Agent.Respond(r.Context(), req)
	if err != nil {
		var verr *reading.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, agentResponse{Error: "Invalid data"})
			return
		}
		s.logger.Error("agent failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, agentResponse{Error: "Agent failed"})
		return
	}

	writeJSON(w, http.StatusOK, agentResponse{Success: true, Response: resp})
}
