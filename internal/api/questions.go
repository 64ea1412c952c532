package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/sibyl/internal/reading"
	"github.com/MikeSquared-Agency/sibyl/internal/store"
)

// storeError maps store failures onto HTTP responses.
func (s *Server) storeError(w http.ResponseWriter, op string, err error) {
	var verr *reading.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "details": verr.Violations})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.logger.Error(op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return uuid.Nil, false
	}
	return id, true
}

// listQuestions handles GET /api/v1/questions[?category=].
func (s *Server) listQuestions(w http.ResponseWriter, r *http.Request) {
	var (
		qs  []store.Question
		err error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		qs, err = s.deps.Questions.QuestionsByCategory(r.Context(), category)
	} else {
		qs, err = s.deps.Questions.ListQuestions(r.Context())
	}
	if err != nil {
		s.storeError(w, "list questions", err)
		return
	}
	if qs == nil {
		qs = []store.Question{}
	}
	writeJSON(w, http.StatusOK, qs)
}

func (s *Server) getQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q, err := s.deps.Questions.QuestionByID(r.Context(), id)
	if err != nil {
		s.storeError(w, "get question", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) createQuestion(w http.ResponseWriter, r *http.Request) {
	var in store.QuestionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q, err := s.deps.Questions.CreateQuestion(r.Context(), in)
	if err != nil {
		s.storeError(w, "create question", err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) updateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p store.QuestionPatch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q, err := s.deps.Questions.UpdateQuestion(r.Context(), id, p)
	if err != nil {
		s.storeError(w, "update question", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Questions.DeleteQuestion(r.Context(), id); err != nil {
		s.storeError(w, "delete question", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return "", false
	}
	return userID, true
}

func (s *Server) submitResponse(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in store.ResponseInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := s.deps.Questions.SubmitResponse(r.Context(), userID, in)
	if err != nil {
		s.storeError(w, "submit response", err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// myResponses handles GET /api/v1/responses/me[?with=questions].
func (s *Server) myResponses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("with") == "questions" {
		rs, err := s.deps.Questions.ResponsesWithQuestions(r.Context(), userID)
		if err != nil {
			s.storeError(w, "list responses", err)
			return
		}
		if rs == nil {
			rs = []store.ResponseWithQuestion{}
		}
		writeJSON(w, http.StatusOK, rs)
		return
	}

	rs, err := s.deps.Questions.ResponsesByUser(r.Context(), userID)
	if err != nil {
		s.storeError(w, "list responses", err)
		return
	}
	if rs == nil {
		rs = []store.Response{}
	}
	writeJSON(w, http.StatusOK, rs)
}
