package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/sibyl/internal/agent"
	"github.com/MikeSquared-Agency/sibyl/internal/hermes"
	"github.com/MikeSquared-Agency/sibyl/internal/reading"
	"github.com/MikeSquared-Agency/sibyl/internal/store"
)

type ReadingService interface {
	Generate(ctx context.Context, req reading.Request) (*reading.Reading, error)
}

type AgentService interface {
	Respond(ctx context.Context, req agent.Request) (*agent.Response, error)
}

// ReadingArchive persists generated readings.
type ReadingArchive interface {
	SaveReading(ctx context.Context, userID string, req reading.Request, r *reading.Reading) (uuid.UUID, error)
}

type EventPublisher interface {
	PublishReading(ev hermes.ReadingGenerated) error
}

// QuestionStore backs the questionnaire routes.
type QuestionStore interface {
	ListQuestions(ctx context.Context) ([]store.Question, error)
	QuestionsByCategory(ctx context.Context, category string) ([]store.Question, error)
	QuestionByID(ctx context.Context, id uuid.UUID) (*store.Question, error)
	CreateQuestion(ctx context.Context, in store.QuestionInput) (*store.Question, error)
	UpdateQuestion(ctx context.Context, id uuid.UUID, p store.QuestionPatch) (*store.Question, error)
	DeleteQuestion(ctx context.Context, id uuid.UUID) error
	SubmitResponse(ctx context.Context, userID string, in store.ResponseInput) (*store.Response, error)
	ResponsesByUser(ctx context.Context, userID string) ([]store.Response, error)
	ResponsesWithQuestions(ctx context.Context, userID string) ([]store.ResponseWithQuestion, error)
}

// Deps are the server's collaborators. Readings is required; a nil
// Questions leaves the questionnaire routes unmounted, and nil Archive or
// Events skip persistence and publishing.
type Deps struct {
	Readings  ReadingService
	Agent     AgentService
	Questions QuestionStore
	Archive   ReadingArchive
	Events    EventPublisher
	Gatherer  prometheus.Gatherer
	APIToken  string
	Logger    *slog.Logger
}

type Server struct {
	router *chi.Mux
	http   *http.Server
	deps   Deps
	logger *slog.Logger
}

func NewServer(port int, deps Deps) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router: router,
		deps:   deps,
		logger: logger,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	router.Get("/health", s.health)
	if deps.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	router.Post("/api/reading", s.createReading)
	if deps.Agent != nil {
		router.Post("/api/agent", s.askAgent)
	}

	if deps.Questions != nil {
		router.Route("/api/v1", func(r chi.Router) {
			r.Get("/questions", s.listQuestions)
			r.Get("/questions/{id}", s.getQuestion)

			r.Group(func(r chi.Router) {
				r.Use(BearerAuthMiddleware(deps.APIToken))
				r.Post("/questions", s.createQuestion)
				r.Patch("/questions/{id}", s.updateQuestion)
				r.Delete("/questions/{id}", s.deleteQuestion)
				r.Post("/responses", s.submitResponse)
				r.Get("/responses/me", s.myResponses)
			})
		})
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called, when it returns nil.
func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
