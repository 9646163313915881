package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/terra-clan/assessment-portal/internal/authoring"
	"github.com/terra-clan/assessment-portal/internal/config"
	"github.com/terra-clan/assessment-portal/internal/exam"
	"github.com/terra-clan/assessment-portal/internal/services"
	"github.com/terra-clan/assessment-portal/internal/session"
	"github.com/terra-clan/assessment-portal/pkg/client"
)

// Server is the browser-facing portal
type Server struct {
	cfg        *config.Config
	router     *chi.Mux
	store      session.Store
	exams      *exam.Registry
	health     *services.Registry
	drafts     *authoring.Library
	httpClient *http.Client
	location   *time.Location
}

// NewServer creates a new portal server
func NewServer(
	cfg *config.Config,
	store session.Store,
	exams *exam.Registry,
	health *services.Registry,
	drafts *authoring.Library,
) *Server {
	if drafts == nil {
		drafts = authoring.NewLibrary()
	}
	s := &Server{
		cfg:        cfg,
		store:      store,
		exams:      exams,
		health:     health,
		drafts:     drafts,
		httpClient: &http.Client{Timeout: cfg.API.Timeout},
		location:   time.Local,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// api returns a platform client acting with sess's token
func (s *Server) api(sess *session.Session) *client.Client {
	return client.NewClient(s.cfg.API.BaseURL, sess, client.WithHTTPClient(s.httpClient))
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/portal", func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		// Long-lived, so outside the request timeout
		r.Get("/exams/{id}/ws", s.handleExamWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/me", s.handleMe)
			r.Post("/login", s.handleLogin)
			r.Post("/signup", s.handleSignup)
			r.Post("/logout", s.handleLogout)
			r.Post("/set-password", s.handleSetPassword)
			r.Get("/google/login", s.handleGoogleLogin)
			r.Get("/google/callback", s.handleGoogleCallback)

			r.Route("/candidate", func(r chi.Router) {
				r.Get("/dashboard", s.handleCandidateDashboard)
				r.Get("/assessments", s.handleCandidateAssessments)
				r.Get("/assessments/{id}/result", s.handleResult)
				r.Get("/interviews", s.handleCandidateInterviews)
				r.Post("/interviews/{id}/book", s.handleBookInterview)
				r.Delete("/interviews/{id}", s.handleCancelBooking)
			})

			r.Route("/interviewer", func(r chi.Router) {
				r.Get("/dashboard", s.handleInterviewerDashboard)
				r.Delete("/dashboard/assessments/{id}", s.handleDashboardDelete)

				r.Route("/assessments", func(r chi.Router) {
					r.Get("/", s.handleListMyAssessments)
					r.Post("/", s.handlePublishDraft)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", s.handleGetAssessment)
						r.Put("/", s.handleUpdateAssessment)
						r.Delete("/", s.handleDeleteAssessment)
						r.Get("/share", s.handleShareURL)
						r.Get("/submissions", s.handleSubmissions)
					})
				})

				r.Route("/drafts", func(r chi.Router) {
					r.Get("/", s.handleListDrafts)
					r.Post("/{name}/publish", s.handlePublishLibraryDraft)
				})

				r.Route("/interviews", func(r chi.Router) {
					r.Get("/", s.handleInterviewerInterviews)
					r.Post("/", s.handleCreateSlot)
					r.Post("/{id}/complete", s.handleCompleteInterview)
					r.Delete("/{id}", s.handleCancelInterview)
				})
			})

			r.Route("/public/assessments/{id}", func(r chi.Router) {
				r.Get("/", s.handlePublicPreview)
				r.Post("/start", s.handlePublicStart)
			})

			r.Route("/exams", func(r chi.Router) {
				r.Post("/", s.handleStartExam)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetExam)
					r.Delete("/", s.handleCloseExam)
					r.Post("/answer", s.handleAnswer)
					r.Post("/next", s.handleNext)
					r.Post("/previous", s.handlePrevious)
					r.Post("/submit", s.handleSubmit)
				})
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("remote_addr", r.RemoteAddr).
				Msg("http request")
		}()

		next.ServeHTTP(ww, r)
	})
}
