package api

import (
	"net/http"
	"time"

	"codedojo/internal/api/handler"
	"codedojo/internal/api/middleware"
	"codedojo/internal/app/service"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// requestTimeout bounds a whole request, grading passes included.
const requestTimeout = 60 * time.Second

func NewRouter(
	logger *zap.Logger,
	gate *service.CredentialGate,
	authService *service.AuthService,
	problemService *service.ProblemService,
	gradingService *service.GradingService,
	snippetService *service.SnippetService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger.Named("http")))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(requestTimeout))

	// Resolves the bearer token, if any, into the request context.
	r.Use(middleware.Authenticator(gate))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", handler.NewAuthHandler(authService).RegisterRoutes)
	r.Route("/problems", handler.NewProblemHandler(problemService, gradingService).RegisterRoutes)
	r.Route("/snippet", handler.NewSnippetHandler(snippetService).RegisterRoutes)
	r.Route("/admin", handler.NewAdminHandler(problemService).RegisterRoutes)

	return r
}
