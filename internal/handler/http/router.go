package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/readrate/internal/service"
	"github.com/utafrali/readrate/pkg/health"
	"github.com/utafrali/readrate/pkg/middleware"
)

// Services are the application services behind the HTTP API.
type Services struct {
	Books           *service.BookService
	Reviews         *service.ReviewService
	Recommendations *service.RecommendationService
	Accounts        *service.AccountService
}

// RouterConfig holds the HTTP-level settings.
type RouterConfig struct {
	ServiceName     string
	CORSOrigins     []string
	PprofCIDRs      []string
	SessionTTL      time.Duration
	CookieSecure    bool
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// NewRouter creates a chi router with all readrate routes registered.
func NewRouter(svcs Services, healthHandler *health.Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(middleware.Session(svcs.Accounts.ResolveSession, logger))
	r.Use(middleware.RequestLogger(logger))

	// Health, metrics and debug endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	bookHandler := NewBookHandler(svcs.Books, logger)
	reviewHandler := NewReviewHandler(svcs.Reviews, svcs.Books, logger)
	authHandler := NewAuthHandler(svcs.Accounts, cfg.SessionTTL, cfg.CookieSecure, logger)
	accountHandler := NewAccountHandler(svcs.Accounts, svcs.Recommendations, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(cfg.LoginRateLimit, cfg.LoginRateWindow, logger))
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
			})
			r.With(middleware.RequireUser).Post("/logout", authHandler.Logout)
		})

		r.Route("/books", func(r chi.Router) {
			r.Get("/", bookHandler.SearchBooks)
			r.Get("/{bookId}", bookHandler.GetBook)
			r.Get("/{bookId}/reviews", bookHandler.ListReviews)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Post("/{bookId}/reviews", reviewHandler.AddReview)
				r.Put("/{bookId}/reviews", reviewHandler.EditReview)
				r.Delete("/{bookId}/reviews", reviewHandler.DeleteReview)
			})
		})

		r.Get("/users/{userId}/reviews", reviewHandler.ListUserReviews)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/account", accountHandler.Me)
			r.Delete("/account", accountHandler.DeleteAccount)
			r.Get("/me/reviews", reviewHandler.ListMyReviews)
			r.Get("/me/recommendations", accountHandler.Recommendations)
		})
	})

	r.Get("/api/{isbn}", bookHandler.LookupISBN)

	return r
}
