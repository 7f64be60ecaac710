package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/text/language"

	"articlegen/internal/http/handlers"
	"articlegen/internal/infra"
	"articlegen/internal/middleware"
)

// Options carries the router's cross-cutting settings.
type Options struct {
	JWTSecret       string
	RateLimitPerMin int
	AllowedOrigins  []string
	Logger          infra.Logger
}

// supportedLocales are the languages an article may default to.
var supportedLocales = []language.Tag{language.English, language.Japanese}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
	)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID", "X-Locale"},
			ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health
	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.RateLimit(opts.RateLimitPerMin, time.Minute),
			middleware.AuthJWT(opts.JWTSecret),
			middleware.Locale(supportedLocales...),
		)

		r.Route("/v1/articles", func(r chi.Router) {
			r.Get("/", app.ArticlesList)
			r.Post("/", app.ArticlesCreate)
			r.Get("/quota", app.ArticlesQuota)
			r.Get("/{id}", app.ArticleStatus)
		})
		r.Post("/v1/images", app.ImagesGenerate)
	})

	return r
}
