package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"genstudio/internal/http/handlers"
	"genstudio/internal/infra/geoip"
	"genstudio/internal/middleware"
)

// NewRouter assembles the public API surface. Generation, credit and voucher
// routes require a bearer token; the admin group additionally requires the
// admin role.
func NewRouter(app *handlers.App, countries geoip.CountryResolver) http.Handler {
	r := chi.NewRouter()

	var lookup middleware.CountryLookup
	if countries != nil {
		lookup = countries.CountryCode
	}

	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(app.Config.AllowedOrigins),
		middleware.I18N("en", lookup),
		middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute),
	)

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/models", func(r chi.Router) {
		r.Get("/images", app.ModelsImages)
		r.Get("/videos", app.ModelsVideos)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.Config.JWTSecret))

		r.Route("/v1/images/generations", func(r chi.Router) {
			r.Post("/", app.ImagesGenerate)
			r.Get("/", app.ImagesList)
			r.Get("/{id}", app.ImageStatus)
		})
		r.Route("/v1/videos/generations", func(r chi.Router) {
			r.Post("/", app.VideosGenerate)
			r.Get("/", app.VideosList)
			r.Get("/{id}", app.VideoStatus)
		})
		r.Route("/v1/credits", func(r chi.Router) {
			r.Get("/", app.CreditsBalance)
			r.Get("/transactions", app.CreditsTransactions)
		})
		r.Post("/v1/vouchers/redeem", app.VouchersRedeem)

		r.Route("/v1/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Route("/api-keys", func(r chi.Router) {
				r.Get("/", app.AdminAPIKeysList)
				r.Post("/", app.AdminAPIKeysCreate)
				r.Put("/{id}", app.AdminAPIKeysUpdate)
				r.Delete("/{id}", app.AdminAPIKeysDelete)
			})
		})
	})

	return r
}
