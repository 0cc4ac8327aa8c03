package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parishyparijal/MenonMobility-sub001/internal/service"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/health"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/middleware"
)

const serviceName = "search"

// Services groups the application services the router exposes.
type Services struct {
	Search   *service.SearchService
	Suggest  *service.SuggestService
	Listings *service.ListingService
	Index    *service.IndexService
}

// RouterConfig holds the HTTP-level knobs of the router.
type RouterConfig struct {
	RequestTimeout    time.Duration
	SuggestCacheTTL   time.Duration
	PprofAllowedCIDRs []string
	CORS              middleware.CORSConfig
}

// NewRouter creates a chi router with all search service routes registered.
func NewRouter(
	svcs Services,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if len(cfg.PprofAllowedCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	searchHandler := NewSearchHandler(svcs.Search, svcs.Suggest, logger)
	listingHandler := NewListingHandler(svcs.Listings, logger)
	indexHandler := NewIndexHandler(svcs.Index, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/search", func(r chi.Router) {
			r.Get("/", searchHandler.Search)
			if cfg.SuggestCacheTTL > 0 {
				r.With(middleware.CacheControl(cfg.SuggestCacheTTL)).Get("/suggest", searchHandler.Suggest)
			} else {
				r.Get("/suggest", searchHandler.Suggest)
			}

			r.Post("/index", indexHandler.Index)
			r.Post("/reindex", indexHandler.Reindex)
			r.Delete("/{id}", indexHandler.Delete)
		})

		r.Get("/sellers/{sellerID}/listings", listingHandler.BySeller)
		r.Get("/categories/{slug}/listings", listingHandler.ByCategory)
	})

	return r
}
