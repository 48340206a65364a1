package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/cloo-solutions/tastyfind/internal/api"
	"github.com/cloo-solutions/tastyfind/internal/api/handlers"
	"github.com/cloo-solutions/tastyfind/internal/api/middleware"
)

// formOverheadBytes is the slack allowed on top of the upload limit for the
// rest of a multipart body.
const formOverheadBytes int64 = 1 << 20

type RouterConfig struct {
	SearchHandler  *handlers.SearchHandler
	Logger         *zap.Logger
	Metrics        *middleware.Metrics
	Gatherer       prometheus.Gatherer
	CORSOrigins    []string
	MaxUploadBytes int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.SentryMiddleware)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(middleware.MaxBodyBytes(cfg.MaxUploadBytes + formOverheadBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	h := cfg.SearchHandler
	r.Get("/", h.Index)
	r.Route("/search", func(r chi.Router) {
		r.Post("/basic", h.Basic)
		r.Post("/location", h.Location)
		r.Post("/semantic", h.Semantic)
		r.Post("/image", h.Image)
	})
	r.Post("/browse", h.Browse)
	r.Post("/page", h.Page)
	r.Post("/page-size", h.PageSize)
	r.Post("/clear", h.Clear)

	r.Group(func(r chi.Router) {
		r.Use(corsHandler(cfg.CORSOrigins).Handler)
		r.Route("/api", func(r chi.Router) {
			r.Get("/state", h.State)
			r.Post("/search/{tab}", h.SearchJSON)
			r.Post("/page", h.PageJSON)
			r.Post("/page-size", h.PageSizeJSON)
			r.Options("/*", func(w http.ResponseWriter, r *http.Request) {})
		})
	})

	return r
}

func corsHandler(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowAll := false
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: !allowAll,
	})
}
