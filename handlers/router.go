package handlers

import (
	"context"
	"net/http"

	_ "TaskService/docs"
	"TaskService/store"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	Store    *store.TaskStore
	Log      *logrus.Logger
	Metrics  *Metrics
	Gatherer prometheus.Gatherer
	// Limiter throttles the task endpoints; nil disables rate limiting.
	Limiter *rate.Limiter
}

// NewRouter returns the HTTP handler serving the task API, the metrics
// endpoint and the API docs.
func NewRouter(cfg RouterConfig) http.Handler {
	h := NewTaskHandler(cfg.Store, cfg.Log)
	wrap := func(fn HandlerFuncWithMetrics) http.HandlerFunc {
		return MetricsHandler(fn, cfg.Limiter, cfg.Metrics.EndpointCalls, cfg.Metrics.Errors)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", wrap(h.HomeHandler))
	mux.HandleFunc(opList, wrap(h.ListTasksHandler))
	mux.HandleFunc(opCreate, wrap(h.CreateTaskHandler))
	mux.HandleFunc(opUpdate, wrap(h.UpdateTaskHandler))
	mux.HandleFunc(opDelete, wrap(h.DeleteTaskHandler))

	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	mux.Handle("GET /docs/", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	return corsHandler().Handler(requestID(cfg.Log, mux))
}

// corsHandler permits every origin, method and header.
func corsHandler() *cors.Cors {
	return cors.New(cors.Options{
		AllowOriginFunc: func(string) bool { return true },
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
	})
}

// requestID tags every request with an id, reusing the one sent by the
// client when present, and logs the request at debug level.
func requestID(log *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		id := req.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		res.Header().Set(RequestIDHeader, id)
		log.WithFields(logrus.Fields{
			"request id": id,
			"request":    req.Method + " " + req.URL.Path,
		}).Debug("incoming request")
		next.ServeHTTP(res, req.WithContext(context.WithValue(req.Context(), requestIDKey{}, id)))
	})
}

// RequestID returns the id assigned to the request, or "" outside the router.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
