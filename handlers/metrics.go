package handlers

import (
	"encoding/json"
	"net/http"

	"TaskService/response"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	EndpointCalls *prometheus.CounterVec
	Errors        *prometheus.CounterVec
	Tasks         prometheus.Gauge
}

// NewMetrics creates the service collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EndpointCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskapi_endpoint_calls_total",
			Help: "Total number of calls per endpoint.",
		}, []string{"endpoint"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskapi_errors_total",
			Help: "Total number of errors occurred in the application.",
		}, []string{"endpoint"}),
		Tasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskapi_tasks",
			Help: "Number of tasks in the backing file at the last load or save.",
		}),
	}
	reg.MustRegister(m.EndpointCalls, m.Errors, m.Tasks)
	return m
}

// A function type that represents a handler function with metrics.
type HandlerFuncWithMetrics func(http.ResponseWriter, *http.Request, *prometheus.CounterVec, *prometheus.CounterVec)

// rateLimiter is a middleware function that implements rate limiting for HTTP requests.
// If the request is not allowed it returns a JSON response with an error detail and HTTP status code 429 (Too Many Requests).
// A nil limiter lets every request through.
func rateLimiter(limiter *rate.Limiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if !limiter.Allow() {
			res.Header().Set("Content-Type", "application/json; charset=utf-8")
			res.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(res).Encode(response.Detail{Detail: "The API is at capacity, try again later."})
			return
		}
		next.ServeHTTP(res, req)
	})
}

// MetricsHandler wraps the provided handler function with metrics collection and rate limiting.
func MetricsHandler(handlerFunc HandlerFuncWithMetrics, limiter *rate.Limiter, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) http.HandlerFunc {
	next := http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		handlerFunc(res, req, endPointCounter, errorCounter)
	})
	return rateLimiter(limiter, next).ServeHTTP
}
