// TaskService is a web service that provides CRUD operations for tasks.
//
// Tasks are kept in a single JSON file holding an array of task objects. Every
// request reads the whole file and every change rewrites it atomically; changes
// are serialized inside the process so concurrent requests cannot lose updates.
// Every origin is allowed to call the API and no authentication is required.
// It also provides Prometheus metrics for monitoring and an optional global rate limit.
//
// The following endpoints are available:
//
//  1. GET / - Liveness message
//  2. GET /tarefas - List all tasks
//  3. POST /tarefas - Create a task
//  4. PUT /tarefas/{id} - Replace a task
//  5. DELETE /tarefas/{id} - Delete a task
//  6. GET /metrics - Display Prometheus metrics
//  7. GET /docs/ - Swagger UI
//
// Settings are read from flags or environment variables, after loading a .env
// file when one exists: API_HOST, API_PORT, API_RELOAD, TASKS_FILE, LOG_LEVEL,
// RATE_LIMIT and RATE_BURST. Run with --help for the defaults.
//
// @title        Task API
// @version      1.0.0
// @description  Basic task CRUD over a JSON file.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TaskService/config"
	"TaskService/handlers"
	"TaskService/store"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env file is the normal case outside development.
	envErr := godotenv.Load()

	app := &cli.App{
		Name:  "taskservice",
		Usage: "serve the task API",
		Flags: config.Flags(),
		Action: func(c *cli.Context) error {
			cfg, err := config.FromContext(c)
			if err != nil {
				return err
			}
			log := cfg.Logger()
			if envErr != nil {
				log.Debug("no .env file loaded: " + envErr.Error())
			}
			return serve(c.Context, cfg, log)
		},
	}
	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func serve(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	metrics := handlers.NewMetrics(prometheus.DefaultRegisterer)
	tasks := store.New(cfg.TasksFile, store.WithLogger(log), store.WithSizeGauge(metrics.Tasks))

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: handlers.NewRouter(handlers.RouterConfig{
			Store:    tasks,
			Log:      log,
			Metrics:  metrics,
			Gatherer: prometheus.DefaultGatherer,
			Limiter:  cfg.Limiter(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown: " + err.Error())
		}
	}()

	log.WithFields(logrus.Fields{
		"address":     cfg.Addr(),
		"tasks file":  cfg.TasksFile,
		"development": cfg.Reload,
		"rate limit":  cfg.RateLimit,
	}).Info("Server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("Server stopped")
	return nil
}
