// Package config reads the service settings from command line flags and
// environment variables.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"
)

// Config holds the service settings.
type Config struct {
	// Host is the bind host; empty or 0.0.0.0 binds all interfaces.
	Host string
	Port int
	// Reload switches on development mode: text logs at debug level.
	Reload    bool
	TasksFile string
	LogLevel  string
	// RateLimit is the number of requests per second the task endpoints accept; 0 disables the limiter.
	RateLimit float64
	RateBurst int
}

// Flags returns the command line flags of the service, each bound to its environment variable.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Value: "0.0.0.0", Usage: "bind host", EnvVars: []string{"API_HOST"}},
		&cli.IntFlag{Name: "port", Value: 3000, Usage: "bind port", EnvVars: []string{"API_PORT"}},
		&cli.BoolFlag{Name: "reload", Value: true, Usage: "development mode with verbose text logs", EnvVars: []string{"API_RELOAD"}},
		&cli.StringFlag{Name: "tasks-file", Value: "tasks.json", Usage: "path of the JSON file holding the tasks", EnvVars: []string{"TASKS_FILE"}},
		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "log level outside development mode", EnvVars: []string{"LOG_LEVEL"}},
		&cli.Float64Flag{Name: "rate-limit", Value: 0, Usage: "requests per second accepted by the task endpoints, 0 disables", EnvVars: []string{"RATE_LIMIT"}},
		&cli.IntFlag{Name: "rate-burst", Value: 20, Usage: "burst size of the rate limiter", EnvVars: []string{"RATE_BURST"}},
	}
}

// FromContext builds a Config from the flags parsed by c.
func FromContext(c *cli.Context) (Config, error) {
	cfg := Config{
		Host:      c.String("host"),
		Port:      c.Int("port"),
		Reload:    c.Bool("reload"),
		TasksFile: c.String("tasks-file"),
		LogLevel:  c.String("log-level"),
		RateLimit: c.Float64("rate-limit"),
		RateBurst: c.Int("rate-burst"),
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.TasksFile == "" {
		return Config{}, fmt.Errorf("tasks file path is required")
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit < 0 {
		return Config{}, fmt.Errorf("invalid rate limit %v", cfg.RateLimit)
	}
	if cfg.RateLimit > 0 && cfg.RateBurst <= 0 {
		return Config{}, fmt.Errorf("rate burst must be positive when rate limiting, got %d", cfg.RateBurst)
	}
	return cfg, nil
}

// Addr returns the address the server listens on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Logger returns the logger matching the configured mode.
func (c Config) Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if c.Reload {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return log
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.JSONFormatter{})
	return log
}

// Limiter returns the rate limiter of the task endpoints, or nil when disabled.
func (c Config) Limiter() *rate.Limiter {
	if c.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(c.RateLimit), c.RateBurst)
}
