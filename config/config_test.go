package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func parse(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	var (
		cfg    Config
		cfgErr error
	)
	app := &cli.App{
		Name:  "taskservice",
		Flags: Flags(),
		Action: func(c *cli.Context) error {
			cfg, cfgErr = FromContext(c)
			return nil
		},
	}
	if err := app.Run(append([]string{"taskservice"}, args...)); err != nil {
		t.Fatalf("Error running app: %v", err)
	}
	return cfg, cfgErr
}

func TestDefaults(t *testing.T) {
	cfg, err := parse(t)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Config{Host: "0.0.0.0", Port: 3000, Reload: true, TasksFile: "tasks.json", LogLevel: "info", RateBurst: 20}
	if cfg != want {
		t.Fatalf("expected %+v, got %+v", want, cfg)
	}
	if cfg.Addr() != "0.0.0.0:3000" {
		t.Fatalf("expected 0.0.0.0:3000, got %s", cfg.Addr())
	}
	if cfg.Limiter() != nil {
		t.Fatal("expected rate limiting to be disabled by default")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("API_HOST", "127.0.0.1")
	t.Setenv("API_PORT", "8081")
	t.Setenv("API_RELOAD", "false")
	t.Setenv("TASKS_FILE", "/tmp/tarefas.json")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("RATE_LIMIT", "2")

	cfg, err := parse(t)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:8081" || cfg.Reload || cfg.TasksFile != "/tmp/tarefas.json" {
		t.Fatalf("expected environment values, got %+v", cfg)
	}
	log := cfg.Logger()
	if log.GetLevel() != logrus.WarnLevel {
		t.Fatalf("expected warn level, got %s", log.GetLevel())
	}
	if _, ok := log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected JSON formatter outside development mode, got %T", log.Formatter)
	}
	limiter := cfg.Limiter()
	if limiter == nil || limiter.Burst() != 20 {
		t.Fatalf("expected limiter with burst 20, got %v", limiter)
	}
}

func TestFlagsWinOverEnvironment(t *testing.T) {
	t.Setenv("API_PORT", "8081")
	cfg, err := parse(t, "--port", "9000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9000 {
		t.Fatalf("expected port 9000, got %d", cfg.Port)
	}
}

func TestDevelopmentLogger(t *testing.T) {
	log := Config{Reload: true, LogLevel: "error"}.Logger()
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level in development mode, got %s", log.GetLevel())
	}
}

func TestInvalidSettings(t *testing.T) {
	cases := [][]string{
		{"--port", "70000"},
		{"--log-level", "loud"},
		{"--tasks-file", ""},
		{"--rate-limit", "-1"},
		{"--rate-limit", "5", "--rate-burst", "0"},
	}
	for _, args := range cases {
		if _, err := parse(t, args...); err == nil {
			t.Errorf("expected %v to be rejected", args)
		}
	}
}
