package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	DBPath string `env:"CMD_TEST_DB_PATH" envDefault:"data/test.db"`
	Mode   string `env:"CMD_TEST_MODE" envDefault:"server"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_DB_PATH", "env.db")
	t.Setenv("CMD_TEST_MODE", "env-mode")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := testConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "db path")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "mode")

	if err := ParseArgs(fs, []string{"-db-path", "flag.db"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfg.DBPath != "flag.db" {
		t.Fatalf("expected flag value for db path, got %q", cfg.DBPath)
	}
	if cfg.Mode != "env-mode" {
		t.Fatalf("expected env mode, got %q", cfg.Mode)
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected nil config target error")
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestRunWithOptionsRequiresServiceAndRun(t *testing.T) {
	t.Parallel()

	if err := RunWithOptions(context.Background(), " ", RunOptions{}, func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected service name error")
	}
	if err := RunWithOptions(context.Background(), ServiceOnboarding, RunOptions{}, nil); err == nil {
		t.Fatal("expected run function error")
	}
}

func TestRunWithOptionsShutsDownTelemetryAfterRun(t *testing.T) {
	t.Parallel()

	var calls []string
	options := RunOptions{
		Setup: func(_ context.Context, service string) (func(context.Context) error, error) {
			calls = append(calls, "setup:"+service)
			return func(context.Context) error {
				calls = append(calls, "shutdown")
				return nil
			}, nil
		},
	}
	runErr := errors.New("boom")
	err := RunWithOptions(context.Background(), ServiceOnboarding, options, func(context.Context) error {
		calls = append(calls, "run")
		return runErr
	})
	if !errors.Is(err, runErr) {
		t.Fatalf("run error = %v, want %v", err, runErr)
	}
	want := []string{"setup:onboarding", "run", "shutdown"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}

func TestRunWithOptionsFailsWhenSetupFails(t *testing.T) {
	t.Parallel()

	ran := false
	err := RunWithOptions(context.Background(), ServiceOnboarding, RunOptions{
		Setup: func(context.Context, string) (func(context.Context) error, error) {
			return nil, errors.New("exporter down")
		},
	}, func(context.Context) error {
		ran = true
		return nil
	})
	if err == nil {
		t.Fatal("expected setup error")
	}
	if ran {
		t.Fatal("run should not execute when telemetry setup fails")
	}
}
