package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type fakeServiceConfig struct {
	Addr   string `env:"WORLDFORGE_CMDTEST_ADDR" envDefault:"127.0.0.1:8080"`
	DBPath string `env:"WORLDFORGE_CMDTEST_DB"   envDefault:"local.db"`
}

func TestParseConfigLayersFlagsOverEnv(t *testing.T) {
	t.Setenv("WORLDFORGE_CMDTEST_ADDR", "env:9000")
	t.Setenv("WORLDFORGE_CMDTEST_DB", "env.db")

	var cfg fakeServiceConfig
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "database path")
	if err := ParseArgs(fs, []string{"-addr", "flag:9001"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	if cfg.Addr != "flag:9001" {
		t.Fatalf("addr = %q, want flag override", cfg.Addr)
	}
	if cfg.DBPath != "env.db" {
		t.Fatalf("db path = %q, want env value", cfg.DBPath)
	}
}

func TestParseConfigFromArgs(t *testing.T) {
	t.Setenv("WORLDFORGE_CMDTEST_ADDR", "env:9100")

	var cfg fakeServiceConfig
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", "", "listen address")
	if err := ParseConfigFromArgs(&cfg, fs, []string{"-addr", "flag:9101"}); err != nil {
		t.Fatalf("parse config and args: %v", err)
	}
	if cfg.Addr != "flag:9101" {
		t.Fatalf("addr = %q, want flag value", cfg.Addr)
	}
}

func TestParseConfigNilTarget(t *testing.T) {
	if err := ParseConfig[fakeServiceConfig](nil); err == nil {
		t.Fatal("expected error for nil config target")
	}
}

func TestParseArgsNilParser(t *testing.T) {
	if err := ParseArgs(nil, nil); err == nil {
		t.Fatal("expected error for nil flag parser")
	}
}

func TestRunWithTelemetryValidatesInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceWorldgen, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryPropagatesRunError(t *testing.T) {
	want := errors.New("run failed")
	err := RunWithTelemetry(context.Background(), ServiceWorldgen, func(context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want run error", err)
	}
}
