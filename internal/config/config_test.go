package config

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

func unsetBuildEnv() {
	_ = os.Unsetenv("REPLYSCOUT_BUILD_TARGET")
	_ = os.Unsetenv("REPLYSCOUT_DB_DRIVER")
	_ = os.Unsetenv("REPLYSCOUT_POSTGRES_DSN")
}

func TestResolveDefaultsLocal(t *testing.T) {
	unsetBuildEnv()
	_ = os.Setenv("REPLYSCOUT_BUILD_TARGET", "local")
	defer unsetBuildEnv()

	cfg, err := New(zerolog.Nop())
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("unexpected mapping for local: %s", cfg.DBDriver)
	}
}

func TestResolveDefaultsCloudDev(t *testing.T) {
	unsetBuildEnv()
	_ = os.Setenv("REPLYSCOUT_BUILD_TARGET", "cloud-dev")
	_ = os.Setenv("REPLYSCOUT_POSTGRES_DSN", "postgres://localhost:5432/replyscout")
	defer unsetBuildEnv()

	cfg, err := New(zerolog.Nop())
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("unexpected mapping for cloud-dev: %s", cfg.DBDriver)
	}
}

func TestResolveDefaultsOverride(t *testing.T) {
	unsetBuildEnv()
	_ = os.Setenv("REPLYSCOUT_BUILD_TARGET", "local")
	_ = os.Setenv("REPLYSCOUT_DB_DRIVER", "postgres")
	_ = os.Setenv("REPLYSCOUT_POSTGRES_DSN", "postgres://localhost:5432/replyscout")
	defer unsetBuildEnv()

	cfg, err := New(zerolog.Nop())
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("override failed, got %s", cfg.DBDriver)
	}
}

func TestResolveDefaultsRejectsUnknownTarget(t *testing.T) {
	cfg := &Config{BuildTarget: "prod", DBDriver: "auto", DiscoveryLimit: 50, OpportunityTTL: 1}
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatal("expected error for unknown build target")
	}
}

func TestResolveDefaultsRequiresPostgresDSN(t *testing.T) {
	cfg := &Config{BuildTarget: "cloud", DBDriver: "auto", DiscoveryLimit: 50, OpportunityTTL: 1}
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatal("expected error for missing postgres dsn")
	}
}
