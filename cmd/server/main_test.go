package main

import (
	"testing"
	"time"

	"github.com/vovakirdan/typeroom-server/internal/config"
)

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()

	for _, name := range []string{"config", "addr", "log-level", "read-header-timeout", "shutdown-timeout"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("expected flag %q", name)
		}
	}
	if err := cmd.ParseFlags([]string{"--addr", ":4000", "-c", "/tmp/typeroom.yaml"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if got, _ := cmd.Flags().GetString("config"); got != "/tmp/typeroom.yaml" {
		t.Fatalf("unexpected config flag: %q", got)
	}
}

func TestFlagOverridesApplyOnlyChangedFlags(t *testing.T) {
	cmd := newRootCommand()
	if err := cmd.ParseFlags([]string{"--addr", ":4000", "--shutdown-timeout", "9s"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg := config.Default()
	cfg.LogLevel = "debug"
	cfg.ReadHeaderTimeout = 3 * time.Second
	cfg.UpdateFrom(flagOverrides(cmd))

	if cfg.Addr != ":4000" || cfg.ShutdownTimeout != 9*time.Second {
		t.Fatalf("expected flag values applied, got addr=%q shutdown=%s", cfg.Addr, cfg.ShutdownTimeout)
	}
	if cfg.LogLevel != "debug" || cfg.ReadHeaderTimeout != 3*time.Second {
		t.Fatalf("expected unset flags to keep loaded values, got level=%q header=%s", cfg.LogLevel, cfg.ReadHeaderTimeout)
	}
}
