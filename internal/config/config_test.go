package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SOLVER_MPH", "")
	t.Setenv("SOLVER_LAMBDA", "")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Port != "8080" || c.Solver.MPH != 30 || c.Solver.Lambda != 0.5 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "daynav.yaml")
	doc := []byte("port: \"9090\"\nsolver:\n  mph: 45\n  lambda: 0.8\nrateLimit:\n  perSecond: 5\n  burst: 10\n")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORT", "7070")
	t.Setenv("SOLVER_LAMBDA", "0.25")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Port != "7070" {
		t.Errorf("port = %s, want env override 7070", c.Port)
	}
	if c.Solver.MPH != 45 {
		t.Errorf("mph = %v, want yaml value 45", c.Solver.MPH)
	}
	if c.Solver.Lambda != 0.25 {
		t.Errorf("lambda = %v, want env override 0.25", c.Solver.Lambda)
	}
	if c.RateLimit.PerSecond != 5 || c.RateLimit.Burst != 10 {
		t.Errorf("rate limit = %+v", c.RateLimit)
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Port != "8080" {
		t.Fatalf("port = %s, want default", c.Port)
	}
}
