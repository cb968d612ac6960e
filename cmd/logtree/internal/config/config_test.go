package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveDefaults(t *testing.T) {
	t.Setenv("LOGTREE_VERBOSE", "")
	os.Unsetenv("LOGTREE_VERBOSE")
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/trees/v2\n\ngo 1.24\n")

	cfg, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.ModulePath != "example.com/trees/v2" {
		t.Errorf("ModulePath = %q", cfg.ModulePath)
	}
	if cfg.ProjectName != "trees" {
		t.Errorf("ProjectName = %q, want trees", cfg.ProjectName)
	}
	if cfg.ScenarioDir != filepath.Join(dir, "scenarios") {
		t.Errorf("ScenarioDir = %q", cfg.ScenarioDir)
	}
	if cfg.Verbose {
		t.Error("Verbose should default to false")
	}
	if cfg.Level != slog.LevelWarn {
		t.Errorf("Level = %v, want WARN", cfg.Level)
	}
}

func TestResolveFromFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/trees\n")
	writeFile(t, filepath.Join(dir, FileName), "scenarios:\n  dir: testdata/cases\nlog:\n  verbose: true\n  level: debug\n")

	cfg, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.ScenarioDir != filepath.Join(dir, "testdata", "cases") {
		t.Errorf("ScenarioDir = %q", cfg.ScenarioDir)
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, want true")
	}
	if cfg.Level != slog.LevelDebug {
		t.Errorf("Level = %v, want DEBUG", cfg.Level)
	}
}

func TestResolveEnvOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/trees\n")
	writeFile(t, filepath.Join(dir, FileName), "log:\n  verbose: true\n")

	t.Setenv("LOGTREE_VERBOSE", "0")
	cfg, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Verbose {
		t.Error("LOGTREE_VERBOSE=0 should turn verbose off")
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name  string
		gomod string
		yaml  string
	}{
		{"missing go.mod", "", ""},
		{"no module line", "go 1.24\n", ""},
		{"bad yaml", "module x.io/y\n", "log: [\n"},
		{"bad level", "module x.io/y\n", "log:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.gomod != "" {
				writeFile(t, filepath.Join(dir, "go.mod"), tt.gomod)
			}
			if tt.yaml != "" {
				writeFile(t, filepath.Join(dir, FileName), tt.yaml)
			}
			if _, err := Resolve(dir); err == nil {
				t.Errorf("Resolve() error = nil, want error")
			}
		})
	}
}

func TestDefaultProjectName(t *testing.T) {
	tests := []struct {
		modulePath string
		dir        string
		want       string
	}{
		{"github.com/go-drift/logtree", "/src/x", "logtree"},
		{"github.com/go-drift/logtree/v3", "/src/x", "logtree"},
		{"", "/src/fallback", "fallback"},
		{"", "/", "logtree"},
	}
	for _, tt := range tests {
		if got := defaultProjectName(tt.modulePath, tt.dir); got != tt.want {
			t.Errorf("defaultProjectName(%q, %q) = %q, want %q", tt.modulePath, tt.dir, got, tt.want)
		}
	}
}

func TestScenarioPath(t *testing.T) {
	dir := t.TempDir()
	cfg := Defaults(dir)
	writeFile(t, filepath.Join(cfg.ScenarioDir, "mount.toml"), "")
	writeFile(t, filepath.Join(cfg.ScenarioDir, "move.yaml"), "")
	direct := filepath.Join(dir, "elsewhere.yml")
	writeFile(t, direct, "")

	tests := []struct {
		arg     string
		want    string
		wantErr bool
	}{
		{"mount", filepath.Join(cfg.ScenarioDir, "mount.toml"), false},
		{"move", filepath.Join(cfg.ScenarioDir, "move.yaml"), false},
		{"move.yaml", filepath.Join(cfg.ScenarioDir, "move.yaml"), false},
		{direct, direct, false},
		{"absent", "", true},
	}
	for _, tt := range tests {
		got, err := cfg.ScenarioPath(tt.arg)
		if (err != nil) != tt.wantErr {
			t.Errorf("ScenarioPath(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ScenarioPath(%q) = %q, want %q", tt.arg, got, tt.want)
		}
	}
}
