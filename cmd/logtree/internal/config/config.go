package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"
)

// FileName is the optional project configuration file.
const FileName = "logtree.yaml"

// Config represents the optional logtree.yaml configuration.
type Config struct {
	Scenarios ScenariosConfig `yaml:"scenarios"`
	Log       LogConfig       `yaml:"log"`
}

// ScenariosConfig locates scenario files.
type ScenariosConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// LogConfig controls CLI logging.
type LogConfig struct {
	Verbose bool   `yaml:"verbose,omitempty"`
	Level   string `yaml:"level,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root        string
	ModulePath  string
	ProjectName string
	ScenarioDir string
	Verbose     bool
	Level       slog.Level
}

// LoadOptional reads logtree.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	return &cfg, nil
}

// Resolve loads logtree.yaml (if present) and resolves defaults.
// LOGTREE_VERBOSE=1 turns on verbose output regardless of the file.
func Resolve(dir string) (*Resolved, error) {
	modulePath, err := modulePath(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	scenarioDir := strings.TrimSpace(cfg.Scenarios.Dir)
	if scenarioDir == "" {
		scenarioDir = "scenarios"
	}
	if !filepath.IsAbs(scenarioDir) {
		scenarioDir = filepath.Join(dir, scenarioDir)
	}

	level, err := parseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	verbose := cfg.Log.Verbose
	if v, ok := os.LookupEnv("LOGTREE_VERBOSE"); ok {
		verbose = v == "1" || strings.EqualFold(v, "true")
	}

	return &Resolved{
		Root:        dir,
		ModulePath:  modulePath,
		ProjectName: defaultProjectName(modulePath, dir),
		ScenarioDir: scenarioDir,
		Verbose:     verbose,
		Level:       level,
	}, nil
}

// Defaults returns the configuration used outside a Go module.
func Defaults(dir string) *Resolved {
	return &Resolved{
		Root:        dir,
		ProjectName: defaultProjectName("", dir),
		ScenarioDir: filepath.Join(dir, "scenarios"),
		Verbose:     os.Getenv("LOGTREE_VERBOSE") == "1",
		Level:       slog.LevelWarn,
	}
}

// FindProjectRoot walks up from the current directory to find go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a Go module (no go.mod found)")
		}
		dir = parent
	}
}

// ScenarioPath resolves a scenario argument. Paths that exist are used as
// given. Otherwise name is looked up in the scenario directory, trying the
// .yaml, .yml and .toml extensions when it has none.
func (r *Resolved) ScenarioPath(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	candidates := []string{filepath.Join(r.ScenarioDir, name)}
	if filepath.Ext(name) == "" {
		candidates = candidates[:0]
		for _, ext := range []string{".yaml", ".yml", ".toml"} {
			candidates = append(candidates, filepath.Join(r.ScenarioDir, name+ext))
		}
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("scenario %q not found (looked in %s)", name, r.ScenarioDir)
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

func defaultProjectName(modulePath, dir string) string {
	base := filepath.Base(dir)
	if modName, _, ok := module.SplitPathVersion(modulePath); ok && modName != "" {
		parts := strings.Split(modName, "/")
		base = parts[len(parts)-1]
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "logtree"
	}
	return base
}

func parseLevel(s string) (slog.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
