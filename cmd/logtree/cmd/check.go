package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-drift/logtree/pkg/scenario"
)

func init() {
	RegisterCommand(&Command{
		Name:  "check",
		Short: "Check scenarios against tree invariants",
		Long: `Run scenarios and verify that every step succeeds, that attachment
state matches rootedness for every node, and that the event log equals
the scenario's expect list when one is given.

With no arguments every .yaml, .yml and .toml file in the scenarios
directory is checked.

Usage:
  logtree check
  logtree check reentrant move.toml`,
		Usage: "logtree check [scenario...]",
		Run:   runCheck,
	})
}

func runCheck(args []string) error {
	paths, err := checkPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no scenarios found in %s", settings.ScenarioDir)
	}

	failed := 0
	for _, path := range paths {
		s, err := loadScenario(path)
		if err == nil {
			_, err = scenario.Check(s, scenario.Options{Logger: logger})
		}
		if err != nil {
			failed++
			fmt.Fprintf(stdout, "FAIL %s\n", path)
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(stdout, "     %s\n", line)
			}
			continue
		}
		fmt.Fprintf(stdout, "ok   %s\n", path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(paths))
	}
	return nil
}

func checkPaths(args []string) ([]string, error) {
	if len(args) > 0 {
		paths := make([]string, 0, len(args))
		for _, arg := range args {
			path, err := settings.ScenarioPath(arg)
			if err != nil {
				return nil, err
			}
			paths = append(paths, path)
		}
		return paths, nil
	}

	entries, err := os.ReadDir(settings.ScenarioDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml", ".toml":
			paths = append(paths, filepath.Join(settings.ScenarioDir, e.Name()))
		}
	}
	slices.Sort(paths)
	return paths, nil
}
