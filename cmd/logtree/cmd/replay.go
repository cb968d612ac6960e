package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/go-drift/logtree/pkg/errors"
	"github.com/go-drift/logtree/pkg/scenario"
)

func init() {
	RegisterCommand(&Command{
		Name:  "replay",
		Short: "Replay a scenario and print its event log",
		Long: `Replay a scenario and print every notification in delivery order,
followed by the final shape of the tree.

Scenario names are resolved against the scenarios directory (see
logtree.yaml) when they are not an existing path.

Flags:
  --watch            Replay again whenever the scenario file changes

Usage:
  logtree replay reentrant
  logtree replay --watch scenarios/move.toml`,
		Usage: "logtree replay [--watch] <scenario>",
		Run:   runReplay,
	})
}

// watchDebounce coalesces the burst of events editors emit on save.
const watchDebounce = 150 * time.Millisecond

func runReplay(args []string) error {
	watch := false
	var names []string
	for _, arg := range args {
		switch arg {
		case "--watch":
			watch = true
		default:
			names = append(names, arg)
		}
	}
	if len(names) != 1 {
		return fmt.Errorf("exactly one scenario is required\n\nUsage: logtree replay [--watch] <scenario>")
	}

	path, err := settings.ScenarioPath(names[0])
	if err != nil {
		return err
	}

	err = replay(path)
	if !watch {
		return err
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	fmt.Fprintf(stdout, "Watching %s (Ctrl+C to stop)...\n", path)
	return watchFile(ctx, path, func() {
		fmt.Fprintln(stdout)
		if err := replay(path); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
	})
}

func replay(path string) error {
	s, err := loadScenario(path)
	if err != nil {
		return err
	}
	res := scenario.Run(s, scenario.Options{Logger: logger})

	fmt.Fprintf(stdout, "scenario %s: %d of %d steps\n", s.Name, res.Steps, len(s.Steps))
	for _, line := range res.Log {
		fmt.Fprintf(stdout, "  %s\n", line)
	}
	fmt.Fprintln(stdout)
	for _, line := range treeLines(res.Tops()) {
		fmt.Fprintln(stdout, line)
	}
	return res.Err
}

// loadScenario wraps load failures as scenario errors so they print like
// the rest of the tree errors.
func loadScenario(path string) (*scenario.Scenario, error) {
	s, err := scenario.Load(path)
	if err != nil {
		return nil, &errors.TreeError{Op: "logtree.load", Kind: errors.KindScenario, Err: err}
	}
	return s, nil
}

// watchFile calls onChange after path is written, until ctx is done. The
// parent directory is watched so editors that save by rename are seen.
func watchFile(ctx context.Context, path string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending = time.After(watchDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "path", target, "err", err)
		case <-pending:
			pending = nil
			notifyChange(onChange)
		}
	}
}

// notifyChange runs onChange so that a panic is reported and the watch
// keeps going.
func notifyChange(onChange func()) {
	defer errors.Recover("logtree.watch")
	onChange()
}
