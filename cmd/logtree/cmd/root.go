// Package cmd implements the logtree CLI commands.
//
// The command structure follows standard Go CLI patterns with a root command
// that dispatches to subcommands (replay, check, snapshot).
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-drift/logtree/cmd/logtree/internal/config"
	"github.com/go-drift/logtree/pkg/errors"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// Command represents a CLI command.
type Command struct {
	Name        string
	Short       string
	Long        string
	Usage       string
	Run         func(args []string) error
	SubCommands []*Command
}

var rootCmd = &Command{
	Name:  "logtree",
	Short: "logtree - replay and check logical tree scenarios",
	Long: `logtree replays scenario files against a logical tree and reports the
attach, detach and resource notifications each node receives.

Scenarios are YAML or TOML files describing an initial forest, a list of
mutation steps and optional hooks that mutate the tree from inside
notification handlers.

Use "logtree <command> --help" for more information about a command.`,
	Usage: "logtree <command> [flags]",
}

// Commands registered with the CLI.
var commands = make(map[string]*Command)

// Output streams and state shared by the commands. Tests swap the writers.
var (
	stdout   io.Writer = os.Stdout
	stderr   io.Writer = os.Stderr
	settings *config.Resolved
	logger   = slog.New(slog.DiscardHandler)
)

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *Command) {
	commands[cmd.Name] = cmd
	rootCmd.SubCommands = append(rootCmd.SubCommands, cmd)
}

// Execute runs the CLI with the process arguments.
func Execute() error {
	return execute(os.Args[1:])
}

func execute(args []string) error {
	// Handle no arguments
	if len(args) == 0 {
		printHelp(rootCmd)
		return nil
	}

	// Handle global flags
	verbose := false
	var filteredArgs []string
	for _, arg := range args {
		switch arg {
		case "-h", "--help", "help":
			if len(filteredArgs) == 0 {
				printHelp(rootCmd)
				return nil
			}
			filteredArgs = append(filteredArgs, arg)
		case "-v", "--version", "version":
			if len(filteredArgs) == 0 {
				fmt.Fprintf(stdout, "logtree version %s (built %s)\n", Version, BuildTime)
				return nil
			}
			filteredArgs = append(filteredArgs, arg)
		case "--verbose":
			verbose = true
		default:
			filteredArgs = append(filteredArgs, arg)
		}
	}
	args = filteredArgs

	if len(args) == 0 {
		printHelp(rootCmd)
		return nil
	}

	// Find and execute the command
	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", cmdName)
		printHelp(rootCmd)
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	// Check for help flag on subcommand
	cmdArgs := args[1:]
	for _, arg := range cmdArgs {
		if arg == "-h" || arg == "--help" || arg == "help" {
			printCommandHelp(cmd)
			return nil
		}
	}

	if err := setup(verbose); err != nil {
		return err
	}
	return cmd.Run(cmdArgs)
}

// setup resolves the project configuration and installs the logger and
// error handler used by every command.
func setup(verbose bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	if root, err := config.FindProjectRoot(); err == nil {
		settings, err = config.Resolve(root)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		settings = config.Defaults(cwd)
	}
	if verbose {
		settings.Verbose = true
	}

	level := settings.Level
	if settings.Verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	errors.SetHandler(&errors.LogHandler{Verbose: settings.Verbose, Out: stderr})
	return nil
}

func printHelp(cmd *Command) {
	fmt.Fprintln(stdout, cmd.Long)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Usage:")
	fmt.Fprintf(stdout, "  %s\n", cmd.Usage)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Commands:")
	for _, sub := range cmd.SubCommands {
		fmt.Fprintf(stdout, "  %-14s %s\n", sub.Name, sub.Short)
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Flags:")
	fmt.Fprintln(stdout, "  -h, --help           Show help for a command")
	fmt.Fprintln(stdout, "  -v, --version        Show version information")
	fmt.Fprintln(stdout, "  --verbose            Debug logging and stack traces")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Environment:")
	fmt.Fprintln(stdout, "  LOGTREE_VERBOSE=1    Same as --verbose")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Examples:")
	fmt.Fprintln(stdout, "  logtree replay reentrant          Replay scenarios/reentrant.yaml")
	fmt.Fprintln(stdout, "  logtree check                     Check every scenario")
	fmt.Fprintln(stdout, "  logtree snapshot --png t.png move Render the final tree")
}

func printCommandHelp(cmd *Command) {
	fmt.Fprintln(stdout, cmd.Long)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Usage:")
	fmt.Fprintf(stdout, "  %s\n", cmd.Usage)
}
