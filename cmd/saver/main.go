// Package main provides the saver command. It keeps named snapshots of a
// game's save directory and backs up anything it is about to overwrite.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/saver/pkg/config"
	"github.com/entrhq/saver/pkg/console"
	"github.com/entrhq/saver/pkg/logging"
	"github.com/entrhq/saver/pkg/saves"
)

const version = "0.1.0"

// Options holds the global command line flags
type Options struct {
	ConfigFile  string
	ShowVersion bool
}

func main() {
	opts := parseFlags()

	if opts.ShowVersion {
		fmt.Printf("saver v%s\n", version)
		return
	}

	// Cancel on interrupt so autosave can finish its current save and exit
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down gracefully...")
		cancel()
	}()

	code := run(ctx, opts, flag.Args())
	cancel()
	os.Exit(code)
}

// parseFlags parses command line flags
func parseFlags() *Options {
	opts := &Options{}

	flag.StringVar(&opts.ConfigFile, "config", "", "Path to configuration file (YAML, default: ./"+config.DefaultFile+" when present)")
	flag.BoolVar(&opts.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "saver - named snapshots of your game's save directory\n\n")
		fmt.Fprintf(os.Stderr, "Usage: saver [options] <command> [arguments]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nRun 'saver help' for the list of commands.\n")
	}

	flag.Parse()
	return opts
}

// run executes one command and returns the process exit code. Failures that
// were already reported as warnings still exit 0.
func run(ctx context.Context, opts *Options, args []string) int {
	cfg, err := loadConfig(opts.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	out := console.New(os.Stdout, console.ParseLevel(cfg.Logging.Verbosity))
	out.Debugf("configuration: %+v", *cfg)

	// A logger that could not open its file still writes to stderr
	logger, logErr := logging.NewLogger("cli")
	if logErr != nil {
		out.Verbosef("file logging unavailable: %v", logErr)
	}
	defer logger.Close()
	out.Verbosef("session log: %s", logger.LogPath())

	a, err := newApp(cfg, out, logger)
	if err != nil {
		out.Errorf("%v", err)
		return 1
	}

	err = a.dispatch(ctx, args)
	switch {
	case err == nil:
		return 0
	case saves.IsRecoverable(err):
		logger.Warnf("command %v finished with a warning: %v", args, err)
		return 0
	default:
		logger.Errorf("command %v failed: %v", args, err)
		out.Errorf("%v", err)
		return 1
	}
}

// loadConfig loads, validates and resolves the configuration against the
// current directory.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg.Resolve(cwd)
	return cfg, nil
}
