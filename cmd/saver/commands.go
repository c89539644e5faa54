package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/entrhq/saver/pkg/config"
	"github.com/entrhq/saver/pkg/console"
	"github.com/entrhq/saver/pkg/game"
	"github.com/entrhq/saver/pkg/logging"
	"github.com/entrhq/saver/pkg/saves"
)

// errUsage marks a command invoked with the wrong arguments
var errUsage = errors.New("invalid usage")

// command is one entry of the CLI surface
type command struct {
	name    string
	args    string
	summary string
	minArgs int
	maxArgs int
	run     func(a *app, ctx context.Context, args []string) error
}

// commandTable lists the commands in help order
func commandTable() []command {
	return []command{
		{
			name:    "help",
			summary: "Show this help.",
			run:     (*app).help,
		},
		{
			name:    "save",
			args:    "<name>",
			summary: "Save the working directory as <name>. An existing save of that name is moved to the backup slot first.",
			minArgs: 1,
			maxArgs: 1,
			run:     (*app).save,
		},
		{
			name:    "autosave",
			args:    "<name> [minutes]",
			summary: "Save to <name> now and again every [minutes] (default from config, 5) until interrupted with Ctrl+C.",
			minArgs: 1,
			maxArgs: 2,
			run:     (*app).autosave,
		},
		{
			name:    "load",
			args:    "<name>",
			summary: "Replace the working directory with save <name>. Current progress is kept in the save BACK first.",
			minArgs: 1,
			maxArgs: 1,
			run:     (*app).load,
		},
		{
			name:    "restore",
			args:    "<entry>",
			summary: "Replace the working directory with an entry of the backup slot.",
			minArgs: 1,
			maxArgs: 1,
			run:     (*app).restore,
		},
		{
			name:    "delete",
			args:    "<name>",
			summary: "Delete save <name> and the backup entry of the same name. Unknown names are ignored.",
			minArgs: 1,
			maxArgs: 1,
			run:     (*app).delete,
		},
		{
			name:    "list",
			args:    "[pattern]",
			summary: "List saves and backups with their modification times, optionally filtered by a glob pattern.",
			maxArgs: 1,
			run:     (*app).list,
		},
		{
			name:    "run",
			summary: "Start the game.",
			run:     (*app).runGame,
		},
		{
			name:    "version",
			summary: "Show version.",
			run:     (*app).version,
		},
	}
}

// app binds the commands to one configured store
type app struct {
	cfg      *config.Config
	store    *saves.Store
	out      *console.Reporter
	log      *logging.Logger
	launcher *game.Launcher
}

func newApp(cfg *config.Config, out *console.Reporter, logger *logging.Logger) (*app, error) {
	store, err := saves.New(cfg,
		saves.WithNotifier(out),
		saves.WithLogger(logger.With("store")),
	)
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	out.Verbosef("working directory: %s", store.WorkingDir())
	out.Verbosef("backup slot: %s", store.BackupDir())

	return &app{
		cfg:      cfg,
		store:    store,
		out:      out,
		log:      logger,
		launcher: game.NewLauncher(cfg.Game.Command, cwd),
	}, nil
}

// dispatch runs the command named by args[0]. No arguments shows the help.
func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.help(ctx, nil)
	}

	name, rest := args[0], args[1:]
	for _, c := range commandTable() {
		if c.name != name {
			continue
		}
		if len(rest) < c.minArgs || len(rest) > c.maxArgs {
			a.out.Text(usageLine(c))
			return fmt.Errorf("%w: %s", errUsage, usageLine(c))
		}
		a.log.Infof("running command %s %v", name, rest)
		return c.run(a, ctx, rest)
	}

	a.out.Text(helpText())
	return fmt.Errorf("%w: unknown command %q", errUsage, name)
}

func (a *app) help(context.Context, []string) error {
	created, err := a.store.EnsureRoot()
	if err != nil {
		return err
	}
	if created {
		a.out.Greeting()
	}
	a.out.Text(helpText())
	return nil
}

func (a *app) save(_ context.Context, args []string) error {
	if err := a.store.Save(args[0]); err != nil {
		return err
	}
	a.out.Successf("Saved %s", args[0])
	return nil
}

// autosave runs on the [minutes] argument when given, otherwise on the
// configured schedule or interval.
func (a *app) autosave(ctx context.Context, args []string) error {
	var (
		sched cron.Schedule
		err   error
	)

	if len(args) == 2 {
		minutes, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			return fmt.Errorf("%w: interval must be a whole number of minutes, got %q", errUsage, args[1])
		}
		if sched, err = config.Every(minutes); err == nil {
			if a.cfg.Autosave.Schedule != "" {
				a.out.Warningf("Interval of %d minutes overrides the configured schedule %q.", minutes, a.cfg.Autosave.Schedule)
			}
			a.out.Verbosef("autosave interval: %d minutes", minutes)
		}
	} else {
		if a.cfg.Autosave.Schedule != "" {
			a.out.Verbosef("autosave schedule: %s", a.cfg.Autosave.Schedule)
		} else {
			a.out.Verbosef("autosave interval: %d minutes", a.cfg.Autosave.IntervalMinutes)
		}
		sched, err = a.cfg.Schedule()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	return a.store.Autosave(ctx, args[0], sched)
}

func (a *app) load(_ context.Context, args []string) error {
	if err := a.store.Load(args[0]); err != nil {
		return err
	}
	a.out.Successf("Loaded %s", args[0])
	return nil
}

func (a *app) restore(_ context.Context, args []string) error {
	if err := a.store.Restore(args[0]); err != nil {
		return err
	}
	a.out.Successf("Restored %s", args[0])
	return nil
}

func (a *app) delete(_ context.Context, args []string) error {
	return a.store.Delete(args[0])
}

func (a *app) list(_ context.Context, args []string) error {
	pattern := ""
	if len(args) == 1 {
		pattern = args[0]
	}
	_, err := a.store.List(pattern)
	return err
}

func (a *app) runGame(ctx context.Context, _ []string) error {
	a.out.Infof("Starting game: %s", strings.Join(a.launcher.Command(), " "))
	return a.launcher.Launch(ctx)
}

func (a *app) version(context.Context, []string) error {
	a.out.Text(fmt.Sprintf("saver v%s", version))
	return nil
}

func usageLine(c command) string {
	if c.args == "" {
		return "Usage: saver " + c.name
	}
	return "Usage: saver " + c.name + " " + c.args
}

func helpText() string {
	var b strings.Builder
	b.WriteString("Usage: saver [options] <command> [arguments]\n\n")
	b.WriteString("Commands:\n")
	for _, c := range commandTable() {
		head := c.name
		if c.args != "" {
			head += " " + c.args
		}
		fmt.Fprintf(&b, "  %-26s %s\n", head, c.summary)
	}
	b.WriteString("\nSaves live in ./saves, backups in ./saves/autosave. Configure paths in ./saver.yaml.\n")
	return b.String()
}
