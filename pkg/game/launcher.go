// Package game starts the game whose saves are being managed.
package game

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// SteamURL launches the game through the Steam client
const SteamURL = "steam://run/881100"

// DefaultCommand returns the platform's way of opening SteamURL.
func DefaultCommand(goos string) []string {
	switch goos {
	case "windows":
		return []string{"cmd", "/c", "start", SteamURL}
	case "darwin":
		return []string{"open", SteamURL}
	default:
		return []string{"xdg-open", SteamURL}
	}
}

// Launcher runs the game command
type Launcher struct {
	command []string
	dir     string
	stdout  io.Writer
	stderr  io.Writer
}

// NewLauncher creates a launcher for command, run from dir. An empty command
// selects DefaultCommand for the current platform.
func NewLauncher(command []string, dir string) *Launcher {
	if len(command) == 0 {
		command = DefaultCommand(runtime.GOOS)
	}
	return &Launcher{
		command: command,
		dir:     dir,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// SetOutput redirects the output of the launched command.
func (l *Launcher) SetOutput(stdout, stderr io.Writer) {
	l.stdout = stdout
	l.stderr = stderr
}

// Command returns the command line the launcher runs.
func (l *Launcher) Command() []string {
	return append([]string(nil), l.command...)
}

// Launch runs the command and waits for it to exit. Platform launchers hand
// the game off to Steam and return right away.
func (l *Launcher) Launch(ctx context.Context) error {
	if l.command[0] == "" {
		return fmt.Errorf("game command cannot be empty")
	}

	cmd := exec.CommandContext(ctx, l.command[0], l.command[1:]...)
	cmd.Dir = l.dir
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to launch game with %q: %w", l.command[0], err)
	}
	return nil
}
