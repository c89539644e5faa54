package game

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCommand(t *testing.T) {
	tests := []struct {
		goos string
		want []string
	}{
		{"windows", []string{"cmd", "/c", "start", SteamURL}},
		{"darwin", []string{"open", SteamURL}},
		{"linux", []string{"xdg-open", SteamURL}},
		{"freebsd", []string{"xdg-open", SteamURL}},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultCommand(tt.goos))
		})
	}
}

func TestNewLauncher_DefaultsToPlatformCommand(t *testing.T) {
	l := NewLauncher(nil, "")
	assert.Equal(t, DefaultCommand(runtime.GOOS), l.Command())
}

func TestLauncher_Launch(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	dir := t.TempDir()
	l := NewLauncher([]string{"sh", "-c", "pwd; echo launched"}, dir)
	var stdout, stderr bytes.Buffer
	l.SetOutput(&stdout, &stderr)

	require.NoError(t, l.Launch(context.Background()))
	assert.Contains(t, stdout.String(), "launched")
	assert.Empty(t, stderr.String())
}

func TestLauncher_LaunchFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	l := NewLauncher([]string{"sh", "-c", "exit 3"}, "")
	l.SetOutput(&bytes.Buffer{}, &bytes.Buffer{})

	err := l.Launch(context.Background())

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestLauncher_EmptyCommand(t *testing.T) {
	l := NewLauncher([]string{""}, "")
	assert.Error(t, l.Launch(context.Background()))
}

func TestLauncher_MissingBinary(t *testing.T) {
	l := NewLauncher([]string{"definitely-not-a-real-game-binary"}, "")
	l.SetOutput(&bytes.Buffer{}, &bytes.Buffer{})

	assert.Error(t, l.Launch(context.Background()))
}
