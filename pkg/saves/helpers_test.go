package saves

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/entrhq/saver/pkg/config"
)

type recorder struct {
	lines     []string
	listings  []*Listing
	greetings int
}

func (r *recorder) Relocating(from, to string) {
	r.lines = append(r.lines, fmt.Sprintf("relocate %s -> %s", from, to))
}

func (r *recorder) Moving(from, to string) {
	r.lines = append(r.lines, fmt.Sprintf("move %s -> %s", from, to))
}

func (r *recorder) Greeting() {
	r.greetings++
}

func (r *recorder) Infof(format string, args ...interface{}) {
	r.lines = append(r.lines, "info: "+fmt.Sprintf(format, args...))
}

func (r *recorder) Warningf(format string, args ...interface{}) {
	r.lines = append(r.lines, "warn: "+fmt.Sprintf(format, args...))
}

func (r *recorder) Listing(l *Listing) {
	r.listings = append(r.listings, l)
}

func (r *recorder) warnings() []string {
	var out []string
	for _, line := range r.lines {
		if len(line) > 6 && line[:6] == "warn: " {
			out = append(out, line[6:])
		}
	}
	return out
}

type funcMover func(src, dst string) error

func (f funcMover) Transfer(src, dst string) error {
	return f(src, dst)
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 9, 15, 0, 0, time.UTC)
}

type env struct {
	root  string
	cfg   *config.Config
	rec   *recorder
	store *Store
}

func newEnv(t *testing.T, mutate func(*config.Config), opts ...Option) *env {
	t.Helper()

	root := t.TempDir()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	cfg.Resolve(root)

	rec := &recorder{}
	store, err := New(cfg, append([]Option{WithNotifier(rec), WithClock(fixedClock)}, opts...)...)
	require.NoError(t, err)

	return &env{root: root, cfg: cfg, rec: rec, store: store}
}

func (e *env) working() string {
	return e.cfg.Paths.WorkingDir
}

func (e *env) slot(name string) string {
	return filepath.Join(e.cfg.Paths.SavesDir, name)
}

func (e *env) backup(name string) string {
	return filepath.Join(e.cfg.BackupDir(), name)
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(root, 0o755))
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// replaceTree swaps the contents of root for files, the way the game
// rewrites its save directory.
func replaceTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.RemoveAll(root))
	writeTree(t, root, files)
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}

// snapshot records every path under root with its contents, so tests can
// assert that nothing on disk changed.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	state := make(map[string]string)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		if info.IsDir() {
			state[filepath.ToSlash(rel)+"/"] = ""
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		state[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return state
}

func names(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}
