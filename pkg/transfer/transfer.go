package transfer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
)

const (
	// DefaultMarker prefixes every backup entry name
	DefaultMarker = "BACK"

	// StagePrefix names the temporary directories a transfer copies into
	StagePrefix = ".saver-stage-"

	backupTimeLayout = "15_04_05"
)

// Reporter receives a line of progress for every relocation a transfer makes.
type Reporter interface {
	// Relocating is called before a displaced destination is moved to backup
	Relocating(from, to string)
	// Moving is called before the source is copied onto the destination
	Moving(from, to string)
}

type nopReporter struct{}

func (nopReporter) Relocating(string, string) {}
func (nopReporter) Moving(string, string)     {}

// Mover performs transfers between directories that share one backup
// directory and one working directory.
type Mover struct {
	backupDir  string
	workingDir string
	stageDir   string
	marker     string
	markerGlob glob.Glob
	reporter   Reporter
	now        func() time.Time
}

// Option configures a Mover.
type Option func(*Mover)

// WithStageDir sets the directory staging copies are created in.
// It defaults to the process working directory.
func WithStageDir(dir string) Option {
	return func(m *Mover) {
		m.stageDir = dir
	}
}

// WithMarker sets the reserved backup marker. Destinations whose base name is
// the marker, or starts with the marker followed by a dot, are never backed up.
func WithMarker(marker string) Option {
	return func(m *Mover) {
		m.marker = marker
	}
}

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) Option {
	return func(m *Mover) {
		if r != nil {
			m.reporter = r
		}
	}
}

// WithClock overrides the time source used to name backup entries.
func WithClock(now func() time.Time) Option {
	return func(m *Mover) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMover creates a Mover that backs displaced destinations up into
// backupDir and never backs up workingDir itself.
func NewMover(backupDir, workingDir string, opts ...Option) (*Mover, error) {
	if backupDir == "" {
		return nil, fmt.Errorf("backup directory cannot be empty")
	}
	if workingDir == "" {
		return nil, fmt.Errorf("working directory cannot be empty")
	}

	m := &Mover{
		backupDir:  filepath.Clean(backupDir),
		workingDir: filepath.Clean(workingDir),
		stageDir:   ".",
		marker:     DefaultMarker,
		reporter:   nopReporter{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.marker == "" || strings.ContainsAny(m.marker, `/\`) {
		return nil, fmt.Errorf("invalid backup marker %q", m.marker)
	}

	quoted := glob.QuoteMeta(m.marker)
	g, err := glob.Compile("{" + quoted + "," + quoted + ".*}")
	if err != nil {
		return nil, fmt.Errorf("failed to compile backup marker %q: %w", m.marker, err)
	}
	m.markerGlob = g

	return m, nil
}

// IsMarked reports whether name carries the reserved backup marker.
func (m *Mover) IsMarked(name string) bool {
	return m.markerGlob.Match(name)
}

// Exempt reports whether an existing dst is overwritten without a backup.
// Only the exact working directory path is exempt, not paths beneath it.
func (m *Mover) Exempt(dst string) bool {
	dst = filepath.Clean(dst)
	if dst == m.workingDir {
		return true
	}
	if within(m.backupDir, dst) {
		return true
	}
	return m.IsMarked(filepath.Base(dst))
}

// Transfer copies the tree at src onto dst. An existing dst is first moved to
// a new backup entry unless it is exempt, and then removed. src is left intact.
//
// When src is missing or not a directory the returned error has KindNotFound
// and dst is untouched.
func (m *Mover) Transfer(src, dst string) error {
	resolved, err := resolveSource(src)
	if err != nil {
		return err
	}

	exists, err := pathExists(dst)
	if err != nil {
		return err
	}

	if exists {
		if !m.Exempt(dst) {
			backup, err := m.backupTarget(dst)
			if err != nil {
				return err
			}
			m.reporter.Relocating(dst, backup)
			if err := m.place(dst, backup); err != nil {
				return err
			}
		}
		if err := os.RemoveAll(dst); err != nil {
			return Wrap(OpRemove, dst, err)
		}
	}

	m.reporter.Moving(src, dst)
	return m.place(resolved, dst)
}

// place copies src into a fresh staging directory and renames it onto dst,
// which must not exist.
func (m *Mover) place(src, dst string) error {
	stage := filepath.Join(m.stageDir, StagePrefix+uuid.NewString())

	if err := CopyTree(src, stage); err != nil {
		_ = os.RemoveAll(stage)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		_ = os.RemoveAll(stage)
		return Wrap(OpMkdir, filepath.Dir(dst), err)
	}

	if err := os.Rename(stage, dst); err != nil {
		_ = os.RemoveAll(stage)
		return Wrap(OpRename, dst, err)
	}
	return nil
}

// backupTarget names a backup entry for dst that does not exist yet.
// Entries created within the same second get a numeric suffix.
func (m *Mover) backupTarget(dst string) (string, error) {
	base := fmt.Sprintf("%s.%s.%s", m.marker, filepath.Base(dst), m.now().Format(backupTimeLayout))
	candidate := filepath.Join(m.backupDir, base)

	for n := 2; ; n++ {
		exists, err := pathExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = filepath.Join(m.backupDir, fmt.Sprintf("%s-%d", base, n))
	}
}

func resolveSource(src string) (string, error) {
	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return "", Wrap(OpStat, src, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", Wrap(OpStat, src, err)
	}
	if !info.IsDir() {
		return "", Wrap(OpStat, src, ErrNotDirectory)
	}
	return resolved, nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, Wrap(OpStat, path, err)
}

// within reports whether path is root or lies beneath it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
