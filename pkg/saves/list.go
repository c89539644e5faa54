package saves

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/entrhq/saver/pkg/transfer"
)

// Entry is one save slot or backup entry.
type Entry struct {
	Name    string
	Path    string
	ModTime time.Time
}

// Listing holds the saves and backups found by List
type Listing struct {
	Saves   []Entry
	Backups []Entry
}

// Empty reports whether there are neither saves nor backups.
func (l *Listing) Empty() bool {
	return len(l.Saves) == 0 && len(l.Backups) == 0
}

// List enumerates the save slots and the backup entries, each sorted by name,
// and hands the result to the notifier. A non-empty pattern is a glob that
// names must match.
//
// Missing directories count as empty; the saves directory and the backup slot
// are created on the way when they are absent.
func (s *Store) List(pattern string) (*Listing, error) {
	var match glob.Glob
	if pattern != "" {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		match = g
	}

	saves, err := s.readEntries(s.savesDir, match, s.backupSlot)
	if err != nil {
		return nil, err
	}
	if saves == nil {
		if _, err := s.EnsureRoot(); err != nil {
			s.notify.Warningf("Could not list directory: Directory does not exist and could not be created.")
		}
	}

	backups, err := s.readEntries(s.backupDir, match, "")
	if err != nil {
		return nil, err
	}
	if backups == nil {
		if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
			s.notify.Warningf("Could not list directory: Directory does not exist and could not be created.")
		}
	}

	listing := &Listing{Saves: saves, Backups: backups}
	s.notify.Listing(listing)
	return listing, nil
}

// readEntries lists dir. It returns nil without error when dir is missing or
// unreadable for recoverable reasons, and an empty non-nil slice when dir
// exists but nothing matched.
func (s *Store) readEntries(dir string, match glob.Glob, skip string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		wrapped := transfer.Wrap(transfer.OpStat, dir, err)
		if transfer.IsRecoverable(wrapped) {
			s.report(wrapped)
			return []Entry{}, nil
		}
		return nil, wrapped
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if name == skip || strings.HasPrefix(name, transfer.StagePrefix) {
			continue
		}
		if match != nil && !match.Match(name) {
			continue
		}

		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, transfer.Wrap(transfer.OpStat, filepath.Join(dir, name), err)
		}

		entries = append(entries, Entry{
			Name:    name,
			Path:    filepath.Join(dir, name),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}
