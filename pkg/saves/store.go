package saves

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/saver/pkg/config"
	"github.com/entrhq/saver/pkg/logging"
	"github.com/entrhq/saver/pkg/transfer"
)

// Notifier is the user-facing side of a Store.
type Notifier interface {
	transfer.Reporter

	// Greeting is shown once, when the saves directory is first created
	Greeting()
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	// Listing prints the result of List
	Listing(l *Listing)
}

type nopNotifier struct{}

func (nopNotifier) Relocating(string, string)       {}
func (nopNotifier) Moving(string, string)           {}
func (nopNotifier) Greeting()                       {}
func (nopNotifier) Infof(string, ...interface{})    {}
func (nopNotifier) Warningf(string, ...interface{}) {}
func (nopNotifier) Listing(*Listing)                {}

// transferer is the part of transfer.Mover the store drives
type transferer interface {
	Transfer(src, dst string) error
}

// Store manages the save slots of one working directory.
type Store struct {
	workingDir string
	savesDir   string
	backupDir  string
	backupSlot string
	marker     string
	policy     config.BackupPolicy

	marks  *transfer.Mover
	mover  transferer
	notify Notifier
	log    *logging.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets where progress, warnings and listings are reported.
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notify = n
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source used for backup names and autosave.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// withMover replaces the transfer implementation
func withMover(wrap func(transferer) transferer) Option {
	return func(s *Store) {
		s.mover = wrap(s.mover)
	}
}

// New creates a Store for cfg, whose paths should already be resolved.
func New(cfg *config.Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &Store{
		workingDir: filepath.Clean(cfg.Paths.WorkingDir),
		savesDir:   filepath.Clean(cfg.Paths.SavesDir),
		backupDir:  filepath.Clean(cfg.BackupDir()),
		backupSlot: cfg.Paths.BackupSlot,
		marker:     cfg.Backup.Marker,
		policy:     cfg.Backup.OnFailure,
		notify:     nopNotifier{},
		log:        logging.Discard("store"),
		now:        time.Now,
	}

	mover, err := transfer.NewMover(s.backupDir, s.workingDir,
		transfer.WithStageDir(cfg.Paths.StageDir),
		transfer.WithMarker(s.marker),
		transfer.WithReporter(progress{store: s}),
		transfer.WithClock(func() time.Time { return s.now() }),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mover: %w", err)
	}
	s.marks = mover
	s.mover = mover

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// WorkingDir returns the live progress directory.
func (s *Store) WorkingDir() string {
	return s.workingDir
}

// BackupDir returns the backup slot directory.
func (s *Store) BackupDir() string {
	return s.backupDir
}

// SlotPath returns the directory of the named save slot.
func (s *Store) SlotPath(name string) string {
	return filepath.Join(s.savesDir, name)
}

// EnsureRoot creates the saves directory and the backup slot together when
// the saves directory does not exist yet. It reports whether it created them.
// An existing saves directory is left alone even if the backup slot is missing.
func (s *Store) EnsureRoot() (bool, error) {
	if _, err := os.Stat(s.savesDir); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, transfer.Wrap(transfer.OpStat, s.savesDir, err)
	}

	if err := os.MkdirAll(s.savesDir, 0o755); err != nil {
		return false, transfer.Wrap(transfer.OpMkdir, s.savesDir, err)
	}
	if err := os.Mkdir(s.backupDir, 0o755); err != nil {
		return false, transfer.Wrap(transfer.OpMkdir, s.backupDir, err)
	}

	s.notify.Infof("Folder '%s' created.", s.savesDir)
	s.notify.Infof("Folder '%s' created.", s.backupDir)
	s.log.Infof("created saves directory %s", s.savesDir)
	return true, nil
}

// Save copies the working directory into the named slot. A slot that already
// exists is moved into the backup slot first.
func (s *Store) Save(name string) error {
	if err := s.validateSaveName(name); err != nil {
		return err
	}

	created, err := s.EnsureRoot()
	if err != nil {
		return s.report(err)
	}
	if created {
		s.notify.Greeting()
	}

	dst := s.SlotPath(name)
	s.notify.Infof("Saving to: %s", dst)
	s.log.Infof("save %q: %s -> %s", name, s.workingDir, dst)

	return s.transfer(s.workingDir, dst)
}

// Load replaces the working directory with the named slot. Current progress
// is parked in <saves>/BACK first, unless the slot being loaded is BACK itself.
//
// When the slot does not exist the saves are listed instead and nothing on
// disk changes.
func (s *Store) Load(name string) error {
	if err := s.validateName(name); err != nil {
		return err
	}

	s.notify.Infof("Loading from save: %s", name)

	src := s.SlotPath(name)
	if !isDir(src) {
		s.notify.Warningf("The name you chose was not found.")
		if _, err := s.List(""); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrSlotNotFound, name)
	}

	return s.install(src, name != s.marker)
}

// Restore replaces the working directory with an entry of the backup slot,
// parking current progress in <saves>/BACK first.
func (s *Store) Restore(entry string) error {
	if !isSegment(entry) {
		return fmt.Errorf("%w: %q", ErrInvalidName, entry)
	}

	s.notify.Infof("Restoring backup: %s", entry)

	src := filepath.Join(s.backupDir, entry)
	if !isDir(src) {
		s.notify.Warningf("The backup you chose was not found.")
		if _, err := s.List(""); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrSlotNotFound, entry)
	}

	return s.install(src, true)
}

// install copies src over the working directory, optionally parking the
// current working directory in <saves>/BACK before.
func (s *Store) install(src string, backupFirst bool) error {
	if backupFirst {
		backup := s.SlotPath(s.marker)
		s.notify.Infof("Saving current save to backup file: %s -> %s", s.workingDir, backup)

		if err := s.transfer(s.workingDir, backup); err != nil {
			if !transfer.IsRecoverable(err) {
				return err
			}
			if s.policy == config.PolicyAbort && isDir(s.workingDir) {
				s.notify.Warningf("Load aborted: current progress could not be backed up.")
				s.log.Warnf("load of %s aborted by backup policy: %v", src, err)
				return fmt.Errorf("%w: %w", ErrBackupFailed, err)
			}
			s.log.Warnf("backup before load failed, continuing: %v", err)
		}
	}

	s.notify.Infof("Loading file: %s -> %s", src, s.workingDir)
	s.log.Infof("load: %s -> %s", src, s.workingDir)

	return s.transfer(src, s.workingDir)
}

// Delete removes the named slot and a backup entry of the same name. Names
// that exist in neither place are ignored.
func (s *Store) Delete(name string) error {
	if err := s.validateName(name); err != nil {
		return err
	}

	for _, path := range []string{s.SlotPath(name), filepath.Join(s.backupDir, name)} {
		if _, err := os.Lstat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return s.report(transfer.Wrap(transfer.OpStat, path, err))
		}

		s.notify.Infof("Removing %s", path)
		s.log.Infof("delete %q: removing %s", name, path)
		if err := os.RemoveAll(path); err != nil {
			return s.report(transfer.Wrap(transfer.OpRemove, path, err))
		}
	}
	return nil
}

// transfer runs one transfer and reports recoverable failures as warnings.
func (s *Store) transfer(src, dst string) error {
	err := s.mover.Transfer(src, dst)
	if err != nil {
		s.log.Errorf("transfer %s -> %s: %v", src, dst, err)
		return s.report(err)
	}
	return nil
}

// report turns recoverable errors into user warnings. The error is returned
// either way.
func (s *Store) report(err error) error {
	var te *transfer.Error
	if !errors.As(err, &te) {
		return err
	}

	switch te.Kind {
	case transfer.KindNotFound:
		s.notify.Warningf("Source file not found: %s", te.Path)
	case transfer.KindPermission:
		s.notify.Warningf("Permission error on %s. Make sure you have the required permissions.", te.Path)
	}
	return err
}

// validateName accepts single path segments other than the backup slot.
func (s *Store) validateName(name string) error {
	if !isSegment(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if name == s.backupSlot {
		return fmt.Errorf("%w: %q is the backup slot", ErrReservedName, name)
	}
	return nil
}

// validateSaveName additionally rejects names carrying the backup marker,
// since marked destinations are overwritten without a backup.
func (s *Store) validateSaveName(name string) error {
	if err := s.validateName(name); err != nil {
		return err
	}
	if s.marks.IsMarked(name) {
		return fmt.Errorf("%w: %q carries the backup marker %q", ErrReservedName, name, s.marker)
	}
	return nil
}

func isSegment(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// progress forwards transfer progress to the notifier and the session log
type progress struct {
	store *Store
}

func (p progress) Relocating(from, to string) {
	p.store.log.Infof("backing up %s -> %s", from, to)
	p.store.notify.Relocating(from, to)
}

func (p progress) Moving(from, to string) {
	p.store.log.Infof("moving %s -> %s", from, to)
	p.store.notify.Moving(from, to)
}
