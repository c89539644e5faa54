package saves

import (
	"errors"

	"github.com/entrhq/saver/pkg/transfer"
)

var (
	// ErrSlotNotFound is returned when loading a save that does not exist
	ErrSlotNotFound = errors.New("save not found")
	// ErrInvalidName is returned for names that are not a single path segment
	ErrInvalidName = errors.New("invalid save name")
	// ErrReservedName is returned for names the backup machinery owns
	ErrReservedName = errors.New("reserved save name")
	// ErrBackupFailed is returned when load aborts because current progress
	// could not be backed up
	ErrBackupFailed = errors.New("backup of current progress failed")
	// ErrScheduleExhausted is returned by Autosave when the schedule has no
	// further activation
	ErrScheduleExhausted = errors.New("autosave schedule never fires again")
)

// IsRecoverable reports whether err was already reported to the user as a
// warning and should not terminate the process.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	return transfer.IsRecoverable(err) ||
		errors.Is(err, ErrSlotNotFound) ||
		errors.Is(err, ErrBackupFailed)
}
