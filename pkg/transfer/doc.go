// Package transfer relocates directory trees without silently losing whatever
// already occupies the destination.
//
// A transfer copies the source tree into a staging directory and then renames
// the staging directory onto the destination, so the destination is only
// replaced once the full copy has succeeded. When the destination already
// exists it is first relocated into a backup directory under a timestamped
// name:
//
//	saves/one            -> saves/autosave/BACK.one.14_03_22
//	save00               -> saves/one
//
// The backup relocation is a single extra step, never a cascade. A destination
// is exempt from backup when it is the working directory, lives inside the
// backup directory, or carries the reserved backup marker as its base name.
//
// The source of a transfer is left intact.
//
// Errors are classified into three kinds. KindNotFound and KindPermission are
// recoverable: callers are expected to report them and stop the current
// operation. KindIO covers every other failure and should propagate.
package transfer
