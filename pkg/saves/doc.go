// Package saves implements named save slots on top of package transfer.
//
// A Store owns three locations, all resolved from config.Config:
//
//	<working>                       live progress, written by the game
//	<saves>/<name>                  a save slot
//	<saves>/<backup>/BACK.<name>.*  timestamped backups of overwritten slots
//
// Save copies the working directory into a slot, Load and Restore copy a slot
// or a backup entry over the working directory after parking current progress
// in <saves>/BACK. Every overwrite of a regular slot pushes the previous
// contents into the backup slot first.
//
// Not-found and permission failures are reported through the Notifier and
// returned; IsRecoverable tells them apart from I/O faults, which callers
// should treat as fatal.
package saves
