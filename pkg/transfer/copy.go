package transfer

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ownerDirPerm is always granted to the owner on copied directories
const ownerDirPerm = 0o700

// CopyTree copies the directory tree rooted at src to dst, which must not
// exist. File modes, symlinks and modification times are preserved.
// Directories keep their group and other permission bits, but the owner
// always gets rwx on them so the copy can later be replaced or removed.
func CopyTree(src, dst string) error {
	type dirAttrs struct {
		path    string
		mode    fs.FileMode
		modTime time.Time
	}
	var dirs []dirAttrs

	walkErr := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return Wrap(OpCopy, path, err)
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return Wrap(OpCopy, path, err)
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return Wrap(OpCopy, path, err)
		}

		switch {
		case d.IsDir():
			if err := os.Mkdir(target, info.Mode().Perm()|ownerDirPerm); err != nil {
				return Wrap(OpMkdir, target, err)
			}
			dirs = append(dirs, dirAttrs{path: target, mode: info.Mode().Perm() | ownerDirPerm, modTime: info.ModTime()})
		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return Wrap(OpCopy, path, err)
			}
			if err := os.Symlink(link, target); err != nil {
				return Wrap(OpCopy, target, err)
			}
		case info.Mode().IsRegular():
			if err := copyFile(path, target, info); err != nil {
				return err
			}
		default:
			// Sockets, devices and pipes have no place in a save directory
		}
		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	// Children are written after their parent, so restore directory attributes
	// last. Chmod is not subject to the umask, Mkdir is.
	for i := len(dirs) - 1; i >= 0; i-- {
		if err := os.Chmod(dirs[i].path, dirs[i].mode); err != nil {
			return Wrap(OpCopy, dirs[i].path, err)
		}
		if err := os.Chtimes(dirs[i].path, dirs[i].modTime, dirs[i].modTime); err != nil {
			return Wrap(OpCopy, dirs[i].path, err)
		}
	}
	return nil
}

func copyFile(src, dst string, info fs.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return Wrap(OpCopy, src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return Wrap(OpCopy, dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return Wrap(OpCopy, dst, err)
	}
	if err := out.Close(); err != nil {
		return Wrap(OpCopy, dst, err)
	}

	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return Wrap(OpCopy, dst, err)
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return Wrap(OpCopy, dst, err)
	}
	return nil
}
