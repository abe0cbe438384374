// Package workspace guards an output directory so that two curator
// processes never write the same exports at once.
package workspace

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
)

// Lock is an exclusive advisory lock on an output directory.
type Lock struct {
	dir  string
	lock *flock.Flock
}

// Acquire creates dir if needed and takes its lock without waiting.
// It fails with errors.ErrLocked when another process holds it.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}

	path := filepath.Join(dir, constants.LockFile)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errors.WrapIO("lock", path, err)
	}
	if !ok {
		return nil, &errors.IOError{
			Operation: "lock",
			Path:      path,
			Message:   "output directory is in use by another process",
			Err:       errors.ErrLocked,
		}
	}
	return &Lock{dir: dir, lock: fl}, nil
}

// Dir returns the locked directory.
func (l *Lock) Dir() string {
	return l.dir
}

// Path joins name onto the locked directory.
func (l *Lock) Path(name string) string {
	return filepath.Join(l.dir, name)
}

// Release drops the lock. The lock file stays behind.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return errors.WrapIO("unlock", l.lock.Path(), l.lock.Unlock())
}
