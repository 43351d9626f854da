package controller

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
)

// ErrPermissionDenied means the output location may not be written.
var ErrPermissionDenied = errors.New("storage permission denied")

// PermissionGate decides whether sessions may be written into dir.
type PermissionGate interface {
	Check(dir string) error
}

// DirGate grants access when dir is (or can be made) a writable directory.
type DirGate struct {
	// Create makes missing directories instead of denying.
	Create bool
}

type probeFile interface {
	io.WriteCloser
	Name() string
}

var createProbe = func(dir string) (probeFile, error) {
	return os.CreateTemp(dir, ".probe-*")
}

// Check probes dir by writing and removing a temporary file.
func (g DirGate) Check(dir string) error {
	st, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist) && g.Create:
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: create %s: %v", ErrPermissionDenied, dir, err)
		}
	case err != nil:
		return fmt.Errorf("%w: %s: %v", ErrPermissionDenied, dir, err)
	case !st.IsDir():
		return fmt.Errorf("%w: %s is not a directory", ErrPermissionDenied, dir)
	}

	f, err := createProbe(dir)
	if err != nil {
		return fmt.Errorf("%w: %s is not writable: %v", ErrPermissionDenied, dir, err)
	}
	name := f.Name()
	_, err = f.Write([]byte{0})
	err = multierr.Append(err, f.Close())
	_ = os.Remove(name)
	if err != nil {
		return fmt.Errorf("%w: %s is not writable: %v", ErrPermissionDenied, dir, err)
	}
	return nil
}

// AllowAll grants every request.
type AllowAll struct{}

func (AllowAll) Check(string) error { return nil }
