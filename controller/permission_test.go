package controller

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/multierr"
	"go.viam.com/test"
)

func TestDirGate(t *testing.T) {
	dir := t.TempDir()
	test.That(t, DirGate{}.Check(dir), test.ShouldBeNil)

	missing := filepath.Join(dir, "sub", "dir")
	err := DirGate{}.Check(missing)
	test.That(t, errors.Is(err, ErrPermissionDenied), test.ShouldBeTrue)

	test.That(t, DirGate{Create: true}.Check(missing), test.ShouldBeNil)
	st, err := os.Stat(missing)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, st.IsDir(), test.ShouldBeTrue)

	file := filepath.Join(dir, "plain")
	test.That(t, os.WriteFile(file, nil, 0644), test.ShouldBeNil)
	err = DirGate{Create: true}.Check(file)
	test.That(t, errors.Is(err, ErrPermissionDenied), test.ShouldBeTrue)

	// probe file is cleaned up
	ents, _ := os.ReadDir(dir)
	test.That(t, ents, test.ShouldHaveLength, 2)
}

type failingCloseFile struct {
	*os.File
}

func (f failingCloseFile) Close() error {
	return multierr.Append(f.File.Close(), errDiskFull)
}

func TestDirGateReportsCloseFailure(t *testing.T) {
	orig := createProbe
	defer func() { createProbe = orig }()
	createProbe = func(dir string) (probeFile, error) {
		f, err := os.CreateTemp(dir, ".probe-*")
		if err != nil {
			return nil, err
		}
		return failingCloseFile{f}, nil
	}

	dir := t.TempDir()
	err := DirGate{}.Check(dir)
	test.That(t, errors.Is(err, ErrPermissionDenied), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "disk full")

	ents, _ := os.ReadDir(dir)
	test.That(t, ents, test.ShouldHaveLength, 0)
}
