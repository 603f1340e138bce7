package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
)

// File represents an open file.
type File interface {
	io.WriteCloser
	Sync() error
}

// FileSystem abstracts file system operations for testability.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
}

// LocalFS implements FileSystem using the local os package.
type LocalFS struct{}

func (LocalFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(name, flag, perm)
}

func (LocalFS) Remove(name string) error              { return os.Remove(name) }
func (LocalFS) Rename(oldpath, newpath string) error  { return os.Rename(oldpath, newpath) }
func (LocalFS) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }
func (LocalFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Default is the default local file system.
var Default FileSystem = LocalFS{}

// TempSuffix marks in-flight files written by CreateAtomic.
const TempSuffix = ".tmp"

var tempSeq atomic.Uint64

// AtomicFile writes to a temporary sibling and renames it over the target on Commit.
type AtomicFile struct {
	fsys FileSystem
	f    File
	tmp  string
	path string
	done bool
}

// CreateAtomic starts an atomic write of path, creating parent directories.
func CreateAtomic(fsys FileSystem, path string, perm os.FileMode) (*AtomicFile, error) {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	tmp := path + "." + strconv.FormatUint(tempSeq.Add(1), 10) + TempSuffix
	f, err := fsys.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return nil, err
	}
	return &AtomicFile{fsys: fsys, f: f, tmp: tmp, path: path}, nil
}

// Write implements io.Writer.
func (a *AtomicFile) Write(p []byte) (int, error) {
	return a.f.Write(p)
}

// Sync flushes the temporary file.
func (a *AtomicFile) Sync() error {
	return a.f.Sync()
}

// Commit syncs, closes and publishes the file. On error the temporary file is removed.
func (a *AtomicFile) Commit() error {
	if a.done {
		return errors.New("fs: atomic file already finished")
	}
	a.done = true

	if err := a.f.Sync(); err != nil {
		_ = a.f.Close()
		_ = a.fsys.Remove(a.tmp)
		return err
	}
	if err := a.f.Close(); err != nil {
		_ = a.fsys.Remove(a.tmp)
		return err
	}
	if err := a.fsys.Rename(a.tmp, a.path); err != nil {
		_ = a.fsys.Remove(a.tmp)
		return err
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (a *AtomicFile) Abort() error {
	if a.done {
		return nil
	}
	a.done = true
	_ = a.f.Close()
	return a.fsys.Remove(a.tmp)
}

// WriteFileAtomic writes data to path so that path either keeps its old content
// or holds all of data.
func WriteFileAtomic(fsys FileSystem, path string, data []byte, perm os.FileMode) error {
	a, err := CreateAtomic(fsys, path, perm)
	if err != nil {
		return err
	}
	if _, err := a.Write(data); err != nil {
		_ = a.Abort()
		return err
	}
	return a.Commit()
}
