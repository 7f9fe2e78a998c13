// Package fs writes output files atomically.
package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

var errAborted = errors.New("replacement aborted")

// Replacer is an io.WriteCloser that stages the new content of a file in a
// temporary file in the same directory.  Close moves it into place; Abort
// removes it and leaves any existing file untouched.
type Replacer struct {
	tmp  *os.File
	path string
	perm os.FileMode
	err  error
}

func NewReplacer(path string, perm os.FileMode) (*Replacer, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	if err != nil {
		return nil, err
	}
	return &Replacer{tmp: tmp, path: path, perm: perm}, nil
}

func (r *Replacer) Write(b []byte) (int, error) {
	n, err := r.tmp.Write(b)
	if err != nil && r.err == nil {
		r.err = err
	}
	return n, err
}

func (r *Replacer) Abort() {
	if r.err == nil {
		r.err = errAborted
	}
	r.finish()
}

func (r *Replacer) Close() error {
	return r.finish()
}

func (r *Replacer) finish() (err error) {
	defer func() {
		if err != nil {
			os.Remove(r.tmp.Name())
		}
	}()
	if err := r.tmp.Close(); err != nil {
		return err
	}
	if r.err != nil {
		return r.err
	}
	if err := os.Chmod(r.tmp.Name(), r.perm); err != nil {
		return err
	}
	return os.Rename(r.tmp.Name(), r.path)
}

// ReplaceFile replaces the file at path with what fn writes.  If fn fails,
// the file is left as it was.
func ReplaceFile(path string, perm os.FileMode, fn func(w io.Writer) error) error {
	r, err := NewReplacer(path, perm)
	if err != nil {
		return err
	}
	if err := fn(r); err != nil {
		r.Abort()
		return err
	}
	return r.Close()
}

// WriteFile atomically replaces the file at path with b.
func WriteFile(path string, b []byte, perm os.FileMode) error {
	return ReplaceFile(path, perm, func(w io.Writer) error {
		_, err := w.Write(b)
		return err
	})
}
