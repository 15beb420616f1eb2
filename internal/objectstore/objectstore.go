// Package objectstore locates and removes dataset files on a filesystem.
//
// Files follow the hashed directory layout "000/dataset_<id>.dat", the
// directory being the id divided by 1000. Extra files of a dataset live in
// "000/dataset_<id>_files".
package objectstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	dirPerm        = 0o750
	filePerm       = 0o640
	idsPerDir      = 1000
	defaultStoreID = "files"
)

// Store keeps dataset files below a root directory of an afero filesystem.
type Store struct {
	fs afero.Fs
	// root is the store directory as seen by fs.
	root string
	// location is the store directory reported to callers.
	location string
	id       string
}

// New returns a store rooted at root on fsys.
func New(fsys afero.Fs, root string) *Store {
	return &Store{fs: fsys, root: root, location: root, id: defaultStoreID}
}

// NewDisk returns a store on the operating system filesystem confined to root.
func NewDisk(root string) (*Store, error) {
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create object store %s: %w", root, err)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve object store %s: %w", root, err)
	}

	return &Store{
		fs:       afero.NewBasePathFs(afero.NewOsFs(), abs),
		root:     string(filepath.Separator),
		location: abs,
		id:       defaultStoreID,
	}, nil
}

// ID names the store. It is recorded on every dataset created through the manager.
func (s *Store) ID() string {
	return s.id
}

// Path returns the path of the dataset file relative to the store root.
func (s *Store) Path(id uint64) string {
	return filepath.Join(bucket(id), fmt.Sprintf("dataset_%d.dat", id))
}

// ExtraFilesPath returns the relative path of the directory holding the extra files.
func (s *Store) ExtraFilesPath(id uint64) string {
	return filepath.Join(bucket(id), fmt.Sprintf("dataset_%d_files", id))
}

// FullPath returns the location of the dataset file including the store directory.
func (s *Store) FullPath(id uint64) string {
	return filepath.Join(s.location, s.Path(id))
}

// FullExtraFilesPath returns the location of the extra files directory.
func (s *Store) FullExtraFilesPath(id uint64) string {
	return filepath.Join(s.location, s.ExtraFilesPath(id))
}

func (s *Store) filePath(id uint64) string {
	return filepath.Join(s.root, s.Path(id))
}

func (s *Store) extraPath(id uint64) string {
	return filepath.Join(s.root, s.ExtraFilesPath(id))
}

// Exists reports whether the dataset file is present.
func (s *Store) Exists(id uint64) (bool, error) {
	ok, err := afero.Exists(s.fs, s.filePath(id))
	if err != nil {
		return false, fmt.Errorf("failed to stat dataset %d: %w", id, err)
	}

	return ok, nil
}

// Size returns the size of the dataset file in bytes.
func (s *Store) Size(id uint64) (int64, error) {
	info, err := s.fs.Stat(s.filePath(id))
	if err != nil {
		return 0, fmt.Errorf("failed to stat dataset %d: %w", id, err)
	}

	return info.Size(), nil
}

// TotalSize returns the size of the dataset file plus all extra files.
func (s *Store) TotalSize(id uint64) (int64, error) {
	total, err := s.Size(id)
	if err != nil {
		return 0, err
	}

	err = afero.Walk(s.fs, s.extraPath(id), func(_ string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			total += info.Size()
		}

		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("failed to walk extra files of dataset %d: %w", id, err)
	}

	return total, nil
}

// Write stores the content of r as the dataset file and returns the bytes written.
func (s *Store) Write(id uint64, r io.Reader) (int64, error) {
	full := s.filePath(id)

	if err := s.fs.MkdirAll(filepath.Dir(full), dirPerm); err != nil {
		return 0, fmt.Errorf("failed to create directory for dataset %d: %w", id, err)
	}

	f, err := s.fs.OpenFile(full, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return 0, fmt.Errorf("failed to open dataset %d: %w", id, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return n, fmt.Errorf("failed to write dataset %d: %w", id, err)
	}

	return n, nil
}

// Remove deletes the dataset file and its extra files. Missing files are ignored.
func (s *Store) Remove(id uint64) error {
	if err := s.fs.Remove(s.filePath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove dataset %d: %w", id, err)
	}

	if err := s.fs.RemoveAll(s.extraPath(id)); err != nil {
		return fmt.Errorf("failed to remove extra files of dataset %d: %w", id, err)
	}

	return nil
}

func bucket(id uint64) string {
	return fmt.Sprintf("%03d", id/idsPerDir)
}
