package storage

import (
	"errors"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/LanDrop/backend/internal/shared/types"
)

// Open opens the regular file at rel for reading.
func (s *Store) Open(rel string) (*os.File, fs.FileInfo, error) {
	abs, err := s.root.Resolve(rel)
	if err != nil {
		return nil, nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, opErr("download", rel, ErrNotFound, nil)
		}
		return nil, nil, opErr("download", rel, ErrIO, err)
	}
	if info.IsDir() {
		return nil, nil, opErr("download", rel, ErrValidation, errors.New("path is a directory"))
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, nil, opErr("download", rel, ErrIO, err)
	}
	return f, info, nil
}

// Delete removes the file or directory at rel. Directories are removed
// with all their contents. The root itself cannot be deleted.
func (s *Store) Delete(rel string) (types.EntryType, error) {
	abs, err := s.root.Resolve(rel)
	if err != nil {
		return "", err
	}
	if abs == s.root.Dir() {
		return "", opErr("delete", rel, ErrForbidden, errors.New("cannot delete the storage root"))
	}

	unlock := s.locks.Lock(abs)
	defer unlock()

	info, err := os.Lstat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", opErr("delete", rel, ErrNotFound, nil)
		}
		return "", opErr("delete", rel, ErrIO, err)
	}

	kind := types.TypeFile
	if info.IsDir() {
		kind = types.TypeDirectory
		err = os.RemoveAll(abs)
	} else {
		err = os.Remove(abs)
	}
	if err != nil {
		return "", opErr("delete", rel, ErrIO, err)
	}

	s.logger.Info("Deleted entry", zap.String("path", s.root.Rel(abs)), zap.String("type", string(kind)))
	return kind, nil
}
