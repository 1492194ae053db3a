package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/LanDrop/backend/internal/shared/types"
	"github.com/GriffinCanCode/LanDrop/backend/internal/storage/filename"
)

// Part is one uploaded file as received from the transport.
type Part struct {
	// Filename is the raw filename from the part header.
	Filename string
	// RelativePath is the optional folder-preserving path for this part.
	RelativePath string
	// ContentType is the part header content type, used when sniffing is
	// inconclusive.
	ContentType string
	// Size is the declared size, or -1 when unknown.
	Size int64
	Body io.Reader
}

// TargetPath returns the decoded original name and the relative path the
// part will be stored at.
func (p Part) TargetPath() (name, target string) {
	name = filename.Decode(p.Filename)
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))

	target = name
	if rel := filename.Decode(p.RelativePath); rel != "" && rel != name {
		target = rel
	}
	return name, target
}

// Staged is an uploaded part whose bytes sit in a hidden temp file under
// the root, waiting for Commit to move them to their target path.
type Staged struct {
	filename    string
	contentType string
	tmp         string
	size        int64
}

// Size returns the number of bytes received.
func (st *Staged) Size() int64 { return st.size }

// Save stores one part under the root, creating intermediate directories
// and overwriting any existing file at the target path. Bytes are written
// to a temporary file first and renamed into place, so a failed part never
// leaves a truncated target behind. Parts saved earlier in the same batch
// are not rolled back.
func (s *Store) Save(ctx context.Context, p Part) (*types.UploadedFile, error) {
	st, err := s.Stage(ctx, p)
	if err != nil {
		return nil, err
	}
	defer s.Discard(st)
	return s.Commit(st, p.RelativePath)
}

// Stage copies the part body into a temp file. Reading stops one byte past
// the size limit, so an oversized part is rejected without consuming the
// rest of its body.
func (s *Store) Stage(ctx context.Context, p Part) (*Staged, error) {
	name, _ := p.TargetPath()
	if name == "" || name == "." || name == "/" {
		return nil, opErr("upload", "", ErrValidation, errors.New("missing file name"))
	}
	if p.Size > s.maxFileSize {
		return nil, opErr("upload", name, ErrFileTooLarge, fmt.Errorf("%d bytes exceeds %d", p.Size, s.maxFileSize))
	}

	tmp, err := os.CreateTemp(s.root.Dir(), tempPattern)
	if err != nil {
		return nil, opErr("upload", name, ErrIO, err)
	}
	tmpName := tmp.Name()
	staged := false
	defer func() {
		if !staged {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, io.LimitReader(p.Body, s.maxFileSize+1))
	if err != nil {
		return nil, opErr("upload", name, ErrIO, err)
	}
	if n > s.maxFileSize {
		return nil, opErr("upload", name, ErrFileTooLarge, fmt.Errorf("more than %d bytes", s.maxFileSize))
	}
	if err := ctx.Err(); err != nil {
		return nil, opErr("upload", name, ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, opErr("upload", name, ErrIO, err)
	}
	staged = true

	return &Staged{
		filename:    p.Filename,
		contentType: detectType(tmpName, p.ContentType),
		tmp:         tmpName,
		size:        n,
	}, nil
}

// Commit moves a staged part to relPath (or to its own name when relPath
// is empty or equal to it), overwriting any file already there.
func (s *Store) Commit(st *Staged, relPath string) (*types.UploadedFile, error) {
	if st.tmp == "" {
		return nil, opErr("upload", "", ErrValidation, errors.New("part already committed or discarded"))
	}
	name, target := Part{Filename: st.filename, RelativePath: relPath}.TargetPath()

	abs, err := s.root.Resolve(target)
	if err != nil {
		return nil, err
	}
	if abs == s.root.Dir() {
		return nil, opErr("upload", target, ErrValidation, errors.New("target is the storage root"))
	}
	rel := s.root.Rel(abs)

	unlock := s.locks.Lock(abs)
	defer unlock()

	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return nil, opErr("upload", rel, ErrValidation, errors.New("a directory exists at this path"))
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, opErr("upload", rel, ErrIO, err)
	}
	if err := os.Rename(st.tmp, abs); err != nil {
		return nil, opErr("upload", rel, ErrIO, err)
	}
	st.tmp = ""

	s.logger.Debug("Stored upload",
		zap.String("name", name),
		zap.String("path", rel),
		zap.Int64("size", st.size),
	)

	return &types.UploadedFile{
		OriginalName: name,
		Filename:     filepath.Base(abs),
		RelativePath: rel,
		FullPath:     abs,
		Size:         st.size,
		Mimetype:     st.contentType,
		UploadTime:   time.Now().UTC(),
	}, nil
}

// Discard removes the temp file of a part that was not committed.
func (s *Store) Discard(st *Staged) {
	if st == nil || st.tmp == "" {
		return
	}
	if err := os.Remove(st.tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("Failed to remove staged upload", zap.String("file", st.tmp), zap.Error(err))
	}
	st.tmp = ""
}

// detectType sniffs the stored bytes and falls back to the declared type
// when sniffing only finds a generic binary.
func detectType(file, declared string) string {
	mtype, err := mimetype.DetectFile(file)
	if err != nil {
		if declared != "" {
			return declared
		}
		return "application/octet-stream"
	}
	if mtype.Is("application/octet-stream") && declared != "" {
		return declared
	}
	return mtype.String()
}
