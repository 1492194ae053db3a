package client

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/GriffinCanCode/LanDrop/backend/internal/shared/id"
	"github.com/GriffinCanCode/LanDrop/backend/internal/shared/types"
)

// Status is the state of one queued file.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
)

// UploadItem is a local file queued for upload.
type UploadItem struct {
	ID           id.UploadID
	Path         string
	RelativePath string
	Size         int64
	Status       Status
	// Progress is the batch percentage, shared by every item.
	Progress int
	// BatchID is set once the item has been part of an upload request.
	BatchID id.BatchID
}

// ErrBatchBusy is returned when the batch is modified during an upload.
var ErrBatchBusy = errors.New("upload in progress")

// Batch collects files that are sent together in one request.
type Batch struct {
	mu        sync.Mutex
	client    *Client
	items     []*UploadItem
	excludes  []string
	uploading bool
}

// NewBatch creates an empty batch. Excludes are doublestar globs matched
// against relative paths, e.g. "**/.DS_Store".
func NewBatch(c *Client, excludes ...string) (*Batch, error) {
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return &Batch{client: c, excludes: excludes}, nil
}

func (b *Batch) excluded(rel string) bool {
	for _, pattern := range b.excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// AddFile queues a single file under its base name.
func (b *Batch) AddFile(path string) (*UploadItem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.uploading {
		return nil, ErrBatchBusy
	}
	return b.add(path, info.Name(), info.Size()), nil
}

// AddDir queues every regular file below dir. Relative paths start with
// the folder's own name so the structure is recreated on the server.
func (b *Batch) AddDir(dir string) (int, error) {
	dir = filepath.Clean(dir)
	base := filepath.Base(dir)

	type found struct {
		path, rel string
		size      int64
	}
	var files []found

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		inner, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel := base
		if inner != "." {
			rel = base + "/" + filepath.ToSlash(inner)
		}
		if b.excluded(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, found{path: path, rel: rel, size: info.Size()})
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", dir, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.uploading {
		return 0, ErrBatchBusy
	}
	for _, f := range files {
		b.add(f.path, f.rel, f.size)
	}
	return len(files), nil
}

// add replaces a queued item with the same relative path.
func (b *Batch) add(path, rel string, size int64) *UploadItem {
	item := &UploadItem{
		ID:           id.NewUploadID(),
		Path:         path,
		RelativePath: rel,
		Size:         size,
		Status:       StatusPending,
	}
	for i, existing := range b.items {
		if existing.RelativePath == rel {
			b.items[i] = item
			return item
		}
	}
	b.items = append(b.items, item)
	return item
}

// Remove drops a pending item. It reports whether anything was removed.
func (b *Batch) Remove(itemID id.UploadID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.uploading {
		return false
	}
	for i, item := range b.items {
		if item.ID == itemID && item.Status == StatusPending {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the batch.
func (b *Batch) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.uploading {
		b.items = nil
	}
}

// Items returns a snapshot of the queue.
func (b *Batch) Items() []UploadItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]UploadItem, len(b.items))
	for i, item := range b.items {
		out[i] = *item
	}
	return out
}

// Len returns the number of queued files.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// TotalSize sums the queued file sizes.
func (b *Batch) TotalSize() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var total int64
	for _, item := range b.items {
		total += item.Size
	}
	return total
}

func (b *Batch) relativePaths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	paths := make([]string, len(b.items))
	for i, item := range b.items {
		paths[i] = item.RelativePath
	}
	return paths
}

// Conflicts asks the server which queued paths already exist.
func (b *Batch) Conflicts(ctx context.Context) ([]string, error) {
	paths := b.relativePaths()
	if len(paths) == 0 {
		return []string{}, nil
	}
	return b.client.CheckFiles(ctx, paths)
}

// BatchProgress receives the overall percentage of the batch.
type BatchProgress func(percent int)

// Upload sends every queued file in one request. Success marks all items
// success and failure marks all items error.
func (b *Batch) Upload(ctx context.Context, onProgress BatchProgress) (*types.UploadResponse, error) {
	b.mu.Lock()
	if b.uploading {
		b.mu.Unlock()
		return nil, ErrBatchBusy
	}
	if len(b.items) == 0 {
		b.mu.Unlock()
		return nil, errors.New("no files selected")
	}
	b.uploading = true
	batchID := id.NewBatchID()
	files := make([]UploadFile, len(b.items))
	for i, item := range b.items {
		item.Status = StatusUploading
		item.Progress = 0
		item.BatchID = batchID
		files[i] = UploadFile{Path: item.Path, RelativePath: item.RelativePath, Size: item.Size}
	}
	b.mu.Unlock()

	resp, err := b.client.UploadBatch(ctx, batchID, files, func(sent, total int64) {
		percent := 100
		if total > 0 {
			percent = int(sent * 100 / total)
		}
		if b.setProgress(percent) && onProgress != nil {
			onProgress(percent)
		}
	})

	final := StatusSuccess
	if err != nil {
		final = StatusError
	}
	b.mu.Lock()
	for _, item := range b.items {
		item.Status = final
	}
	b.uploading = false
	b.mu.Unlock()

	return resp, err
}

// setProgress reports whether the percentage changed.
func (b *Batch) setProgress(percent int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	changed := false
	for _, item := range b.items {
		if item.Progress != percent {
			item.Progress = percent
			changed = true
		}
	}
	return changed
}
