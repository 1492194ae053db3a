package storage

import (
	"fmt"

	"go.uber.org/zap"
)

// DefaultMaxFileSize is the per-file upload limit when none is configured.
const DefaultMaxFileSize int64 = 100 << 20

// tempPattern names in-flight upload files; the tree builder hides them.
const tempPattern = ".landrop-*.part"

// Config configures a Store.
type Config struct {
	Root        string
	CreateRoot  bool
	MaxFileSize int64
}

// Store is the filesystem-backed file store. The directory tree under the
// root is the only state; nothing is cached between calls.
type Store struct {
	root        *Root
	locks       *Locker
	maxFileSize int64
	logger      *zap.Logger
}

// New opens the storage root described by cfg.
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	root, err := NewRoot(cfg.Root, cfg.CreateRoot)
	if err != nil {
		return nil, err
	}
	if cfg.MaxFileSize < 0 {
		return nil, fmt.Errorf("max file size must not be negative, got %d", cfg.MaxFileSize)
	}
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		root:        root,
		locks:       NewLocker(),
		maxFileSize: cfg.MaxFileSize,
		logger:      logger.Named("storage"),
	}, nil
}

// Root returns the storage root.
func (s *Store) Root() *Root {
	return s.root
}

// MaxFileSize returns the per-file upload limit in bytes.
func (s *Store) MaxFileSize() int64 {
	return s.maxFileSize
}
