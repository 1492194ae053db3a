package client

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

const (
	// DefaultServerURL is used when nothing else is configured.
	DefaultServerURL = "http://localhost:3001"
	// ServerEnv overrides the stored server address.
	ServerEnv = "LANDROP_SERVER"

	connectionTimeout = 5 * time.Second
)

// SettingsStore persists the server address between runs.
type SettingsStore interface {
	// Load returns the stored address and whether one was stored.
	Load() (string, bool, error)
	Save(baseURL string) error
	Clear() error
}

// MemoryStore keeps the address in memory only.
type MemoryStore struct {
	mu    sync.Mutex
	value string
	set   bool
}

func (m *MemoryStore) Load() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.set, nil
}

func (m *MemoryStore) Save(baseURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.set = baseURL, true
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.set = "", false
	return nil
}

// FileStore keeps the address in a TOML file.
type FileStore struct {
	Path string
}

type settingsFile struct {
	ServerURL string `toml:"server_url"`
}

// DefaultSettingsPath returns <user config dir>/landrop/settings.toml.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "landrop", "settings.toml"), nil
}

func (f *FileStore) Load() (string, bool, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read settings: %w", err)
	}

	var s settingsFile
	if err := toml.Unmarshal(data, &s); err != nil {
		return "", false, fmt.Errorf("parse settings %s: %w", f.Path, err)
	}
	if s.ServerURL == "" {
		return "", false, nil
	}
	return s.ServerURL, true, nil
}

func (f *FileStore) Save(baseURL string) error {
	data, err := toml.Marshal(settingsFile{ServerURL: baseURL})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	return os.WriteFile(f.Path, data, 0o644)
}

func (f *FileStore) Clear() error {
	err := os.Remove(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ConnectionStatus is the outcome of the last connection test.
type ConnectionStatus string

const (
	StatusUnknown      ConnectionStatus = "unknown"
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
)

// Settings holds the active server address and an unsaved draft.
type Settings struct {
	mu      sync.Mutex
	store   SettingsStore
	logger  *zap.Logger
	current string
	draft   string
	status  ConnectionStatus

	// ping is swapped in tests.
	ping func(ctx context.Context, baseURL string) error
}

// NewSettings resolves the active address: environment, then store, then
// the default.
func NewSettings(store SettingsStore, logger *zap.Logger) (*Settings, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Settings{
		store:  store,
		logger: logger.Named("settings"),
		status: StatusUnknown,
		ping:   pingServer,
	}

	current := DefaultServerURL
	if env := strings.TrimSpace(os.Getenv(ServerEnv)); env != "" {
		current = env
	} else if stored, ok, err := store.Load(); err != nil {
		return nil, err
	} else if ok {
		current = stored
	}

	normalized, err := NormalizeBaseURL(current)
	if err != nil {
		return nil, err
	}
	s.current, s.draft = normalized, normalized
	return s, nil
}

// Current returns the active address.
func (s *Settings) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Draft returns the unsaved address being edited.
func (s *Settings) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// SetDraft replaces the draft without touching the active address.
func (s *Settings) SetDraft(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = value
}

// Status returns the result of the last connection test.
func (s *Settings) Status() ConnectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// TestConnection checks baseURL (or the active address when empty).
func (s *Settings) TestConnection(ctx context.Context, baseURL string) error {
	if baseURL == "" {
		baseURL = s.Current()
	}
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return err
	}

	err = s.ping(ctx, normalized)

	s.mu.Lock()
	if err != nil {
		s.status = StatusDisconnected
	} else {
		s.status = StatusConnected
	}
	s.mu.Unlock()
	return err
}

// Save validates the draft, tests it and makes it the active address.
// On any failure the active address is unchanged.
func (s *Settings) Save(ctx context.Context) (string, error) {
	normalized, err := NormalizeBaseURL(s.Draft())
	if err != nil {
		return "", err
	}
	if err := s.TestConnection(ctx, normalized); err != nil {
		return "", fmt.Errorf("cannot connect to %s: %w", normalized, err)
	}
	if err := s.store.Save(normalized); err != nil {
		return "", fmt.Errorf("save settings: %w", err)
	}

	s.mu.Lock()
	s.current, s.draft = normalized, normalized
	s.mu.Unlock()

	s.logger.Info("Server address saved", zap.String("url", normalized))
	return normalized, nil
}

// Reset clears the stored address and returns to the default.
func (s *Settings) Reset() error {
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}
	s.mu.Lock()
	s.current, s.draft = DefaultServerURL, DefaultServerURL
	s.status = StatusUnknown
	s.mu.Unlock()
	return nil
}

// Cancel discards the draft.
func (s *Settings) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = s.current
}

func pingServer(ctx context.Context, baseURL string) error {
	cfg := DefaultConfig(baseURL)
	cfg.Timeout = connectionTimeout
	cfg.RetryCount = 0
	c, err := New(cfg)
	if err != nil {
		return err
	}
	_, err = c.Info(ctx)
	return err
}
