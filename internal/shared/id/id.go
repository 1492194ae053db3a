// Package id provides ULID generation for client-side upload bookkeeping.
//
// IDs are:
//   - Lexicographically sortable, so items list in the order they were queued
//   - Prefixed by type (upl_*, batch_*) to keep logs readable
//   - Distinct Go types, so an item ID cannot be passed where a batch ID is expected
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// UploadID identifies one queued file in an upload batch
type UploadID string

// BatchID identifies one upload batch
type BatchID string

// ============================================================================
// ID Prefixes
// ============================================================================

const (
	UploadPrefix = "upl"
	BatchPrefix  = "batch"
)

// ============================================================================
// ULID Generator
// ============================================================================

// Generator generates monotonic ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand. IDs generated in
// the same millisecond stay ordered.
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewUploadID generates a new upload item ID
func NewUploadID() UploadID {
	return UploadID(Default().GenerateWithPrefix(UploadPrefix))
}

// NewBatchID generates a new batch ID
func NewBatchID() BatchID {
	return BatchID(Default().GenerateWithPrefix(BatchPrefix))
}

func (id UploadID) String() string { return string(id) }
func (id BatchID) String() string  { return string(id) }

// ============================================================================
// Parsing
// ============================================================================

// ParseBatchID validates a batch ID received from a client.
func ParseBatchID(s string) (BatchID, error) {
	raw, ok := strings.CutPrefix(s, BatchPrefix+"_")
	if !ok {
		return "", fmt.Errorf("batch id %q: missing %s_ prefix", s, BatchPrefix)
	}
	if _, err := ulid.ParseStrict(raw); err != nil {
		return "", fmt.Errorf("batch id %q: %w", s, err)
	}
	return BatchID(s), nil
}

// Time returns when the batch ID was generated, or the zero time when the
// ID is malformed.
func (id BatchID) Time() time.Time {
	parsed, err := ulid.ParseStrict(strings.TrimPrefix(string(id), BatchPrefix+"_"))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(parsed.Time())
}
