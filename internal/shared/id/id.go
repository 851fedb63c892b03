// Package id provides centralized ID generation for buildwatch.
//
// IDs are prefixed ULIDs:
//   - Lexicographic sortability: a later session always sorts after an earlier one
//   - Prefixed types: "run_*" for process sessions makes logs readable
//   - Type safety: SessionID cannot be confused with an arbitrary string
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies one supervised process session
type SessionID string

// SessionPrefix marks session IDs
const SessionPrefix = "run"

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the shared generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator backed by crypto/rand.
// Entropy is monotonic so IDs minted within the same millisecond still sort
// in creation order.
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(rand.Reader)
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(entropy, 0),
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

// NewSessionID generates a session ID from this generator
func (g *Generator) NewSessionID() SessionID {
	return SessionID(g.GenerateWithPrefix(SessionPrefix))
}

// NewSessionID generates a new session ID from the default generator
func NewSessionID() SessionID {
	return Default().NewSessionID()
}

func (id SessionID) String() string { return string(id) }

// IsZero reports whether the ID is unset
func (id SessionID) IsZero() bool { return id == "" }
