// Package idgen supplies entity identifiers to the engine.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator returns a new identifier for an entity of the given kind
// ("schedule", "task", "resource", "dependency").
type Generator interface {
	NewID(kind string) string
}

// UUID generates random v4 UUIDs.
type UUID struct{}

// NewID implements Generator.
func (UUID) NewID(string) string {
	return uuid.NewString()
}

// Sequence generates predictable ids of the form "<kind>-<n>", counting per kind.
// It is intended for tests and fixtures and is not safe for concurrent use.
type Sequence struct {
	next map[string]int
}

// NewSequence returns a Sequence starting at 1 for every kind.
func NewSequence() *Sequence {
	return &Sequence{next: make(map[string]int)}
}

// NewID implements Generator.
func (s *Sequence) NewID(kind string) string {
	s.next[kind]++
	return fmt.Sprintf("%s-%d", kind, s.next[kind])
}
