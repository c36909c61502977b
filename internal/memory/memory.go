// Package memory is the persistent memory used by agents and the composer:
// long-term learnings searchable by semantic similarity, plus a small
// key-value workflow state for crash recovery.
//
// Learnings live behind the Backend interface. The backend is chosen once,
// when the Manager is built from Config:
//
//   - local:  SQLite file, linear-scan cosine similarity over stored embeddings
//   - vector: PostgreSQL with pgvector, similarity search delegated to the database
package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// ErrEntryNotFound is returned when deleting an unknown entry.
var ErrEntryNotFound = errors.New("memory entry not found")

// BackendKind selects where learnings are stored.
type BackendKind string

const (
	BackendLocal  BackendKind = "local"
	BackendVector BackendKind = "vector"
)

// Result is one search hit. Score is cosine similarity, higher is closer.
type Result struct {
	ID       string         `json:"id"`
	Content  string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
}

// Backend stores learnings and searches them by similarity.
type Backend interface {
	Add(ctx context.Context, content string, metadata map[string]any) (string, error)
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Config holds memory configuration.
type Config struct {
	DataDir string
	Backend BackendKind

	// VectorURL is the PostgreSQL connection string for the vector backend.
	VectorURL string

	// GeminiAPIKey enables Gemini embeddings; without it a local hashing
	// embedder is used.
	GeminiAPIKey string
	EmbedModel   string

	// HashDimensions sizes the local hashing embedder.
	HashDimensions int
}

// DefaultConfig returns the default configuration: local backend under ~/.hive/memory.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:        filepath.Join(home, ".hive", "memory"),
		Backend:        BackendLocal,
		EmbedModel:     DefaultEmbedModel,
		HashDimensions: DefaultHashDimensions,
	}
}

// newEntryID returns ids like mem_20260102_150405_1a2b3c4d.
func newEntryID() string {
	return fmt.Sprintf("mem_%s_%s", timeNow().Format("20060102_150405"), uuid.NewString()[:8])
}
