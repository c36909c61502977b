package memory

import (
	"context"
	"fmt"
)

// TypeLearning tags entries saved with SaveLearning.
const TypeLearning = "learning"

// Manager is the memory handle injected into tools: learnings through the
// configured Backend, workflow state through a StateStore.
type Manager struct {
	backend Backend
	kind    BackendKind
	state   *StateStore
}

// New builds a Manager, selecting the backend and embedder from cfg.
func New(ctx context.Context, cfg Config) (*Manager, error) {
	embed, err := newEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var backend Backend
	switch cfg.Backend {
	case BackendLocal, "":
		cfg.Backend = BackendLocal
		backend, err = NewLocalBackend(cfg.DataDir, embed)
	case BackendVector:
		backend, err = NewVectorBackend(ctx, cfg.VectorURL, embed)
	default:
		return nil, fmt.Errorf("memory: unknown backend %q: must be local or vector", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return NewManager(backend, cfg.Backend, NewStateStore(cfg.DataDir)), nil
}

// NewManager wires an existing backend and state store.
func NewManager(backend Backend, kind BackendKind, state *StateStore) *Manager {
	return &Manager{backend: backend, kind: kind, state: state}
}

func newEmbedder(ctx context.Context, cfg Config) (Embedder, error) {
	if cfg.GeminiAPIKey != "" {
		return NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbedModel)
	}
	return NewHashEmbedder(cfg.HashDimensions), nil
}

// Backend reports which backend is in use.
func (m *Manager) Backend() BackendKind {
	return m.kind
}

// Close releases the backend.
func (m *Manager) Close() error {
	return m.backend.Close()
}

// SaveLearning records a fix, gotcha or preference for later retrieval.
func (m *Manager) SaveLearning(ctx context.Context, content string, tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	return m.backend.Add(ctx, content, map[string]any{
		"type": TypeLearning,
		"tags": tags,
	})
}

// Search returns up to limit memories relevant to query, best first.
func (m *Manager) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	return m.backend.Search(ctx, query, limit)
}

// Forget deletes one memory.
func (m *Manager) Forget(ctx context.Context, id string) error {
	return m.backend.Delete(ctx, id)
}

// UpdateState saves one workflow state key.
func (m *Manager) UpdateState(key string, value any) error {
	return m.state.Set(key, value)
}

// GetState returns one state value.
func (m *Manager) GetState(key string) (any, bool, error) {
	return m.state.Get(key)
}

// AllState returns the whole workflow state.
func (m *Manager) AllState() (map[string]any, error) {
	return m.state.All()
}

// ClearState empties the workflow state.
func (m *Manager) ClearState() error {
	return m.state.Clear()
}

// Tags extracts the tag list from a result's metadata. Metadata decoded
// from JSON holds []any, metadata built in process holds []string.
func Tags(r Result) []string {
	switch v := r.Metadata["tags"].(type) {
	case []string:
		return v
	case []any:
		tags := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok {
				tags = append(tags, s)
			}
		}
		return tags
	}
	return []string{}
}
