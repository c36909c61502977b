package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// StateFile is the workflow state file inside the data directory.
	StateFile = "agent_state.json"
	// UpdatedAtKey is stamped on every state write.
	UpdatedAtKey = "_updated_at"
)

// StateStore persists a flat key-value workflow state as JSON, so a
// multi-step workflow can resume after a crash.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a store writing to dataDir/agent_state.json.
func NewStateStore(dataDir string) *StateStore {
	return &StateStore{path: filepath.Join(dataDir, StateFile)}
}

// Path returns the state file location.
func (s *StateStore) Path() string {
	return s.path
}

// Set stores one key and stamps the update time.
func (s *StateStore) Set(key string, value any) error {
	if key == "" {
		return errors.New("state key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	state[key] = value
	state[UpdatedAtKey] = timeNow().Format(time.RFC3339)
	return s.save(state)
}

// Get returns one value and whether it was present.
func (s *StateStore) Get(key string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return nil, false, err
	}
	v, ok := state[key]
	return v, ok, nil
}

// All returns the whole state.
func (s *StateStore) All() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Clear empties the state, typically when a workflow completes.
func (s *StateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(map[string]any{})
}

func (s *StateStore) load() (map[string]any, error) {
	state := map[string]any{}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state: %w", err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	// A file holding `null` decodes to a nil map.
	if state == nil {
		state = map[string]any{}
	}
	return state, nil
}

func (s *StateStore) save(state map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}
