package composer

import "sync"

// Session owns the single State being edited by the running process.
// Editing surfaces share one Session; it serializes their mutations.
type Session struct {
	mu    sync.Mutex
	state *State
}

// NewSession starts a session over a fresh state.
func NewSession() *Session {
	return &Session{state: NewState()}
}

// NewSessionWith starts a session over an existing state.
func NewSessionWith(s *State) *Session {
	return &Session{state: s}
}

// View returns a snapshot of the current state.
func (s *Session) View() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update runs fn against the live state. The change is kept only when fn
// returns nil, so a failed multi-step edit leaves the state untouched.
func (s *Session) Update(fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft := s.state.Clone()
	if err := fn(draft); err != nil {
		return err
	}
	s.state = draft
	return nil
}

// Reset discards the current state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = NewState()
}
