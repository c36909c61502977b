package composer

import (
	"fmt"
	"slices"
	"strings"
)

// AddNode appends a node. The first node of an empty graph becomes its
// entry node and sole terminal node until the user overrides them.
func (s *State) AddNode(n Node) error {
	n = n.withDefaults()
	if err := Validate(n); err != nil {
		return err
	}
	if s.HasNode(n.ID) {
		return &DuplicateError{ID: n.ID}
	}
	if n.Tools == nil {
		n.Tools = []string{}
	}
	s.Nodes = append(s.Nodes, n)
	if len(s.Nodes) == 1 {
		s.EntryNode = n.ID
		s.TerminalNodes = []string{n.ID}
	}
	return nil
}

// UpdateNode replaces the node with the given id at its current position.
// A replacement with a nil Tools list keeps the previous tools. The id
// itself cannot change.
func (s *State) UpdateNode(id string, n Node) error {
	i := s.nodeIndex(id)
	if i < 0 {
		return fmt.Errorf("updating %q: %w", id, ErrNodeNotFound)
	}
	if n.ID == "" {
		n.ID = id
	}
	if n.ID != id {
		return fmt.Errorf("%w: node id %q cannot be changed to %q", ErrInvalidField, id, n.ID)
	}
	n = n.withDefaults()
	if err := Validate(n); err != nil {
		return err
	}
	if n.Tools == nil {
		n.Tools = slices.Clone(s.Nodes[i].Tools)
	}
	s.Nodes[i] = n
	return nil
}

// DeleteNode removes a node and every edge touching it. A deleted entry
// node leaves the entry unset, and the id is dropped from the terminal
// list, so the user has to reassign them before generating.
func (s *State) DeleteNode(id string) error {
	i := s.nodeIndex(id)
	if i < 0 {
		return fmt.Errorf("deleting %q: %w", id, ErrNodeNotFound)
	}
	s.Nodes = slices.Delete(s.Nodes, i, i+1)
	s.Edges = slices.DeleteFunc(s.Edges, func(e Edge) bool {
		return e.Source == id || e.Target == id
	})
	if s.EntryNode == id {
		s.EntryNode = ""
	}
	s.TerminalNodes = slices.DeleteFunc(s.TerminalNodes, func(t string) bool { return t == id })
	return nil
}

// AddEdge appends an edge after checking both endpoints exist. Identical
// edges may coexist.
func (s *State) AddEdge(e Edge) error {
	if e.Condition == "" {
		e.Condition = ConditionOnSuccess
	}
	if err := Validate(e); err != nil {
		return err
	}
	var missing []string
	if !s.HasNode(e.Source) {
		missing = append(missing, e.Source)
	}
	if !s.HasNode(e.Target) && e.Target != e.Source {
		missing = append(missing, e.Target)
	}
	if len(missing) > 0 {
		return &EndpointError{Source: e.Source, Target: e.Target, Missing: missing}
	}
	s.Edges = append(s.Edges, e)
	return nil
}

// DeleteEdge removes the edge at the given position.
func (s *State) DeleteEdge(index int) error {
	if index < 0 || index >= len(s.Edges) {
		return fmt.Errorf("edge %d: %w", index, ErrEdgeNotFound)
	}
	s.Edges = slices.Delete(s.Edges, index, index+1)
	return nil
}

// SetGoal sets or replaces the goal. A blank id is derived from the name.
func (s *State) SetGoal(g Goal) error {
	if err := Validate(g); err != nil {
		return err
	}
	if g.ID == "" {
		g.ID = GoalID(g.Name)
	}
	if g.SuccessCriteria == nil {
		g.SuccessCriteria = []string{}
	}
	if g.Constraints == nil {
		g.Constraints = []string{}
	}
	s.Goal = &g
	return nil
}

// SetEntryNode points graph traversal at an existing node.
func (s *State) SetEntryNode(id string) error {
	if !s.HasNode(id) {
		return &EndpointError{Missing: []string{id}}
	}
	s.EntryNode = id
	return nil
}

// SetTerminalNodes replaces the terminal node list. Every id must exist.
func (s *State) SetTerminalNodes(ids []string) error {
	var missing []string
	for _, id := range ids {
		if !s.HasNode(id) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &EndpointError{Missing: missing}
	}
	s.TerminalNodes = slices.Clone(ids)
	if s.TerminalNodes == nil {
		s.TerminalNodes = []string{}
	}
	return nil
}

// SetAgent sets the agent name and description.
func (s *State) SetAgent(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: agent name is required", ErrInvalidField)
	}
	s.AgentName = name
	s.AgentDescription = strings.TrimSpace(description)
	return nil
}

// SetGeneration sets the model and token budget. Zero values keep the
// current settings.
func (s *State) SetGeneration(model string, maxTokens int) error {
	if maxTokens < 0 {
		return fmt.Errorf("%w: max tokens must be positive, got %d", ErrInvalidField, maxTokens)
	}
	if model = strings.TrimSpace(model); model != "" {
		s.DefaultModel = model
	}
	if maxTokens > 0 {
		s.MaxTokens = maxTokens
	}
	return nil
}

// SelectTools replaces the external tool selection.
func (s *State) SelectTools(ids []string) {
	s.SelectedTools = []string{}
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" && !slices.Contains(s.SelectedTools, id) {
			s.SelectedTools = append(s.SelectedTools, id)
		}
	}
}

// SetOutputPath sets where the generator writes the agent.
func (s *State) SetOutputPath(p string) {
	s.OutputPath = strings.TrimSpace(p)
}
