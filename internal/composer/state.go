package composer

import "slices"

// State is the complete definition of the agent being composed.
//
// Fields are exported for serialization and rendering. Change graph shape
// only through the mutation methods in mutations.go; they keep entry and
// terminal references and edge endpoints consistent.
type State struct {
	AgentName        string `json:"agent_name" yaml:"agent_name"`
	AgentDescription string `json:"agent_description" yaml:"agent_description"`
	OutputPath       string `json:"output_path,omitempty" yaml:"output_path,omitempty"`

	Goal  *Goal  `json:"goal,omitempty" yaml:"goal,omitempty"`
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`

	EntryNode     string   `json:"entry_node,omitempty" yaml:"entry_node,omitempty"`
	TerminalNodes []string `json:"terminal_nodes" yaml:"terminal_nodes"`

	DefaultModel string `json:"default_model" yaml:"default_model"`
	MaxTokens    int    `json:"max_tokens" yaml:"max_tokens"`

	SelectedTools []string `json:"selected_tools" yaml:"selected_tools"`
}

// NewState returns an empty state with the default generation parameters.
func NewState() *State {
	return &State{
		Nodes:         []Node{},
		Edges:         []Edge{},
		TerminalNodes: []string{},
		DefaultModel:  DefaultModel,
		MaxTokens:     DefaultMaxTokens,
		SelectedTools: []string{},
	}
}

// IsComplete reports whether the state has the minimum required to
// generate: an agent name, a goal, at least one node and an entry node.
func (s *State) IsComplete() bool {
	return s.AgentName != "" && s.Goal != nil && len(s.Nodes) > 0 && s.EntryNode != ""
}

// Missing lists the unmet completeness requirements, in the order they are
// reported to the user. It is empty exactly when IsComplete is true.
func (s *State) Missing() []string {
	var missing []string
	if s.AgentName == "" {
		missing = append(missing, "agent name")
	}
	if len(s.Nodes) == 0 {
		missing = append(missing, "at least one node required")
	}
	if s.Goal == nil {
		missing = append(missing, "agent goal")
	}
	if s.EntryNode == "" {
		missing = append(missing, "entry node not set")
	}
	return missing
}

// GetNode returns the node with the given id, or ErrNodeNotFound.
func (s *State) GetNode(id string) (Node, error) {
	if i := s.nodeIndex(id); i >= 0 {
		return s.Nodes[i], nil
	}
	return Node{}, ErrNodeNotFound
}

// HasNode reports whether a node with the given id exists.
func (s *State) HasNode(id string) bool {
	return s.nodeIndex(id) >= 0
}

// NodeIDs returns node ids in definition order.
func (s *State) NodeIDs() []string {
	ids := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func (s *State) nodeIndex(id string) int {
	return slices.IndexFunc(s.Nodes, func(n Node) bool { return n.ID == id })
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := *s
	if s.Goal != nil {
		g := *s.Goal
		g.SuccessCriteria = slices.Clone(g.SuccessCriteria)
		g.Constraints = slices.Clone(g.Constraints)
		c.Goal = &g
	}
	c.Nodes = make([]Node, len(s.Nodes))
	for i, n := range s.Nodes {
		n.Tools = slices.Clone(n.Tools)
		n.InputKeys = slices.Clone(n.InputKeys)
		n.OutputKeys = slices.Clone(n.OutputKeys)
		c.Nodes[i] = n
	}
	c.Edges = slices.Clone(s.Edges)
	c.TerminalNodes = slices.Clone(s.TerminalNodes)
	c.SelectedTools = slices.Clone(s.SelectedTools)
	return &c
}
