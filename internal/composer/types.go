// Package composer holds the agent graph being composed: its nodes, edges,
// goal, and the mutation operations that keep the graph consistent.
//
// The package has no UI. MCP tools, the HTTP API and the
// interactive console all drive the same Session, and the generator package
// turns a complete State into runnable agent scaffolding.
package composer

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// DefaultSystemPrompt is the prompt given to nodes created without one.
	DefaultSystemPrompt = "You are a helpful assistant."
	// DefaultNodeType is the executor node kind used when none is given.
	DefaultNodeType = "event_loop"
	// DefaultModel is the generation model for a fresh state.
	DefaultModel = "gpt-4o-mini"
	// DefaultMaxTokens is the token budget for a fresh state.
	DefaultMaxTokens = 30000
)

// --- Edge condition enum ---

// EdgeCondition gates a transition between two nodes.
type EdgeCondition string

const (
	ConditionAlways    EdgeCondition = "always"
	ConditionOnSuccess EdgeCondition = "on_success"
	ConditionOnFailure EdgeCondition = "on_failure"
)

// validConditions is the set of allowed edge conditions.
var validConditions = map[EdgeCondition]bool{
	ConditionAlways:    true,
	ConditionOnSuccess: true,
	ConditionOnFailure: true,
}

// ValidateCondition parses user input into an EdgeCondition.
// An empty string yields the default, on_success.
func ValidateCondition(s string) (EdgeCondition, error) {
	c := EdgeCondition(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return ConditionOnSuccess, nil
	}
	if !validConditions[c] {
		return "", fmt.Errorf("%w: condition %q must be one of: always, on_success, on_failure", ErrInvalidField, s)
	}
	return c, nil
}

// --- Entities ---

// Node is a single step of the agent graph.
type Node struct {
	ID           string   `json:"id" yaml:"id" validate:"required,ident"`
	Name         string   `json:"name" yaml:"name" validate:"required"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	SystemPrompt string   `json:"system_prompt" yaml:"system_prompt"`
	Tools        []string `json:"tools" yaml:"tools"`
	NodeType     string   `json:"node_type" yaml:"node_type"`
	ClientFacing bool     `json:"client_facing" yaml:"client_facing"`
	InputKeys    []string `json:"input_keys" yaml:"input_keys"`
	OutputKeys   []string `json:"output_keys" yaml:"output_keys"`
}

// NewNode returns a node with the default prompt, kind and display name.
func NewNode(id string) Node {
	return Node{
		ID:           id,
		Name:         DisplayName(id),
		SystemPrompt: DefaultSystemPrompt,
		Tools:        []string{},
		NodeType:     DefaultNodeType,
		InputKeys:    []string{},
		OutputKeys:   []string{},
	}
}

// withDefaults fills the optional fields a caller left blank.
func (n Node) withDefaults() Node {
	if n.Name == "" {
		n.Name = DisplayName(n.ID)
	}
	if n.SystemPrompt == "" {
		n.SystemPrompt = DefaultSystemPrompt
	}
	if n.NodeType == "" {
		n.NodeType = DefaultNodeType
	}
	if n.InputKeys == nil {
		n.InputKeys = []string{}
	}
	if n.OutputKeys == nil {
		n.OutputKeys = []string{}
	}
	return n
}

// Edge is a directed, conditional transition between two nodes.
// Endpoints are only checked when the edge is added to a State.
type Edge struct {
	Source    string        `json:"source" yaml:"source" validate:"required"`
	Target    string        `json:"target" yaml:"target" validate:"required"`
	Condition EdgeCondition `json:"condition" yaml:"condition" validate:"omitempty,oneof=always on_success on_failure"`
}

// Goal is the agent's objective plus its success criteria and constraints.
type Goal struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name" validate:"required"`
	Description     string   `json:"description" yaml:"description"`
	SuccessCriteria []string `json:"success_criteria" yaml:"success_criteria"`
	Constraints     []string `json:"constraints" yaml:"constraints"`
}

// --- Helpers ---

// GoalID derives a goal identifier from its name:
// "Customer Support Goal" → "customer_support_goal".
func GoalID(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// DisplayName turns a node id into a title: "customer_intake" → "Customer Intake".
func DisplayName(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "_", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// ParseLabels splits a comma-separated list, dropping blanks.
func ParseLabels(s string) []string {
	labels := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			labels = append(labels, p)
		}
	}
	return labels
}
