package composer

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic checking via errors.Is().
var (
	// ErrDuplicateIdentifier indicates a node id that already exists.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// ErrUnknownEndpoint indicates an edge or entry/terminal reference
	// to a node that is not in the graph.
	ErrUnknownEndpoint = errors.New("unknown endpoint")

	// ErrIncompleteGraph indicates generation was attempted before the
	// graph had a name, a goal, a node and an entry node.
	ErrIncompleteGraph = errors.New("incomplete graph")

	// ErrGenerationFailure indicates a template or filesystem error while rendering.
	ErrGenerationFailure = errors.New("generation failure")

	// ErrNodeNotFound is returned by lookups of an absent node id.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound is returned for an out-of-range edge index.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrInvalidField indicates a field that failed validation.
	ErrInvalidField = errors.New("invalid field")
)

// DuplicateError reports an add-node with an id already in the graph.
type DuplicateError struct {
	ID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("node with ID '%s' already exists", e.ID)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateIdentifier }

// EndpointError reports references to node ids missing from the graph.
type EndpointError struct {
	Source  string
	Target  string
	Missing []string
}

func (e *EndpointError) Error() string {
	if e.Source == "" && e.Target == "" {
		return fmt.Sprintf("%s: %s", ErrUnknownEndpoint, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: edge %s -> %s references missing node(s): %s",
		ErrUnknownEndpoint, e.Source, e.Target, strings.Join(e.Missing, ", "))
}

func (e *EndpointError) Unwrap() error { return ErrUnknownEndpoint }

// IncompleteError lists what a graph still needs before it can be generated.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	if len(e.Missing) == 0 {
		return ErrIncompleteGraph.Error()
	}
	return fmt.Sprintf("%s: missing %s", ErrIncompleteGraph, strings.Join(e.Missing, "; "))
}

func (e *IncompleteError) Unwrap() error { return ErrIncompleteGraph }

// GenerationError wraps the failure of one rendering step.
// errors.Is matches both ErrGenerationFailure and the underlying cause.
type GenerationError struct {
	Step string // template name or "mkdir"
	Path string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrGenerationFailure, e.Step, e.Path, e.Err)
}

func (e *GenerationError) Unwrap() []error { return []error{ErrGenerationFailure, e.Err} }
