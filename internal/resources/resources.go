// Package resources implements the read-only MCP resources.
//
// Resources use URI addressing (hive://...) and return JSON documents the
// host can pull into context without calling a tool.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/Hive/internal/composer"
	"github.com/invopop/jsonschema"
	"github.com/mark3labs/mcp-go/mcp"
)

// Resource URIs.
const (
	StateURI  = "hive://state"
	SchemaURI = "hive://schema"
)

// Handler serves resources backed by the composer session.
type Handler struct {
	session *composer.Session
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(session *composer.Session) *Handler {
	return &Handler{session: session}
}

// StateResource returns the MCP resource definition for the graph state.
func (h *Handler) StateResource() mcp.Resource {
	return mcp.NewResource(
		StateURI,
		"Agent graph state",
		mcp.WithResourceDescription("The agent being composed: goal, nodes, edges and generation settings"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleState returns a snapshot of the session state as JSON.
func (h *Handler) HandleState(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(h.session.View(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling state: %w", err)
	}
	return jsonContents(req.Params.URI, data), nil
}

// SchemaResource returns the MCP resource definition for the state schema.
func (h *Handler) SchemaResource() mcp.Resource {
	return mcp.NewResource(
		SchemaURI,
		"Agent graph schema",
		mcp.WithResourceDescription("JSON Schema of the hive://state document"),
		mcp.WithMIMEType("application/schema+json"),
	)
}

// HandleSchema returns the JSON Schema reflected from composer.State.
func (h *Handler) HandleSchema(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := StateSchema()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonContents(req.Params.URI, data), nil
}

// StateSchema reflects the JSON Schema of the state document.
func StateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{ExpandedStruct: true}
	schema := r.Reflect(&composer.State{})
	schema.Title = "Hive agent graph"
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	return data, nil
}
