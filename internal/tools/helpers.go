// Package tools implements the composer MCP tool handlers.
//
// Each tool is a struct that receives its dependencies via its constructor
// and exposes Definition() for registration and Handle() for calls:
// - one file per concern (agent, nodes, edges, status, generate)
// - tools depend on the shared *composer.Session and small interfaces
// - user mistakes become tool errors, only internal failures are Go errors
package tools

import (
	"errors"
	"fmt"
	"os"

	"github.com/HendryAvila/Hive/internal/composer"
	"github.com/HendryAvila/Hive/internal/generator"
	"github.com/mark3labs/mcp-go/mcp"
)

// Generator writes a complete state to disk.
type Generator interface {
	Generate(state *composer.State, outputDir string) (*generator.Result, error)
}

// userError reports whether err is something the caller can fix by
// changing their input, as opposed to an internal failure.
func userError(err error) bool {
	return errors.Is(err, composer.ErrDuplicateIdentifier) ||
		errors.Is(err, composer.ErrUnknownEndpoint) ||
		errors.Is(err, composer.ErrIncompleteGraph) ||
		errors.Is(err, composer.ErrNodeNotFound) ||
		errors.Is(err, composer.ErrEdgeNotFound) ||
		errors.Is(err, composer.ErrInvalidField)
}

// mutationResult turns the outcome of a session update into a tool result:
// the confirmation plus the remaining missing items on success, a tool
// error for rejected input, or a Go error for anything else.
func mutationResult(s *composer.Session, err error, confirmation string) (*mcp.CallToolResult, error) {
	if err != nil {
		if userError(err) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}
	msg := "✅ " + confirmation
	if missing := s.View().Missing(); len(missing) > 0 {
		msg += "\n\nStill missing:"
		for _, m := range missing {
			msg += "\n- " + m
		}
	} else {
		msg += "\n\nThe agent is complete. Call `composer_generate` to write it."
	}
	return mcp.NewToolResultText(msg), nil
}

// hasArg reports whether the request carries key at all, so updates can
// tell "not given" from "set to empty".
func hasArg(req mcp.CallToolRequest, key string) bool {
	_, ok := req.GetArguments()[key]
	return ok
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// workingDir resolves the base for default output paths.
func workingDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return wd, nil
}
