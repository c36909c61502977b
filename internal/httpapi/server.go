// Package httpapi exposes the composer session over a small JSON API, for
// editors that prefer HTTP to MCP.
package httpapi

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/HendryAvila/Hive/internal/composer"
	"github.com/HendryAvila/Hive/internal/generator"
	"github.com/HendryAvila/Hive/internal/tools"
	"github.com/gofiber/fiber/v3"
)

// Server routes HTTP requests to a composer session.
type Server struct {
	session  *composer.Session
	gen      tools.Generator
	observer tools.GenerationObserver
	workDir  string
}

// New creates a Server. observer may be nil; workDir anchors default
// output paths (empty means the process working directory).
func New(session *composer.Session, gen tools.Generator, observer tools.GenerationObserver, workDir string) *Server {
	return &Server{session: session, gen: gen, observer: observer, workDir: workDir}
}

// App builds the fiber application with every route registered.
func (s *Server) App() *fiber.App {
	app := fiber.New()

	// ── State ─────────────────────────────────────────────────────────
	app.Get("/state", s.getState)
	app.Get("/state/complete", s.getComplete)

	// ── Agent ─────────────────────────────────────────────────────────
	app.Put("/agent", s.putAgent)
	app.Put("/goal", s.putGoal)
	app.Put("/settings", s.putSettings)

	// ── Nodes ─────────────────────────────────────────────────────────
	app.Post("/nodes", s.postNode)
	app.Get("/nodes/:id", s.getNode)
	app.Put("/nodes/:id", s.putNode)
	app.Delete("/nodes/:id", s.deleteNode)

	// ── Edges ─────────────────────────────────────────────────────────
	app.Post("/edges", s.postEdge)
	app.Delete("/edges/:index", s.deleteEdge)
	app.Put("/entry", s.putEntry)
	app.Put("/terminals", s.putTerminals)

	// ── Generation ────────────────────────────────────────────────────
	app.Post("/generate", s.postGenerate)

	return app
}

// statusFor maps composer errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, composer.ErrDuplicateIdentifier):
		return fiber.StatusConflict
	case errors.Is(err, composer.ErrUnknownEndpoint), errors.Is(err, composer.ErrInvalidField):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, composer.ErrIncompleteGraph):
		return fiber.StatusPreconditionFailed
	case errors.Is(err, composer.ErrNodeNotFound), errors.Is(err, composer.ErrEdgeNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

func badBody(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
}

// update applies fn and answers with the new state, or the mapped error.
func (s *Server) update(c fiber.Ctx, status int, fn func(*composer.State) error) error {
	if err := s.session.Update(fn); err != nil {
		return fail(c, err)
	}
	return c.Status(status).JSON(s.session.View())
}

// ── State ───────────────────────────────────────────────────────────────────

func (s *Server) getState(c fiber.Ctx) error {
	return c.JSON(s.session.View())
}

func (s *Server) getComplete(c fiber.Ctx) error {
	v := s.session.View()
	missing := v.Missing()
	if missing == nil {
		missing = []string{}
	}
	return c.JSON(fiber.Map{"complete": v.IsComplete(), "missing": missing})
}

// ── Agent ───────────────────────────────────────────────────────────────────

type agentBody struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	OutputPath  *string `json:"output_path"`
}

func (s *Server) putAgent(c fiber.Ctx) error {
	var body agentBody
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	return s.update(c, fiber.StatusOK, func(st *composer.State) error {
		if err := st.SetAgent(body.Name, body.Description); err != nil {
			return err
		}
		if body.OutputPath != nil {
			st.SetOutputPath(*body.OutputPath)
		}
		return nil
	})
}

func (s *Server) putGoal(c fiber.Ctx) error {
	var g composer.Goal
	if err := c.Bind().JSON(&g); err != nil {
		return badBody(c)
	}
	return s.update(c, fiber.StatusOK, func(st *composer.State) error {
		return st.SetGoal(g)
	})
}

type settingsBody struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Tools     *[]string `json:"tools"`
}

func (s *Server) putSettings(c fiber.Ctx) error {
	var body settingsBody
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	return s.update(c, fiber.StatusOK, func(st *composer.State) error {
		if err := st.SetGeneration(body.Model, body.MaxTokens); err != nil {
			return err
		}
		if body.Tools != nil {
			st.SelectTools(*body.Tools)
		}
		return nil
	})
}

// ── Nodes ───────────────────────────────────────────────────────────────────

func (s *Server) postNode(c fiber.Ctx) error {
	var n composer.Node
	if err := c.Bind().JSON(&n); err != nil {
		return badBody(c)
	}
	return s.update(c, fiber.StatusCreated, func(st *composer.State) error {
		return st.AddNode(n)
	})
}

func (s *Server) getNode(c fiber.Ctx) error {
	n, err := s.session.View().GetNode(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(n)
}

// nodePatch carries the fields a PUT changes. Absent fields are kept.
type nodePatch struct {
	Name         *string   `json:"name"`
	Description  *string   `json:"description"`
	SystemPrompt *string   `json:"system_prompt"`
	Tools        *[]string `json:"tools"`
	NodeType     *string   `json:"node_type"`
	ClientFacing *bool     `json:"client_facing"`
	InputKeys    *[]string `json:"input_keys"`
	OutputKeys   *[]string `json:"output_keys"`
}

func (p nodePatch) apply(n composer.Node) composer.Node {
	if p.Name != nil {
		n.Name = *p.Name
	}
	if p.Description != nil {
		n.Description = *p.Description
	}
	if p.SystemPrompt != nil {
		n.SystemPrompt = *p.SystemPrompt
	}
	if p.Tools != nil {
		n.Tools = *p.Tools
	}
	if p.NodeType != nil {
		n.NodeType = *p.NodeType
	}
	if p.ClientFacing != nil {
		n.ClientFacing = *p.ClientFacing
	}
	if p.InputKeys != nil {
		n.InputKeys = *p.InputKeys
	}
	if p.OutputKeys != nil {
		n.OutputKeys = *p.OutputKeys
	}
	return n
}

func (s *Server) putNode(c fiber.Ctx) error {
	var patch nodePatch
	if err := c.Bind().JSON(&patch); err != nil {
		return badBody(c)
	}
	id := c.Params("id")
	return s.update(c, fiber.StatusOK, func(st *composer.State) error {
		current, err := st.GetNode(id)
		if err != nil {
			return err
		}
		return st.UpdateNode(id, patch.apply(current))
	})
}

func (s *Server) deleteNode(c fiber.Ctx) error {
	id := c.Params("id")
	return s.update(c, fiber.StatusOK, func(st *composer.State) error {
		return st.DeleteNode(id)
	})
}

// ── Edges ───────────────────────────────────────────────────────────────────

type edgeBody struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Condition string `json:"condition"`
}

func (s *Server) postEdge(c fiber.Ctx) error {
	var body edgeBody
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	cond, err := composer.ValidateCondition(body.Condition)
	if err != nil {
		return fail(c, err)
	}
	return s.update(c, fiber.StatusCreated, func(st *composer.State) error {
		return st.AddEdge(composer.Edge{
			Source:    strings.TrimSpace(body.Source),
			Target:    strings.TrimSpace(body.Target),
			Condition: cond,
		})
	})
}

func (s *Server) deleteEdge(c fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "edge index must be an integer"})
	}
	return s.update(c, fiber.StatusOK, func(st *composer.State) error {
		return st.DeleteEdge(index)
	})
}

func (s *Server) putEntry(c fiber.Ctx) error {
	var body struct {
		ID string `json:"id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	return s.update(c, fiber.StatusOK, func(st *composer.State) error {
		return st.SetEntryNode(body.ID)
	})
}

func (s *Server) putTerminals(c fiber.Ctx) error {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	return s.update(c, fiber.StatusOK, func(st *composer.State) error {
		return st.SetTerminalNodes(body.IDs)
	})
}

// ── Generation ──────────────────────────────────────────────────────────────

func (s *Server) postGenerate(c fiber.Ctx) error {
	var body struct {
		OutputPath string `json:"output_path"`
	}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return badBody(c)
		}
	}

	state := s.session.View()
	if !state.IsComplete() {
		return fail(c, &composer.IncompleteError{Missing: state.Missing()})
	}

	outputDir := strings.TrimSpace(body.OutputPath)
	if outputDir == "" {
		wd := s.workDir
		if wd == "" {
			var err error
			if wd, err = os.Getwd(); err != nil {
				return fail(c, err)
			}
		}
		var err error
		if outputDir, err = generator.OutputPathFor(state, wd); err != nil {
			return fail(c, err)
		}
	}

	res, err := s.gen.Generate(state, outputDir)
	if err != nil {
		return fail(c, err)
	}
	if s.observer != nil {
		s.observer.OnGenerated(c.Context(), state, res)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"output_dir": res.OutputDir,
		"artifacts":  res.Artifacts,
	})
}
