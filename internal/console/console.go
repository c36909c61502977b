// Package console is a line-oriented compose session for terminals: each
// command edits the shared composer session and prints a one-line
// notification.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/HendryAvila/Hive/internal/composer"
	"github.com/HendryAvila/Hive/internal/generator"
	"github.com/HendryAvila/Hive/internal/tools"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

// Exit codes returned by Run.
const (
	ExitGenerated = 0
	ExitCancelled = 1
)

// Prompt is printed before each command in interactive sessions.
const Prompt = "hive> "

const helpText = `Commands:
  agent <name> [description...]
  goal "<name>" [description=...] [criteria=a,b] [constraints=a,b]
  node add <id> [name=...] [prompt=...] [tools=a,b] [type=...] [client] [inputs=a,b] [outputs=a,b]
  node edit <id> [same options as add]
  node rm <id>
  edge add <source> <target> [always|on_success|on_failure]
  edge rm <index>
  entry <id>
  terminals <id> [id...]
  model <name> [max_tokens]
  tools [a,b,...]
  output <path>
  show
  generate [path]
  quit`

// Console drives a composer session from text commands.
type Console struct {
	session *composer.Session
	gen     tools.Generator
	workDir string

	// Interactive enables the prompt and the help banner.
	Interactive bool

	generated string
}

// New creates a Console. workDir anchors default output paths; empty
// means the process working directory.
func New(session *composer.Session, gen tools.Generator, workDir string) *Console {
	return &Console{session: session, gen: gen, workDir: workDir}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Generated returns the directory written by the last successful generate.
func (c *Console) Generated() string {
	return c.generated
}

// errQuit ends the session without generating.
var errQuit = errors.New("quit")

// Run reads commands from in until a successful generate (ExitGenerated)
// or quit / end of input (ExitCancelled).
func (c *Console) Run(in io.Reader, out io.Writer) int {
	if c.Interactive {
		fmt.Fprintln(out, "Hive composer. Type `help` for commands.")
	}
	sc := bufio.NewScanner(in)
	for {
		if c.Interactive {
			fmt.Fprint(out, Prompt)
		}
		if !sc.Scan() {
			return ExitCancelled
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		msg, err := c.Exec(line)
		switch {
		case errors.Is(err, errQuit):
			return ExitCancelled
		case err != nil:
			fmt.Fprintf(out, "error: %v\n", err)
		default:
			fmt.Fprintln(out, msg)
		}
		if c.generated != "" && err == nil && isGenerate(line) {
			return ExitGenerated
		}
	}
}

func isGenerate(line string) bool {
	f := strings.Fields(line)
	return len(f) > 0 && strings.EqualFold(f[0], "generate")
}

// Exec runs one command and returns its notification.
func (c *Console) Exec(line string) (string, error) {
	args, err := splitArgs(line)
	if err != nil {
		return "", err
	}
	if len(args) == 0 {
		return "", nil
	}
	cmd, rest := strings.ToLower(args[0]), args[1:]

	switch cmd {
	case "agent":
		return c.agent(rest)
	case "goal":
		return c.goal(rest)
	case "node":
		return c.node(rest)
	case "edge":
		return c.edge(rest)
	case "entry":
		return c.entry(rest)
	case "terminals":
		return c.terminals(rest)
	case "model":
		return c.model(rest)
	case "tools":
		return c.selectTools(rest)
	case "output":
		return c.output(rest)
	case "show":
		return c.session.View().Summary(), nil
	case "generate":
		return c.generate(rest)
	case "help", "?":
		return helpText, nil
	case "quit", "exit", "q":
		return "", errQuit
	}
	return "", fmt.Errorf("unknown command %q (type `help`)", cmd)
}

func (c *Console) agent(args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("usage: agent <name> [description...]")
	}
	err := c.session.Update(func(s *composer.State) error {
		return s.SetAgent(args[0], strings.Join(args[1:], " "))
	})
	if err != nil {
		return "", err
	}
	return "✓ Agent: " + args[0], nil
}

func (c *Console) goal(args []string) (string, error) {
	pos, opts := options(args)
	if len(pos) == 0 {
		return "", errors.New(`usage: goal "<name>" [description=...] [criteria=a,b] [constraints=a,b]`)
	}
	g := composer.Goal{
		Name:            strings.Join(pos, " "),
		Description:     opts["description"],
		SuccessCriteria: composer.ParseLabels(opts["criteria"]),
		Constraints:     composer.ParseLabels(opts["constraints"]),
	}
	if err := c.session.Update(func(s *composer.State) error { return s.SetGoal(g) }); err != nil {
		return "", err
	}
	return "✓ Goal updated: " + g.Name, nil
}

// nodeFlags are the bare-word node options.
var nodeFlags = []string{"client"}

func applyNodeOptions(n composer.Node, opts map[string]string) composer.Node {
	if v, ok := opts["name"]; ok {
		n.Name = v
	}
	if v, ok := opts["description"]; ok {
		n.Description = v
	}
	if v, ok := opts["prompt"]; ok {
		n.SystemPrompt = v
	}
	if v, ok := opts["tools"]; ok {
		n.Tools = composer.ParseLabels(v)
	}
	if v, ok := opts["type"]; ok {
		n.NodeType = v
	}
	if v, ok := opts["client"]; ok {
		n.ClientFacing, _ = strconv.ParseBool(v)
	}
	if v, ok := opts["inputs"]; ok {
		n.InputKeys = composer.ParseLabels(v)
	}
	if v, ok := opts["outputs"]; ok {
		n.OutputKeys = composer.ParseLabels(v)
	}
	return n
}

func (c *Console) node(args []string) (string, error) {
	pos, opts := options(args, nodeFlags...)
	if len(pos) < 2 {
		return "", errors.New("usage: node add|edit|rm <id> [options]")
	}
	sub, id := strings.ToLower(pos[0]), pos[1]

	switch sub {
	case "add":
		n := applyNodeOptions(composer.NewNode(id), opts)
		if err := c.session.Update(func(s *composer.State) error { return s.AddNode(n) }); err != nil {
			return "", err
		}
		return "✓ Added node: " + id, nil
	case "edit":
		err := c.session.Update(func(s *composer.State) error {
			current, err := s.GetNode(id)
			if err != nil {
				return err
			}
			return s.UpdateNode(id, applyNodeOptions(current, opts))
		})
		if err != nil {
			return "", err
		}
		return "✓ Updated node: " + id, nil
	case "rm", "delete":
		if err := c.session.Update(func(s *composer.State) error { return s.DeleteNode(id) }); err != nil {
			return "", err
		}
		return "✓ Deleted node: " + id, nil
	}
	return "", fmt.Errorf("unknown node command %q: use add, edit or rm", sub)
}

func (c *Console) edge(args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("usage: edge add <source> <target> [condition] | edge rm <index>")
	}
	switch strings.ToLower(args[0]) {
	case "add":
		if len(args) < 3 {
			return "", errors.New("usage: edge add <source> <target> [condition]")
		}
		cond := ""
		if len(args) > 3 {
			cond = args[3]
		}
		condition, err := composer.ValidateCondition(cond)
		if err != nil {
			return "", err
		}
		e := composer.Edge{Source: args[1], Target: args[2], Condition: condition}
		if err := c.session.Update(func(s *composer.State) error { return s.AddEdge(e) }); err != nil {
			return "", err
		}
		return fmt.Sprintf("✓ Added edge: %s → %s (%s)", e.Source, e.Target, e.Condition), nil
	case "rm", "delete":
		if len(args) < 2 {
			return "", errors.New("usage: edge rm <index>")
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("edge index %q is not a number", args[1])
		}
		if err := c.session.Update(func(s *composer.State) error { return s.DeleteEdge(index) }); err != nil {
			return "", err
		}
		return fmt.Sprintf("✓ Deleted edge %d", index), nil
	}
	return "", fmt.Errorf("unknown edge command %q: use add or rm", args[0])
}

func (c *Console) entry(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: entry <id>")
	}
	if err := c.session.Update(func(s *composer.State) error { return s.SetEntryNode(args[0]) }); err != nil {
		return "", err
	}
	return "✓ Entry node: " + args[0], nil
}

func (c *Console) terminals(args []string) (string, error) {
	ids := composer.ParseLabels(strings.Join(args, ","))
	if len(ids) == 0 {
		return "", errors.New("usage: terminals <id> [id...]")
	}
	if err := c.session.Update(func(s *composer.State) error { return s.SetTerminalNodes(ids) }); err != nil {
		return "", err
	}
	return "✓ Terminal nodes: " + strings.Join(ids, ", "), nil
}

func (c *Console) model(args []string) (string, error) {
	if len(args) == 0 || len(args) > 2 {
		return "", errors.New("usage: model <name> [max_tokens]")
	}
	maxTokens := 0
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("max tokens %q is not a number", args[1])
		}
		maxTokens = n
	}
	if err := c.session.Update(func(s *composer.State) error { return s.SetGeneration(args[0], maxTokens) }); err != nil {
		return "", err
	}
	v := c.session.View()
	return fmt.Sprintf("✓ Model: %s (max tokens %d)", v.DefaultModel, v.MaxTokens), nil
}

func (c *Console) selectTools(args []string) (string, error) {
	ids := composer.ParseLabels(strings.Join(args, ","))
	_ = c.session.Update(func(s *composer.State) error {
		s.SelectTools(ids)
		return nil
	})
	if len(ids) == 0 {
		return "✓ Tools cleared", nil
	}
	return "✓ Tools: " + strings.Join(ids, ", "), nil
}

func (c *Console) output(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: output <path>")
	}
	_ = c.session.Update(func(s *composer.State) error {
		s.SetOutputPath(args[0])
		return nil
	})
	return "✓ Output path: " + args[0], nil
}

func (c *Console) generate(args []string) (string, error) {
	state := c.session.View()
	if missing := state.Missing(); len(missing) > 0 {
		return "", fmt.Errorf("missing: %s", missing[0])
	}

	var outputDir string
	if len(args) > 0 {
		outputDir = args[0]
	} else {
		wd := c.workDir
		if wd == "" {
			var err error
			if wd, err = os.Getwd(); err != nil {
				return "", fmt.Errorf("getting working directory: %w", err)
			}
		}
		var err error
		if outputDir, err = generator.OutputPathFor(state, wd); err != nil {
			return "", err
		}
	}

	res, err := c.gen.Generate(state, outputDir)
	if err != nil {
		return "", fmt.Errorf("generating agent: %w", err)
	}
	c.generated = res.OutputDir

	var b strings.Builder
	fmt.Fprintf(&b, "✓ Agent generated at %s", res.OutputDir)
	for _, a := range res.Artifacts {
		size := ""
		if info, err := os.Stat(filepath.Join(res.OutputDir, a)); err == nil && !info.IsDir() {
			size = " (" + humanize.Bytes(uint64(info.Size())) + ")"
		}
		fmt.Fprintf(&b, "\n    %s%s", a, size)
	}
	return b.String(), nil
}
