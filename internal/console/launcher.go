package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/HendryAvila/Hive/internal/generator"
)

// Choice is the user's answer when an agent already exists.
type Choice string

const (
	ChoiceEdit   Choice = "1"
	ChoiceRun    Choice = "2"
	ChoiceCancel Choice = "3"
)

// ComposeFunc runs a compose session for agentPath reading commands from
// in, and returns its exit code.
type ComposeFunc func(agentPath string, in io.Reader) int

// Launcher chains a compose session into the agent runtime.
type Launcher struct {
	// Python runs `-m framework.runner.cli`.
	Python string
	// Dir is the runtime's working directory. Empty means the current one.
	Dir string

	Compose ComposeFunc

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	in    *bufio.Reader
	inSrc io.Reader
}

// input wraps Stdin once, so the choice prompt, the compose session and
// the runtime consume one buffer and no piped line is dropped.
func (l *Launcher) input() *bufio.Reader {
	if l.in == nil || l.inSrc != l.Stdin {
		src := l.Stdin
		if src == nil {
			src = strings.NewReader("")
		}
		l.in, l.inSrc = bufio.NewReader(src), l.Stdin
	}
	return l.in
}

// runtimeStdin hands the runtime the terminal itself unless lines are
// still buffered from the prompt or the compose session.
func (l *Launcher) runtimeStdin() io.Reader {
	if l.in != nil && l.inSrc == l.Stdin && l.in.Buffered() > 0 {
		return l.in
	}
	return l.Stdin
}

// RuntimeArgs are the arguments that launch the runtime TUI for agentPath.
func RuntimeArgs(agentPath, model string) []string {
	args := []string{"-m", "framework.runner.cli", "run", agentPath, "--tui"}
	if model != "" {
		args = append(args, "--model", model)
	}
	return args
}

// RunRuntime launches the runtime for agentPath and returns its exit code.
func (l *Launcher) RunRuntime(ctx context.Context, agentPath, model string) (int, error) {
	cmd := exec.CommandContext(ctx, l.Python, RuntimeArgs(agentPath, model)...)
	cmd.Dir = l.Dir
	cmd.Stdin, cmd.Stdout, cmd.Stderr = l.runtimeStdin(), l.Stdout, l.Stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return 1, fmt.Errorf("starting runtime: %w", err)
	}
	return 0, nil
}

// ComposeThenRun composes agentPath and, only when the session ended with
// a successful generate, launches the runtime on it.
func (l *Launcher) ComposeThenRun(ctx context.Context, agentPath, model string) (int, error) {
	fmt.Fprintf(l.Stdout, "Launching composer for: %s\n", agentPath)
	if code := l.Compose(agentPath, l.input()); code != ExitGenerated {
		return code, nil
	}
	fmt.Fprintf(l.Stdout, "\nLaunching runtime for: %s\n", agentPath)
	return l.RunRuntime(ctx, agentPath, model)
}

// Edit composes agentPath when it is missing or incomplete. Otherwise it
// asks whether to edit, run or cancel.
func (l *Launcher) Edit(ctx context.Context, agentPath, model string) (int, error) {
	if generator.ShouldCompose(agentPath) {
		return l.ComposeThenRun(ctx, agentPath, model)
	}
	switch PromptChoice(l.input(), l.Stdout) {
	case ChoiceEdit:
		return l.ComposeThenRun(ctx, agentPath, model)
	case ChoiceRun:
		return l.RunRuntime(ctx, agentPath, model)
	}
	return 0, nil
}

// PromptChoice asks until it reads 1, 2 or 3. End of input cancels. It
// consumes exactly one line per attempt, leaving the rest of in unread.
func PromptChoice(in *bufio.Reader, out io.Writer) Choice {
	fmt.Fprintln(out, "\nAgent exists. What would you like to do?")
	fmt.Fprintln(out, "  [1] Edit with composer")
	fmt.Fprintln(out, "  [2] Run with TUI")
	fmt.Fprintln(out, "  [3] Cancel")

	for {
		fmt.Fprint(out, "\nChoice (1/2/3): ")
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return ChoiceCancel
		}
		switch c := Choice(strings.TrimSpace(line)); c {
		case ChoiceEdit, ChoiceRun, ChoiceCancel:
			return c
		}
		fmt.Fprintln(out, "Invalid choice. Please enter 1, 2, or 3.")
	}
}
