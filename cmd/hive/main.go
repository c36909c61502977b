// Hive: agent-graph composer
//
// Composes an agent as a graph of LLM nodes and generates a runnable
// Python agent package from it, over MCP, HTTP or a terminal session.
//
// Usage:
//
//	hive serve                      # MCP server (stdio transport)
//	hive http [--addr host:port]    # HTTP editing API
//	hive compose [path]             # terminal compose session
//	hive edit <path> [--model m]    # compose, then run the agent
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/HendryAvila/Hive/internal/composer"
	"github.com/HendryAvila/Hive/internal/config"
	"github.com/HendryAvila/Hive/internal/console"
	"github.com/HendryAvila/Hive/internal/httpapi"
	hiveserver "github.com/HendryAvila/Hive/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "http":
		if err := runHTTP(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "compose":
		os.Exit(runCompose(args))
	case "edit":
		os.Exit(runEdit(args))
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("hive v%s\n", hiveserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// signalContext is cancelled on interrupt or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runServe() error {
	ctx, cancel := signalContext()
	defer cancel()

	deps, cleanup, err := hiveserver.NewDeps(ctx, loadConfig())
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	return server.ServeStdio(hiveserver.New(deps))
}

func runHTTP(args []string) error {
	cfg := loadConfig()
	fs := flag.NewFlagSet("http", flag.ExitOnError)
	addr := fs.String("addr", cfg.HTTP.Addr, "listen address")
	_ = fs.Parse(args)

	ctx, cancel := signalContext()
	defer cancel()

	deps, cleanup, err := hiveserver.NewDeps(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	app := httpapi.New(deps.Session, deps.Generator, deps.Observer, deps.WorkDir).App()
	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	log.Printf("hive http listening on %s", *addr)
	return app.Listen(*addr)
}

// composeSession runs one terminal compose session reading commands from
// in and writing to agentPath (empty means the default location). It
// returns the session's exit code.
func composeSession(deps *hiveserver.Deps, agentPath string, in io.Reader) int {
	if agentPath != "" {
		_ = deps.Session.Update(func(s *composer.State) error {
			s.SetOutputPath(agentPath)
			return nil
		})
	}
	c := console.New(deps.Session, deps.Generator, deps.WorkDir)
	c.Interactive = console.IsTerminal(os.Stdin)
	return c.Run(in, os.Stdout)
}

func runCompose(args []string) int {
	ctx, cancel := signalContext()
	defer cancel()

	deps, cleanup, err := hiveserver.NewDeps(ctx, loadConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	return composeSession(deps, path, os.Stdin)
}

func runEdit(args []string) int {
	cfg := loadConfig()
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	model := fs.String("model", "", "model passed to the runtime")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: hive edit <path> [--model m]")
		return 1
	}
	agentPath := fs.Arg(0)

	ctx, cancel := signalContext()
	defer cancel()

	deps, cleanup, err := hiveserver.NewDeps(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	l := &console.Launcher{
		Python:  cfg.Runtime.Python,
		Compose: func(p string, in io.Reader) int { return composeSession(deps, p, in) },
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
	code, err := l.Edit(ctx, agentPath, *model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return code
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Hive v%s, agent-graph composer

Usage:
  hive serve                     Start the MCP server (stdio transport)
  hive http [--addr host:port]   Serve the HTTP editing API
  hive compose [path]            Compose an agent in the terminal
  hive edit <path> [--model m]   Compose (or reuse) an agent, then run it
  hive version                   Print the version

Configuration:
  ~/.hive/config.yaml (or $HIVE_CONFIG), overridden by HIVE_*, MEMORY_*,
  GEMINI_API_KEY and JIRA_* environment variables.

  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "hive": {
        "command": "hive",
        "args": ["serve"]
      }
    }
  }
`, hiveserver.Version)
}
