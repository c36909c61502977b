package server

import (
	"context"
	"testing"

	"github.com/HendryAvila/Hive/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.OutputRoot = t.TempDir()
	return cfg
}

func TestNewDeps_LocalMemory(t *testing.T) {
	d, cleanup, err := NewDeps(context.Background(), testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	if d.Memory == nil || d.Observer == nil {
		t.Error("local memory should open in a temp dir")
	}
	if d.Jira != nil {
		t.Error("jira should stay disabled without credentials")
	}
	v := d.Session.View()
	if v.DefaultModel != "gpt-4o-mini" || v.MaxTokens != 30000 {
		t.Errorf("session defaults = %s %d", v.DefaultModel, v.MaxTokens)
	}
}

func TestNewDeps_MemoryFailureDegrades(t *testing.T) {
	cfg := testConfig(t)
	cfg.Memory.Backend = "redis"

	d, cleanup, err := NewDeps(context.Background(), cfg)
	if err != nil {
		t.Fatalf("memory failure must not be fatal: %v", err)
	}
	defer cleanup()
	if d.Memory != nil || d.Observer != nil {
		t.Error("memory should be disabled")
	}
}

func TestNewDeps_JiraConfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.Jira.BaseURL = "https://example.atlassian.net"
	cfg.Jira.PAT = "pat"

	d, cleanup, err := NewDeps(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	if d.Jira == nil {
		t.Fatal("jira client should be built")
	}
}

func TestNew_WithAllIntegrations(t *testing.T) {
	cfg := testConfig(t)
	cfg.Jira.BaseURL = "https://example.atlassian.net"
	cfg.Jira.APIToken = "tok"
	cfg.Jira.Email = "me@example.com"

	d, cleanup, err := NewDeps(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	if s := New(d); s == nil {
		t.Fatal("New returned nil")
	}
}

func TestComposerTools_Names(t *testing.T) {
	d, cleanup, err := NewDeps(context.Background(), testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	seen := map[string]bool{}
	for _, tl := range composerTools(d) {
		def := tl.Definition()
		if seen[def.Name] {
			t.Errorf("duplicate tool %s", def.Name)
		}
		seen[def.Name] = true
		if def.InputSchema.Type != "object" {
			t.Errorf("%s schema type = %q", def.Name, def.InputSchema.Type)
		}
	}
	if len(seen) != 12 {
		t.Errorf("composer tools = %d, want 12", len(seen))
	}
}
