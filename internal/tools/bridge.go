package tools

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/HendryAvila/Hive/internal/composer"
	"github.com/HendryAvila/Hive/internal/generator"
)

// GenerationObserver is notified after an agent has been written to disk.
// It's an optional dependency: tools work fine with a nil observer.
type GenerationObserver interface {
	OnGenerated(ctx context.Context, state *composer.State, res *generator.Result)
}

// Learner is the subset of *memory.Manager the bridge needs.
type Learner interface {
	SaveLearning(ctx context.Context, content string, tags []string) (string, error)
}

// MemoryBridge records each generated agent as a learning, so later
// sessions can search for graphs that were already built.
type MemoryBridge struct {
	mem Learner
}

// NewMemoryBridge returns nil when mem is nil. Callers assign the result to
// a GenerationObserver and notifyObserver skips it.
func NewMemoryBridge(mem Learner) *MemoryBridge {
	if mem == nil {
		return nil
	}
	return &MemoryBridge{mem: mem}
}

// OnGenerated saves a compact description of the graph. Best-effort:
// failures are logged, generation already succeeded.
func (b *MemoryBridge) OnGenerated(ctx context.Context, state *composer.State, res *generator.Result) {
	if b == nil {
		return
	}
	tags := []string{"composer", "agent:" + state.AgentName}
	if _, err := b.mem.SaveLearning(ctx, generationSummary(state, res), tags); err != nil {
		log.Printf("WARNING: memory bridge: save generation of %q: %v", state.AgentName, err)
	}
}

func generationSummary(state *composer.State, res *generator.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generated agent %q at %s", state.AgentName, res.OutputDir)
	if state.Goal != nil {
		fmt.Fprintf(&b, " for goal %q", state.Goal.Name)
	}
	fmt.Fprintf(&b, ". Nodes: %s (entry %s).", strings.Join(state.NodeIDs(), ", "), state.EntryNode)
	if len(state.SelectedTools) > 0 {
		fmt.Fprintf(&b, " Tools: %s.", strings.Join(state.SelectedTools, ", "))
	}
	return b.String()
}

// notifyObserver is a nil-safe helper called after a successful generate.
func notifyObserver(ctx context.Context, obs GenerationObserver, state *composer.State, res *generator.Result) {
	if obs == nil {
		return
	}
	obs.OnGenerated(ctx, state, res)
}
