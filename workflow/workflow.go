// Package workflow provides the sequential state-machine engine the answer
// pipeline runs on: named nodes, condition nodes with routing maps, a
// max-visit guard against runaway loops, and a per-node observer used to
// build the run trace.
package workflow

import (
	"context"
	"fmt"
	"time"
)

// NodeType classifies a node for observers.
type NodeType string

const (
	NodeTypeStart     NodeType = "start"
	NodeTypeEnd       NodeType = "end"
	NodeTypeLLM       NodeType = "llm"
	NodeTypeTool      NodeType = "tool"
	NodeTypeCondition NodeType = "condition"
)

// NodeFunc executes one stage against the typed run state.
type NodeFunc[S any] func(context.Context, S) error

// ConditionFunc inspects the state and names the branch to take.
type ConditionFunc[S any] func(context.Context, S) (string, error)

// Observer is invoked after every executed node with its outcome. Condition
// nodes report the chosen branch as the status.
type Observer[S any] func(node string, typ NodeType, status string, elapsed time.Duration, err error)

type node[S any] struct {
	name      string
	typ       NodeType
	run       NodeFunc[S]
	condition ConditionFunc[S]
	next      string
	branches  map[string]string
}

// Machine is an immutable state machine; Run drives a single state value
// through it strictly sequentially.
type Machine[S any] struct {
	nodes     map[string]*node[S]
	start     string
	maxVisits int
	observer  Observer[S]
}

// Run executes the machine from its start node until an end node finishes.
func (m *Machine[S]) Run(ctx context.Context, state S) error {
	if m.start == "" {
		return fmt.Errorf("workflow: start node not set")
	}
	visits := make(map[string]int)
	current := m.start
	for {
		n, ok := m.nodes[current]
		if !ok {
			return fmt.Errorf("workflow: node %q not found", current)
		}
		visits[current]++
		if visits[current] > m.maxVisits {
			return fmt.Errorf("workflow: node %q exceeded max visits (%d)", current, m.maxVisits)
		}

		started := time.Now()
		var next string
		var err error
		if n.typ == NodeTypeCondition {
			var branch string
			branch, err = n.condition(ctx, state)
			if err == nil {
				next, ok = n.branches[branch]
				if !ok {
					err = fmt.Errorf("workflow: node %q has no branch %q", current, branch)
				}
			}
			m.observe(n, branch, started, err)
		} else {
			err = n.run(ctx, state)
			next = n.next
			status := "ok"
			if err != nil {
				status = "error"
			}
			m.observe(n, status, started, err)
		}
		if err != nil {
			return fmt.Errorf("workflow: node %q: %w", current, err)
		}
		if n.typ == NodeTypeEnd {
			return nil
		}
		if next == "" {
			return fmt.Errorf("workflow: node %q has no successor", current)
		}
		current = next
	}
}

func (m *Machine[S]) observe(n *node[S], status string, started time.Time, err error) {
	if m.observer == nil {
		return
	}
	m.observer(n.name, n.typ, status, time.Since(started), err)
}

// Builder assembles a machine fluently.
type Builder[S any] struct {
	machine *Machine[S]
}

// NewBuilder creates an empty builder.
func NewBuilder[S any]() *Builder[S] {
	return &Builder[S]{machine: &Machine[S]{
		nodes:     make(map[string]*node[S]),
		maxVisits: 10,
	}}
}

// AddNode registers an executable node.
func (b *Builder[S]) AddNode(name string, typ NodeType, run NodeFunc[S]) *Builder[S] {
	if run == nil {
		panic(fmt.Sprintf("workflow: node %s must have a run function", name))
	}
	b.add(&node[S]{name: name, typ: typ, run: run})
	if typ == NodeTypeStart {
		b.machine.start = name
	}
	return b
}

// AddConditionNode registers a routing node; branches maps condition results
// to successor node names.
func (b *Builder[S]) AddConditionNode(name string, condition ConditionFunc[S], branches map[string]string) *Builder[S] {
	if condition == nil {
		panic(fmt.Sprintf("workflow: condition node %s must have a condition function", name))
	}
	b.add(&node[S]{name: name, typ: NodeTypeCondition, condition: condition, branches: branches})
	return b
}

// AddEdge wires the successor of an executable node.
func (b *Builder[S]) AddEdge(from, to string) *Builder[S] {
	n, ok := b.machine.nodes[from]
	if !ok {
		panic(fmt.Sprintf("workflow: node %s not found", from))
	}
	if n.typ == NodeTypeCondition {
		panic(fmt.Sprintf("workflow: condition node %s routes via branches, not edges", from))
	}
	n.next = to
	return b
}

// SetStart overrides the start node.
func (b *Builder[S]) SetStart(name string) *Builder[S] {
	if _, ok := b.machine.nodes[name]; !ok {
		panic(fmt.Sprintf("workflow: node %s not found", name))
	}
	b.machine.start = name
	return b
}

// SetMaxVisits tweaks the loop guard.
func (b *Builder[S]) SetMaxVisits(max int) *Builder[S] {
	if max > 0 {
		b.machine.maxVisits = max
	}
	return b
}

// SetObserver installs the per-node observer.
func (b *Builder[S]) SetObserver(obs Observer[S]) *Builder[S] {
	b.machine.observer = obs
	return b
}

// Build returns the assembled machine.
func (b *Builder[S]) Build() *Machine[S] {
	return b.machine
}

func (b *Builder[S]) add(n *node[S]) {
	if _, exists := b.machine.nodes[n.name]; exists {
		panic(fmt.Sprintf("workflow: node %s already exists", n.name))
	}
	b.machine.nodes[n.name] = n
}
