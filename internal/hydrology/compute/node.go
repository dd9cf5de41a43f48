// Package compute drives the GPU formulation of the erosion simulation: a
// per-tick node that waits for its pipelines to compile, seeds the heightmap
// once and then dispatches droplet batches every tick.
package compute

import (
	"fmt"

	"hydro-terrain/internal/core"
	"hydro-terrain/internal/hydrology"
)

// WorkgroupSize is the local size of the init pass in both dimensions.
const WorkgroupSize = 8

// UpdateGroups is the fixed dispatch size of the update pass.
var UpdateGroups = [3]uint32{2, 4, 1}

// DefaultSize is the texture resolution used when none is configured.
var DefaultSize = core.Size{W: 256, H: 256}

// State is the node's position in its lifecycle.
type State int

const (
	StateLoading State = iota
	StateInit
	StateUpdate
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateInit:
		return "init"
	case StateUpdate:
		return "update"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Next advances s by at most one step: Loading moves to Init once the init
// pipeline is ready, Init moves to Update once the update pipeline is ready.
// Update is terminal.
func Next(s State, initReady, updateReady bool) State {
	switch s {
	case StateLoading:
		if initReady {
			return StateInit
		}
	case StateInit:
		if updateReady {
			return StateUpdate
		}
	}
	return s
}

// PipelineID names one compiled compute entry point.
type PipelineID int

const (
	PipelineInit PipelineID = iota
	PipelineUpdate
)

func (p PipelineID) String() string {
	switch p {
	case PipelineInit:
		return "init"
	case PipelineUpdate:
		return "update"
	default:
		return fmt.Sprintf("Pipeline(%d)", int(p))
	}
}

// PipelineStatus reports compilation progress.
type PipelineStatus int

const (
	StatusQueued PipelineStatus = iota
	StatusCompiling
	StatusReady
	StatusFailed
)

// PipelineCache answers readiness queries without blocking.
type PipelineCache interface {
	Status(id PipelineID) PipelineStatus
}

// Dispatcher issues a compute dispatch for a ready pipeline.
type Dispatcher interface {
	Dispatch(id PipelineID, x, y, z uint32) error
}

// Node sequences the init and update passes.
type Node struct {
	size    core.Size
	state   State
	initRan bool
}

// NewNode returns a node in the Loading state for textures of the given size.
func NewNode(size core.Size) *Node {
	return &Node{size: size}
}

// State reports the current lifecycle state.
func (n *Node) State() State { return n.state }

// Update polls the cache once and applies at most one transition. The node
// leaves Init only after the init pass has been dispatched.
func (n *Node) Update(cache PipelineCache) error {
	initStatus := cache.Status(PipelineInit)
	updateStatus := cache.Status(PipelineUpdate)
	if initStatus == StatusFailed {
		return fmt.Errorf("compute: %s pipeline failed to compile", PipelineInit)
	}
	if updateStatus == StatusFailed {
		return fmt.Errorf("compute: %s pipeline failed to compile", PipelineUpdate)
	}
	if n.state == StateInit && !n.initRan {
		return nil
	}
	n.state = Next(n.state, initStatus == StatusReady, updateStatus == StatusReady)
	return nil
}

// Plan returns the dispatch for the current state. ok is false when nothing
// should run this tick.
func (n *Node) Plan() (id PipelineID, groups [3]uint32, ok bool) {
	switch n.state {
	case StateInit:
		if n.initRan {
			return 0, groups, false
		}
		return PipelineInit, InitGroups(n.size), true
	case StateUpdate:
		return PipelineUpdate, UpdateGroups, true
	default:
		return 0, groups, false
	}
}

// Run issues this tick's dispatch. In Update the drop budget is charged
// before dispatching; an exhausted budget skips the pass.
func (n *Node) Run(d Dispatcher, budget *hydrology.Config) error {
	id, g, ok := n.Plan()
	if !ok {
		return nil
	}
	if id == PipelineUpdate {
		if budget.Exhausted() {
			return nil
		}
		budget.TotalDropsIssued += budget.DropsPerCycle
	}
	if err := d.Dispatch(id, g[0], g[1], g[2]); err != nil {
		return fmt.Errorf("compute: dispatch %s: %w", id, err)
	}
	if id == PipelineInit {
		n.initRan = true
	}
	return nil
}

// InitGroups covers a size texture with WorkgroupSize×WorkgroupSize groups.
func InitGroups(size core.Size) [3]uint32 {
	return [3]uint32{
		uint32((size.W + WorkgroupSize - 1) / WorkgroupSize),
		uint32((size.H + WorkgroupSize - 1) / WorkgroupSize),
		1,
	}
}
