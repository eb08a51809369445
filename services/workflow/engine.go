// Package workflow implements the layered state-machine engine behind the
// scheduling dialogue: two leaf machines (input gathering, booking) and the
// planner that delegates between them. Each machine is an explicit table of
// named nodes and step functions. Suspension is a returned result, not a
// control-flow interruption: execution stops exactly before the designated
// human node, a checkpoint records the node to re-enter, and resumption
// appends one new message and continues from that node.
package workflow

import (
	"context"
	"fmt"
	"time"

	"meetingagent/models"
)

// Node names a state in a machine's transition table.
type Node string

// NodeEnd is the terminal pseudo-node every machine converges on.
const NodeEnd Node = "end"

// StepFunc executes one node against the state and names the next node.
type StepFunc func(ctx context.Context, st *models.WorkflowState) (Node, error)

// Machine is an explicit state-and-transition table. Suspend names the human
// node execution must stop before; Resume names the node that follows it,
// where a later call re-enters after the human's reply is appended.
type Machine struct {
	Name    string
	Entry   Node
	Suspend Node
	Resume  Node
	Steps   map[Node]StepFunc
}

// Result is the outcome of driving a machine until it either finished or
// reached its suspension boundary.
type Result struct {
	State     *models.WorkflowState
	Suspended bool
}

// Reply returns the machine's output message for this pass.
func (r Result) Reply() string {
	return r.State.LastMessage()
}

// maxStepsPerRun bounds a single pass; a well-formed machine suspends or
// terminates long before this.
const maxStepsPerRun = 32

// Run drives the machine from its entry node. When the machine suspends, the
// returned checkpoint captures the state and resume node; a completed pass
// returns a nil checkpoint.
func (m *Machine) Run(ctx context.Context, st *models.WorkflowState) (Result, *models.Checkpoint, error) {
	return m.runFrom(ctx, m.Entry, st)
}

// ResumeFrom appends the new human message to the checkpointed state and
// continues from the node after the suspension boundary. Resumption never
// re-executes nodes already passed: the checkpoint's resume node is the sole
// re-entry point.
func (m *Machine) ResumeFrom(ctx context.Context, cp *models.Checkpoint, message string) (Result, *models.Checkpoint, error) {
	st := cp.State
	st.Append(message)
	return m.runFrom(ctx, Node(cp.Resume), st)
}

func (m *Machine) runFrom(ctx context.Context, from Node, st *models.WorkflowState) (Result, *models.Checkpoint, error) {
	node := from
	for i := 0; ; i++ {
		if i >= maxStepsPerRun {
			return Result{State: st}, nil, fmt.Errorf("workflow %s: exceeded %d steps without suspending", m.Name, maxStepsPerRun)
		}
		if node == NodeEnd {
			return Result{State: st}, nil, nil
		}
		if node == m.Suspend {
			cp := &models.Checkpoint{
				State:   st,
				Resume:  string(m.Resume),
				SavedAt: time.Now(),
			}
			return Result{State: st, Suspended: true}, cp, nil
		}

		step, ok := m.Steps[node]
		if !ok {
			return Result{State: st}, nil, fmt.Errorf("workflow %s: unknown node %q", m.Name, node)
		}
		next, err := step(ctx, st)
		if err != nil {
			return Result{State: st}, nil, fmt.Errorf("workflow %s: node %s: %w", m.Name, node, err)
		}
		node = next
	}
}
