package workflow

import (
	"context"
	"errors"
	"fmt"

	"meetingagent/models"
	"meetingagent/services/oracle"

	"go.uber.org/zap"
)

// Planner is the top-level orchestrator. On each external turn it either asks
// the oracle which leaf to invoke, delegates the turn to that leaf, or
// terminates.
//
//	planner -> invoke_agent -> planner (leaf completed, re-route)
//	planner -> invoke_agent -> human   (leaf suspended, forward its question)
//	planner -> done
//
// The planner owns no leaf internals: it hands a cloned state across the
// delegation boundary, and folds back only what the leaf emitted.
type Planner struct {
	Oracle  oracle.Client
	Input   *InputWorkflow
	Booking *BookingWorkflow
	Logger  *zap.Logger
}

// budget-exhaustion and fallback wording surfaced to the user.
const (
	msgBudgetExhausted  = "I couldn't finish within the allowed number of planning steps. Here's where we left off: "
	msgUnrecognizedPlan = "I wasn't able to decide what to do next, so I'm stopping here."
)

// Run drives a brand-new conversation: seeds the planner state with the first
// message and executes until suspension or completion. Leaf checkpoints and
// the planner's own checkpoint are written through the session.
func (p *Planner) Run(ctx context.Context, sess *models.Session, message string) (Result, error) {
	st := sess.Planner
	st.Append(message)

	run := &plannerRun{p: p, sess: sess}
	res, cp, err := run.machine().Run(ctx, st)
	if err != nil {
		return res, err
	}
	sess.PlannerCheckpoint = cp
	return res, nil
}

// Resume continues a suspended conversation with one new human message.
func (p *Planner) Resume(ctx context.Context, sess *models.Session, message string) (Result, error) {
	if sess.PlannerCheckpoint == nil {
		return p.Run(ctx, sess, message)
	}

	run := &plannerRun{p: p, sess: sess}
	res, cp, err := run.machine().ResumeFrom(ctx, sess.PlannerCheckpoint, message)
	if err != nil {
		return res, err
	}
	sess.PlannerCheckpoint = cp
	sess.Planner = res.State
	return res, nil
}

// plannerRun binds one pass of the planner machine to its session, so the
// step functions can stash and clear leaf checkpoints.
type plannerRun struct {
	p     *Planner
	sess  *models.Session
	recap string
}

func (r *plannerRun) machine() *Machine {
	return &Machine{
		Name:    "planner",
		Entry:   nodePlanner,
		Suspend: nodeHuman,
		Resume:  nodePlanner,
		Steps: map[Node]StepFunc{
			nodePlanner:     r.plan,
			nodeInvokeAgent: r.invokeAgent,
			nodeDone:        r.done,
		},
	}
}

// plan routes the conversation: continuation short-circuits straight back to
// the suspended leaf, otherwise the oracle picks the next capability.
func (r *plannerRun) plan(ctx context.Context, st *models.WorkflowState) (Node, error) {
	if st.Turns <= 0 {
		r.p.Logger.Warn("turn budget exhausted, forcing done",
			zap.String("agent", st.AgentName))
		st.Append(msgBudgetExhausted + st.LastMessage())
		return nodeDone, nil
	}

	// A pending leaf question being answered is a continuation, not a
	// re-planning decision.
	if st.Status == models.StatusAwaitingHuman && st.AgentName != "" {
		st.PlannerStatus = models.PlannerStatusInvoke
		return nodeInvokeAgent, nil
	}

	reply, err := r.p.Oracle.Complete(ctx, oracle.PlannerSystem, []string{st.LastMessage()})
	if err != nil {
		return "", transient("planner oracle", err)
	}

	decision := ParseRoute(reply)
	switch decision.Route {
	case RouteInput:
		st.AgentName = models.AgentInput
		st.PlannerStatus = models.PlannerStatusInvoke
		return nodeInvokeAgent, nil
	case RouteBooking:
		st.AgentName = models.AgentBooking
		st.PlannerStatus = models.PlannerStatusInvoke
		return nodeInvokeAgent, nil
	case RouteDone:
		r.recap = decision.Recap
		return nodeDone, nil
	default:
		// Fail closed on a hallucinated capability name.
		r.p.Logger.Warn("unrecognized planner route", zap.String("reply", reply))
		st.Append(msgUnrecognizedPlan)
		return nodeDone, nil
	}
}

// invokeAgent delegates the current turn to the selected leaf, charging one
// delegation cycle against the turn budget.
func (r *plannerRun) invokeAgent(ctx context.Context, st *models.WorkflowState) (Node, error) {
	st.Turns--

	var (
		res Result
		err error
	)

	switch st.AgentName {
	case models.AgentInput:
		res, err = r.runLeaf(ctx, st, r.p.Input.Run, r.p.Input.Resume, &r.sess.InputCheckpoint)
	case models.AgentBooking:
		res, err = r.runLeaf(ctx, st, r.p.Booking.Run, r.p.Booking.Resume, &r.sess.BookingCheckpoint)
	default:
		return "", fmt.Errorf("no such agent %q", st.AgentName)
	}
	if errors.Is(err, ErrDraftIncomplete) {
		// A mis-route sent booking an unfinished draft; recover by re-asking
		// instead of surfacing an internal error.
		r.p.Logger.Warn("booking invoked with incomplete draft, re-routing to input")
		st.AgentName = models.AgentInput
		st.PlannerStatus = models.PlannerStatusInvoke
		return nodeInvokeAgent, nil
	}
	if err != nil {
		return "", err
	}

	foldLeafState(st, res.State)

	if res.Suspended {
		// Forward the leaf's question verbatim and wait for the human.
		st.Status = models.StatusAwaitingHuman
		return nodeHuman, nil
	}

	// Leaf completed this pass: hand control back to the routing step.
	st.Append(fmt.Sprintf("%s completed with %s, decide next step.", st.AgentName, res.Reply()))
	st.PlannerStatus = models.PlannerStatusReplan
	if st.AgentName == models.AgentInput {
		// Routing hint only; nothing enforces it.
		st.Status = models.StatusCheckingAvailability
	}
	return nodePlanner, nil
}

type leafRunFunc func(ctx context.Context, st *models.WorkflowState) (Result, *models.Checkpoint, error)
type leafResumeFunc func(ctx context.Context, cp *models.Checkpoint, message string) (Result, *models.Checkpoint, error)

// runLeaf starts the leaf fresh with a clone of the planner's state, or, when
// the planner is mid-suspension on this leaf, resumes its checkpoint with the
// latest human message. The checkpoint slot is updated in place: set while
// the leaf stays suspended, cleared once it completes.
func (r *plannerRun) runLeaf(
	ctx context.Context,
	st *models.WorkflowState,
	run leafRunFunc,
	resume leafResumeFunc,
	slot **models.Checkpoint,
) (Result, error) {
	var (
		res Result
		cp  *models.Checkpoint
		err error
	)
	if st.Status == models.StatusAwaitingHuman && *slot != nil {
		res, cp, err = resume(ctx, *slot, st.LastMessage())
	} else {
		res, cp, err = run(ctx, st.Clone())
	}
	if err != nil {
		return res, err
	}
	*slot = cp
	return res, nil
}

// done terminates the conversation. When the oracle supplied a recap with its
// "done" verdict, that recap becomes the final reply; otherwise the last
// message stands.
func (r *plannerRun) done(ctx context.Context, st *models.WorkflowState) (Node, error) {
	if r.recap != "" {
		st.Append(r.recap)
	}
	st.PlannerStatus = models.PlannerStatusDone
	st.AgentName = ""
	return NodeEnd, nil
}

// foldLeafState reconciles a leaf's result into the planner's state. The
// planner adopts the leaf's message list (a superset of its own seed), the
// shared draft, and the booking outputs; it never reaches into leaf internals
// beyond what the leaf emitted.
func foldLeafState(planner, leaf *models.WorkflowState) {
	planner.Messages = leaf.Messages
	planner.Draft = leaf.Draft
	planner.Status = leaf.Status
	planner.Suggestions = leaf.Suggestions
	planner.BookedEvent = leaf.BookedEvent
	planner.Override = leaf.Override
}
