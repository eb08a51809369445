package workflow

import (
	"context"
	"encoding/json"
	"time"

	"meetingagent/models"
	"meetingagent/services/oracle"

	"go.uber.org/zap"
)

// Node names shared across the three machines.
const (
	nodeExtract          Node = "extract"
	nodeAskMissing       Node = "ask_missing"
	nodeSummarizeRequest Node = "summarize_request"
	nodeHuman            Node = "human"

	nodeCheckAvailability Node = "check_availability"
	nodeAskAlternative    Node = "ask_alternative"
	nodeSummarize         Node = "summarize"

	nodePlanner     Node = "planner"
	nodeInvokeAgent Node = "invoke_agent"
	nodeDone        Node = "done"
)

// InputWorkflow gathers meeting fields from the conversation until the draft
// is complete, suspending at the human node whenever fields are missing.
//
//	extract -> ask_missing -> human -> extract (resume)
//	extract -> summarize_request -> end
type InputWorkflow struct {
	Oracle          oracle.Client
	DefaultTimezone string
	Now             func() time.Time
	Logger          *zap.Logger
}

func (w *InputWorkflow) machine() *Machine {
	return &Machine{
		Name:    "input",
		Entry:   nodeExtract,
		Suspend: nodeHuman,
		Resume:  nodeExtract,
		Steps: map[Node]StepFunc{
			nodeExtract:          w.extract,
			nodeAskMissing:       w.askMissing,
			nodeSummarizeRequest: w.summarizeRequest,
		},
	}
}

// Run starts the workflow fresh from the given state.
func (w *InputWorkflow) Run(ctx context.Context, st *models.WorkflowState) (Result, *models.Checkpoint, error) {
	return w.machine().Run(ctx, st)
}

// Resume continues a suspended pass with one new human message.
func (w *InputWorkflow) Resume(ctx context.Context, cp *models.Checkpoint, message string) (Result, *models.Checkpoint, error) {
	return w.machine().ResumeFrom(ctx, cp, message)
}

func (w *InputWorkflow) extract(ctx context.Context, st *models.WorkflowState) (Node, error) {
	reply, err := w.Oracle.Complete(ctx, oracle.ExtractionSystem, []string{draftMessage(st.Draft), st.LastMessage()})
	if err != nil {
		return "", transient("extraction oracle", err)
	}

	ext := ParseExtraction(reply)
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	MergeExtraction(st.Draft, ext, w.DefaultTimezone, now())

	if missing := MissingFields(st.Draft); len(missing) > 0 {
		w.Logger.Debug("draft incomplete", zap.Strings("missing", missing))
		st.Status = models.StatusCollectingInfo
		return nodeAskMissing, nil
	}
	return nodeSummarizeRequest, nil
}

func (w *InputWorkflow) askMissing(ctx context.Context, st *models.WorkflowState) (Node, error) {
	reply, err := w.Oracle.Complete(ctx, oracle.AskMissingSystem, []string{draftMessage(st.Draft)})
	if err != nil {
		return "", transient("dialogue oracle", err)
	}
	st.Append(reply)
	st.Status = models.StatusAwaitingHuman
	return nodeHuman, nil
}

func (w *InputWorkflow) summarizeRequest(ctx context.Context, st *models.WorkflowState) (Node, error) {
	reply, err := w.Oracle.Complete(ctx, oracle.SummarizeRequestSystem, []string{draftMessage(st.Draft)})
	if err != nil {
		return "", transient("dialogue oracle", err)
	}
	st.Append(reply)
	return NodeEnd, nil
}

// draftMessage renders the draft as the structured-text message the oracle
// prompts expect.
func draftMessage(draft *models.MeetingDraft) string {
	b, err := json.Marshal(draft)
	if err != nil {
		return "draft: {}"
	}
	return "draft: " + string(b)
}
