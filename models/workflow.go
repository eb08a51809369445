package models

import (
	"encoding/json"
	"time"
)

// Status tracks where a workflow level stands in the dialogue.
type Status string

const (
	StatusCollectingInfo       Status = "collecting_info"
	StatusCheckingAvailability Status = "checking_availability"
	StatusBooked               Status = "booked"
	StatusAwaitingHuman        Status = "ask_human"
)

// PlannerStatus tracks the planner's own routing position.
type PlannerStatus string

const (
	PlannerStatusUnknown PlannerStatus = "unknown"
	PlannerStatusInvoke  PlannerStatus = "invoke_agent"
	PlannerStatusReplan  PlannerStatus = "planner"
	PlannerStatusDone    PlannerStatus = "done"
)

// Agent names the planner can delegate to.
const (
	AgentInput   = "input_agent"
	AgentBooking = "booking_agent"
)

// WorkflowState is one workflow level's complete mutable state: the ordered
// message history (append-only, oldest first), the shared meeting draft, and
// the control fields the state machines branch on. The planner level
// additionally uses AgentName, PlannerStatus and the remaining turn budget.
type WorkflowState struct {
	Messages      []string         `json:"messages"`
	Draft         *MeetingDraft    `json:"draft"`
	Status        Status           `json:"status"`
	Suggestions   []SlotSuggestion `json:"suggestions,omitempty"`
	BookedEvent   *BookedEvent     `json:"bookedEvent,omitempty"`
	Override      bool             `json:"override"`
	AgentName     string           `json:"agentName,omitempty"`
	PlannerStatus PlannerStatus    `json:"plannerStatus,omitempty"`
	Turns         int              `json:"turns"`
}

// NewWorkflowState builds a fresh planner-level state with the given turn budget.
func NewWorkflowState(turns int) *WorkflowState {
	return &WorkflowState{
		Draft:         NewMeetingDraft(),
		Status:        StatusCollectingInfo,
		PlannerStatus: PlannerStatusUnknown,
		Turns:         turns,
	}
}

// Append adds a message to the history.
func (s *WorkflowState) Append(msg string) {
	s.Messages = append(s.Messages, msg)
}

// LastMessage returns the most recent message, or "" for an empty history.
func (s *WorkflowState) LastMessage() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1]
}

// Clone deep-copies the state so a leaf workflow can own its copy while
// suspended without aliasing the planner's.
func (s *WorkflowState) Clone() *WorkflowState {
	cp := *s
	cp.Messages = append([]string(nil), s.Messages...)
	cp.Suggestions = append([]SlotSuggestion(nil), s.Suggestions...)
	cp.Draft = s.Draft.Clone()
	if s.BookedEvent != nil {
		ev := *s.BookedEvent
		cp.BookedEvent = &ev
	}
	return &cp
}

// Checkpoint is the durable snapshot of a suspended workflow: its state plus
// the node to re-enter when the next human message arrives.
type Checkpoint struct {
	State   *WorkflowState `json:"state"`
	Resume  string         `json:"resume"`
	SavedAt time.Time      `json:"savedAt"`
}

// Clone deep-copies the checkpoint. A nil receiver yields nil.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	cp := *c
	cp.State = c.State.Clone()
	return &cp
}

// Session binds everything the store owns for one conversation: the
// planner-level state and the per-level checkpoints while suspended. Leaf
// checkpoints are cleared once the level resumes and runs past its
// suspension point.
type Session struct {
	SessionID         string         `json:"sessionId"`
	Planner           *WorkflowState `json:"planner"`
	PlannerCheckpoint *Checkpoint    `json:"plannerCheckpoint,omitempty"`
	InputCheckpoint   *Checkpoint    `json:"inputCheckpoint,omitempty"`
	BookingCheckpoint *Checkpoint    `json:"bookingCheckpoint,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// Clone deep-copies the session, so a turn can run against a private copy
// and commit to the store only once it succeeds.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Planner = s.Planner.Clone()
	cp.PlannerCheckpoint = s.PlannerCheckpoint.Clone()
	cp.InputCheckpoint = s.InputCheckpoint.Clone()
	cp.BookingCheckpoint = s.BookingCheckpoint.Clone()
	return &cp
}

// MarshalState renders the session as JSON for transport and storage.
func (s *Session) MarshalState() ([]byte, error) {
	return json.Marshal(s)
}
