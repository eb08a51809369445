package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"meetingagent/models"
	"meetingagent/services/calendar"
	"meetingagent/services/oracle"

	"go.uber.org/zap"
)

// BookingWorkflow checks availability and books, or proposes alternatives and
// suspends until the human picks one.
//
//	check_availability -> summarize -> end
//	check_availability -> ask_alternative -> human -> check_availability (resume)
//
// After an alternatives round the override flag is set, so the next pass
// books without re-checking availability: the human's chosen time is trusted
// as-is.
type BookingWorkflow struct {
	Oracle          oracle.Client
	Calendar        calendar.Provider
	DefaultTimezone string
	Now             func() time.Time
	Logger          *zap.Logger
}

const alternativeCount = 3

func (w *BookingWorkflow) machine() *Machine {
	return &Machine{
		Name:    "booking",
		Entry:   nodeCheckAvailability,
		Suspend: nodeHuman,
		Resume:  nodeCheckAvailability,
		Steps: map[Node]StepFunc{
			nodeCheckAvailability: w.checkAvailability,
			nodeAskAlternative:    w.askAlternative,
			nodeSummarize:         w.summarize,
		},
	}
}

// Run starts the workflow fresh from the given state.
func (w *BookingWorkflow) Run(ctx context.Context, st *models.WorkflowState) (Result, *models.Checkpoint, error) {
	return w.machine().Run(ctx, st)
}

// Resume continues a suspended pass with one new human message.
func (w *BookingWorkflow) Resume(ctx context.Context, cp *models.Checkpoint, message string) (Result, *models.Checkpoint, error) {
	return w.machine().ResumeFrom(ctx, cp, message)
}

func (w *BookingWorkflow) checkAvailability(ctx context.Context, st *models.WorkflowState) (Node, error) {
	draft := st.Draft
	if draft.StartTime == nil {
		return "", ErrDraftIncomplete
	}

	loc := LoadLocation(draft.Timezone, w.DefaultTimezone)
	start := draft.StartTime.In(loc)
	dur := draft.DurationMinutes
	if dur <= 0 {
		dur = models.DefaultDurationMinutes
	}

	if st.Override || w.Calendar.IsAvailable(draft.AttendeeFullName) {
		// When the override follows an alternatives round, honor a slot the
		// human referred to by number, or a brand-new time phrase.
		if st.Override && len(st.Suggestions) > 0 {
			if picked, ok := w.resolveSelection(st, loc); ok {
				start = picked
				draft.StartTime = &picked
			}
		}
		event := w.Calendar.Book(draft.HostFullName, draft.AttendeeFullName, draft.Subject, start, dur)
		st.BookedEvent = &event
		st.Status = models.StatusBooked
		st.Suggestions = nil
		st.Append(fmt.Sprintf(
			"Booked: %s with %s at %s for %d minutes by host %s.",
			event.Subject, event.AttendeeFullName,
			event.StartTime.Format("Mon, Jan 2 at 3:04 PM MST"),
			event.DurationMinutes, event.HostFullName,
		))
		return nodeSummarize, nil
	}

	suggestions := w.Calendar.SuggestAlternatives(draft.AttendeeFullName, start, dur, alternativeCount)
	st.Suggestions = suggestions
	st.Override = true

	if len(suggestions) == 0 {
		// Still suspend so the human can offer a different range.
		st.Append(fmt.Sprintf(
			"The attendee %s is busy then, and I couldn't find an open slot soon. What other times should I try?",
			draft.AttendeeFullName,
		))
		return nodeAskAlternative, nil
	}

	nice := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		nice = append(nice, s.StartTime.In(loc).Format("Mon, Jan 2 at 3:04 PM"))
	}
	st.Append(fmt.Sprintf(
		"The attendee %s is busy then. Ask %s to choose from these alternative time slots: %s?",
		draft.AttendeeFullName, draft.HostFullName, strings.Join(nice, "; "),
	))
	return nodeAskAlternative, nil
}

func (w *BookingWorkflow) askAlternative(ctx context.Context, st *models.WorkflowState) (Node, error) {
	reply, err := w.Oracle.Complete(ctx, oracle.AskSuggestionsSystem, []string{draftMessage(st.Draft), st.LastMessage()})
	if err != nil {
		return "", transient("dialogue oracle", err)
	}
	st.Append(reply)
	st.Status = models.StatusAwaitingHuman
	return nodeHuman, nil
}

func (w *BookingWorkflow) summarize(ctx context.Context, st *models.WorkflowState) (Node, error) {
	reply, err := w.Oracle.Complete(ctx, oracle.SummarizeSystem, []string{st.LastMessage()})
	if err != nil {
		return "", transient("dialogue oracle", err)
	}
	st.Append(reply)
	return NodeEnd, nil
}

// ordinalPattern accepts a slot number only in an explicit selection context.
// A digit inside a time phrase ("how about at 3") is left for date resolution.
var ordinalPattern = regexp.MustCompile(`(?:option|alternative|slot|number|#)\s*#?([1-9])\b`)

var ordinalWords = map[string]int{
	"first":  1,
	"second": 2,
	"third":  3,
}

// resolveSelection maps the human's reply onto a proposed slot: an ordinal
// reference picks from the suggestion list, a parseable time phrase wins
// outright. Failing both, the caller books the draft's current start time.
func (w *BookingWorkflow) resolveSelection(st *models.WorkflowState, loc *time.Location) (time.Time, bool) {
	msg := st.LastMessage()
	lower := strings.ToLower(msg)

	for word, idx := range ordinalWords {
		if strings.Contains(lower, word) && idx <= len(st.Suggestions) {
			return st.Suggestions[idx-1].StartTime.In(loc), true
		}
	}
	if m := ordinalPattern.FindStringSubmatch(lower); m != nil {
		if idx, err := strconv.Atoi(m[1]); err == nil && idx >= 1 && idx <= len(st.Suggestions) {
			return st.Suggestions[idx-1].StartTime.In(loc), true
		}
	}
	// A reply that is nothing but a number is still a selection.
	if idx, err := strconv.Atoi(strings.TrimSpace(lower)); err == nil && idx >= 1 && idx <= len(st.Suggestions) {
		return st.Suggestions[idx-1].StartTime.In(loc), true
	}

	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	if t, ok := ResolveDateTime(msg, loc, now()); ok {
		return t, true
	}

	w.Logger.Debug("could not resolve alternative selection", zap.String("message", msg))
	return time.Time{}, false
}
