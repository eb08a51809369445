package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"meetingagent/models"
	"meetingagent/services/calendar"
	"meetingagent/services/oracle"
	"meetingagent/services/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const serviceTestTimezone = "America/Los_Angeles"

// scriptableOracle dispatches on the system instruction so each oracle role
// behaves deterministically across replayed histories.
func scriptableOracle() oracle.Client {
	return oracle.Func(func(ctx context.Context, system string, messages []string) (string, error) {
		latest := strings.ToLower(messages[len(messages)-1])
		switch system {
		case oracle.ExtractionSystem:
			ext := map[string]any{}
			if strings.Contains(latest, "john smith") {
				ext["host_full_name"] = "John Smith"
			}
			if strings.Contains(latest, "jeff lee") {
				ext["attendee_full_name"] = "Jeff Lee"
			}
			if strings.Contains(latest, "dana smith") {
				ext["attendee_full_name"] = "Dana Smith"
			}
			if strings.Contains(latest, "1:1") {
				ext["subject"] = "1:1"
			}
			if strings.Contains(latest, "friday") {
				ext["start_time_text"] = "Friday at 10am"
			}
			b, _ := json.Marshal(ext)
			return string(b), nil
		case oracle.AskMissingSystem:
			return "Which details are still missing?", nil
		case oracle.AskSuggestionsSystem:
			return "Could one of these alternatives work?", nil
		case oracle.SummarizeRequestSystem:
			return "You want a meeting on Friday at 10am.", nil
		case oracle.SummarizeSystem:
			return "The meeting is on the calendar.", nil
		case oracle.PlannerSystem:
			switch {
			case strings.Contains(latest, models.AgentBooking+" completed"):
				return "done: All set, the meeting is booked.", nil
			case strings.Contains(latest, models.AgentInput+" completed"):
				return models.AgentBooking, nil
			default:
				return models.AgentInput, nil
			}
		}
		return "", nil
	})
}

func newTestService(t *testing.T, client oracle.Client, cal calendar.Provider) *Service {
	t.Helper()
	loc, err := time.LoadLocation(serviceTestTimezone)
	require.NoError(t, err)
	base := time.Date(2026, time.March, 2, 8, 0, 0, 0, loc)
	now := func() time.Time { return base }

	planner := &workflow.Planner{
		Oracle:  client,
		Input:   &workflow.InputWorkflow{Oracle: client, DefaultTimezone: serviceTestTimezone, Now: now, Logger: zap.NewNop()},
		Booking: &workflow.BookingWorkflow{Oracle: client, Calendar: cal, DefaultTimezone: serviceTestTimezone, Now: now, Logger: zap.NewNop()},
		Logger:  zap.NewNop(),
	}
	return NewService(NewMemoryStore(), planner, 5, zap.NewNop())
}

func TestHandleTurnBooksInOneTurn(t *testing.T) {
	svc := newTestService(t, scriptableOracle(), calendar.NewMockCalendar("jeff", "mike"))
	ctx := context.Background()

	resp, err := svc.HandleTurn(ctx, "s-1", "host John Smith wants a 1:1 with Dana Smith on Friday at 10am")
	require.NoError(t, err)
	assert.Equal(t, "s-1", resp.SessionID)
	assert.Equal(t, "All set, the meeting is booked.", resp.Reply)

	stored, err := svc.GetSession(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, models.PlannerStatusDone, stored.Planner.PlannerStatus)
	require.NotNil(t, stored.Planner.BookedEvent)
	assert.Equal(t, "Dana Smith", stored.Planner.BookedEvent.AttendeeFullName)
	assert.Nil(t, stored.PlannerCheckpoint)
}

func TestHandleTurnSuspendsAndResumes(t *testing.T) {
	svc := newTestService(t, scriptableOracle(), calendar.NewMockCalendar("jeff", "mike"))
	ctx := context.Background()

	// Jeff is busy, so the first turn ends on the alternatives question.
	resp, err := svc.HandleTurn(ctx, "s-2", "host John Smith wants a 1:1 with Jeff Lee on Friday at 10am")
	require.NoError(t, err)
	assert.Equal(t, "Could one of these alternatives work?", resp.Reply)

	stored, err := svc.GetSession(ctx, "s-2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingHuman, stored.Planner.Status)
	require.NotNil(t, stored.PlannerCheckpoint)
	require.NotNil(t, stored.BookingCheckpoint)
	assert.Len(t, stored.Planner.Suggestions, 3)

	// The human picks a slot; the suspended booking pass resumes and books.
	resp, err = svc.HandleTurn(ctx, "s-2", "the first one works for me")
	require.NoError(t, err)
	assert.Equal(t, "All set, the meeting is booked.", resp.Reply)

	stored, err = svc.GetSession(ctx, "s-2")
	require.NoError(t, err)
	assert.Equal(t, models.PlannerStatusDone, stored.Planner.PlannerStatus)
	require.NotNil(t, stored.Planner.BookedEvent)
	assert.Nil(t, stored.BookingCheckpoint)
	assert.Nil(t, stored.PlannerCheckpoint)
}

// flakyOracle fails every completion while tripped, and otherwise delegates.
type flakyOracle struct {
	inner oracle.Client
	fail  bool
}

func (f *flakyOracle) Complete(ctx context.Context, system string, messages []string) (string, error) {
	if f.fail {
		return "", errors.New("deadline exceeded")
	}
	return f.inner.Complete(ctx, system, messages)
}

func TestHandleTurnTransientFailureMidSessionIsRetryable(t *testing.T) {
	flaky := &flakyOracle{inner: scriptableOracle()}
	svc := newTestService(t, flaky, calendar.NewMockCalendar("jeff"))
	ctx := context.Background()

	// Suspend on the alternatives question, then snapshot the stored state.
	_, err := svc.HandleTurn(ctx, "s-4", "host John Smith wants a 1:1 with Jeff Lee on Friday at 10am")
	require.NoError(t, err)
	before, err := svc.GetSession(ctx, "s-4")
	require.NoError(t, err)
	messagesBefore := len(before.Planner.Messages)
	turnsBefore := before.Planner.Turns

	// The next turn fails at the oracle; the stored session must be exactly
	// as it was, with no half-applied message or budget charge.
	flaky.fail = true
	_, err = svc.HandleTurn(ctx, "s-4", "the first one works for me")
	require.Error(t, err)
	assert.True(t, workflow.IsTransient(err))

	after, err := svc.GetSession(ctx, "s-4")
	require.NoError(t, err)
	assert.Equal(t, messagesBefore, len(after.Planner.Messages))
	assert.Equal(t, turnsBefore, after.Planner.Turns)
	require.NotNil(t, after.BookingCheckpoint)

	// Retrying the identical message now succeeds.
	flaky.fail = false
	resp, err := svc.HandleTurn(ctx, "s-4", "the first one works for me")
	require.NoError(t, err)
	assert.Equal(t, "All set, the meeting is booked.", resp.Reply)

	stored, err := svc.GetSession(ctx, "s-4")
	require.NoError(t, err)
	require.NotNil(t, stored.Planner.BookedEvent)
	retried := 0
	for _, m := range stored.Planner.Messages {
		if m == "the first one works for me" {
			retried++
		}
	}
	assert.Equal(t, 1, retried, "the retried message must appear in history once")
}

func TestHandleTurnLeavesPriorSnapshotUntouched(t *testing.T) {
	svc := newTestService(t, scriptableOracle(), calendar.NewMockCalendar("jeff"))
	ctx := context.Background()

	_, err := svc.HandleTurn(ctx, "s-5", "host John Smith wants a 1:1 with Jeff Lee on Friday at 10am")
	require.NoError(t, err)
	snapshot, err := svc.GetSession(ctx, "s-5")
	require.NoError(t, err)
	messages := len(snapshot.Planner.Messages)

	// The next turn commits a fresh copy; the snapshot a reader already
	// holds does not change underneath it.
	_, err = svc.HandleTurn(ctx, "s-5", "the first one works for me")
	require.NoError(t, err)
	assert.Equal(t, messages, len(snapshot.Planner.Messages))
	assert.Equal(t, models.StatusAwaitingHuman, snapshot.Planner.Status)
}

func TestHandleTurnTransientFailureNotPersisted(t *testing.T) {
	failing := oracle.Func(func(ctx context.Context, system string, messages []string) (string, error) {
		return "", errors.New("deadline exceeded")
	})
	svc := newTestService(t, failing, calendar.NewMockCalendar())
	ctx := context.Background()

	_, err := svc.HandleTurn(ctx, "s-3", "book something")
	require.Error(t, err)
	assert.True(t, workflow.IsTransient(err))

	// A failed first turn leaves nothing behind to corrupt a retry.
	_, err = svc.GetSession(ctx, "s-3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandleTurnSeparateSessionsAreIndependent(t *testing.T) {
	svc := newTestService(t, scriptableOracle(), calendar.NewMockCalendar("jeff"))
	ctx := context.Background()

	_, err := svc.HandleTurn(ctx, "a", "host John Smith wants a 1:1 with Dana Smith on Friday at 10am")
	require.NoError(t, err)
	_, err = svc.HandleTurn(ctx, "b", "host John Smith wants a 1:1 with Jeff Lee on Friday at 10am")
	require.NoError(t, err)

	a, err := svc.GetSession(ctx, "a")
	require.NoError(t, err)
	b, err := svc.GetSession(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, models.PlannerStatusDone, a.Planner.PlannerStatus)
	assert.Equal(t, models.StatusAwaitingHuman, b.Planner.Status)
}
