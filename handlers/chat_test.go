package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"meetingagent/models"
	"meetingagent/services/calendar"
	"meetingagent/services/oracle"
	"meetingagent/services/session"
	"meetingagent/services/workflow"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newChatRouter(t *testing.T, client oracle.Client) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	base := time.Date(2026, time.March, 2, 8, 0, 0, 0, loc)
	now := func() time.Time { return base }
	cal := calendar.NewMockCalendar("jeff")

	planner := &workflow.Planner{
		Oracle:  client,
		Input:   &workflow.InputWorkflow{Oracle: client, DefaultTimezone: "America/Los_Angeles", Now: now, Logger: zap.NewNop()},
		Booking: &workflow.BookingWorkflow{Oracle: client, Calendar: cal, DefaultTimezone: "America/Los_Angeles", Now: now, Logger: zap.NewNop()},
		Logger:  zap.NewNop(),
	}
	svc := session.NewService(session.NewMemoryStore(), planner, 5, zap.NewNop())
	handler := NewChatHandler(svc, zap.NewNop())

	r := gin.New()
	r.POST("/api/chat", handler.HandleChat)
	r.GET("/api/chat/:sessionID/state", handler.GetSessionState)
	return r
}

// chatOracle answers every role with something sane and routes a single
// input-agent pass into a done verdict.
func chatOracle() oracle.Client {
	return oracle.Func(func(ctx context.Context, system string, messages []string) (string, error) {
		latest := strings.ToLower(messages[len(messages)-1])
		switch system {
		case oracle.ExtractionSystem:
			return `{"host_full_name":"John Smith"}`, nil
		case oracle.AskMissingSystem:
			return "Who should attend, and when?", nil
		case oracle.PlannerSystem:
			if strings.Contains(latest, models.AgentInput+" completed") {
				return "done", nil
			}
			return models.AgentInput, nil
		}
		return "", nil
	})
}

func postChat(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleChatReturnsReplyAndState(t *testing.T) {
	r := newChatRouter(t, chatOracle())

	w := postChat(t, r, `{"session_id":"s-1","message":"hi, I'm John Smith"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "s-1", resp.SessionID)
	assert.Equal(t, "Who should attend, and when?", resp.Reply)
	require.NotNil(t, resp.State)
	assert.Equal(t, models.StatusAwaitingHuman, resp.State.Planner.Status)
}

func TestHandleChatRejectsMissingFields(t *testing.T) {
	r := newChatRouter(t, chatOracle())

	for _, body := range []string{
		`{"message":"hi"}`,
		`{"session_id":"s-1"}`,
		`not json`,
	} {
		w := postChat(t, r, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}
}

func TestHandleChatTransientFailureIs503(t *testing.T) {
	failing := oracle.Func(func(ctx context.Context, system string, messages []string) (string, error) {
		return "", errors.New("upstream timeout")
	})
	r := newChatRouter(t, failing)

	w := postChat(t, r, `{"session_id":"s-1","message":"hi"}`)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "assistant temporarily unavailable", body["error"])
}

func TestGetSessionState(t *testing.T) {
	r := newChatRouter(t, chatOracle())

	req := httptest.NewRequest(http.MethodGet, "/api/chat/nope/state", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	postChat(t, r, `{"session_id":"s-1","message":"hi, I'm John Smith"}`)

	req = httptest.NewRequest(http.MethodGet, "/api/chat/s-1/state", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var sess models.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.Equal(t, "s-1", sess.SessionID)
	assert.NotNil(t, sess.PlannerCheckpoint)
}
