package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"meetingagent/models"
	"meetingagent/services/workflow"

	"go.uber.org/zap"
)

// Service drives one external turn end to end: create-or-resume the session,
// hand the message to the planner, persist the updated state, and return the
// reply together with the full serialized state.
//
// Turns within one session are serialized with a per-session mutex; distinct
// sessions proceed concurrently.
type Service struct {
	Store      Store
	Planner    *workflow.Planner
	TurnBudget int
	Logger     *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(store Store, planner *workflow.Planner, turnBudget int, logger *zap.Logger) *Service {
	return &Service{
		Store:      store,
		Planner:    planner,
		TurnBudget: turnBudget,
		Logger:     logger,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (s *Service) sessionLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// HandleTurn processes one user message for the given session.
func (s *Service) HandleTurn(ctx context.Context, sessionID, message string) (*models.ChatResponse, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.Store.Get(ctx, sessionID)
	fresh := false
	switch {
	case errors.Is(err, ErrNotFound):
		fresh = true
		now := time.Now()
		sess = &models.Session{
			SessionID: sessionID,
			Planner:   models.NewWorkflowState(s.TurnBudget),
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.Logger.Info("creating new session", zap.String("sessionID", sessionID))
	case err != nil:
		return nil, fmt.Errorf("failed to load session: %w", err)
	default:
		// The turn runs against a private copy, and commits only on
		// success. The stored session is never mutated in place, so a
		// failed turn can be retried against the state it started from.
		sess = sess.Clone()
		s.Logger.Debug("resuming session", zap.String("sessionID", sessionID))
	}

	var res workflow.Result
	if fresh {
		res, err = s.Planner.Run(ctx, sess, message)
	} else {
		res, err = s.Planner.Resume(ctx, sess, message)
	}
	if err != nil {
		return nil, err
	}

	sess.Planner = res.State
	sess.UpdatedAt = time.Now()
	if err := s.Store.Put(ctx, sessionID, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.Logger.Info("turn handled",
		zap.String("sessionID", sessionID),
		zap.Bool("suspended", res.Suspended),
		zap.String("status", string(res.State.Status)),
		zap.Int("turnsLeft", res.State.Turns),
	)

	return &models.ChatResponse{
		SessionID: sessionID,
		Reply:     res.Reply(),
		State:     sess,
	}, nil
}

// GetSession returns the stored state for a session id. Stored sessions are
// immutable snapshots (HandleTurn commits a fresh copy per turn), so the
// result is safe to serialize while other turns are in flight.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.Store.Get(ctx, sessionID)
}
