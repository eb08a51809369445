package oracle

import (
	"context"
	"sync"
)

// Scripted replays canned completions in order, repeating the final entry
// once exhausted. Intended for tests and offline runs.
type Scripted struct {
	mu      sync.Mutex
	Replies []string
	calls   int
}

func (s *Scripted) Complete(ctx context.Context, systemInstruction string, messages []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Replies) == 0 {
		return "", nil
	}
	i := s.calls
	if i >= len(s.Replies) {
		i = len(s.Replies) - 1
	}
	s.calls++
	return s.Replies[i], nil
}

// Calls reports how many completions were requested.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
