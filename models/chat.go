package models

// ChatRequest is one external turn: a caller-supplied stable session id plus
// the user's message.
type ChatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// ChatResponse carries the assistant's reply together with the full
// serialized workflow state, so callers can debug or resume externally.
type ChatResponse struct {
	SessionID string   `json:"session_id"`
	Reply     string   `json:"reply"`
	State     *Session `json:"state"`
}
