package models

import "time"

// DefaultDurationMinutes is assumed when the user never states a duration.
const DefaultDurationMinutes = 30

// MeetingDraft is the in-progress meeting record assembled turn by turn.
// String fields follow first-writer-wins merge semantics; StartTime is the
// exception and is overwritten by every successful date resolution so that
// correction messages take effect.
type MeetingDraft struct {
	HostFullName     string     `json:"hostFullName,omitempty"`
	AttendeeFullName string     `json:"attendeeFullName,omitempty"`
	Subject          string     `json:"subject,omitempty"`
	StartTime        *time.Time `json:"startTime,omitempty"`
	DurationMinutes  int        `json:"durationMinutes"`
	Timezone         string     `json:"timezone,omitempty"`
}

// NewMeetingDraft returns a draft with the default duration applied.
func NewMeetingDraft() *MeetingDraft {
	return &MeetingDraft{DurationMinutes: DefaultDurationMinutes}
}

// Clone returns a deep copy of the draft.
func (d *MeetingDraft) Clone() *MeetingDraft {
	if d == nil {
		return nil
	}
	cp := *d
	if d.StartTime != nil {
		t := *d.StartTime
		cp.StartTime = &t
	}
	return &cp
}

// SlotSuggestion is a single alternative slot proposed by the availability
// provider. Immutable once created.
type SlotSuggestion struct {
	StartTime       time.Time `json:"startTime"`
	DurationMinutes int       `json:"durationMinutes"`
}

// BookedEvent is the confirmed meeting produced by a successful booking.
type BookedEvent struct {
	ID               string    `json:"id"`
	HostFullName     string    `json:"hostFullName"`
	AttendeeFullName string    `json:"attendeeFullName"`
	Subject          string    `json:"subject"`
	StartTime        time.Time `json:"startTime"`
	DurationMinutes  int       `json:"durationMinutes"`
}
