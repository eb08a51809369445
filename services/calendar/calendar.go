// Package calendar provides the availability provider the booking workflow
// consults: deterministic free/busy lookup, forward-scanning alternative-slot
// suggestion, and booking confirmation.
package calendar

import (
	"strings"
	"sync"
	"time"

	"meetingagent/models"

	"github.com/google/uuid"
)

// Provider is the availability contract. IsAvailable is a deterministic
// function of the attendee name only. Book is assumed to succeed once called;
// it performs no conflict re-check.
type Provider interface {
	IsAvailable(attendee string) bool
	SuggestAlternatives(attendee string, start time.Time, durationMinutes, count int) []models.SlotSuggestion
	Book(host, attendee, subject string, start time.Time, durationMinutes int) models.BookedEvent
}

const (
	// Alternative scan parameters: 30-minute steps across a ~48 hour horizon,
	// keeping suggestions within local business hours [9, 17).
	scanStep     = 30 * time.Minute
	scanSteps    = 96
	businessOpen = 9
	businessEnd  = 17
)

// MockCalendar is a deterministic in-memory provider. Attendees whose name
// contains one of the busy substrings (case-insensitive) are always busy.
// Booked events are retained for the life of the process.
type MockCalendar struct {
	busy []string

	mu     sync.Mutex
	booked []models.BookedEvent
}

// NewMockCalendar builds a calendar with the given busy-name substrings.
func NewMockCalendar(busy ...string) *MockCalendar {
	return &MockCalendar{busy: busy}
}

func (c *MockCalendar) IsAvailable(attendee string) bool {
	lower := strings.ToLower(attendee)
	for _, b := range c.busy {
		if strings.Contains(lower, strings.ToLower(b)) {
			return false
		}
	}
	return true
}

// SuggestAlternatives scans forward from start in fixed 30-minute steps,
// collecting up to count slots whose local hour falls inside business hours.
// It may return fewer than count, including none.
func (c *MockCalendar) SuggestAlternatives(attendee string, start time.Time, durationMinutes, count int) []models.SlotSuggestion {
	var suggestions []models.SlotSuggestion
	cursor := start
	for i := 0; i < scanSteps; i++ {
		cursor = cursor.Add(scanStep)
		if h := cursor.Hour(); h >= businessOpen && h < businessEnd {
			suggestions = append(suggestions, models.SlotSuggestion{
				StartTime:       cursor,
				DurationMinutes: durationMinutes,
			})
			if len(suggestions) >= count {
				return suggestions
			}
		}
	}
	return suggestions
}

func (c *MockCalendar) Book(host, attendee, subject string, start time.Time, durationMinutes int) models.BookedEvent {
	event := models.BookedEvent{
		ID:               uuid.New().String(),
		HostFullName:     host,
		AttendeeFullName: attendee,
		Subject:          subject,
		StartTime:        start,
		DurationMinutes:  durationMinutes,
	}
	c.mu.Lock()
	c.booked = append(c.booked, event)
	c.mu.Unlock()
	return event
}

// BookedEvents returns a copy of everything booked so far.
func (c *MockCalendar) BookedEvents() []models.BookedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.BookedEvent(nil), c.booked...)
}
