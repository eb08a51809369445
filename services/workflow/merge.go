package workflow

import (
	"encoding/json"
	"strings"
	"time"

	"meetingagent/models"
)

// Extraction is the structured record the extraction oracle is asked to
// produce. Absent fields decode to their zero values.
type Extraction struct {
	HostFullName     string `json:"host_full_name"`
	AttendeeFullName string `json:"attendee_full_name"`
	Subject          string `json:"subject"`
	StartTimeText    string `json:"start_time_text"`
	DurationMinutes  int    `json:"duration_minutes"`
	Timezone         string `json:"timezone"`
}

// ParseExtraction decodes the oracle's reply. Malformed output yields an
// empty record, never an error: the missing-field check downstream re-prompts
// naturally.
func ParseExtraction(reply string) Extraction {
	var ext Extraction
	cleaned := stripCodeFence(reply)
	if err := json.Unmarshal([]byte(cleaned), &ext); err != nil {
		return Extraction{}
	}
	return ext
}

// stripCodeFence removes a surrounding markdown fence, which models emit
// despite instructions not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// firstWriterFields is the merge policy table for the plain string fields:
// an extracted value lands only when the draft's field is still empty.
var firstWriterFields = []struct {
	get func(*Extraction) string
	cur func(*models.MeetingDraft) string
	set func(*models.MeetingDraft, string)
}{
	{
		get: func(e *Extraction) string { return e.HostFullName },
		cur: func(d *models.MeetingDraft) string { return d.HostFullName },
		set: func(d *models.MeetingDraft, v string) { d.HostFullName = v },
	},
	{
		get: func(e *Extraction) string { return e.AttendeeFullName },
		cur: func(d *models.MeetingDraft) string { return d.AttendeeFullName },
		set: func(d *models.MeetingDraft, v string) { d.AttendeeFullName = v },
	},
	{
		get: func(e *Extraction) string { return e.Subject },
		cur: func(d *models.MeetingDraft) string { return d.Subject },
		set: func(d *models.MeetingDraft, v string) { d.Subject = v },
	},
}

// MergeExtraction folds an extraction into the draft:
//   - string fields: first-writer-wins per the policy table
//   - duration: applied whenever it is a positive integer
//   - timezone: an extracted value always lands; otherwise the zone used to
//     resolve a start time is stamped alongside it
//   - start time: resolved from the natural-language phrase relative to base
//     and always overwritten on success, so corrections take effect
//
// A zero extraction writes nothing.
func MergeExtraction(draft *models.MeetingDraft, ext Extraction, defaultTimezone string, base time.Time) {
	for _, f := range firstWriterFields {
		if v := strings.TrimSpace(f.get(&ext)); v != "" && f.cur(draft) == "" {
			f.set(draft, v)
		}
	}

	if ext.DurationMinutes > 0 {
		draft.DurationMinutes = ext.DurationMinutes
	}

	if tz := strings.TrimSpace(ext.Timezone); tz != "" {
		draft.Timezone = tz
	}

	if ext.StartTimeText != "" {
		tz := draft.Timezone
		if tz == "" {
			tz = defaultTimezone
		}
		loc := LoadLocation(tz, defaultTimezone)
		if resolved, ok := ResolveDateTime(ext.StartTimeText, loc, base); ok {
			draft.StartTime = &resolved
			draft.Timezone = tz
		}
	}
}

// MissingFields lists the required fields the draft still lacks.
func MissingFields(draft *models.MeetingDraft) []string {
	var missing []string
	if draft.HostFullName == "" {
		missing = append(missing, "host_full_name")
	}
	if draft.AttendeeFullName == "" {
		missing = append(missing, "attendee_full_name")
	}
	if draft.Subject == "" {
		missing = append(missing, "subject")
	}
	if draft.StartTime == nil {
		missing = append(missing, "start_time")
	}
	return missing
}
