package workflow

import (
	"strings"

	"meetingagent/models"
)

// Route is the closed set of planner decisions. The oracle's literal reply is
// translated into one of these immediately after the call, so a hallucinated
// capability name becomes an explicit RouteUnrecognized instead of silently
// mis-routing.
type Route int

const (
	RouteUnrecognized Route = iota
	RouteInput
	RouteBooking
	RouteDone
)

// RouteDecision pairs the route with any recap text the oracle attached to a
// "done" reply.
type RouteDecision struct {
	Route Route
	Recap string
}

// ParseRoute translates the planner oracle's reply. Matching is on the first
// token only; anything beyond a "done" token is kept as the final recap.
func ParseRoute(reply string) RouteDecision {
	trimmed := strings.TrimSpace(reply)
	lower := strings.ToLower(trimmed)

	switch lower {
	case models.AgentInput:
		return RouteDecision{Route: RouteInput}
	case models.AgentBooking:
		return RouteDecision{Route: RouteBooking}
	case "done":
		return RouteDecision{Route: RouteDone}
	}

	// "done" followed by a separator carries a recap; "done" fused into a
	// longer word ("donezo") does not count.
	if rest, ok := strings.CutPrefix(lower, "done"); ok && rest != "" && strings.ContainsRune(" \t:.,;-", rune(rest[0])) {
		recap := strings.TrimSpace(trimmed[len(trimmed)-len(rest):])
		recap = strings.TrimLeft(recap, ":.,;- ")
		return RouteDecision{Route: RouteDone, Recap: recap}
	}

	return RouteDecision{Route: RouteUnrecognized}
}
