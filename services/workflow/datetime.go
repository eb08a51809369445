package workflow

import (
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var dateParser *when.Parser

func init() {
	dateParser = when.New(nil)
	dateParser.Add(en.All...)
	dateParser.Add(common.All...)
}

// ResolveDateTime parses a natural-language time phrase ("tomorrow 2pm",
// "Friday 10am") relative to base, interpreted in loc. The second return is
// false when no time expression was found.
func ResolveDateTime(text string, loc *time.Location, base time.Time) (time.Time, bool) {
	res, err := dateParser.Parse(text, base.In(loc))
	if err != nil || res == nil {
		return time.Time{}, false
	}
	return res.Time.In(loc), true
}

// LoadLocation resolves a timezone identifier, falling back to the default
// name and finally UTC when neither loads.
func LoadLocation(name, fallback string) *time.Location {
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	if loc, err := time.LoadLocation(fallback); err == nil {
		return loc
	}
	return time.UTC
}
