package mapping

import (
	"math"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// daysPerYear accounts for leap years when converting elapsed days.
const daysPerYear = 365.25

// startDateLayouts are tried in order when parsing experience start dates.
var startDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006/01/02",
	"2006/01",
	"01/02/2006",
	"01/2006",
	"Jan 2006",
	"January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006",
}

// CurrentPosition returns the title and company of the first entry flagged as
// currently working, or of the first entry when none is flagged.
func CurrentPosition(experiences gjson.Result) (title, company string) {
	if !experiences.IsArray() {
		return "", ""
	}
	entries := experiences.Array()
	if len(entries) == 0 {
		return "", ""
	}

	chosen := entries[0]
	for _, e := range entries {
		if isCurrent(e) {
			chosen = e
			break
		}
	}
	return firstString(chosen, "job_title", "jobTitle", "title"), firstString(chosen, "company", "company_name", "companyName")
}

func isCurrent(entry gjson.Result) bool {
	return entry.Get("currently_working").Bool() || entry.Get("currentlyWorking").Bool()
}

// YearsOfExperience measures from the earliest parseable start date to now,
// rounded to whole years. With entries but no parseable date the earliest
// date is now, giving zero.
func YearsOfExperience(experiences gjson.Result, now time.Time) int {
	if !experiences.IsArray() || len(experiences.Array()) == 0 {
		return 0
	}

	earliest := now
	for _, e := range experiences.Array() {
		start, ok := ParseStartDate(firstString(e, "start_date", "startDate"))
		if ok && start.Before(earliest) {
			earliest = start
		}
	}

	days := now.Sub(earliest).Hours() / 24
	return int(math.Round(days / daysPerYear))
}

// ParseStartDate parses a start date in any of the accepted layouts.
func ParseStartDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range startDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
