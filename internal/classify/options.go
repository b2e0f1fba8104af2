package classify

import (
	"strings"

	"github.com/jonathan/resume-autofill/internal/dom"
)

// MatchOption picks the select option for value: the first option in
// document order whose trimmed lower-case text or value equals the target,
// or contains it, or is contained by it. Empty strings never take part in
// containment. No match returns false and the select must be left alone.
func MatchOption(options []dom.Option, value string) (dom.Option, bool) {
	target := strings.ToLower(strings.TrimSpace(value))
	if target == "" {
		return dom.Option{}, false
	}
	for _, opt := range options {
		text := strings.ToLower(strings.TrimSpace(opt.Text))
		val := strings.ToLower(strings.TrimSpace(opt.Value))
		if text == target || val == target {
			return opt, true
		}
		if overlaps(text, target) || overlaps(val, target) {
			return opt, true
		}
	}
	return dom.Option{}, false
}

func overlaps(candidate, target string) bool {
	if candidate == "" {
		return false
	}
	return strings.Contains(candidate, target) || strings.Contains(target, candidate)
}
