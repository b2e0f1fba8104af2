package mapping

import (
	"fmt"
	"strings"
)

// FormatPhone renders US numbers as (XXX) XXX-XXXX, or +1 (XXX) XXX-XXXX for
// eleven digits with a leading 1. Any other digit count returns the input
// unchanged.
func FormatPhone(phone string) string {
	if phone == "" {
		return ""
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	switch {
	case len(digits) == 10:
		return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
	case len(digits) == 11 && digits[0] == '1':
		return fmt.Sprintf("+1 (%s) %s-%s", digits[1:4], digits[4:7], digits[7:])
	default:
		return phone
	}
}
