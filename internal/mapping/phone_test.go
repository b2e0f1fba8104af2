package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"ten digits", "5551234567", "(555) 123-4567"},
		{"ten digits with punctuation", "555.123.4567", "(555) 123-4567"},
		{"ten digits already formatted", "(555) 123-4567", "(555) 123-4567"},
		{"eleven digits leading one", "15551234567", "+1 (555) 123-4567"},
		{"eleven digits with plus", "+1 555-123-4567", "+1 (555) 123-4567"},
		{"eleven digits leading two", "25551234567", "25551234567"},
		{"international", "+44 20 7946 0958", "+44 20 7946 0958"},
		{"too short", "555-1234", "555-1234"},
		{"no digits", "call me", "call me"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatPhone(tt.input))
		})
	}
}

func TestFormatPhone_DigitCountProperty(t *testing.T) {
	// Every ten-digit number keeps its groups regardless of separators.
	for _, sep := range []string{"", "-", " ", ".", "/"} {
		in := "212" + sep + "555" + sep + "0199"
		assert.Equal(t, "(212) 555-0199", FormatPhone(in), in)
	}
}
