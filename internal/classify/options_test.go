package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autofill/internal/dom"
)

func states() []dom.Option {
	return []dom.Option{
		{Text: "California", Value: "California"},
		{Text: "Texas", Value: "Texas"},
		{Text: "New York", Value: "New York"},
	}
}

func TestMatchOption_NoImplicitAbbreviation(t *testing.T) {
	_, ok := MatchOption(states(), "tx")
	assert.False(t, ok)
}

func TestMatchOption(t *testing.T) {
	opts := []dom.Option{
		{Text: "Select...", Value: ""},
		{Text: "California", Value: "CA"},
		{Text: "Texas", Value: "TX"},
		{Text: "New York", Value: "NY"},
	}

	tests := []struct {
		name      string
		value     string
		wantValue string
		wantOK    bool
	}{
		{"value equality", "tx", "TX", true},
		{"text equality ignores case", "new york", "NY", true},
		{"trimmed", "  Texas ", "TX", true},
		{"target contains text", "Texas, USA", "TX", true},
		{"text contains target", "Calif", "CA", true},
		{"no match", "Ontario", "", false},
		{"blank target", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchOption(opts, tt.value)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantValue, got.Value)
		})
	}
}

func TestMatchOption_FirstInDocumentOrder(t *testing.T) {
	opts := []dom.Option{
		{Text: "United States Minor Outlying Islands", Value: "UM"},
		{Text: "United States", Value: "US"},
	}
	got, ok := MatchOption(opts, "United States")
	require.True(t, ok)
	assert.Equal(t, "UM", got.Value)
}
