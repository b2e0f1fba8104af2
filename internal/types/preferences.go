package types

import "encoding/json"

// Preferences are user toggles consumed by the watcher and the fill engine.
type Preferences struct {
	AutoDetectForms       bool `json:"autoDetectForms"`
	HighlightFilledFields bool `json:"highlightFilledFields"`
	ShowConfirmation      bool `json:"showConfirmation"`
}

// DefaultPreferences returns the preferences used when none are stored.
func DefaultPreferences() Preferences {
	return Preferences{
		AutoDetectForms:       true,
		HighlightFilledFields: true,
		ShowConfirmation:      false,
	}
}

// DecodePreferences decodes stored preferences on top of the defaults, so only
// keys explicitly present in data override them.
func DecodePreferences(data []byte) (Preferences, error) {
	prefs := DefaultPreferences()
	if len(data) == 0 {
		return prefs, nil
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		return DefaultPreferences(), err
	}
	return prefs, nil
}

// Set updates a single preference by its JSON key.
func (p *Preferences) Set(key string, value bool) error {
	switch key {
	case "autoDetectForms":
		p.AutoDetectForms = value
	case "highlightFilledFields":
		p.HighlightFilledFields = value
	case "showConfirmation":
		p.ShowConfirmation = value
	default:
		return &ValidationError{Field: key, Message: "unknown preference"}
	}
	return nil
}
