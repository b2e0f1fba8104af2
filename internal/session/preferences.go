package session

import (
	"context"
	"encoding/json"

	"github.com/jonathan/resume-autofill/internal/types"
)

// Preferences returns the stored preferences over the defaults. Unreadable
// preferences fall back to the defaults.
func (m *Manager) Preferences(ctx context.Context) (types.Preferences, error) {
	raw, ok, err := m.local.Get(ctx, KeyPreferences)
	if err != nil {
		return types.DefaultPreferences(), &Error{Message: "failed to read preferences", Cause: err}
	}
	if !ok {
		return types.DefaultPreferences(), nil
	}
	prefs, err := types.DecodePreferences(raw)
	if err != nil {
		m.logger.Warn("ignoring unreadable preferences", "error", err)
	}
	return prefs, nil
}

// SetPreference updates one preference and returns the full set.
func (m *Manager) SetPreference(ctx context.Context, key string, value bool) (types.Preferences, error) {
	prefs, err := m.Preferences(ctx)
	if err != nil {
		return prefs, err
	}
	if err := prefs.Set(key, value); err != nil {
		return prefs, err
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return prefs, &Error{Message: "failed to encode preferences", Cause: err}
	}
	if err := m.local.Set(ctx, KeyPreferences, data); err != nil {
		return prefs, &Error{Message: "failed to store preferences", Cause: err}
	}
	return prefs, nil
}
