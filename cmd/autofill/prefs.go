package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-autofill/internal/coordinator"
	"github.com/jonathan/resume-autofill/internal/types"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs [get | set KEY VALUE]",
	Short: "Show or change preferences",
	Long: `Show or change preferences. Keys:
  autoDetectForms         inject the trigger button when a form appears
  highlightFilledFields   flash filled inputs
  showConfirmation        confirm before filling`,
	Args: cobra.MaximumNArgs(3),
	RunE: withApp(runPrefs),
}

func init() {
	rootCmd.AddCommand(prefsCmd)
}

func runPrefs(ctx context.Context, a *app, args []string) error {
	render := func(res coordinator.Result) error {
		var prefs types.Preferences
		if err := res.Decode(&prefs); err != nil {
			return err
		}
		printPreferences(a, prefs)
		return nil
	}

	if len(args) == 0 || (len(args) == 1 && args[0] == "get") {
		return a.run(ctx, coordinator.GetPreferences, nil, render)
	}
	if args[0] != "set" || len(args) != 3 {
		return fmt.Errorf("usage: autofill prefs [get | set KEY VALUE]")
	}
	value, err := strconv.ParseBool(args[2])
	if err != nil {
		return fmt.Errorf("invalid value %q: expected true or false", args[2])
	}
	return a.run(ctx, coordinator.SetPreference, coordinator.SetPreferencePayload{Key: args[1], Value: value}, render)
}

func printPreferences(a *app, prefs types.Preferences) {
	_, _ = fmt.Fprintf(a.out, "autoDetectForms:       %t\n", prefs.AutoDetectForms)
	_, _ = fmt.Fprintf(a.out, "highlightFilledFields: %t\n", prefs.HighlightFilledFields)
	_, _ = fmt.Fprintf(a.out, "showConfirmation:      %t\n", prefs.ShowConfirmation)
}
