package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-autofill/internal/coordinator"
	"github.com/jonathan/resume-autofill/internal/schemas"
)

var sendFile string

var sendCmd = &cobra.Command{
	Use:   "send [COMMAND_JSON]",
	Short: "Dispatch a raw coordinator command and print its result",
	Long: `Dispatch a raw coordinator command such as
  {"type": "API_REQUEST", "payload": {"endpoint": "/api/resume/history"}}
The command is read from the argument, from --file, or from stdin when neither is given.
The result is always printed as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(runSend),
}

func init() {
	sendCmd.Flags().StringVarP(&sendFile, "file", "f", "", "Path to a command JSON file")
	rootCmd.AddCommand(sendCmd)
}

func readCommand(args []string, stdin io.Reader) ([]byte, error) {
	switch {
	case len(args) == 1 && sendFile != "":
		return nil, fmt.Errorf("cannot use an argument with --file")
	case len(args) == 1:
		return []byte(args[0]), nil
	case sendFile != "":
		data, err := os.ReadFile(sendFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read command file: %w", err)
		}
		return data, nil
	default:
		data, err := io.ReadAll(io.LimitReader(stdin, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("failed to read command from stdin: %w", err)
		}
		return data, nil
	}
}

// parseCommand validates raw against the command schema and decodes it.
func parseCommand(raw []byte) (coordinator.Command, error) {
	var cmd coordinator.Command
	if err := schemas.ValidateCommand(raw); err != nil {
		return cmd, err
	}
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return cmd, fmt.Errorf("failed to parse command: %w", err)
	}
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	return cmd, nil
}

func runSend(ctx context.Context, a *app, args []string) error {
	raw, err := readCommand(args, os.Stdin)
	if err != nil {
		return err
	}
	cmd, err := parseCommand(raw)
	if err != nil {
		return err
	}
	res := a.coord.Dispatch(ctx, cmd)
	if err := a.printJSON(res); err != nil {
		return err
	}
	return res.Err()
}
