package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// PreflightError describes a condition that prevents a command from
// starting, with a hint for the operator.
type PreflightError struct {
	Message  string
	Hint     string
	NextStep string
}

func (e *PreflightError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\nhint: " + e.Hint
	}
	if e.NextStep != "" {
		msg += "\ntry: " + e.NextStep
	}
	return msg
}

// IsJSONOutput reports whether --json was requested.
func IsJSONOutput() bool {
	return jsonOutput
}

// WriteOutput encodes value as indented JSON. Commands call this for
// their machine-readable path and fall back to tables otherwise.
func WriteOutput(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
