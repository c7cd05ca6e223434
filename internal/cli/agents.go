package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spindle-dev/spindle/internal/agents"
	"github.com/spindle-dev/spindle/internal/agents/runner"
	"github.com/spindle-dev/spindle/internal/db"
)

var (
	runVars        []string
	runEventSocket string
	runShowOnly    bool
)

func init() {
	agentsCmd.AddCommand(agentsListCmd)
	agentsCmd.AddCommand(agentsShowCmd)
	agentsCmd.AddCommand(agentsRunCmd)
	rootCmd.AddCommand(agentsCmd)

	agentsRunCmd.Flags().StringArrayVar(&runVars, "var", nil, "Variable override as key=value (repeatable)")
	agentsRunCmd.Flags().StringVar(&runEventSocket, "event-socket", "", "Unix socket to stream run events to")
	agentsRunCmd.Flags().BoolVar(&runShowOnly, "instructions-only", false, "Print the composed instructions without launching the runtime")
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Inspect and run portal support agents",
}

type agentRow struct {
	Name        string   `json:"name"`
	Template    string   `json:"template"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Source      string   `json:"source"`
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every agent manifest visible across the search paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		manifests, err := agents.LoadManifestsFromSearchPaths(GetConfig().AgentPaths())
		if err != nil {
			return err
		}

		rows := make([]agentRow, 0, len(manifests))
		for _, manifest := range manifests {
			rows = append(rows, agentRow{
				Name:        manifest.Name,
				Template:    manifest.Template,
				Description: manifest.Description,
				Tags:        manifest.Tags,
				Source:      manifest.Source,
			})
		}

		if IsJSONOutput() {
			return WriteOutput(os.Stdout, rows)
		}

		table := make([][]string, 0, len(rows))
		for _, row := range rows {
			table = append(table, []string{row.Name, row.Template, strings.Join(row.Tags, ","), row.Source})
		}
		return writeTable(os.Stdout, []string{"NAME", "TEMPLATE", "TAGS", "SOURCE"}, table)
	},
}

var agentsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show an agent manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manifest, err := agents.FindManifest(GetConfig().AgentPaths(), args[0])
		if err != nil {
			return err
		}

		if IsJSONOutput() {
			return WriteOutput(os.Stdout, map[string]any{
				"name":        manifest.Name,
				"description": manifest.Description,
				"template":    manifest.Template,
				"command":     manifest.Command,
				"variables":   manifest.Variables,
				"environment": manifest.Environment,
				"timeout":     manifest.Timeout,
				"tags":        manifest.Tags,
				"source":      manifest.Source,
			})
		}

		fmt.Printf("name: %s\n", manifest.Name)
		if manifest.Description != "" {
			fmt.Printf("description: %s\n", manifest.Description)
		}
		fmt.Printf("template: %s\n", manifest.Template)
		fmt.Printf("command: %s\n", strings.Join(manifest.Command, " "))
		if manifest.Timeout != "" {
			fmt.Printf("timeout: %s\n", manifest.Timeout)
		}
		if len(manifest.Tags) > 0 {
			fmt.Printf("tags: %s\n", strings.Join(manifest.Tags, ", "))
		}
		fmt.Printf("source: %s\n", manifest.Source)
		printVariables(manifest.Variables)
		return nil
	},
}

var agentsRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Compose an agent's instructions and launch its runtime",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides, err := parseVarFlags(runVars)
		if err != nil {
			return err
		}

		appConfig := GetConfig()
		store := appConfig.NewStore()

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()
		repo := db.NewEventRepository(database)

		if runShowOnly {
			service := agents.NewService(store, repo, nil, appConfig.AgentPaths())
			manifest, err := service.Find(args[0])
			if err != nil {
				return err
			}
			instructions, err := service.Instructions(cmd.Context(), manifest, overrides)
			if err != nil {
				return err
			}
			if IsJSONOutput() {
				return WriteOutput(os.Stdout, map[string]any{
					"agent":        manifest.Name,
					"instructions": instructions,
				})
			}
			fmt.Print(instructions)
			return nil
		}

		launcher := &runner.PTYLauncher{
			NewSink: func() runner.EventSink {
				sinks := runner.MultiSink{runner.NewDatabaseEventSink(repo)}
				if runEventSocket != "" {
					socketSink, err := runner.NewSocketEventSink(runEventSocket)
					if err != nil {
						fmt.Fprintf(os.Stderr, "event socket unavailable: %v\n", err)
					} else {
						sinks = append(sinks, socketSink)
					}
				}
				return sinks
			},
		}

		service := agents.NewService(store, repo, launcher, appConfig.AgentPaths())

		ctx := cmd.Context()
		if timeout := appConfig.Agents.Timeout; timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		step := startProgress(fmt.Sprintf("launching %s", args[0]))
		result, err := service.Run(ctx, args[0], overrides, os.Stdout)
		if err != nil {
			step.Fail(err)
			return err
		}
		step.Done()

		if IsJSONOutput() {
			return WriteOutput(os.Stdout, map[string]any{
				"session_id": result.SessionID,
				"agent":      result.Agent,
				"exit_code":  result.ExitCode,
				"duration":   result.Duration.String(),
			})
		}
		fmt.Printf("session %s exited with code %d after %s\n",
			result.SessionID, result.ExitCode, formatDuration(result.Duration))
		return nil
	},
}
