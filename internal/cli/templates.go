package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spindle-dev/spindle/internal/db"
	"github.com/spindle-dev/spindle/internal/events"
	"github.com/spindle-dev/spindle/internal/models"
	"github.com/spindle-dev/spindle/internal/templates"
)

var (
	renderVars    []string
	showResolved  bool
	renderNoEvent bool
)

func init() {
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesShowCmd)
	templatesCmd.AddCommand(templatesRenderCmd)
	templatesCmd.AddCommand(templatesLintCmd)
	templatesCmd.AddCommand(templatesReloadCmd)
	rootCmd.AddCommand(templatesCmd)

	templatesShowCmd.Flags().BoolVar(&showResolved, "resolved", false, "Show the composed template with includes applied")
	templatesRenderCmd.Flags().StringArrayVar(&renderVars, "var", nil, "Variable override as key=value (repeatable)")
	templatesRenderCmd.Flags().BoolVar(&renderNoEvent, "no-event", false, "Skip recording the render in the event log")
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect and render instruction templates",
}

type templateRow struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source"`
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every template visible across the search paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := GetConfig().NewStore()
		list, err := store.List()
		if err != nil {
			return err
		}

		rows := make([]templateRow, 0, len(list))
		for _, tmpl := range list {
			rows = append(rows, templateRow{
				Name:        tmpl.Name,
				Version:     tmpl.Version,
				Description: tmpl.Description,
				Source:      tmpl.Source,
			})
		}

		if IsJSONOutput() {
			return WriteOutput(os.Stdout, rows)
		}

		table := make([][]string, 0, len(rows))
		for _, row := range rows {
			table = append(table, []string{row.Name, row.Version, row.Source, row.Description})
		}
		return writeTable(os.Stdout, []string{"NAME", "VERSION", "SOURCE", "DESCRIPTION"}, table)
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a template, raw or composed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := GetConfig().NewStore()

		if showResolved {
			resolved, err := store.Resolve(args[0])
			if err != nil {
				return err
			}
			if IsJSONOutput() {
				return WriteOutput(os.Stdout, map[string]any{
					"name":         resolved.Name,
					"variables":    resolved.Variables,
					"placeholders": resolved.Placeholders(),
					"body":         resolved.Body,
				})
			}
			fmt.Printf("name: %s\n", resolved.Name)
			printVariables(resolved.Variables)
			fmt.Println()
			fmt.Print(resolved.Body)
			return nil
		}

		tmpl, err := store.Load(args[0])
		if err != nil {
			return err
		}
		if IsJSONOutput() {
			return WriteOutput(os.Stdout, map[string]any{
				"name":        tmpl.Name,
				"version":     tmpl.Version,
				"description": tmpl.Description,
				"includes":    tmpl.Includes,
				"variables":   tmpl.Variables,
				"source":      tmpl.Source,
				"body":        tmpl.Body,
			})
		}
		fmt.Printf("name: %s\n", tmpl.Name)
		if tmpl.Version != "" {
			fmt.Printf("version: %s\n", tmpl.Version)
		}
		if tmpl.Description != "" {
			fmt.Printf("description: %s\n", tmpl.Description)
		}
		if len(tmpl.Includes) > 0 {
			fmt.Printf("includes: %s\n", strings.Join(tmpl.Includes, ", "))
		}
		fmt.Printf("source: %s\n", tmpl.Source)
		printVariables(tmpl.Variables)
		fmt.Println()
		fmt.Print(tmpl.Body)
		return nil
	},
}

var templatesRenderCmd = &cobra.Command{
	Use:   "render <name>",
	Short: "Compose and format a template with variables applied",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides, err := parseVarFlags(renderVars)
		if err != nil {
			return err
		}

		store := GetConfig().NewStore()
		resolved, err := store.Resolve(args[0])
		if err != nil {
			return err
		}

		body, err := resolved.Format(overrides)
		if err != nil {
			return err
		}

		if !renderNoEvent {
			recordRender(cmd.Context(), resolved, body)
		}

		if IsJSONOutput() {
			return WriteOutput(os.Stdout, map[string]any{
				"name": resolved.Name,
				"body": body,
			})
		}
		fmt.Print(body)
		if !strings.HasSuffix(body, "\n") {
			fmt.Println()
		}
		return nil
	},
}

var templatesLintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check every template for parse errors, missing includes, and cycles",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := GetConfig().NewStore()
		names, err := store.ListNames()
		if err != nil {
			return err
		}

		type problem struct {
			Template string `json:"template"`
			Error    string `json:"error"`
		}
		var problems []problem
		for _, name := range names {
			if _, err := store.Resolve(name); err != nil {
				problems = append(problems, problem{Template: name, Error: err.Error()})
			}
		}

		if IsJSONOutput() {
			if err := WriteOutput(os.Stdout, map[string]any{
				"checked":  len(names),
				"problems": problems,
			}); err != nil {
				return err
			}
		} else if len(problems) == 0 {
			fmt.Printf("%d templates ok\n", len(names))
		} else {
			rows := make([][]string, 0, len(problems))
			for _, p := range problems {
				rows = append(rows, []string{p.Template, p.Error})
			}
			if err := writeTable(os.Stdout, []string{"TEMPLATE", "ERROR"}, rows); err != nil {
				return err
			}
		}

		if len(problems) > 0 {
			return fmt.Errorf("%d of %d templates failed lint", len(problems), len(names))
		}
		return nil
	},
}

var templatesReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Drop cached templates and re-read them from source",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := GetConfig().NewStore()
		store.Reload()
		names, err := store.ListNames()
		if err != nil {
			return err
		}

		if database, err := openDatabase(); err == nil {
			defer database.Close()
			repo := db.NewEventRepository(database)
			event := &models.Event{
				Type:       models.EventTypeTemplateReloaded,
				EntityType: models.EntityTypeSystem,
				EntityID:   "templates",
			}
			_ = repo.Create(cmd.Context(), event)
		}

		if IsJSONOutput() {
			return WriteOutput(os.Stdout, map[string]any{"templates": len(names)})
		}
		fmt.Printf("reloaded %d templates\n", len(names))
		return nil
	},
}

func printVariables(vars map[string]string) {
	if len(vars) == 0 {
		return
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fmt.Println("variables:")
	for _, key := range keys {
		fmt.Printf("  %s: %s\n", key, vars[key])
	}
}

func parseVarFlags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", pair)
		}
		vars[strings.TrimSpace(key)] = value
	}
	return vars, nil
}

func recordRender(ctx context.Context, resolved *templates.Resolved, body string) {
	database, err := openDatabase()
	if err != nil {
		return
	}
	defer database.Close()

	variables := make([]string, 0, len(resolved.Variables))
	for name := range resolved.Variables {
		variables = append(variables, name)
	}
	sort.Strings(variables)

	repo := db.NewEventRepository(database)
	_ = events.LogTemplateRendered(ctx, repo, models.TemplateRenderedPayload{
		Template:  resolved.Name,
		Variables: variables,
		Bytes:     len(body),
	})
}
