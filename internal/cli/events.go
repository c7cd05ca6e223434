package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/spindle-dev/spindle/internal/db"
	"github.com/spindle-dev/spindle/internal/models"
)

var (
	eventsType   string
	eventsEntity string
	eventsSince  string
	eventsLimit  int
	eventsCursor string
)

func init() {
	eventsCmd.AddCommand(eventsListCmd)
	rootCmd.AddCommand(eventsCmd)

	eventsListCmd.Flags().StringVar(&eventsType, "type", "", "Filter by event type (e.g. template.rendered)")
	eventsListCmd.Flags().StringVar(&eventsEntity, "entity", "", "Filter by entity id (template or agent name)")
	eventsListCmd.Flags().StringVar(&eventsSince, "since", "", "Only events after this RFC 3339 timestamp or duration (e.g. 24h)")
	eventsListCmd.Flags().IntVar(&eventsLimit, "limit", 50, "Maximum events to return")
	eventsListCmd.Flags().StringVar(&eventsCursor, "cursor", "", "Resume from a previous page's cursor")
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Query the coordination event log",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded events, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		filter := db.EventFilter{
			Cursor: eventsCursor,
			Limit:  eventsLimit,
		}
		if eventsType != "" {
			eventType := models.EventType(eventsType)
			filter.Type = &eventType
		}
		if eventsEntity != "" {
			filter.EntityID = &eventsEntity
		}
		if eventsSince != "" {
			since, err := parseSince(eventsSince)
			if err != nil {
				return err
			}
			filter.Since = &since
		}

		repo := db.NewEventRepository(database)
		page, err := repo.Query(cmd.Context(), filter)
		if err != nil {
			return err
		}

		if IsJSONOutput() {
			return WriteOutput(os.Stdout, page)
		}

		rows := make([][]string, 0, len(page.Events))
		for _, event := range page.Events {
			rows = append(rows, []string{
				event.Timestamp.Local().Format(time.RFC3339),
				string(event.Type),
				string(event.EntityType),
				event.EntityID,
			})
		}
		if err := writeTable(os.Stdout, []string{"TIMESTAMP", "TYPE", "ENTITY", "ID"}, rows); err != nil {
			return err
		}
		if page.NextCursor != "" {
			fmt.Fprintf(os.Stderr, "more events available, resume with --cursor %s\n", page.NextCursor)
		}
		return nil
	},
}

func parseSince(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		return time.Now().Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("invalid --since %q, expected RFC 3339 timestamp or duration", value)
}
