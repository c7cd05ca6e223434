package db

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spindle-dev/spindle/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := Open(filepath.Join(t.TempDir(), "spindle.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestEventCreateAndGet(t *testing.T) {
	database := openTestDB(t)
	repo := NewEventRepository(database)
	ctx := context.Background()

	payload, _ := json.Marshal(models.TemplateRenderedPayload{
		Template: "agents/search",
		Bytes:    512,
	})
	event := &models.Event{
		Type:       models.EventTypeTemplateRendered,
		EntityType: models.EntityTypeTemplate,
		EntityID:   "agents/search",
		Payload:    payload,
		Metadata:   map[string]string{"session": "abc"},
	}

	if err := repo.Create(ctx, event); err != nil {
		t.Fatalf("create event: %v", err)
	}
	if event.ID == "" {
		t.Fatalf("expected generated event ID")
	}
	if event.Timestamp.IsZero() {
		t.Fatalf("expected generated timestamp")
	}

	got, err := repo.Get(ctx, event.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got.Type != models.EventTypeTemplateRendered {
		t.Fatalf("unexpected type: %s", got.Type)
	}
	if got.Metadata["session"] != "abc" {
		t.Fatalf("unexpected metadata: %+v", got.Metadata)
	}

	var decoded models.TemplateRenderedPayload
	if err := json.Unmarshal(got.Payload, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded.Template != "agents/search" || decoded.Bytes != 512 {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
}

func TestEventCreateInvalid(t *testing.T) {
	repo := NewEventRepository(openTestDB(t))

	err := repo.Create(context.Background(), &models.Event{Type: models.EventTypeError})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestEventGetNotFound(t *testing.T) {
	repo := NewEventRepository(openTestDB(t))

	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestEventQueryFiltersAndPagination(t *testing.T) {
	database := openTestDB(t)
	repo := NewEventRepository(database)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entity := "agents/search"
		eventType := models.EventTypeAgentLaunched
		if i%2 == 1 {
			entity = "agents/jira"
			eventType = models.EventTypeAgentCompleted
		}
		event := &models.Event{
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			Type:       eventType,
			EntityType: models.EntityTypeAgent,
			EntityID:   entity,
		}
		if err := repo.Create(ctx, event); err != nil {
			t.Fatalf("create event %d: %v", i, err)
		}
	}

	launched := models.EventTypeAgentLaunched
	page, err := repo.Query(ctx, EventFilter{Type: &launched})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(page.Events) != 3 {
		t.Fatalf("expected 3 launched events, got %d", len(page.Events))
	}

	page, err = repo.Query(ctx, EventFilter{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(page.Events) != 2 || page.NextCursor == "" {
		t.Fatalf("expected a full first page with cursor, got %d events", len(page.Events))
	}

	rest, err := repo.Query(ctx, EventFilter{Limit: 10, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("query rest: %v", err)
	}
	if len(rest.Events) != 3 || rest.NextCursor != "" {
		t.Fatalf("expected 3 remaining events, got %d", len(rest.Events))
	}

	since := base.Add(3 * time.Minute)
	page, err = repo.Query(ctx, EventFilter{Since: &since})
	if err != nil {
		t.Fatalf("query since: %v", err)
	}
	if len(page.Events) != 2 {
		t.Fatalf("expected 2 events since %s, got %d", since, len(page.Events))
	}
}

func TestEventListByEntity(t *testing.T) {
	database := openTestDB(t)
	repo := NewEventRepository(database)
	ctx := context.Background()

	for _, entity := range []string{"agents/search", "agents/search", "agents/jira"} {
		event := &models.Event{
			Type:       models.EventTypeAgentLaunched,
			EntityType: models.EntityTypeAgent,
			EntityID:   entity,
		}
		if err := repo.Create(ctx, event); err != nil {
			t.Fatalf("create event: %v", err)
		}
	}

	events, err := repo.ListByEntity(ctx, models.EntityTypeAgent, "agents/search", 10)
	if err != nil {
		t.Fatalf("list by entity: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
}

func TestEventQuerySubsecondOrdering(t *testing.T) {
	database := openTestDB(t)
	repo := NewEventRepository(database)
	ctx := context.Background()

	// One decimal digit versus two: a variable-width encoding would sort
	// "...00.1Z" after "...00.12Z" and invert the chronological order.
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	older := &models.Event{
		Timestamp:  base.Add(100 * time.Millisecond),
		Type:       models.EventTypeAgentLaunched,
		EntityType: models.EntityTypeAgent,
		EntityID:   "older",
	}
	newer := &models.Event{
		Timestamp:  base.Add(120 * time.Millisecond),
		Type:       models.EventTypeAgentLaunched,
		EntityType: models.EntityTypeAgent,
		EntityID:   "newer",
	}
	for _, event := range []*models.Event{newer, older} {
		if err := repo.Create(ctx, event); err != nil {
			t.Fatalf("create event: %v", err)
		}
	}

	page, err := repo.Query(ctx, EventFilter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(page.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(page.Events))
	}
	if page.Events[0].EntityID != "older" || page.Events[1].EntityID != "newer" {
		t.Errorf("order = %s, %s; want older first", page.Events[0].EntityID, page.Events[1].EntityID)
	}
	if !page.Events[0].Timestamp.Equal(older.Timestamp) {
		t.Errorf("timestamp round-trip = %v, want %v", page.Events[0].Timestamp, older.Timestamp)
	}

	// Since sits between the two; only the later event qualifies.
	since := base.Add(110 * time.Millisecond)
	page, err = repo.Query(ctx, EventFilter{Since: &since})
	if err != nil {
		t.Fatalf("query since: %v", err)
	}
	if len(page.Events) != 1 || page.Events[0].EntityID != "newer" {
		t.Fatalf("since filter returned %d events, want only the newer one", len(page.Events))
	}
}
