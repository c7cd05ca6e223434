// Package events provides helper functions for recording spindle coordination events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spindle-dev/spindle/internal/models"
)

// Repository is the minimal interface needed to write events.
type Repository interface {
	Create(ctx context.Context, event *models.Event) error
}

// LogTemplateRendered records that a template was resolved and formatted.
func LogTemplateRendered(ctx context.Context, repo Repository, payload models.TemplateRenderedPayload) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}
	if payload.Template == "" {
		return fmt.Errorf("template name is required")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal rendered payload: %w", err)
	}

	return repo.Create(ctx, &models.Event{
		Type:       models.EventTypeTemplateRendered,
		EntityType: models.EntityTypeTemplate,
		EntityID:   payload.Template,
		Payload:    data,
	})
}

// LogAgentLaunched records an external agent runtime launch.
func LogAgentLaunched(ctx context.Context, repo Repository, payload models.AgentLaunchedPayload) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}
	if payload.Agent == "" {
		return fmt.Errorf("agent name is required")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal launch payload: %w", err)
	}

	return repo.Create(ctx, &models.Event{
		Type:       models.EventTypeAgentLaunched,
		EntityType: models.EntityTypeAgent,
		EntityID:   payload.Agent,
		Payload:    data,
	})
}

// LogAgentCompleted records a finished agent run.
func LogAgentCompleted(ctx context.Context, repo Repository, agent, sessionID string, duration time.Duration, exitCode int) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}
	if agent == "" {
		return fmt.Errorf("agent name is required")
	}

	data, err := json.Marshal(models.AgentCompletedPayload{
		SessionID: sessionID,
		Agent:     agent,
		Duration:  duration.String(),
		ExitCode:  exitCode,
	})
	if err != nil {
		return fmt.Errorf("marshal completion payload: %w", err)
	}

	return repo.Create(ctx, &models.Event{
		Type:       models.EventTypeAgentCompleted,
		EntityType: models.EntityTypeAgent,
		EntityID:   agent,
		Payload:    data,
	})
}

// LogAgentFailed records a failed agent run.
func LogAgentFailed(ctx context.Context, repo Repository, agent, sessionID string, runErr error) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}
	if agent == "" {
		return fmt.Errorf("agent name is required")
	}

	message := ""
	if runErr != nil {
		message = runErr.Error()
	}

	data, err := json.Marshal(models.AgentFailedPayload{
		SessionID: sessionID,
		Agent:     agent,
		Error:     message,
	})
	if err != nil {
		return fmt.Errorf("marshal failure payload: %w", err)
	}

	return repo.Create(ctx, &models.Event{
		Type:       models.EventTypeAgentFailed,
		EntityType: models.EntityTypeAgent,
		EntityID:   agent,
		Payload:    data,
	})
}
