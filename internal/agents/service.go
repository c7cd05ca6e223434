package agents

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spindle-dev/spindle/internal/events"
	"github.com/spindle-dev/spindle/internal/logging"
	"github.com/spindle-dev/spindle/internal/models"
	"github.com/spindle-dev/spindle/internal/templates"
)

// LaunchRequest carries everything a Launcher needs to start a runtime.
type LaunchRequest struct {
	SessionID    string
	Manifest     *Manifest
	Instructions string
	Output       io.Writer
}

// Launcher starts an external agent runtime and blocks until it exits,
// returning the process exit code.
type Launcher interface {
	Launch(ctx context.Context, req LaunchRequest) (int, error)
}

// RunResult reports the outcome of a completed agent run.
type RunResult struct {
	SessionID string
	Agent     string
	ExitCode  int
	Duration  time.Duration
}

// Service coordinates agent runs: it composes the instruction set from
// the template store, hands it to the runtime via the launcher, and
// records lifecycle events.
type Service struct {
	store    *templates.Store
	repo     events.Repository
	launcher Launcher
	paths    []string
	logger   zerolog.Logger
}

// NewService creates an agent coordination service. repo may be nil,
// in which case no events are recorded.
func NewService(store *templates.Store, repo events.Repository, launcher Launcher, searchPaths []string) *Service {
	return &Service{
		store:    store,
		repo:     repo,
		launcher: launcher,
		paths:    searchPaths,
		logger:   logging.Component("agents"),
	}
}

// List returns every manifest visible across the search paths.
func (s *Service) List() ([]*Manifest, error) {
	return LoadManifestsFromSearchPaths(s.paths)
}

// Find locates a single manifest by name.
func (s *Service) Find(name string) (*Manifest, error) {
	return FindManifest(s.paths, name)
}

// Instructions composes and formats the instruction set for an agent
// without launching it. Overrides win over the manifest's variables,
// which in turn win over the template's own defaults.
func (s *Service) Instructions(ctx context.Context, manifest *Manifest, overrides map[string]string) (string, error) {
	resolved, err := s.store.Resolve(manifest.Template)
	if err != nil {
		return "", fmt.Errorf("resolve template %s: %w", manifest.Template, err)
	}

	partial := resolved.Partial(manifest.Variables)
	body, err := partial.Format(overrides)
	if err != nil {
		return "", fmt.Errorf("format template %s: %w", manifest.Template, err)
	}

	if s.repo != nil {
		variables := make([]string, 0, len(resolved.Variables))
		for name := range resolved.Variables {
			variables = append(variables, name)
		}
		sort.Strings(variables)
		payload := models.TemplateRenderedPayload{
			Template:  resolved.Name,
			Variables: variables,
			Bytes:     len(body),
		}
		if err := events.LogTemplateRendered(ctx, s.repo, payload); err != nil {
			s.logger.Warn().Err(err).Str("template", resolved.Name).Msg("failed to record render event")
		}
	}
	return body, nil
}

// Run launches the named agent with its composed instructions and
// blocks until the runtime exits.
func (s *Service) Run(ctx context.Context, name string, overrides map[string]string, output io.Writer) (*RunResult, error) {
	manifest, err := s.Find(name)
	if err != nil {
		return nil, err
	}

	instructions, err := s.Instructions(ctx, manifest, overrides)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.New().String()
	s.logger.Info().
		Str("agent", manifest.Name).
		Str("session_id", sessionID).
		Str("template", manifest.Template).
		Msg("launching agent")

	if s.repo != nil {
		payload := models.AgentLaunchedPayload{
			SessionID: sessionID,
			Agent:     manifest.Name,
			Template:  manifest.Template,
			Command:   strings.Join(manifest.Command, " "),
		}
		if err := events.LogAgentLaunched(ctx, s.repo, payload); err != nil {
			s.logger.Warn().Err(err).Str("agent", manifest.Name).Msg("failed to record launch event")
		}
	}

	runCtx := ctx
	if timeout := manifest.RunTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	exitCode, runErr := s.launcher.Launch(runCtx, LaunchRequest{
		SessionID:    sessionID,
		Manifest:     manifest,
		Instructions: instructions,
		Output:       output,
	})
	duration := time.Since(start)

	if runErr != nil {
		if s.repo != nil {
			if err := events.LogAgentFailed(ctx, s.repo, manifest.Name, sessionID, runErr); err != nil {
				s.logger.Warn().Err(err).Str("agent", manifest.Name).Msg("failed to record failure event")
			}
		}
		return nil, fmt.Errorf("run agent %s: %w", manifest.Name, runErr)
	}

	if s.repo != nil {
		if err := events.LogAgentCompleted(ctx, s.repo, manifest.Name, sessionID, duration, exitCode); err != nil {
			s.logger.Warn().Err(err).Str("agent", manifest.Name).Msg("failed to record completion event")
		}
	}

	return &RunResult{
		SessionID: sessionID,
		Agent:     manifest.Name,
		ExitCode:  exitCode,
		Duration:  duration,
	}, nil
}
