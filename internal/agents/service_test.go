package agents

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spindle-dev/spindle/internal/models"
	"github.com/spindle-dev/spindle/internal/templates"
)

type captureRepo struct {
	events []*models.Event
}

func (r *captureRepo) Create(ctx context.Context, event *models.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *captureRepo) types() []string {
	var out []string
	for _, event := range r.events {
		out = append(out, string(event.Type))
	}
	return out
}

type fakeLauncher struct {
	req      LaunchRequest
	exitCode int
	err      error
}

func (l *fakeLauncher) Launch(ctx context.Context, req LaunchRequest) (int, error) {
	l.req = req
	if l.err != nil {
		return -1, l.err
	}
	return l.exitCode, nil
}

func newServiceFixture(t *testing.T, launcher Launcher) (*Service, *captureRepo) {
	t.Helper()
	templatesDir := t.TempDir()
	agentsDir := t.TempDir()

	templateYAML := "name: greet\nvariables:\n  who: world\ntemplate: |\n  Hello {who}.\n"
	if err := os.WriteFile(filepath.Join(templatesDir, "greet.yaml"), []byte(templateYAML), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	manifestYAML := "name: greeter\ntemplate: greet\ncommand: [echo-agent]\nvariables:\n  who: portal\n"
	if err := os.WriteFile(filepath.Join(agentsDir, "greeter.yaml"), []byte(manifestYAML), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	store := templates.NewStore(templates.Options{
		Paths:           []string{templatesDir},
		WithoutBuiltins: true,
	})
	repo := &captureRepo{}
	return NewService(store, repo, launcher, []string{agentsDir}), repo
}

func TestServiceInstructionsPrecedence(t *testing.T) {
	service, repo := newServiceFixture(t, &fakeLauncher{})

	manifest, err := service.Find("greeter")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	// Manifest variables beat the template default.
	body, err := service.Instructions(context.Background(), manifest, nil)
	if err != nil {
		t.Fatalf("Instructions: %v", err)
	}
	if !strings.Contains(body, "Hello portal.") {
		t.Errorf("body = %q, want manifest variable applied", body)
	}

	// Call-time overrides beat the manifest.
	body, err = service.Instructions(context.Background(), manifest, map[string]string{"who": "Ada"})
	if err != nil {
		t.Fatalf("Instructions with overrides: %v", err)
	}
	if !strings.Contains(body, "Hello Ada.") {
		t.Errorf("body = %q, want override applied", body)
	}

	if got := repo.types(); len(got) != 2 || got[0] != "template.rendered" {
		t.Errorf("event types = %v, want two template.rendered", got)
	}
}

func TestServiceRun(t *testing.T) {
	launcher := &fakeLauncher{exitCode: 0}
	service, repo := newServiceFixture(t, launcher)

	var output bytes.Buffer
	result, err := service.Run(context.Background(), "greeter", nil, &output)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Agent != "greeter" {
		t.Errorf("agent = %q", result.Agent)
	}
	if result.SessionID == "" {
		t.Error("expected a session id")
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code = %d", result.ExitCode)
	}

	if !strings.Contains(launcher.req.Instructions, "Hello portal.") {
		t.Errorf("launcher instructions = %q", launcher.req.Instructions)
	}
	if launcher.req.SessionID != result.SessionID {
		t.Error("launcher saw a different session id")
	}

	got := repo.types()
	want := []string{"template.rendered", "agent.launched", "agent.completed"}
	if len(got) != len(want) {
		t.Fatalf("event types = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestServiceRunFailure(t *testing.T) {
	launcher := &fakeLauncher{err: errors.New("runtime crashed")}
	service, repo := newServiceFixture(t, launcher)

	_, err := service.Run(context.Background(), "greeter", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "runtime crashed") {
		t.Fatalf("err = %v, want launch failure", err)
	}

	got := repo.types()
	if len(got) != 3 || got[2] != "agent.failed" {
		t.Errorf("event types = %v, want agent.failed last", got)
	}
}

func TestServiceRunUnknownAgent(t *testing.T) {
	service, _ := newServiceFixture(t, &fakeLauncher{})

	_, err := service.Run(context.Background(), "nope", nil, nil)
	if !errors.Is(err, ErrAgentNotFound) {
		t.Errorf("err = %v, want ErrAgentNotFound", err)
	}
}
