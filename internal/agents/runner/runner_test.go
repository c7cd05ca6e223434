package runner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu     sync.Mutex
	events []RunEvent
}

func (s *memorySink) Emit(ctx context.Context, event RunEvent) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	return nil
}

func (s *memorySink) Close() error {
	return nil
}

func (s *memorySink) HasType(eventType string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range s.events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

func (s *memorySink) ContainsOutput(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range s.events {
		if event.Type == EventOutputLine && strings.Contains(event.Line, text) {
			return true
		}
	}
	return false
}

func (s *memorySink) ExitCode() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range s.events {
		if event.Type == EventExit {
			return event.ExitCode, true
		}
	}
	return 0, false
}

func writeFakeRuntime(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-runtime.sh")

	script := `#!/bin/sh
IFS= read -r line
echo "instructions: $line"
exit 0
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func TestRunnerDeliversInstructions(t *testing.T) {
	scriptPath := writeFakeRuntime(t)
	sink := &memorySink{}

	runner := &Runner{
		SessionID:         "sess_123",
		Agent:             "search",
		Command:           []string{scriptPath},
		Instructions:      "Answer from the portal-docs knowledge base.",
		HeartbeatInterval: time.Minute,
		TailLines:         4,
		EventSink:         sink,
		OutputWriter:      io.Discard,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	exitCode, err := runner.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, exitCode)

	// The output reader can still be draining the pty when Run returns.
	require.Eventually(t, func() bool {
		return sink.ContainsOutput("instructions: Answer from the portal-docs")
	}, 2*time.Second, 10*time.Millisecond, "expected the runtime to receive the instructions")
	require.True(t, sink.HasType(EventExit), "expected exit event")

	code, ok := sink.ExitCode()
	require.True(t, ok)
	require.Equal(t, 0, code)
}

func TestRunnerReportsExitCode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fail.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 3\n"), 0755))

	sink := &memorySink{}
	runner := &Runner{
		SessionID:         "sess_456",
		Agent:             "jira",
		Command:           []string{path},
		HeartbeatInterval: time.Minute,
		EventSink:         sink,
		OutputWriter:      io.Discard,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	exitCode, err := runner.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, exitCode)

	code, ok := sink.ExitCode()
	require.True(t, ok)
	require.Equal(t, 3, code)
}

func TestRunnerValidation(t *testing.T) {
	ctx := context.Background()

	_, err := (&Runner{Agent: "x", Command: []string{"sh"}}).Run(ctx)
	require.ErrorIs(t, err, ErrMissingSessionID)

	_, err = (&Runner{SessionID: "s", Command: []string{"sh"}}).Run(ctx)
	require.ErrorIs(t, err, ErrMissingAgent)

	_, err = (&Runner{SessionID: "s", Agent: "x"}).Run(ctx)
	require.ErrorIs(t, err, ErrMissingCommand)
}

func TestLineRing(t *testing.T) {
	ring := NewLineRing(3)
	ring.Add("a")
	ring.Add("b")
	require.Equal(t, []string{"a", "b"}, ring.Snapshot())

	ring.Add("c")
	ring.Add("d")
	require.Equal(t, []string{"b", "c", "d"}, ring.Snapshot())
}
