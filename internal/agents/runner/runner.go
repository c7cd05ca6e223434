// Package runner executes an external agent runtime under a PTY,
// delivers its composed instructions, and emits structured run events.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"

	"github.com/spindle-dev/spindle/internal/agents"
	"github.com/spindle-dev/spindle/internal/logging"
)

var (
	// ErrMissingSessionID indicates SessionID was not provided.
	ErrMissingSessionID = errors.New("session id is required")
	// ErrMissingAgent indicates Agent was not provided.
	ErrMissingAgent = errors.New("agent name is required")
	// ErrMissingCommand indicates no command was provided to run.
	ErrMissingCommand = errors.New("command is required")
)

var (
	defaultHeartbeatInterval = 5 * time.Second
	defaultTailLines         = 50
	maxPendingBytes          = 16384
	maxEventLineLength       = 1024
)

// Runner manages a single PTY-wrapped agent runtime process.
type Runner struct {
	SessionID    string
	Agent        string
	Command      []string
	Env          map[string]string
	Instructions string

	HeartbeatInterval time.Duration
	TailLines         int

	EventSink    EventSink
	OutputWriter io.Writer
	Now          func() time.Time

	pty    *os.File
	cmd    *exec.Cmd
	output *LineRing

	writeMu sync.Mutex
}

// Run starts the runtime, writes the instructions to it, captures
// output, and blocks until the process exits. It returns the process
// exit code.
func (r *Runner) Run(ctx context.Context) (int, error) {
	if err := r.validate(); err != nil {
		return -1, err
	}

	r.applyDefaults()
	logger := logging.Component("runner")

	r.cmd = exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
	r.cmd.Env = os.Environ()
	for key, value := range r.Env {
		r.cmd.Env = append(r.cmd.Env, key+"="+value)
	}

	ptyFile, err := pty.Start(r.cmd)
	if err != nil {
		return -1, fmt.Errorf("start pty: %w", err)
	}
	r.pty = ptyFile
	defer r.pty.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outputErrCh := make(chan error, 1)
	go r.readOutput(runCtx, outputErrCh)
	go r.heartbeatLoop(runCtx)

	if r.Instructions != "" {
		if err := r.sendInstructions(); err != nil {
			logger.Warn().Err(err).Str("agent", r.Agent).Msg("failed to deliver instructions")
		}
	}

	err = r.cmd.Wait()
	cancel()

	exitCode := 0
	if err != nil {
		if exitStatus := new(exec.ExitError); errors.As(err, &exitStatus) {
			exitCode = exitStatus.ExitCode()
			err = nil
		} else {
			exitCode = 1
		}
	}

	r.emit(context.Background(), RunEvent{
		Type:     EventExit,
		ExitCode: exitCode,
		Tail:     r.output.Snapshot(),
	})

	if closeErr := r.EventSink.Close(); closeErr != nil {
		logger.Warn().Err(closeErr).Msg("failed to close event sink")
	}

	if err != nil {
		if ctx.Err() != nil {
			return exitCode, ctx.Err()
		}
		return exitCode, err
	}

	select {
	case outputErr := <-outputErrCh:
		if outputErr != nil && !errors.Is(outputErr, io.EOF) {
			logger.Debug().Err(outputErr).Msg("output reader error")
		}
	default:
	}

	return exitCode, nil
}

func (r *Runner) sendInstructions() error {
	payload := r.Instructions
	if !strings.HasSuffix(payload, "\n") {
		payload += "\n"
	}

	r.writeMu.Lock()
	_, err := io.WriteString(r.pty, payload)
	r.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("write instructions: %w", err)
	}
	return nil
}

func (r *Runner) validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return ErrMissingSessionID
	}
	if strings.TrimSpace(r.Agent) == "" {
		return ErrMissingAgent
	}
	if len(r.Command) == 0 || strings.TrimSpace(r.Command[0]) == "" {
		return ErrMissingCommand
	}
	return nil
}

func (r *Runner) applyDefaults() {
	if r.HeartbeatInterval <= 0 {
		r.HeartbeatInterval = defaultHeartbeatInterval
	}
	if r.TailLines <= 0 {
		r.TailLines = defaultTailLines
	}
	if r.EventSink == nil {
		r.EventSink = NoopSink{}
	}
	if r.OutputWriter == nil {
		r.OutputWriter = io.Discard
	}
	if r.Now == nil {
		r.Now = time.Now
	}
	if r.output == nil {
		r.output = NewLineRing(r.TailLines)
	}
}

func (r *Runner) readOutput(ctx context.Context, errCh chan<- error) {
	logger := logging.Component("runner")
	buf := make([]byte, 4096)
	pending := make([]byte, 0, 4096)

	for {
		n, err := r.pty.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if _, writeErr := r.OutputWriter.Write(chunk); writeErr != nil {
				logger.Warn().Err(writeErr).Msg("failed to write output")
			}

			pending = append(pending, chunk...)
			lines, remainder := splitLines(pending)
			pending = remainder
			if len(pending) > maxPendingBytes {
				pending = pending[len(pending)-maxPendingBytes:]
			}

			for _, line := range lines {
				r.output.Add(line)
				preview, _ := truncateText(line, maxEventLineLength)
				r.emit(ctx, RunEvent{Type: EventOutputLine, Line: preview})
			}
		}

		if err != nil {
			if err == io.EOF {
				errCh <- nil
				return
			}
			errCh <- err
			return
		}
	}
}

func (r *Runner) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(r.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.emit(ctx, RunEvent{Type: EventHeartbeat, Tail: r.output.Snapshot()})
		}
	}
}

func (r *Runner) emit(ctx context.Context, event RunEvent) {
	event.SessionID = r.SessionID
	event.Agent = r.Agent
	event.Timestamp = r.Now().UTC()
	if err := r.EventSink.Emit(ctx, event); err != nil {
		log := logging.Component("runner")
		log.Debug().Err(err).Str("type", event.Type).Msg("event sink error")
	}
}

func splitLines(data []byte) ([]string, []byte) {
	var lines []string
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimRight(string(data[:idx]), "\r")
		lines = append(lines, line)
		data = data[idx+1:]
	}
	remainder := make([]byte, len(data))
	copy(remainder, data)
	return lines, remainder
}

func truncateText(text string, limit int) (string, bool) {
	if len(text) <= limit {
		return text, false
	}
	return text[:limit], true
}

// PTYLauncher adapts the runner to the coordination service. One
// runner is created per launch request.
type PTYLauncher struct {
	HeartbeatInterval time.Duration
	TailLines         int
	NewSink           func() EventSink
}

// Launch runs the manifest's command under a PTY and returns its exit code.
func (l *PTYLauncher) Launch(ctx context.Context, req agents.LaunchRequest) (int, error) {
	var sink EventSink
	if l.NewSink != nil {
		sink = l.NewSink()
	}

	r := &Runner{
		SessionID:         req.SessionID,
		Agent:             req.Manifest.Name,
		Command:           req.Manifest.Command,
		Env:               req.Manifest.Environment,
		Instructions:      req.Instructions,
		HeartbeatInterval: l.HeartbeatInterval,
		TailLines:         l.TailLines,
		EventSink:         sink,
		OutputWriter:      req.Output,
	}
	return r.Run(ctx)
}
