package runner

import "sync"

// LineRing keeps the most recent output lines of a run in a fixed-size
// ring, so exit events can carry a tail without buffering everything.
type LineRing struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

// NewLineRing creates a ring holding up to capacity lines.
func NewLineRing(capacity int) *LineRing {
	if capacity < 1 {
		capacity = 1
	}
	return &LineRing{lines: make([]string, capacity)}
}

// Add appends a line, evicting the oldest when full.
func (r *LineRing) Add(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.full = true
	}
}

// Snapshot returns the buffered lines in arrival order.
func (r *LineRing) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]string, r.next)
		copy(out, r.lines[:r.next])
		return out
	}
	out := make([]string, 0, len(r.lines))
	out = append(out, r.lines[r.next:]...)
	out = append(out, r.lines[:r.next]...)
	return out
}
