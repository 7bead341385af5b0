package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Reporter prints a single, carriage-return refreshed progress line.
// A report is written whenever at least interval rows were added since the
// previous one.
type Reporter struct {
	mu        sync.Mutex
	w         io.Writer
	total     int
	interval  int
	done      int
	reported  int
	startedAt time.Time
	running   bool
}

// NewReporter creates a reporter for total rows. Output goes to w; a nil w
// discards it.
func NewReporter(w io.Writer, total, interval int) *Reporter {
	if w == nil {
		w = io.Discard
	}
	if interval < 1 {
		interval = 1
	}
	return &Reporter{w: w, total: total, interval: interval}
}

// Start resets the counters and the clock.
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startedAt = time.Now()
	r.running = true
	r.done = 0
	r.reported = 0
}

// Add records n more finished rows.
func (r *Reporter) Add(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.done = min(r.done+n, r.total)
	if r.done-r.reported >= r.interval {
		r.print()
		r.reported = r.done
	}
}

// Finish prints the final line. Rows not reported through Add count as done.
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.done = r.total
	r.print()
	fmt.Fprintln(r.w)
	r.running = false
}

// Done returns the rows counted so far.
func (r *Reporter) Done() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Elapsed returns the time since Start.
func (r *Reporter) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startedAt.IsZero() {
		return 0
	}
	return time.Since(r.startedAt)
}

func (r *Reporter) print() {
	pct := 100.0
	if r.total > 0 {
		pct = float64(r.done) / float64(r.total) * 100
	}
	rate := 0.0
	if secs := time.Since(r.startedAt).Seconds(); secs > 0 {
		rate = float64(r.done) / secs
	}
	fmt.Fprintf(r.w, "\rProgress: %d/%d (%.1f%%) - %.1f rows/s", r.done, r.total, pct, rate)
}
