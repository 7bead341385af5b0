package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

const (
	// DefaultBufferSize is the number of events a subscriber may fall behind by
	// before further events are dropped.
	DefaultBufferSize = 32

	// DefaultPingInterval is how often idle websocket connections are pinged.
	DefaultPingInterval = 15 * time.Second
)

// JobReader loads the persisted state of a job.
type JobReader interface {
	GetJob(ctx context.Context, id string) (*core.GenerationJob, error)
}

// Subscription receives the events published to one session.
type Subscription struct {
	ID        uuid.UUID
	SessionID string

	events chan core.Event
	once   sync.Once
	gw     *Gateway
}

// Events returns the channel events are delivered on. It is closed by Close.
func (s *Subscription) Events() <-chan core.Event {
	return s.events
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.gw.remove(s)
		close(s.events)
	})
}

// Gateway fans job events out to the subscribers of each session.
// Delivery is best effort: sessions without subscribers drop events and a
// subscriber whose buffer is full misses them. Clients recover with CatchUp.
type Gateway struct {
	mu       sync.RWMutex
	sessions map[string]map[*Subscription]struct{}

	jobs         JobReader
	bufferSize   int
	pingInterval time.Duration
	checkOrigin  func(origin string) bool
	logger       *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
		return nil
	}
}

// WithBufferSize sets the per-subscriber event buffer.
// Default is DefaultBufferSize.
func WithBufferSize(n int) Option {
	return func(g *Gateway) error {
		if n <= 0 {
			return fmt.Errorf("buffer size must be positive, got %d", n)
		}
		g.bufferSize = n
		return nil
	}
}

// WithPingInterval sets the websocket keepalive interval.
// Default is DefaultPingInterval.
func WithPingInterval(d time.Duration) Option {
	return func(g *Gateway) error {
		if d <= 0 {
			return fmt.Errorf("ping interval must be positive, got %s", d)
		}
		g.pingInterval = d
		return nil
	}
}

// WithAllowedOrigins restricts websocket upgrades to the given origins.
// Default accepts any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(g *Gateway) error {
		allowed := make(map[string]struct{}, len(origins))
		for _, o := range origins {
			allowed[strings.TrimSuffix(o, "/")] = struct{}{}
		}
		g.checkOrigin = func(origin string) bool {
			if origin == "" {
				return true
			}
			_, ok := allowed[strings.TrimSuffix(origin, "/")]
			return ok
		}
		return nil
	}
}

// NewGateway creates a gateway. jobs serves catch-up snapshots.
func NewGateway(jobs JobReader, opts ...Option) (*Gateway, error) {
	if jobs == nil {
		return nil, errors.New("job reader is required")
	}
	g := &Gateway{
		sessions:     make(map[string]map[*Subscription]struct{}),
		jobs:         jobs,
		bufferSize:   DefaultBufferSize,
		pingInterval: DefaultPingInterval,
		checkOrigin:  func(string) bool { return true },
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	g.logger = g.logger.With("component", "notify")
	return g, nil
}

// Subscribe registers a subscriber for a session.
func (g *Gateway) Subscribe(sessionID string) (*Subscription, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", core.ErrInvalidRequest)
	}

	sub := &Subscription{
		ID:        uuid.New(),
		SessionID: sessionID,
		events:    make(chan core.Event, g.bufferSize),
		gw:        g,
	}

	g.mu.Lock()
	subs, ok := g.sessions[sessionID]
	if !ok {
		subs = make(map[*Subscription]struct{})
		g.sessions[sessionID] = subs
	}
	subs[sub] = struct{}{}
	g.mu.Unlock()

	g.logger.Debug("subscribed", "session", sessionID, "subscriber", sub.ID)
	return sub, nil
}

// Publish delivers an event to every subscriber of a session without blocking.
func (g *Gateway) Publish(sessionID string, event core.Event) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	subs, ok := g.sessions[sessionID]
	if !ok {
		return
	}
	for sub := range subs {
		select {
		case sub.events <- event:
		default:
			g.logger.Warn("dropping event; subscriber buffer full",
				"session", sessionID, "subscriber", sub.ID, "job", event.JobID, "type", event.Type)
		}
	}
}

// CatchUp returns the persisted state of a job for a (re)connecting client.
func (g *Gateway) CatchUp(ctx context.Context, jobID string) (*core.GenerationJob, error) {
	job, err := g.jobs.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: job %s", core.ErrNotFound, jobID)
		}
		return nil, err
	}
	return job, nil
}

// SubscriberCount returns how many subscribers a session has.
func (g *Gateway) SubscriberCount(sessionID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions[sessionID])
}

func (g *Gateway) remove(sub *Subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if subs, ok := g.sessions[sub.SessionID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(g.sessions, sub.SessionID)
		}
	}
	g.logger.Debug("unsubscribed", "session", sub.SessionID, "subscriber", sub.ID)
}
