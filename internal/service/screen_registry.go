package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/club-portal/pkg/errors"
)

var errScreenNotFound = appErrors.Clone(appErrors.ErrNotFound, "screen not found or expired")

type screenEntry[S any] struct {
	owner    string
	screen   S
	lastSeen time.Time
}

// ScreenRegistry holds the mounted screens of one kind. A screen is only
// visible to the account that mounted it and disappears after idleTTL
// without interaction.
type ScreenRegistry[S any] struct {
	kind    string
	idleTTL time.Duration
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*screenEntry[S]
}

// NewScreenRegistry constructs an empty registry.
func NewScreenRegistry[S any](kind string, idleTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *ScreenRegistry[S] {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScreenRegistry[S]{
		kind:    kind,
		idleTTL: idleTTL,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*screenEntry[S]),
	}
}

// Mount stores a fresh screen for owner and returns its id.
func (r *ScreenRegistry[S]) Mount(owner string, screen S) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.entries[id] = &screenEntry[S]{owner: owner, screen: screen, lastSeen: r.now()}
	count := len(r.entries)
	r.mu.Unlock()

	r.metrics.SetActiveScreens(r.kind, count)
	return id
}

// Get returns the screen and refreshes its idle timer. Screens owned by
// another account are reported as not found.
func (r *ScreenRegistry[S]) Get(owner, id string) (S, error) {
	var zero S
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok || entry.owner != owner {
		return zero, errScreenNotFound
	}
	now := r.now()
	if now.Sub(entry.lastSeen) > r.idleTTL {
		delete(r.entries, id)
		return zero, errScreenNotFound
	}
	entry.lastSeen = now
	return entry.screen, nil
}

// Remove unmounts a screen.
func (r *ScreenRegistry[S]) Remove(owner, id string) {
	r.mu.Lock()
	if entry, ok := r.entries[id]; ok && entry.owner == owner {
		delete(r.entries, id)
	}
	count := len(r.entries)
	r.mu.Unlock()
	r.metrics.SetActiveScreens(r.kind, count)
}

// Len reports the number of mounted screens.
func (r *ScreenRegistry[S]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep evicts idle screens and returns how many were removed.
func (r *ScreenRegistry[S]) Sweep() int {
	r.mu.Lock()
	now := r.now()
	removed := 0
	for id, entry := range r.entries {
		if now.Sub(entry.lastSeen) > r.idleTTL {
			delete(r.entries, id)
			removed++
		}
	}
	count := len(r.entries)
	r.mu.Unlock()

	r.metrics.SetActiveScreens(r.kind, count)
	if removed > 0 {
		r.logger.Debug("expired screens evicted", zap.String("kind", r.kind), zap.Int("removed", removed), zap.Int("remaining", count))
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (r *ScreenRegistry[S]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
