package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/neuralbroker/tiergate/core"
)

// DefaultPollInterval is how often tier data is re-fetched while
// monitoring is active.
const DefaultPollInterval = 30 * time.Second

// TierListener is invoked with the new record after every successful
// fetch. Calls are synchronous and in registration order.
type TierListener func(*core.TierData)

type listenerEntry struct {
	id int
	fn TierListener
}

// TierMonitor maintains the authoritative view of a user's
// subscription tier and credits.
//
// Lifecycle: Start performs the initial fetch and begins polling on
// success; on failure it degrades to a free-tier fallback record and
// does not poll. A later successful Refresh promotes a fallback
// monitor to active polling. Cleanup stops everything and must be
// called on logout; fetch results that land after Cleanup are
// discarded.
type TierMonitor struct {
	backend  core.BackendClient
	cache    core.TierCache // optional, can be nil if caching is disabled
	log      *zap.Logger
	interval time.Duration

	mu        sync.Mutex
	userID    string
	data      *core.TierData
	polling   bool
	epoch     uint64
	stop      chan struct{}
	listeners []listenerEntry
	nextID    int
}

func NewTierMonitor(backend core.BackendClient, cache core.TierCache, interval time.Duration, log *zap.Logger) *TierMonitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TierMonitor{
		backend:  backend,
		cache:    cache,
		log:      log,
		interval: interval,
	}
}

// Start initializes tier monitoring for a user id. It never returns an
// error for a failed fetch: the UI must not block on tier data, so a
// fetch failure resolves with the fallback record and polling stays
// off until an explicit Refresh succeeds.
func (m *TierMonitor) Start(ctx context.Context, userID string) (*core.TierData, error) {
	if userID == "" {
		return nil, core.ErrUserIDRequired
	}

	m.mu.Lock()
	if m.userID != "" {
		m.mu.Unlock()
		return nil, core.ErrMonitorActive
	}
	m.userID = userID
	epoch := m.epoch
	m.mu.Unlock()

	d, err := m.backend.FetchTier(ctx, userID)
	if err != nil {
		m.log.Warn("initial tier fetch failed, degrading to fallback tier",
			zap.String("user_id", userID),
			zap.Error(err))

		fb := m.fallbackRecord(userID)
		m.mu.Lock()
		if m.epoch != epoch || m.userID != userID {
			m.mu.Unlock()
			return nil, core.ErrMonitorClosed
		}
		m.data = fb
		m.mu.Unlock()
		return fb, nil
	}

	return m.apply(d, epoch, userID)
}

// Refresh forces an immediate re-fetch outside the poll cycle. Unlike
// polling, the error is surfaced to the caller; the last known data is
// retained either way.
func (m *TierMonitor) Refresh(ctx context.Context) (*core.TierData, error) {
	m.mu.Lock()
	userID := m.userID
	epoch := m.epoch
	m.mu.Unlock()
	if userID == "" {
		return nil, core.ErrMonitorNotActive
	}

	d, err := m.backend.FetchTier(ctx, userID)
	if err != nil {
		m.log.Warn("tier refresh failed, keeping last known data",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("tier refresh: %w", err)
	}

	return m.apply(d, epoch, userID)
}

// SimulateTier asks the backend to overwrite the stored tier and
// reseed that tier's starter credits, then re-fetches.
func (m *TierMonitor) SimulateTier(ctx context.Context, newTier core.Tier) (*core.TierData, error) {
	m.mu.Lock()
	userID := m.userID
	m.mu.Unlock()
	if userID == "" {
		return nil, core.ErrMonitorNotActive
	}

	tier := core.NormalizeTier(string(newTier))
	if err := m.backend.UpdateTier(ctx, userID, tier, core.StarterCredits(tier)); err != nil {
		return nil, fmt.Errorf("tier update: %w", err)
	}

	return m.Refresh(ctx)
}

// Subscribe registers a listener and returns its unsubscribe function.
// Listeners registered before a fetch completes receive exactly one
// call per successful fetch; failed fetches deliver nothing.
func (m *TierMonitor) Subscribe(fn TierListener) func() {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, listenerEntry{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, e := range m.listeners {
			if e.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				break
			}
		}
	}
}

// Cleanup stops the poll goroutine, clears all listeners, and drops
// the in-memory data and user id. Must be called on logout so a timer
// does not keep fetching for a stale user id. In-flight fetches are
// invalidated by the epoch bump.
func (m *TierMonitor) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
	m.polling = false
	m.data = nil
	m.userID = ""
	m.listeners = nil
}

// Data returns the current tier record, nil before the initial fetch
// resolves. Callers must treat the record as read-only.
func (m *TierMonitor) Data() *core.TierData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data
}

// FallbackMode reports whether the current record is a local fallback.
func (m *TierMonitor) FallbackMode() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data != nil && m.data.FallbackMode
}

// Polling reports whether the background poll goroutine is running.
func (m *TierMonitor) Polling() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polling
}

// UserID returns the monitored user id, empty when not started.
func (m *TierMonitor) UserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID
}

// apply stores a fetched record, starts polling if it is not running,
// and notifies listeners before returning to the caller. Records from
// a cleaned-up epoch are discarded.
func (m *TierMonitor) apply(d *core.TierData, epoch uint64, userID string) (*core.TierData, error) {
	norm := core.NormalizeTierData(d)
	norm.FallbackMode = false

	m.mu.Lock()
	if m.epoch != epoch || m.userID != userID {
		m.mu.Unlock()
		return nil, core.ErrMonitorClosed
	}
	m.data = norm

	startPoll := !m.polling
	var stop chan struct{}
	if startPoll {
		stop = make(chan struct{})
		m.stop = stop
		m.polling = true
	}

	listeners := make([]TierListener, len(m.listeners))
	for i, e := range m.listeners {
		listeners[i] = e.fn
	}
	m.mu.Unlock()

	if m.cache != nil {
		if err := m.cache.Set(userID, norm); err != nil {
			m.log.Debug("tier cache write failed", zap.Error(err))
		}
	}

	if startPoll {
		go m.poll(epoch, userID, stop)
	}

	// Notify before the triggering call returns: subscribers observe
	// the update ahead of the initiator's own continuation.
	for _, fn := range listeners {
		fn(norm)
	}

	return norm, nil
}

func (m *TierMonitor) poll(epoch uint64, userID string, stop chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), m.interval)
			d, err := m.backend.FetchTier(ctx, userID)
			cancel()
			if err != nil {
				// Stale data is retained; the next tick retries.
				m.log.Warn("tier poll failed, keeping last known data",
					zap.String("user_id", userID),
					zap.Error(err))
				continue
			}
			if _, err := m.apply(d, epoch, userID); err != nil {
				return
			}
		}
	}
}

// fallbackRecord prefers a cached snapshot for the user over the
// static free-tier default, so a dashboard restart during a backend
// outage keeps the last known tier instead of demoting the user.
func (m *TierMonitor) fallbackRecord(userID string) *core.TierData {
	if m.cache != nil {
		if cached, err := m.cache.Get(userID); err == nil && cached != nil {
			fb := cached.Clone()
			fb.FallbackMode = true
			return fb
		}
	}
	return core.FallbackTierData()
}
