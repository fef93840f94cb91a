package monitor

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/stockwatch/backend/internal/domain/alert"
	"github.com/stockwatch/backend/internal/domain/catalog"
	"github.com/stockwatch/backend/internal/domain/location"
	"github.com/stockwatch/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Config holds the monitor loop settings.
type Config struct {
	// Interval is measured from the end of one tick to the start of the
	// next, so a slow fetch never causes overlapping ticks.
	Interval time.Duration
	// PartitionPause is the delay between consecutive partition fetches
	// within one tick.
	PartitionPause time.Duration
}

// DefaultConfig returns default monitor settings
func DefaultConfig() Config {
	return Config{
		Interval:       30 * time.Second,
		PartitionPause: 2 * time.Second,
	}
}

// Status is a point-in-time snapshot of the monitor for the ops endpoint.
type Status struct {
	Running           bool          `json:"running"`
	LastTickAt        time.Time     `json:"last_tick_at"`
	LastTickDuration  time.Duration `json:"last_tick_duration"`
	PartitionsChecked int           `json:"partitions_checked"`
	PartitionsFailed  int           `json:"partitions_failed"`
	AlertsSent        int64         `json:"alerts_sent"`
	TrackedPairs      int           `json:"tracked_pairs"`
}

// Monitor is the single background loop that keeps subscriber stock state
// current. All tracker mutation happens on the loop goroutine.
type Monitor struct {
	store    Store
	resolver Resolver
	fetcher  Fetcher
	notifier Notifier
	tracker  *alert.Tracker
	config   Config
	logger   *zap.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu     sync.Mutex
	status Status
}

// New creates a monitor over the given collaborators.
func New(store Store, resolver Resolver, fetcher Fetcher, notifier Notifier, config Config, logger *zap.Logger) *Monitor {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.PartitionPause < 0 {
		config.PartitionPause = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		store:    store,
		resolver: resolver,
		fetcher:  fetcher,
		notifier: notifier,
		tracker:  alert.NewTracker(),
		config:   config,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the background loop. The first tick runs immediately.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	m.status.Running = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(ctx)

	m.logger.Info("stock monitor started",
		zap.Duration("interval", m.config.Interval),
		zap.Duration("partition_pause", m.config.PartitionPause),
	)
	return nil
}

// Stop gracefully stops the loop. The partition currently being checked is
// finished, not aborted, so shutdown latency is bounded by one partition's
// fetch rather than a full tick.
func (m *Monitor) Stop(ctx context.Context) error {
	m.stopOnce.Do(func() { close(m.stopCh) })

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.mu.Lock()
		m.status.Running = false
		m.mu.Unlock()
		m.logger.Info("stock monitor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a copy of the current monitor status. Only mutex-guarded
// fields are read here; the tracker itself is touched by the loop goroutine
// alone.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// run waits the full interval after each tick completes instead of ticking on
// a fixed schedule, so tick duration never eats into the pause.
func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		m.runTick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-time.After(m.config.Interval):
		}
	}
}

// stopped reports whether a graceful stop was requested or the parent context
// ended.
func (m *Monitor) stopped(ctx context.Context) bool {
	select {
	case <-m.stopCh:
		return true
	default:
	}
	return ctx.Err() != nil
}

// partitionWork groups the users whose postal codes resolved to one
// partition.
type partitionWork struct {
	resolution *location.Resolution
	users      []User
}

func (m *Monitor) runTick(ctx context.Context) {
	started := time.Now()
	checked, failed := 0, 0

	users, err := m.store.ActiveUsersWithLocation(ctx)
	if err != nil {
		m.logger.Error("failed to load active users", zap.Error(err))
		m.finishTick(started, checked, failed)
		return
	}

	partitions := m.groupByPartition(ctx, users)

	// Deterministic partition order keeps pacing and logs stable across
	// ticks.
	ids := make([]string, 0, len(partitions))
	for id := range partitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for i, id := range ids {
		// Stop requests take effect between partitions; the check in
		// progress always completes.
		if m.stopped(ctx) {
			break
		}
		if i > 0 && m.config.PartitionPause > 0 {
			select {
			case <-ctx.Done():
				m.finishTick(started, checked, failed)
				return
			case <-m.stopCh:
				m.finishTick(started, checked, failed)
				return
			case <-time.After(m.config.PartitionPause):
			}
		}

		checked++
		if err := m.checkPartition(ctx, partitions[id]); err != nil {
			failed++
			m.logger.Error("partition check failed",
				zap.String("partition", partitions[id].resolution.PartitionName),
				zap.Error(err),
			)
		}
	}

	m.finishTick(started, checked, failed)
}

func (m *Monitor) finishTick(started time.Time, checked, failed int) {
	// Reading the tracker is safe here: finishTick runs on the loop
	// goroutine, the tracker's sole owner.
	tracked := m.tracker.Tracked()

	m.mu.Lock()
	m.status.LastTickAt = started
	m.status.LastTickDuration = time.Since(started)
	m.status.PartitionsChecked = checked
	m.status.PartitionsFailed = failed
	m.status.TrackedPairs = tracked
	m.mu.Unlock()
}

// groupByPartition resolves each user's postal code and buckets users by the
// resolved partition. Users whose codes cannot be resolved are skipped for
// this tick only.
func (m *Monitor) groupByPartition(ctx context.Context, users []User) map[string]*partitionWork {
	partitions := make(map[string]*partitionWork)
	for _, user := range users {
		res, err := m.resolver.Resolve(ctx, user.PostalCode)
		if err != nil {
			m.logger.Warn("skipping user with unresolvable location",
				zap.Int64("user_id", user.UserID),
				zap.String("postal_code", user.PostalCode),
				zap.Error(err),
			)
			continue
		}
		work, ok := partitions[res.PartitionID]
		if !ok {
			work = &partitionWork{resolution: res}
			partitions[res.PartitionID] = work
		}
		work.users = append(work.users, user)
	}
	return partitions
}

// checkPartition fetches one partition's catalog and diffs every subscription
// in it. On fetch failure nothing is observed, so the affected pairs keep
// their previous state and other partitions are unaffected.
func (m *Monitor) checkPartition(ctx context.Context, work *partitionWork) error {
	items, err := m.fetcher.FetchCatalog(ctx, work.resolution)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return shared.ErrCatalogUnavailable
	}

	if err := m.store.UpsertProducts(ctx, items); err != nil {
		// Persistence is best effort here; diffing proceeds off the live
		// snapshot regardless.
		m.logger.Error("failed to persist product snapshots",
			zap.String("partition", work.resolution.PartitionName),
			zap.Error(err),
		)
	}

	index := catalog.IndexBySKU(items)

	for _, user := range work.users {
		subs, err := m.store.ActiveSubscriptionsByUser(ctx, user.UserID)
		if err != nil {
			m.logger.Error("failed to load subscriptions",
				zap.Int64("user_id", user.UserID),
				zap.Error(err),
			)
			continue
		}

		for _, sub := range subs {
			snapshot, present := index[sub.ProductSKU]
			if !present {
				// Absent from the listing is indistinguishable from a page
				// change; leave the pair's state untouched.
				continue
			}

			event, notify := m.tracker.Observe(user.UserID, sub.ProductSKU, alert.StockState{
				InStock:  snapshot.InStock,
				Quantity: snapshot.Quantity,
			})
			if !notify {
				continue
			}

			m.deliver(ctx, user, event, snapshot)
		}
	}

	m.logger.Debug("partition checked",
		zap.String("partition", work.resolution.PartitionName),
		zap.Int("products", len(items)),
		zap.Int("users", len(work.users)),
	)
	return nil
}

func (m *Monitor) deliver(ctx context.Context, user User, event alert.Event, snapshot catalog.ProductSnapshot) {
	text := renderEvent(event, snapshot)

	err := m.notifier.SendMessage(ctx, user.UserID, text)
	switch {
	case errors.Is(err, shared.ErrRecipientUnreachable):
		m.logger.Info("deactivating unreachable user", zap.Int64("user_id", user.UserID))
		if derr := m.store.DeactivateUser(ctx, user.UserID); derr != nil {
			m.logger.Error("failed to deactivate user",
				zap.Int64("user_id", user.UserID),
				zap.Error(derr),
			)
		}
		return
	case err != nil:
		// State was already updated in the tracker, so the notification is
		// dropped rather than retried next tick.
		m.logger.Error("failed to send alert",
			zap.Int64("user_id", user.UserID),
			zap.String("sku", event.SKU),
			zap.Error(err),
		)
		return
	}

	if err := m.store.RecordAlert(ctx, user.UserID, event.SKU, event.Quantity); err != nil {
		m.logger.Error("failed to record alert",
			zap.Int64("user_id", user.UserID),
			zap.String("sku", event.SKU),
			zap.Error(err),
		)
	}

	m.mu.Lock()
	m.status.AlertsSent++
	m.mu.Unlock()

	m.logger.Info("alert sent",
		zap.Int64("user_id", user.UserID),
		zap.String("sku", event.SKU),
		zap.String("kind", string(event.Kind)),
		zap.Int("quantity", event.Quantity),
	)
}
