package stats

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/vkovalov/workbot/internal/model"
	"github.com/vkovalov/workbot/pkg/logging"
)

// record holds one conversation's live counters. Only ever touched while the
// aggregator lock is held.
type record struct {
	total         int64
	perLabel      map[string]int64
	dailyTotal    int64
	dailyPerLabel map[string]int64
	firstSeen     time.Time
	lastSeen      time.Time
}

// Aggregator maintains per-conversation classification counters. It is the
// only shared-mutable component of the engine: every read-modify-write on a
// conversation's counters happens under the lock, so total always equals the
// sum of the per-label counts, and no decrement operation exists.
//
// An optional Store persists snapshots write-behind; persistence failures are
// logged and never surfaced to the recording caller.
type Aggregator struct {
	mu            sync.Mutex
	conversations map[string]*record

	store  Store
	logger *logging.Logger
	now    func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithStore attaches a persistence sink hydrated at boot and written behind
// every update.
func WithStore(store Store) Option {
	return func(a *Aggregator) {
		a.store = store
	}
}

// NewAggregator creates an empty in-memory aggregator.
func NewAggregator(logger *logging.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = logging.Default()
	}
	a := &Aggregator{
		conversations: make(map[string]*record),
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Hydrate loads previously persisted snapshots into memory. It only applies
// to an empty aggregator and is meant to run once at process start.
func (a *Aggregator) Hydrate(ctx context.Context) error {
	if a.store == nil {
		return nil
	}

	snapshots, err := a.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.conversations) > 0 {
		return errors.New("stats: hydrate called on a non-empty aggregator")
	}

	for _, snap := range snapshots {
		a.conversations[snap.ConversationID] = recordFromSnapshot(snap)
	}

	a.logger.Info("hydrated conversation stats", "conversations", len(snapshots))
	return nil
}

// Record increments the lifetime and daily counters for a conversation,
// creating the record on first sight. The in-memory update is atomic; the
// write-behind persist is best-effort.
func (a *Aggregator) Record(ctx context.Context, conversationID, label string) error {
	if conversationID == "" {
		return errors.New("stats: conversation id required")
	}
	if label == "" {
		return errors.New("stats: label required")
	}

	a.mu.Lock()
	rec, ok := a.conversations[conversationID]
	if !ok {
		now := a.now()
		rec = &record{
			perLabel:      make(map[string]int64),
			dailyPerLabel: make(map[string]int64),
			firstSeen:     now,
		}
		a.conversations[conversationID] = rec
	}
	rec.total++
	rec.perLabel[label]++
	rec.dailyTotal++
	rec.dailyPerLabel[label]++
	rec.lastSeen = a.now()
	snap := snapshotLocked(conversationID, rec)
	a.mu.Unlock()

	a.persist(ctx, snap)
	return nil
}

// Snapshot returns a copy of a conversation's counters, or ErrNotFound if
// the conversation has never been recorded.
func (a *Aggregator) Snapshot(conversationID string) (ConversationStats, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.conversations[conversationID]
	if !ok {
		return ConversationStats{}, ErrNotFound
	}
	return snapshotLocked(conversationID, rec), nil
}

// Reset clears one conversation's counters without touching any other.
func (a *Aggregator) Reset(ctx context.Context, conversationID string) {
	a.mu.Lock()
	_, existed := a.conversations[conversationID]
	delete(a.conversations, conversationID)
	a.mu.Unlock()

	if !existed || a.store == nil {
		return
	}
	if err := a.store.Delete(ctx, conversationID); err != nil {
		a.logger.Warn("failed to delete persisted stats", "conversation_id", conversationID, "error", err)
	}
}

// ResetDaily clears every conversation's daily window. Lifetime counters are
// untouched.
func (a *Aggregator) ResetDaily(ctx context.Context) {
	a.mu.Lock()
	snapshots := make([]ConversationStats, 0, len(a.conversations))
	for id, rec := range a.conversations {
		rec.dailyTotal = 0
		rec.dailyPerLabel = make(map[string]int64)
		snapshots = append(snapshots, snapshotLocked(id, rec))
	}
	a.mu.Unlock()

	for _, snap := range snapshots {
		a.persist(ctx, snap)
	}
	a.logger.Info("daily stats reset", "conversations", len(snapshots))
}

// Summary folds over all conversations: grand totals per label, the share of
// work messages, and per-conversation rows sorted by volume.
func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	summary := Summary{
		Conversations: len(a.conversations),
		PerLabelCount: make(map[string]int64),
		Rows:          make([]SummaryRow, 0, len(a.conversations)),
	}

	for id, rec := range a.conversations {
		summary.TotalCount += rec.total
		for label, n := range rec.perLabel {
			summary.PerLabelCount[label] += n
		}
		summary.Rows = append(summary.Rows, SummaryRow{
			ConversationID: id,
			TotalCount:     rec.total,
			WorkPercent:    workPercent(rec.perLabel[model.LabelWork], rec.total),
		})
	}

	summary.WorkPercent = workPercent(summary.PerLabelCount[model.LabelWork], summary.TotalCount)

	sort.Slice(summary.Rows, func(i, j int) bool {
		if summary.Rows[i].TotalCount != summary.Rows[j].TotalCount {
			return summary.Rows[i].TotalCount > summary.Rows[j].TotalCount
		}
		return summary.Rows[i].ConversationID < summary.Rows[j].ConversationID
	})

	return summary
}

func (a *Aggregator) persist(ctx context.Context, snap ConversationStats) {
	if a.store == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	// The persist must survive a caller whose request context ends right
	// after the in-memory update.
	if err := a.store.Save(context.WithoutCancel(ctx), snap); err != nil {
		a.logger.Warn("failed to persist stats", "conversation_id", snap.ConversationID, "error", err)
	}
}

func snapshotLocked(conversationID string, rec *record) ConversationStats {
	return ConversationStats{
		ConversationID: conversationID,
		TotalCount:     rec.total,
		PerLabelCount:  copyCounts(rec.perLabel),
		DailyTotal:     rec.dailyTotal,
		DailyPerLabel:  copyCounts(rec.dailyPerLabel),
		FirstSeen:      rec.firstSeen,
		LastSeen:       rec.lastSeen,
	}
}

func recordFromSnapshot(snap ConversationStats) *record {
	return &record{
		total:         snap.TotalCount,
		perLabel:      copyCounts(snap.PerLabelCount),
		dailyTotal:    snap.DailyTotal,
		dailyPerLabel: copyCounts(snap.DailyPerLabel),
		firstSeen:     snap.FirstSeen,
		lastSeen:      snap.LastSeen,
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func workPercent(work, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(work) / float64(total) * 100
}
