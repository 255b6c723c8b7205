package stats

import "context"

// Store is an optional durable sink for conversation snapshots. The
// aggregator stays authoritative in memory; stores only hydrate at boot and
// receive write-behind saves after each update.
type Store interface {
	Save(ctx context.Context, snap ConversationStats) error
	Delete(ctx context.Context, conversationID string) error
	LoadAll(ctx context.Context) ([]ConversationStats, error)
}
