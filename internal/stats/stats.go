package stats

import (
	"errors"
	"time"
)

// ErrNotFound indicates no statistics exist yet for a conversation. This is
// expected for conversations that have never been classified.
var ErrNotFound = errors.New("stats: conversation not found")

// ConversationStats is an immutable snapshot of one conversation's counters.
// Callers always receive a copy; the aggregator's own records are never
// shared by reference.
type ConversationStats struct {
	ConversationID string           `json:"conversation_id"`
	TotalCount     int64            `json:"total_count"`
	PerLabelCount  map[string]int64 `json:"per_label_count"`
	DailyTotal     int64            `json:"daily_total"`
	DailyPerLabel  map[string]int64 `json:"daily_per_label"`
	FirstSeen      time.Time        `json:"first_seen"`
	LastSeen       time.Time        `json:"last_seen"`
}

// SummaryRow is one conversation's line in the cross-conversation summary.
type SummaryRow struct {
	ConversationID string  `json:"conversation_id"`
	TotalCount     int64   `json:"total_count"`
	WorkPercent    float64 `json:"work_percent"`
}

// Summary is a read-only fold over all per-conversation records, computed on
// demand rather than maintained incrementally.
type Summary struct {
	Conversations int              `json:"conversations"`
	TotalCount    int64            `json:"total_count"`
	PerLabelCount map[string]int64 `json:"per_label_count"`
	WorkPercent   float64          `json:"work_percent"`
	Rows          []SummaryRow     `json:"rows"`
}
