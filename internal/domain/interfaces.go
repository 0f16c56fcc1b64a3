package domain

import "context"

// PlayerRepository defines storage operations for player progression state.
type PlayerRepository interface {
	GetOrCreate(ctx context.Context, playerID string) (*PlayerState, error)
	Save(ctx context.Context, state *PlayerState) error
	ListPlayerIDs(ctx context.Context) ([]string, error)
}

// TradeLogRepository defines storage operations for committed trade events.
type TradeLogRepository interface {
	SaveTrade(ctx context.Context, entry *TradeLogEntry) error
	ListTrades(ctx context.Context, playerID string, limit int) ([]*TradeLogEntry, error)
}

// EnrichmentResult is one document returned by the enrichment source.
type EnrichmentResult struct {
	Content string `json:"content"`
}

// EnrichmentSource is the external content-retrieval service consumed by
// the simulated-trade resolver for narrative/outcome signal.
type EnrichmentSource interface {
	HealthCheck(ctx context.Context) bool
	Query(ctx context.Context, text string, limit int) ([]EnrichmentResult, error)
}

// Venue is the real trading venue port.
type Venue interface {
	PlaceOrder(ctx context.Context, payload *SignedOrderPayload) (*VenueOrderResult, error)
	GetBalance(ctx context.Context) ([]VenueBalance, error)
	GetPositions(ctx context.Context) ([]VenuePosition, error)
}

// RankingEntry is the stats snapshot pushed to the ranking store after
// every committed transition.
type RankingEntry struct {
	PlayerID      string  `json:"player_id"`
	StellarShards uint64  `json:"stellar_shards"`
	Lumina        uint64  `json:"lumina"`
	TotalXP       uint64  `json:"total_xp"`
	WinStreak     uint32  `json:"win_streak"`
	TotalTrades   uint64  `json:"total_trades"`
	WinRate       float64 `json:"win_rate"`
}

// RankingStore receives stats snapshots, fire-and-forget, and serves the
// leaderboard query. Not part of the state commit.
type RankingStore interface {
	Publish(ctx context.Context, entry RankingEntry) error
	Top(ctx context.Context, n int) ([]RankingEntry, error)
}

// NotificationSink receives side-channel progression notifications.
type NotificationSink interface {
	Notify(n Notification)
}
