package domain

import "time"

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// TradeRequest is the caller's input to a trade attempt.
type TradeRequest struct {
	PlayerID  string    `json:"player_id"`
	Asset     string    `json:"asset"`
	Direction Direction `json:"direction"`
	Notional  float64   `json:"notional"`
	IsReal    bool      `json:"is_real"`
}

type Outcome string

const (
	OutcomeProfit    Outcome = "PROFIT"
	OutcomeLoss      Outcome = "LOSS"
	OutcomeBreakeven Outcome = "BREAKEVEN"
)

// TradeOutcomeEvent is the uniform result shape produced by both the
// simulated resolver and the real-trade executor, and the only input
// the ProgressionEngine accepts.
type TradeOutcomeEvent struct {
	Outcome         Outcome `json:"outcome"`
	ProfitPct       float64 `json:"profit_pct"`
	ShardsReward    uint64  `json:"shards_reward"`
	LuminaReward    uint64  `json:"lumina_reward"`
	IsCriticalForge bool    `json:"is_critical_forge"`
	IsRealTrade     bool    `json:"is_real_trade"`
	Narration       string  `json:"narration"`
}

// TradeLogEntry is a committed event persisted for history queries.
type TradeLogEntry struct {
	ID        string            `json:"id"`
	PlayerID  string            `json:"player_id"`
	Asset     string            `json:"asset"`
	Direction Direction         `json:"direction"`
	Event     TradeOutcomeEvent `json:"event"`
	CreatedAt time.Time         `json:"created_at"`
}

// NotificationKind tags side-channel progression notifications.
type NotificationKind string

const (
	NotifyLevelUp      NotificationKind = "LEVEL_UP"
	NotifyTierUp       NotificationKind = "TIER_UP"
	NotifyLuminaUnlock NotificationKind = "LUMINA_UNLOCK"
	NotifyTrade        NotificationKind = "TRADE"
)

// Notification is emitted when a derived value strictly increased or a
// one-time unlock fired during a state transition.
type Notification struct {
	Kind     NotificationKind `json:"kind"`
	PlayerID string           `json:"player_id"`
	Message  string           `json:"message"`
}
