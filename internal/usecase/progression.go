package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/astraforge/engine/internal/domain"
	"go.uber.org/zap"
)

const (
	xpBaseProfit    = 15
	xpCriticalBonus = 10
	xpRealBonus     = 25

	firstProfitLuminaBonus = 50

	// A player's vitality only follows the streak thresholds after this
	// many trades; earlier it never downgrades (new-player protection).
	vitalityMinTrades      = 5
	vitalityFlourishStreak = 3
)

// ProgressionEngine is the single owner of PlayerState mutations. Every
// committed trade event, node upgrade, forger purchase and passive income
// tick goes through the engine mutex: one transition completes and
// persists before the next is accepted.
type ProgressionEngine struct {
	players  domain.PlayerRepository
	ranking  domain.RankingStore
	notifier domain.NotificationSink
	logger   *zap.Logger

	mu sync.Mutex
}

func NewProgressionEngine(
	players domain.PlayerRepository,
	ranking domain.RankingStore,
	notifier domain.NotificationSink,
	logger *zap.Logger,
) *ProgressionEngine {
	return &ProgressionEngine{
		players:  players,
		ranking:  ranking,
		notifier: notifier,
		logger:   logger,
	}
}

// Apply commits one trade outcome event against the player's state and
// returns the updated state. This is the only way trade results reach
// durable state.
func (p *ProgressionEngine) Apply(ctx context.Context, playerID string, event domain.TradeOutcomeEvent) (*domain.PlayerState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, err := p.players.GetOrCreate(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", playerID, err)
	}

	prevLevel := state.Level()
	prevTier := state.CurrentTier()

	// 1. XP is profit-only, scaled by streak and profit percentage.
	xpGained := xpForEvent(event, state.WinStreak)

	// 2. Currency grants.
	state.StellarShards += event.ShardsReward
	if state.LuminaUnlocked {
		state.Lumina += event.LuminaReward
	}

	// 3. Cumulative XP. Level and tier stay derived, never stored.
	state.TotalXP += xpGained
	state.Experience += xpGained

	// 4. Streak.
	switch event.Outcome {
	case domain.OutcomeProfit:
		state.WinStreak++
	case domain.OutcomeLoss:
		state.WinStreak = 0
	}

	// 5. Running win rate.
	wins := state.WinRate * float64(state.TotalTrades)
	if event.Outcome == domain.OutcomeProfit {
		wins++
	}
	state.TotalTrades++
	state.WinRate = wins / float64(state.TotalTrades)

	// 6. Vitality.
	state.Vitality = nextVitality(state, event.Outcome)

	// 7. One-time Lumina unlock. Checked, never re-triggered.
	unlocked := false
	if !state.LuminaUnlocked && event.Outcome == domain.OutcomeProfit {
		state.LuminaUnlocked = true
		state.Lumina += event.LuminaReward + firstProfitLuminaBonus
		state.Vitality = domain.VitalityFlourishing
		unlocked = true
	}

	state.UpdatedAt = time.Now()
	if err := p.players.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save player %s: %w", playerID, err)
	}

	// 8. Side-channel notifications for strict increases.
	p.emitNotifications(state, prevLevel, prevTier, unlocked)

	p.logger.Debug("progression committed",
		zap.String("player", playerID),
		zap.String("outcome", string(event.Outcome)),
		zap.Uint64("xp_gained", xpGained),
		zap.Uint32("level", state.Level()),
		zap.Uint32("win_streak", state.WinStreak))

	return state, nil
}

// UpgradeNode spends Lumina to raise one progression node by a level.
func (p *ProgressionEngine) UpgradeNode(ctx context.Context, playerID, nodeID string) (*domain.PlayerState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, err := p.players.GetOrCreate(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", playerID, err)
	}

	level := state.NodeLevels[nodeID]
	cost := domain.NodeUpgradeCost(level)
	if state.Lumina < cost {
		return nil, fmt.Errorf("%w: node %s level %d costs %d, have %d",
			domain.ErrInsufficientFunds, nodeID, level, cost, state.Lumina)
	}

	state.Lumina -= cost
	state.NodeLevels[nodeID] = level + 1
	state.UpdatedAt = time.Now()

	if err := p.players.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save player %s: %w", playerID, err)
	}
	return state, nil
}

// BuyForger spends Lumina on one more Astro-Forger automation unit.
func (p *ProgressionEngine) BuyForger(ctx context.Context, playerID string) (*domain.PlayerState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, err := p.players.GetOrCreate(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", playerID, err)
	}

	cost := domain.ForgerCost(state.AstroForgers)
	if state.Lumina < cost {
		return nil, fmt.Errorf("%w: forger %d costs %d, have %d",
			domain.ErrInsufficientFunds, state.AstroForgers+1, cost, state.Lumina)
	}

	state.Lumina -= cost
	state.AstroForgers++
	state.UpdatedAt = time.Now()

	if err := p.players.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save player %s: %w", playerID, err)
	}
	return state, nil
}

// CreditForgerIncome applies one passive-income tick: a currency-only
// mutation that serializes against trade commits.
func (p *ProgressionEngine) CreditForgerIncome(ctx context.Context, playerID string, amount uint64) (*domain.PlayerState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, err := p.players.GetOrCreate(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", playerID, err)
	}
	if amount == 0 {
		return state, nil
	}

	state.StellarShards += amount
	state.UpdatedAt = time.Now()

	if err := p.players.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save player %s: %w", playerID, err)
	}
	return state, nil
}

// Snapshot returns the current state without mutating it.
func (p *ProgressionEngine) Snapshot(ctx context.Context, playerID string) (*domain.PlayerState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.players.GetOrCreate(ctx, playerID)
}

// PushRanking publishes the player's stats to the ranking store. Callers
// run it off the commit path; failures are logged, never returned.
func (p *ProgressionEngine) PushRanking(ctx context.Context, state *domain.PlayerState) {
	if p.ranking == nil {
		return
	}
	entry := domain.RankingEntry{
		PlayerID:      state.PlayerID,
		StellarShards: state.StellarShards,
		Lumina:        state.Lumina,
		TotalXP:       state.TotalXP,
		WinStreak:     state.WinStreak,
		TotalTrades:   state.TotalTrades,
		WinRate:       state.WinRate,
	}
	if err := p.ranking.Publish(ctx, entry); err != nil {
		p.logger.Warn("ranking push failed", zap.String("player", state.PlayerID), zap.Error(err))
	}
}

func (p *ProgressionEngine) emitNotifications(state *domain.PlayerState, prevLevel uint32, prevTier domain.Tier, unlocked bool) {
	if p.notifier == nil {
		return
	}
	if level := state.Level(); level > prevLevel {
		p.notifier.Notify(domain.Notification{
			Kind:     domain.NotifyLevelUp,
			PlayerID: state.PlayerID,
			Message:  fmt.Sprintf("Level up! You reached level %d.", level),
		})
	}
	if tier := state.CurrentTier(); tier > prevTier {
		p.notifier.Notify(domain.Notification{
			Kind:     domain.NotifyTierUp,
			PlayerID: state.PlayerID,
			Message:  fmt.Sprintf("Tier ascended: %s.", tier),
		})
	}
	if unlocked {
		p.notifier.Notify(domain.Notification{
			Kind:     domain.NotifyLuminaUnlock,
			PlayerID: state.PlayerID,
			Message:  "First profitable trade! Lumina flows into your forge.",
		})
	}
}

// xpForEvent computes the XP grant for one event. Zero unless the trade
// was profitable; strictly increasing in both win streak and profit pct.
func xpForEvent(event domain.TradeOutcomeEvent, winStreak uint32) uint64 {
	if event.Outcome != domain.OutcomeProfit {
		return 0
	}
	xp := uint64(xpBaseProfit)
	if event.IsCriticalForge {
		xp += xpCriticalBonus
	}
	if event.IsRealTrade {
		xp += xpRealBonus
	}
	xp += 2 * uint64(winStreak)
	if event.ProfitPct > 0 {
		xp += uint64(math.Round(event.ProfitPct))
	}
	return xp
}

// nextVitality derives the new vitality status. With enough trade history
// it follows the streak thresholds; before that it only ever upgrades, so
// a run of early bad luck cannot mark a new player as decaying.
func nextVitality(state *domain.PlayerState, outcome domain.Outcome) domain.Vitality {
	if state.TotalTrades >= vitalityMinTrades {
		switch {
		case state.WinStreak >= vitalityFlourishStreak:
			return domain.VitalityFlourishing
		case state.WinStreak >= 1 || outcome != domain.OutcomeLoss:
			return domain.VitalityStable
		default:
			return domain.VitalityDecaying
		}
	}

	if outcome == domain.OutcomeProfit && state.WinStreak >= vitalityFlourishStreak {
		return domain.VitalityFlourishing
	}
	if outcome != domain.OutcomeLoss && state.Vitality == domain.VitalityDecaying {
		return domain.VitalityStable
	}
	return state.Vitality
}
