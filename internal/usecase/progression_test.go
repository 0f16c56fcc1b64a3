package usecase

import (
	"context"
	"testing"

	"github.com/astraforge/engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(repo *memPlayerRepo, sink domain.NotificationSink) *ProgressionEngine {
	return NewProgressionEngine(repo, nil, sink, zap.NewNop())
}

func profitEvent(pct float64) domain.TradeOutcomeEvent {
	return domain.TradeOutcomeEvent{
		Outcome:      domain.OutcomeProfit,
		ProfitPct:    pct,
		ShardsReward: uint64(pct * 10),
		LuminaReward: uint64(pct/5) + 1,
	}
}

func lossEvent() domain.TradeOutcomeEvent {
	return domain.TradeOutcomeEvent{
		Outcome:      domain.OutcomeLoss,
		ProfitPct:    -4,
		ShardsReward: 5,
	}
}

func breakevenEvent() domain.TradeOutcomeEvent {
	return domain.TradeOutcomeEvent{
		Outcome:      domain.OutcomeBreakeven,
		ProfitPct:    0.2,
		ShardsReward: 10,
		LuminaReward: 1,
	}
}

func TestApplyFirstProfitableTrade(t *testing.T) {
	repo := newMemPlayerRepo()
	sink := &recordSink{}
	engine := newTestEngine(repo, sink)

	state, err := engine.Apply(context.Background(), "nova", profitEvent(10))
	require.NoError(t, err)

	// Base 15 XP plus the rounded profit percentage, no streak yet.
	assert.Equal(t, uint64(25), state.TotalXP)
	assert.Equal(t, uint32(1), state.Level())
	assert.Equal(t, uint64(100), state.StellarShards)

	// First profit unlocks Lumina: event reward plus the one-time bonus.
	assert.True(t, state.LuminaUnlocked)
	assert.Equal(t, uint64(3+50), state.Lumina)
	assert.Equal(t, domain.VitalityFlourishing, state.Vitality)

	assert.Equal(t, uint64(1), state.TotalTrades)
	assert.Equal(t, uint32(1), state.WinStreak)
	assert.Equal(t, 1.0, state.WinRate)

	assert.Equal(t, []domain.NotificationKind{domain.NotifyLuminaUnlock}, sink.kinds())

	// The transition is durable, not just in the returned value.
	stored := repo.stored("nova")
	require.NotNil(t, stored)
	assert.Equal(t, uint64(25), stored.TotalXP)
}

func TestApplyLuminaLockedBeforeFirstProfit(t *testing.T) {
	repo := newMemPlayerRepo()
	engine := newTestEngine(repo, nil)

	// Breakeven events carry a Lumina reward, but the vault is still locked.
	state, err := engine.Apply(context.Background(), "nova", breakevenEvent())
	require.NoError(t, err)
	assert.False(t, state.LuminaUnlocked)
	assert.Zero(t, state.Lumina)
	assert.Equal(t, uint64(10), state.StellarShards)
	assert.Zero(t, state.TotalXP, "breakeven grants no XP")
}

func TestApplyUnlockFiresExactlyOnce(t *testing.T) {
	repo := newMemPlayerRepo()
	sink := &recordSink{}
	engine := newTestEngine(repo, sink)

	first, err := engine.Apply(context.Background(), "nova", profitEvent(10))
	require.NoError(t, err)
	second, err := engine.Apply(context.Background(), "nova", profitEvent(10))
	require.NoError(t, err)

	// Second profit adds only the event reward, never the bonus again.
	assert.Equal(t, first.Lumina+3, second.Lumina)

	var unlocks int
	for _, k := range sink.kinds() {
		if k == domain.NotifyLuminaUnlock {
			unlocks++
		}
	}
	assert.Equal(t, 1, unlocks)
}

func TestApplyXPAndCountersAreMonotonic(t *testing.T) {
	repo := newMemPlayerRepo()
	engine := newTestEngine(repo, nil)

	events := []domain.TradeOutcomeEvent{
		profitEvent(8), lossEvent(), breakevenEvent(), profitEvent(15),
		profitEvent(5), lossEvent(), lossEvent(), profitEvent(12),
	}

	var prev *domain.PlayerState
	for i, event := range events {
		state, err := engine.Apply(context.Background(), "nova", event)
		require.NoError(t, err, "event %d", i)

		if prev != nil {
			assert.GreaterOrEqual(t, state.TotalXP, prev.TotalXP, "TotalXP regressed at event %d", i)
			assert.GreaterOrEqual(t, state.Level(), prev.Level(), "level regressed at event %d", i)
			assert.GreaterOrEqual(t, int(state.CurrentTier()), int(prev.CurrentTier()), "tier regressed at event %d", i)
			assert.Equal(t, prev.TotalTrades+1, state.TotalTrades)
		}
		assert.GreaterOrEqual(t, state.WinRate, 0.0)
		assert.LessOrEqual(t, state.WinRate, 1.0)
		prev = state
	}

	// 4 profits out of 8 trades.
	assert.InDelta(t, 0.5, prev.WinRate, 1e-9)
}

func TestApplyStreakRules(t *testing.T) {
	repo := newMemPlayerRepo()
	engine := newTestEngine(repo, nil)
	ctx := context.Background()

	s, _ := engine.Apply(ctx, "nova", profitEvent(6))
	assert.Equal(t, uint32(1), s.WinStreak)
	s, _ = engine.Apply(ctx, "nova", profitEvent(6))
	assert.Equal(t, uint32(2), s.WinStreak)

	// Breakeven leaves the streak untouched.
	s, _ = engine.Apply(ctx, "nova", breakevenEvent())
	assert.Equal(t, uint32(2), s.WinStreak)

	// Loss resets it.
	s, _ = engine.Apply(ctx, "nova", lossEvent())
	assert.Zero(t, s.WinStreak)
}

func TestApplyStreakScalesXP(t *testing.T) {
	repo := newMemPlayerRepo()
	engine := newTestEngine(repo, nil)
	ctx := context.Background()

	// Streak bonus uses the streak entering the trade: 0, then 1, then 2.
	var gains []uint64
	var prevXP uint64
	for i := 0; i < 3; i++ {
		s, err := engine.Apply(ctx, "nova", profitEvent(10))
		require.NoError(t, err)
		gains = append(gains, s.TotalXP-prevXP)
		prevXP = s.TotalXP
	}
	assert.Equal(t, []uint64{25, 27, 29}, gains)
}

func TestXPForEvent(t *testing.T) {
	tests := []struct {
		name   string
		event  domain.TradeOutcomeEvent
		streak uint32
		want   uint64
	}{
		{"loss", lossEvent(), 5, 0},
		{"breakeven", breakevenEvent(), 5, 0},
		{"plain profit", profitEvent(10), 0, 25},
		{"streak bonus", profitEvent(10), 3, 31},
		{"critical", domain.TradeOutcomeEvent{Outcome: domain.OutcomeProfit, ProfitPct: 10, IsCriticalForge: true}, 0, 35},
		{"real", domain.TradeOutcomeEvent{Outcome: domain.OutcomeProfit, ProfitPct: 10, IsRealTrade: true}, 0, 50},
		{"real critical streak", domain.TradeOutcomeEvent{Outcome: domain.OutcomeProfit, ProfitPct: 4.4, IsRealTrade: true, IsCriticalForge: true}, 2, 58},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, xpForEvent(tc.event, tc.streak))
		})
	}
}

func TestApplyEmitsLevelAndTierNotifications(t *testing.T) {
	repo := newMemPlayerRepo()
	sink := &recordSink{}
	engine := newTestEngine(repo, sink)

	// Pre-unlocked player just below the Nebula threshold and a level edge.
	seeded := domain.NewPlayerState("vega")
	seeded.TotalXP = 490
	seeded.LuminaUnlocked = true
	repo.seed(seeded)

	state, err := engine.Apply(context.Background(), "vega", profitEvent(10))
	require.NoError(t, err)

	// 490 + 25 XP crosses both level 5->6 and Stardust->Nebula.
	assert.Equal(t, uint64(515), state.TotalXP)
	assert.Equal(t, uint32(6), state.Level())
	assert.Equal(t, domain.TierNebula, state.CurrentTier())
	assert.Equal(t, []domain.NotificationKind{domain.NotifyLevelUp, domain.NotifyTierUp}, sink.kinds())
}

func TestVitalityProtectsNewPlayers(t *testing.T) {
	repo := newMemPlayerRepo()
	engine := newTestEngine(repo, nil)
	ctx := context.Background()

	// Four straight losses: still inside the protection window.
	var s *domain.PlayerState
	for i := 0; i < 4; i++ {
		var err error
		s, err = engine.Apply(ctx, "rookie", lossEvent())
		require.NoError(t, err)
		assert.Equal(t, domain.VitalityStable, s.Vitality, "trade %d", i+1)
	}

	// Fifth loss crosses the threshold; the streak rules now apply.
	s, err := engine.Apply(ctx, "rookie", lossEvent())
	require.NoError(t, err)
	assert.Equal(t, domain.VitalityDecaying, s.Vitality)
}

func TestVitalityStreakThresholds(t *testing.T) {
	repo := newMemPlayerRepo()
	engine := newTestEngine(repo, nil)
	ctx := context.Background()

	// Past the protection window, already unlocked.
	seeded := domain.NewPlayerState("vet")
	seeded.TotalTrades = 10
	seeded.LuminaUnlocked = true
	seeded.Vitality = domain.VitalityDecaying
	repo.seed(seeded)

	s, err := engine.Apply(ctx, "vet", profitEvent(6))
	require.NoError(t, err)
	assert.Equal(t, domain.VitalityStable, s.Vitality)

	s, _ = engine.Apply(ctx, "vet", profitEvent(6))
	assert.Equal(t, domain.VitalityStable, s.Vitality)

	s, _ = engine.Apply(ctx, "vet", profitEvent(6))
	assert.Equal(t, domain.VitalityFlourishing, s.Vitality)

	s, _ = engine.Apply(ctx, "vet", lossEvent())
	assert.Equal(t, domain.VitalityDecaying, s.Vitality)

	// A non-loss with no streak is merely stable.
	s, _ = engine.Apply(ctx, "vet", breakevenEvent())
	assert.Equal(t, domain.VitalityStable, s.Vitality)
}

func TestUpgradeNode(t *testing.T) {
	repo := newMemPlayerRepo()
	engine := newTestEngine(repo, nil)
	ctx := context.Background()

	seeded := domain.NewPlayerState("nova")
	seeded.Lumina = 10
	seeded.LuminaUnlocked = true
	repo.seed(seeded)

	state, err := engine.UpgradeNode(ctx, "nova", "nexus")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), state.NodeLevels["nexus"])
	assert.Zero(t, state.Lumina)

	// Level 1 -> 2 costs 25; the player has nothing left.
	_, err = engine.UpgradeNode(ctx, "nova", "nexus")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// Failed upgrades must not touch durable state.
	stored := repo.stored("nova")
	assert.Equal(t, uint32(1), stored.NodeLevels["nexus"])
	assert.Zero(t, stored.Lumina)
}

func TestBuyForger(t *testing.T) {
	repo := newMemPlayerRepo()
	engine := newTestEngine(repo, nil)
	ctx := context.Background()

	seeded := domain.NewPlayerState("nova")
	seeded.Lumina = 120
	repo.seed(seeded)

	state, err := engine.BuyForger(ctx, "nova")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), state.AstroForgers)
	assert.Equal(t, uint64(20), state.Lumina)

	// The second forger costs 150.
	_, err = engine.BuyForger(ctx, "nova")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	stored := repo.stored("nova")
	assert.Equal(t, uint64(1), stored.AstroForgers)
	assert.Equal(t, uint64(20), stored.Lumina)
}

func TestCreditForgerIncome(t *testing.T) {
	repo := newMemPlayerRepo()
	engine := newTestEngine(repo, nil)
	ctx := context.Background()

	state, err := engine.CreditForgerIncome(ctx, "nova", 37)
	require.NoError(t, err)
	assert.Equal(t, uint64(37), state.StellarShards)

	// Zero income is a no-op.
	state, err = engine.CreditForgerIncome(ctx, "nova", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(37), state.StellarShards)
}

func TestPushRanking(t *testing.T) {
	repo := newMemPlayerRepo()
	ranking := &stubRanking{}
	engine := NewProgressionEngine(repo, ranking, nil, zap.NewNop())

	state := domain.NewPlayerState("nova")
	state.TotalXP = 300
	state.StellarShards = 42
	engine.PushRanking(context.Background(), state)

	require.Len(t, ranking.entries, 1)
	assert.Equal(t, "nova", ranking.entries[0].PlayerID)
	assert.Equal(t, uint64(300), ranking.entries[0].TotalXP)
	assert.Equal(t, uint64(42), ranking.entries[0].StellarShards)
}
