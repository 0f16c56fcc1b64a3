package usecase

import (
	"context"
	"time"

	"github.com/astraforge/engine/internal/domain"
	"go.uber.org/zap"
)

const forgerShardsPerTick = 5

// ForgerIncomeService periodically credits passive Stellar Shard income
// for every player's Astro-Forgers. Vitality gates the rate: flourishing
// forges run hot, decaying ones at half speed. All mutations go through
// the progression engine so they serialize with trade commits.
type ForgerIncomeService struct {
	engine   *ProgressionEngine
	players  domain.PlayerRepository
	interval time.Duration
	logger   *zap.Logger
}

func NewForgerIncomeService(engine *ProgressionEngine, players domain.PlayerRepository, interval time.Duration, logger *zap.Logger) *ForgerIncomeService {
	return &ForgerIncomeService{
		engine:   engine,
		players:  players,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, crediting income every interval.
func (s *ForgerIncomeService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Tick credits one round of passive income for every known player.
func (s *ForgerIncomeService) Tick(ctx context.Context) {
	ids, err := s.players.ListPlayerIDs(ctx)
	if err != nil {
		s.logger.Error("forger income: failed to list players", zap.Error(err))
		return
	}

	for _, id := range ids {
		state, err := s.engine.Snapshot(ctx, id)
		if err != nil {
			s.logger.Error("forger income: failed to load player", zap.String("player", id), zap.Error(err))
			continue
		}

		amount := TickIncome(state.AstroForgers, state.Vitality)
		if amount == 0 {
			continue
		}

		if _, err := s.engine.CreditForgerIncome(ctx, id, amount); err != nil {
			s.logger.Error("forger income: credit failed", zap.String("player", id), zap.Error(err))
		}
	}
}

// TickIncome computes one tick's shard income for a forger count under a
// vitality status.
func TickIncome(forgers uint64, vitality domain.Vitality) uint64 {
	base := forgers * forgerShardsPerTick
	switch vitality {
	case domain.VitalityFlourishing:
		return base * 2
	case domain.VitalityDecaying:
		return base / 2
	default:
		return base
	}
}
