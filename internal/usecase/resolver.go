package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/astraforge/engine/internal/domain"
	"go.uber.org/zap"
)

const (
	// Fallback model: profitChance 0.55 split 70/30 between profit and
	// breakeven, remainder loss.
	fallbackProfitChance    = 0.55
	fallbackProfitSplit     = 0.70
	criticalForgeChance     = 0.15
	criticalShardMultiplier = 2.5
	criticalLuminaMult      = 2.0

	baseShardReward      = 20
	lossConsolationShard = 5

	enrichmentQueryLimit = 3
	enrichmentTimeout    = 3 * time.Second
)

var profitKeywords = []string{"profit", "gain", "bullish", "surge", "rally", "breakout", "up"}

var lossKeywords = []string{"loss", "bearish", "crash", "dump", "decline", "drop", "down"}

var percentPattern = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*%`)

// TradeOutcomeResolver produces simulated trade outcomes. It prefers the
// enrichment source for narrative/outcome signal; on the first enrichment
// failure it permanently downgrades to the pure random model for the rest
// of the process (the failure is sticky, never retried per call).
type TradeOutcomeResolver struct {
	enrichment domain.EnrichmentSource
	logger     *zap.Logger

	fallbackOnly atomic.Bool

	mu  sync.Mutex
	rng *rand.Rand
}

func NewTradeOutcomeResolver(enrichment domain.EnrichmentSource, logger *zap.Logger) *TradeOutcomeResolver {
	return &TradeOutcomeResolver{
		enrichment: enrichment,
		logger:     logger,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Seed replaces the random source. Deterministic tests only.
func (r *TradeOutcomeResolver) Seed(seed int64) {
	r.mu.Lock()
	r.rng = rand.New(rand.NewSource(seed))
	r.mu.Unlock()
}

// FallbackOnly reports whether the resolver has been stickily downgraded.
func (r *TradeOutcomeResolver) FallbackOnly() bool {
	return r.fallbackOnly.Load()
}

// Resolve produces an outcome event for a simulated trade. It never fails
// outward: enrichment trouble falls back to the random model.
func (r *TradeOutcomeResolver) Resolve(ctx context.Context, req domain.TradeRequest) domain.TradeOutcomeEvent {
	if r.enrichment != nil && !r.fallbackOnly.Load() {
		event, err := r.resolveEnriched(ctx, req)
		if err == nil {
			return event
		}
		r.fallbackOnly.Store(true)
		r.logger.Warn("enrichment source failed, downgrading to fallback model for this session",
			zap.Error(err))
	}
	return r.resolveFallback(req)
}

func (r *TradeOutcomeResolver) resolveEnriched(ctx context.Context, req domain.TradeRequest) (domain.TradeOutcomeEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, enrichmentTimeout)
	defer cancel()

	if !r.enrichment.HealthCheck(ctx) {
		return domain.TradeOutcomeEvent{}, domain.ErrEnrichmentUnavailable
	}

	query := fmt.Sprintf("%s %s trade outlook", req.Asset, strings.ToLower(string(req.Direction)))
	results, err := r.enrichment.Query(ctx, query, enrichmentQueryLimit)
	if err != nil {
		return domain.TradeOutcomeEvent{}, fmt.Errorf("%w: %v", domain.ErrEnrichmentUnavailable, err)
	}
	if len(results) == 0 {
		return domain.TradeOutcomeEvent{}, domain.ErrEnrichmentUnavailable
	}

	content := results[0].Content
	outcome := classifyContent(content)
	pct, found := extractPercent(content)
	if !found {
		pct = r.synthesizePct(outcome)
	}
	if outcome == domain.OutcomeLoss && pct > 0 {
		pct = -pct
	}
	// Text like "bullish despite the recent -3% dip" classifies as profit
	// while carrying a negative literal; a negative pct must never reach
	// the profit reward math.
	if outcome == domain.OutcomeProfit && pct <= 0 {
		pct = r.synthesizePct(outcome)
	}

	event := r.buildEvent(outcome, pct, content)
	return event, nil
}

func (r *TradeOutcomeResolver) resolveFallback(req domain.TradeRequest) domain.TradeOutcomeEvent {
	r.mu.Lock()
	roll := r.rng.Float64()
	r.mu.Unlock()

	var outcome domain.Outcome
	switch {
	case roll < fallbackProfitChance*fallbackProfitSplit:
		outcome = domain.OutcomeProfit
	case roll < fallbackProfitChance:
		outcome = domain.OutcomeBreakeven
	default:
		outcome = domain.OutcomeLoss
	}

	pct := r.synthesizePct(outcome)
	narration := fallbackNarration(outcome, req.Asset, pct)
	return r.buildEvent(outcome, pct, narration)
}

// synthesizePct draws a profit percentage from the bounded range for the
// outcome class: profit 5..20, loss -10..-2, breakeven -1..1.
func (r *TradeOutcomeResolver) synthesizePct(outcome domain.Outcome) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch outcome {
	case domain.OutcomeProfit:
		return 5 + r.rng.Float64()*15
	case domain.OutcomeLoss:
		return -2 - r.rng.Float64()*8
	default:
		return -1 + r.rng.Float64()*2
	}
}

// buildEvent derives rewards from the outcome class, applies the critical
// forge draw and assembles the final event.
func (r *TradeOutcomeResolver) buildEvent(outcome domain.Outcome, pct float64, narration string) domain.TradeOutcomeEvent {
	var shards, lumina uint64
	switch outcome {
	case domain.OutcomeProfit:
		shards = uint64(pct * 10)
		lumina = uint64(pct/5) + 1
	case domain.OutcomeLoss:
		shards = lossConsolationShard
		lumina = 0
	default:
		shards = baseShardReward / 2
		lumina = 1
	}

	r.mu.Lock()
	critical := r.rng.Float64() < criticalForgeChance
	r.mu.Unlock()

	isCritical := critical && outcome == domain.OutcomeProfit
	if isCritical {
		shards = uint64(float64(shards) * criticalShardMultiplier)
		lumina = uint64(float64(lumina) * criticalLuminaMult)
		narration = "CRITICAL FORGE! " + narration
	}

	return domain.TradeOutcomeEvent{
		Outcome:         outcome,
		ProfitPct:       pct,
		ShardsReward:    shards,
		LuminaReward:    lumina,
		IsCriticalForge: isCritical,
		IsRealTrade:     false,
		Narration:       narration,
	}
}

// classifyContent scans enrichment text for lexical outcome signals.
// Profit keywords are checked first, then loss keywords, else breakeven.
func classifyContent(content string) domain.Outcome {
	lower := strings.ToLower(content)
	for _, kw := range profitKeywords {
		if strings.Contains(lower, kw) {
			return domain.OutcomeProfit
		}
	}
	for _, kw := range lossKeywords {
		if strings.Contains(lower, kw) {
			return domain.OutcomeLoss
		}
	}
	return domain.OutcomeBreakeven
}

// extractPercent pulls the first percentage literal out of the text.
func extractPercent(content string) (float64, bool) {
	m := percentPattern.FindStringSubmatch(content)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return pct, true
}

func fallbackNarration(outcome domain.Outcome, asset string, pct float64) string {
	switch outcome {
	case domain.OutcomeProfit:
		return fmt.Sprintf("Stellar alignment on %s: +%.1f%% harvested from the cosmic currents.", asset, pct)
	case domain.OutcomeLoss:
		return fmt.Sprintf("Solar winds turned against %s: %.1f%%. The forge cools, for now.", asset, pct)
	default:
		return fmt.Sprintf("%s drifted through neutral space: %.1f%%.", asset, pct)
	}
}
