package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/astraforge/engine/internal/domain"
	"go.uber.org/zap"
)

const (
	// Real trades carry a higher expected value than simulation.
	realProfitChance   = 0.52
	realCriticalChance = 0.08
	realCriticalShards = 3.0
	realCriticalLumina = 2.5

	realBaseShardReward  = 20
	realConsolationShard = 5

	venueCallTimeout  = 10 * time.Second
	narrationErrLimit = 80
)

// RealTradeExecutor signs an order, submits it through the venue port and
// maps the venue response into the common outcome event shape. Transport
// and venue failures never propagate: they become consolation events so
// the progression pipeline keeps moving forward.
type RealTradeExecutor struct {
	signer  *PayloadSigner
	venue   domain.Venue
	enabled bool
	logger  *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRealTradeExecutor(signer *PayloadSigner, venue domain.Venue, enabled bool, logger *zap.Logger) *RealTradeExecutor {
	return &RealTradeExecutor{
		signer:  signer,
		venue:   venue,
		enabled: enabled,
		logger:  logger,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Seed replaces the random source. Deterministic tests only.
func (e *RealTradeExecutor) Seed(seed int64) {
	e.mu.Lock()
	e.rng = rand.New(rand.NewSource(seed))
	e.mu.Unlock()
}

// Configured reports whether real trades can be executed.
func (e *RealTradeExecutor) Configured() bool {
	return e.enabled && e.venue != nil
}

// Execute runs a real trade end to end. Pre-flight errors (configuration,
// bad key) abort without an event; anything after submission terminates in
// a committed-shape event.
func (e *RealTradeExecutor) Execute(ctx context.Context, secretKey string, req domain.TradeRequest) (domain.TradeOutcomeEvent, error) {
	if !e.Configured() {
		return domain.TradeOutcomeEvent{}, domain.ErrNotConfigured
	}

	side := "BUY"
	if req.Direction == domain.DirectionShort {
		side = "SELL"
	}

	payload, err := e.signer.Sign(secretKey, domain.OrderParams{
		Market:    req.Asset,
		Side:      side,
		OrderType: "MARKET",
		Size:      strconv.FormatFloat(req.Notional, 'f', -1, 64),
	})
	if err != nil {
		return domain.TradeOutcomeEvent{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, venueCallTimeout)
	defer cancel()

	result, err := e.venue.PlaceOrder(ctx, payload)
	if err != nil {
		e.logger.Warn("venue submission failed, issuing consolation event",
			zap.String("market", req.Asset), zap.Error(err))
		return e.consolationEvent(err.Error()), nil
	}

	if !result.Accepted() {
		e.logger.Info("venue rejected order",
			zap.String("order_id", result.OrderID), zap.String("status", result.Status))
		return e.rejectionEvent(result.Status), nil
	}

	return e.acceptedEvent(req, result), nil
}

// acceptedEvent maps an accepted venue order to an outcome event using the
// real-trade reward distribution.
func (e *RealTradeExecutor) acceptedEvent(req domain.TradeRequest, result *domain.VenueOrderResult) domain.TradeOutcomeEvent {
	e.mu.Lock()
	profitRoll := e.rng.Float64()
	criticalRoll := e.rng.Float64()
	pctRoll := e.rng.Float64()
	e.mu.Unlock()

	event := domain.TradeOutcomeEvent{IsRealTrade: true}

	if profitRoll < realProfitChance {
		pct := 2 + pctRoll*13
		event.Outcome = domain.OutcomeProfit
		event.ProfitPct = pct
		event.ShardsReward = uint64(realBaseShardReward + 2*pct)
		event.LuminaReward = uint64(pct/2) + 2
		event.Narration = fmt.Sprintf("Live order %s filled on %s: +%.1f%% secured on the open market.",
			result.OrderID, result.Market, pct)

		if criticalRoll < realCriticalChance {
			event.IsCriticalForge = true
			event.ShardsReward = uint64(float64(event.ShardsReward) * realCriticalShards)
			event.LuminaReward = uint64(float64(event.LuminaReward) * realCriticalLumina)
			event.Narration = "CRITICAL FORGE! " + event.Narration
		}
		return event
	}

	pct := -(1 + pctRoll*7)
	event.Outcome = domain.OutcomeLoss
	event.ProfitPct = pct
	event.ShardsReward = realConsolationShard
	event.Narration = fmt.Sprintf("Live order %s closed on %s: %.1f%%. The market takes its toll.",
		result.OrderID, result.Market, pct)
	return event
}

// consolationEvent keeps progression moving when the venue call itself
// failed. The raw error is truncated into the narration.
func (e *RealTradeExecutor) consolationEvent(errText string) domain.TradeOutcomeEvent {
	if len(errText) > narrationErrLimit {
		cut := narrationErrLimit
		for cut > 0 && !utf8.RuneStart(errText[cut]) {
			cut--
		}
		errText = errText[:cut]
	}
	return domain.TradeOutcomeEvent{
		Outcome:      domain.OutcomeLoss,
		ProfitPct:    0,
		ShardsReward: realConsolationShard,
		LuminaReward: 0,
		IsRealTrade:  true,
		Narration:    "Venue unreachable, trade voided: " + errText,
	}
}

// rejectionEvent maps a non-accepted venue status to a fixed consolation.
func (e *RealTradeExecutor) rejectionEvent(status string) domain.TradeOutcomeEvent {
	return domain.TradeOutcomeEvent{
		Outcome:      domain.OutcomeLoss,
		ProfitPct:    0,
		ShardsReward: realConsolationShard,
		LuminaReward: 0,
		IsRealTrade:  true,
		Narration:    "Order rejected by venue (" + strings.ToUpper(status) + "). Consolation shards granted.",
	}
}
