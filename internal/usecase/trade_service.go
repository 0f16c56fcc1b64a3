package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/astraforge/engine/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TradeService orchestrates a full trade attempt: it routes the request
// to the simulated resolver or the real-trade executor, commits the
// resulting event through the progression engine, persists the trade log
// and pushes ranking updates off the commit path.
type TradeService struct {
	resolver *TradeOutcomeResolver
	executor *RealTradeExecutor
	engine   *ProgressionEngine
	trades   domain.TradeLogRepository
	notifier domain.NotificationSink
	logger   *zap.Logger
}

func NewTradeService(
	resolver *TradeOutcomeResolver,
	executor *RealTradeExecutor,
	engine *ProgressionEngine,
	trades domain.TradeLogRepository,
	notifier domain.NotificationSink,
	logger *zap.Logger,
) *TradeService {
	return &TradeService{
		resolver: resolver,
		executor: executor,
		engine:   engine,
		trades:   trades,
		notifier: notifier,
		logger:   logger,
	}
}

// TradeResult is what the caller gets back from a committed trade.
type TradeResult struct {
	Event domain.TradeOutcomeEvent `json:"event"`
	State *domain.PlayerState      `json:"state"`
}

// PlaceTrade runs one trade end to end. Pre-flight errors (real mode not
// configured, invalid key) abort with no state mutation; anything past the
// execution stage terminates in a committed event.
func (s *TradeService) PlaceTrade(ctx context.Context, secretKey string, req domain.TradeRequest) (*TradeResult, error) {
	var event domain.TradeOutcomeEvent

	if req.IsReal {
		var err error
		event, err = s.executor.Execute(ctx, secretKey, req)
		if err != nil {
			return nil, err
		}
	} else {
		event = s.resolver.Resolve(ctx, req)
	}

	state, err := s.engine.Apply(ctx, req.PlayerID, event)
	if err != nil {
		return nil, fmt.Errorf("commit trade: %w", err)
	}

	entry := &domain.TradeLogEntry{
		ID:        uuid.NewString(),
		PlayerID:  req.PlayerID,
		Asset:     req.Asset,
		Direction: req.Direction,
		Event:     event,
		CreatedAt: time.Now(),
	}
	if err := s.trades.SaveTrade(ctx, entry); err != nil {
		s.logger.Error("failed to save trade log", zap.String("player", req.PlayerID), zap.Error(err))
	}

	if s.notifier != nil {
		s.notifier.Notify(domain.Notification{
			Kind:     domain.NotifyTrade,
			PlayerID: req.PlayerID,
			Message:  event.Narration,
		})
	}

	// Fire-and-forget: the ranking push is not part of the commit.
	go func(snapshot domain.PlayerState) {
		pushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.engine.PushRanking(pushCtx, &snapshot)
	}(*state)

	return &TradeResult{Event: event, State: state}, nil
}

// RecentTrades lists the latest committed trades for a player.
func (s *TradeService) RecentTrades(ctx context.Context, playerID string, limit int) ([]*domain.TradeLogEntry, error) {
	return s.trades.ListTrades(ctx, playerID, limit)
}
