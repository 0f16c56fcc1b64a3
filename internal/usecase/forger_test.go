package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/astraforge/engine/internal/domain"
	"go.uber.org/zap"
)

func TestTickIncome(t *testing.T) {
	tests := []struct {
		name     string
		forgers  uint64
		vitality domain.Vitality
		want     uint64
	}{
		{"no forgers", 0, domain.VitalityStable, 0},
		{"stable", 3, domain.VitalityStable, 15},
		{"flourishing doubles", 3, domain.VitalityFlourishing, 30},
		{"decaying halves", 3, domain.VitalityDecaying, 7},
		{"decaying single forger", 1, domain.VitalityDecaying, 2},
		{"no forgers flourishing", 0, domain.VitalityFlourishing, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TickIncome(tc.forgers, tc.vitality); got != tc.want {
				t.Errorf("TickIncome(%d, %s) = %d, want %d", tc.forgers, tc.vitality, got, tc.want)
			}
		})
	}
}

func TestForgerTickCreditsEveryPlayer(t *testing.T) {
	repo := newMemPlayerRepo()
	engine := newTestEngine(repo, nil)

	rich := domain.NewPlayerState("rich")
	rich.AstroForgers = 4
	rich.Vitality = domain.VitalityFlourishing
	repo.seed(rich)

	modest := domain.NewPlayerState("modest")
	modest.AstroForgers = 2
	repo.seed(modest)

	idle := domain.NewPlayerState("idle")
	repo.seed(idle)

	svc := NewForgerIncomeService(engine, repo, time.Minute, zap.NewNop())
	svc.Tick(context.Background())

	if got := repo.stored("rich").StellarShards; got != 40 {
		t.Errorf("rich shards = %d, want 40", got)
	}
	if got := repo.stored("modest").StellarShards; got != 10 {
		t.Errorf("modest shards = %d, want 10", got)
	}
	if got := repo.stored("idle").StellarShards; got != 0 {
		t.Errorf("idle shards = %d, want 0", got)
	}
}

func TestForgerRunStopsOnCancel(t *testing.T) {
	repo := newMemPlayerRepo()
	engine := newTestEngine(repo, nil)
	svc := NewForgerIncomeService(engine, repo, time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
