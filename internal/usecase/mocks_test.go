package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/astraforge/engine/internal/domain"
)

// memPlayerRepo is an in-memory PlayerRepository. It clones on both load
// and save so mutations only become visible through Save, like a real
// store.
type memPlayerRepo struct {
	mu      sync.Mutex
	players map[string]*domain.PlayerState
	saveErr error
}

func newMemPlayerRepo() *memPlayerRepo {
	return &memPlayerRepo{players: make(map[string]*domain.PlayerState)}
}

func clonePlayer(p *domain.PlayerState) *domain.PlayerState {
	c := *p
	c.NodeLevels = make(map[string]uint32, len(p.NodeLevels))
	for k, v := range p.NodeLevels {
		c.NodeLevels[k] = v
	}
	return &c
}

func (r *memPlayerRepo) GetOrCreate(_ context.Context, playerID string) (*domain.PlayerState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[playerID]; ok {
		return clonePlayer(p), nil
	}
	fresh := domain.NewPlayerState(playerID)
	r.players[playerID] = clonePlayer(fresh)
	return fresh, nil
}

func (r *memPlayerRepo) Save(_ context.Context, state *domain.PlayerState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.players[state.PlayerID] = clonePlayer(state)
	return nil
}

func (r *memPlayerRepo) ListPlayerIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	return ids, nil
}

// seed stores a state directly, bypassing GetOrCreate.
func (r *memPlayerRepo) seed(state *domain.PlayerState) {
	r.mu.Lock()
	r.players[state.PlayerID] = clonePlayer(state)
	r.mu.Unlock()
}

func (r *memPlayerRepo) stored(playerID string) *domain.PlayerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[playerID]; ok {
		return clonePlayer(p)
	}
	return nil
}

type memTradeLog struct {
	mu      sync.Mutex
	entries []*domain.TradeLogEntry
}

func (l *memTradeLog) SaveTrade(_ context.Context, entry *domain.TradeLogEntry) error {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
	return nil
}

func (l *memTradeLog) ListTrades(_ context.Context, playerID string, limit int) ([]*domain.TradeLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*domain.TradeLogEntry
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if l.entries[i].PlayerID == playerID {
			out = append(out, l.entries[i])
		}
	}
	return out, nil
}

// stubEnrichment scripts the enrichment port and counts calls.
type stubEnrichment struct {
	mu          sync.Mutex
	healthy     bool
	content     string
	queryErr    error
	healthCalls int
	queryCalls  int
}

func (s *stubEnrichment) HealthCheck(context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthCalls++
	return s.healthy
}

func (s *stubEnrichment) Query(context.Context, string, int) ([]domain.EnrichmentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryCalls++
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if s.content == "" {
		return nil, nil
	}
	return []domain.EnrichmentResult{{Content: s.content}}, nil
}

func (s *stubEnrichment) calls() (health, query int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthCalls, s.queryCalls
}

// stubVenue scripts the venue port and captures the submitted payload.
type stubVenue struct {
	mu       sync.Mutex
	result   *domain.VenueOrderResult
	placeErr error
	payload  *domain.SignedOrderPayload
}

func (v *stubVenue) PlaceOrder(_ context.Context, payload *domain.SignedOrderPayload) (*domain.VenueOrderResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.payload = payload
	if v.placeErr != nil {
		return nil, v.placeErr
	}
	return v.result, nil
}

func (v *stubVenue) GetBalance(context.Context) ([]domain.VenueBalance, error) {
	return nil, errors.New("not implemented")
}

func (v *stubVenue) GetPositions(context.Context) ([]domain.VenuePosition, error) {
	return nil, errors.New("not implemented")
}

func (v *stubVenue) lastPayload() *domain.SignedOrderPayload {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.payload
}

// recordSink collects notifications.
type recordSink struct {
	mu    sync.Mutex
	notes []domain.Notification
}

func (s *recordSink) Notify(n domain.Notification) {
	s.mu.Lock()
	s.notes = append(s.notes, n)
	s.mu.Unlock()
}

func (s *recordSink) kinds() []domain.NotificationKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.NotificationKind, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, n.Kind)
	}
	return out
}

// stubRanking records published entries.
type stubRanking struct {
	mu      sync.Mutex
	entries []domain.RankingEntry
	pubErr  error
}

func (r *stubRanking) Publish(_ context.Context, entry domain.RankingEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pubErr != nil {
		return r.pubErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubRanking) Top(context.Context, int) ([]domain.RankingEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.RankingEntry(nil), r.entries...), nil
}
