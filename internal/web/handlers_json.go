package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/astraforge/engine/internal/domain"
	"go.uber.org/zap"
)

// playerView is the JSON shape for player state. Level and tier are
// derived from total XP at render time.
type playerView struct {
	PlayerID       string            `json:"player_id"`
	StellarShards  uint64            `json:"stellar_shards"`
	Lumina         uint64            `json:"lumina"`
	Experience     uint64            `json:"experience"`
	TotalXP        uint64            `json:"total_xp"`
	Level          uint32            `json:"level"`
	Tier           string            `json:"tier"`
	Vitality       string            `json:"vitality"`
	TotalTrades    uint64            `json:"total_trades"`
	WinStreak      uint32            `json:"win_streak"`
	WinRate        float64           `json:"win_rate"`
	LuminaUnlocked bool              `json:"lumina_unlocked"`
	AstroForgers   uint64            `json:"astro_forgers"`
	NodeLevels     map[string]uint32 `json:"node_levels"`
}

func newPlayerView(state *domain.PlayerState) playerView {
	return playerView{
		PlayerID:       state.PlayerID,
		StellarShards:  state.StellarShards,
		Lumina:         state.Lumina,
		Experience:     state.Experience,
		TotalXP:        state.TotalXP,
		Level:          state.Level(),
		Tier:           state.CurrentTier().String(),
		Vitality:       string(state.Vitality),
		TotalTrades:    state.TotalTrades,
		WinStreak:      state.WinStreak,
		WinRate:        state.WinRate,
		LuminaUnlocked: state.LuminaUnlocked,
		AstroForgers:   state.AstroForgers,
		NodeLevels:     state.NodeLevels,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) handlePlaceTrade(w http.ResponseWriter, r *http.Request) {
	var body struct {
		domain.TradeRequest
		SecretKey string `json:"secret_key,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.PlayerID == "" || body.Asset == "" {
		http.Error(w, "player_id and asset are required", http.StatusBadRequest)
		return
	}

	result, err := s.trades.PlaceTrade(r.Context(), body.SecretKey, body.TradeRequest)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotConfigured):
			http.Error(w, "Real trading is not configured", http.StatusConflict)
		case errors.Is(err, domain.ErrInvalidKey):
			http.Error(w, "Invalid secret key", http.StatusBadRequest)
		default:
			s.logger.Error("Trade failed", zap.String("player", body.PlayerID), zap.Error(err))
			http.Error(w, "Trade failed", http.StatusInternalServerError)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"event":  result.Event,
		"player": newPlayerView(result.State),
	})
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.trades.RecentTrades(r.Context(), playerID, limit)
	if err != nil {
		s.logger.Error("Failed to list trades", zap.Error(err))
		http.Error(w, "Failed to list trades", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	state, err := s.progression.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Error("Failed to load player", zap.Error(err))
		http.Error(w, "Failed to load player", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, newPlayerView(state))
}

func (s *Server) handleUpgradeNode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NodeID string `json:"node_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NodeID == "" {
		http.Error(w, "node_id is required", http.StatusBadRequest)
		return
	}

	state, err := s.progression.UpgradeNode(r.Context(), r.PathValue("id"), body.NodeID)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			http.Error(w, err.Error(), http.StatusPaymentRequired)
			return
		}
		s.logger.Error("Upgrade failed", zap.Error(err))
		http.Error(w, "Upgrade failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, newPlayerView(state))
}

func (s *Server) handleBuyForger(w http.ResponseWriter, r *http.Request) {
	state, err := s.progression.BuyForger(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			http.Error(w, err.Error(), http.StatusPaymentRequired)
			return
		}
		s.logger.Error("Forger purchase failed", zap.Error(err))
		http.Error(w, "Forger purchase failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, newPlayerView(state))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.ranking == nil {
		http.Error(w, "Leaderboard is not configured", http.StatusServiceUnavailable)
		return
	}
	n := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}

	entries, err := s.ranking.Top(r.Context(), n)
	if err != nil {
		s.logger.Error("Failed to fetch leaderboard", zap.Error(err))
		http.Error(w, "Failed to fetch leaderboard", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}
