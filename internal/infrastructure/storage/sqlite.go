package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/astraforge/engine/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements PlayerRepository and TradeLogRepository on a
// single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS players (
			player_id TEXT PRIMARY KEY,
			stellar_shards INTEGER NOT NULL DEFAULT 0,
			lumina INTEGER NOT NULL DEFAULT 0,
			experience INTEGER NOT NULL DEFAULT 0,
			total_xp INTEGER NOT NULL DEFAULT 0,
			vitality TEXT NOT NULL DEFAULT 'STABLE',
			total_trades INTEGER NOT NULL DEFAULT 0,
			win_streak INTEGER NOT NULL DEFAULT 0,
			win_rate REAL NOT NULL DEFAULT 0,
			lumina_unlocked BOOLEAN NOT NULL DEFAULT 0,
			astro_forgers INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS node_levels (
			player_id TEXT NOT NULL,
			node_id TEXT NOT NULL,
			level INTEGER NOT NULL,
			PRIMARY KEY (player_id, node_id)
		);`,
		`CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			player_id TEXT NOT NULL,
			asset TEXT NOT NULL,
			direction TEXT NOT NULL,
			outcome TEXT NOT NULL,
			profit_pct REAL NOT NULL,
			shards_reward INTEGER NOT NULL,
			lumina_reward INTEGER NOT NULL,
			is_critical_forge BOOLEAN NOT NULL DEFAULT 0,
			is_real_trade BOOLEAN NOT NULL DEFAULT 0,
			narration TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_player ON trades(player_id, created_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

// PlayerRepository implementation

func (s *SQLiteStore) GetOrCreate(ctx context.Context, playerID string) (*domain.PlayerState, error) {
	query := `SELECT player_id, stellar_shards, lumina, experience, total_xp, vitality,
			  total_trades, win_streak, win_rate, lumina_unlocked, astro_forgers, updated_at
			  FROM players WHERE player_id = ?`
	row := s.db.QueryRowContext(ctx, query, playerID)

	var (
		p                                    domain.PlayerState
		shards, lumina, xp, totalXP          int64
		totalTrades, winStreak, astroForgers int64
		vitality                             string
	)
	err := row.Scan(&p.PlayerID, &shards, &lumina, &xp, &totalXP, &vitality,
		&totalTrades, &winStreak, &p.WinRate, &p.LuminaUnlocked, &astroForgers, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		fresh := domain.NewPlayerState(playerID)
		if err := s.Save(ctx, fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	}
	if err != nil {
		return nil, err
	}

	p.StellarShards = uint64(shards)
	p.Lumina = uint64(lumina)
	p.Experience = uint64(xp)
	p.TotalXP = uint64(totalXP)
	p.Vitality = domain.Vitality(vitality)
	p.TotalTrades = uint64(totalTrades)
	p.WinStreak = uint32(winStreak)
	p.AstroForgers = uint64(astroForgers)

	nodes, err := s.loadNodeLevels(ctx, playerID)
	if err != nil {
		return nil, err
	}
	p.NodeLevels = nodes

	return &p, nil
}

func (s *SQLiteStore) Save(ctx context.Context, state *domain.PlayerState) error {
	query := `INSERT INTO players (player_id, stellar_shards, lumina, experience, total_xp, vitality,
			  total_trades, win_streak, win_rate, lumina_unlocked, astro_forgers, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(player_id) DO UPDATE SET
			  stellar_shards=excluded.stellar_shards,
			  lumina=excluded.lumina,
			  experience=excluded.experience,
			  total_xp=excluded.total_xp,
			  vitality=excluded.vitality,
			  total_trades=excluded.total_trades,
			  win_streak=excluded.win_streak,
			  win_rate=excluded.win_rate,
			  lumina_unlocked=excluded.lumina_unlocked,
			  astro_forgers=excluded.astro_forgers,
			  updated_at=excluded.updated_at`
	_, err := s.db.ExecContext(ctx, query,
		state.PlayerID, int64(state.StellarShards), int64(state.Lumina), int64(state.Experience),
		int64(state.TotalXP), string(state.Vitality), int64(state.TotalTrades), int64(state.WinStreak),
		state.WinRate, state.LuminaUnlocked, int64(state.AstroForgers), state.UpdatedAt)
	if err != nil {
		return err
	}

	for nodeID, level := range state.NodeLevels {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO node_levels (player_id, node_id, level) VALUES (?, ?, ?)
			 ON CONFLICT(player_id, node_id) DO UPDATE SET level=excluded.level`,
			state.PlayerID, nodeID, int64(level))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) ListPlayerIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT player_id FROM players`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) loadNodeLevels(ctx context.Context, playerID string) (map[string]uint32, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT node_id, level FROM node_levels WHERE player_id = ?`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nodes := make(map[string]uint32)
	for rows.Next() {
		var nodeID string
		var level int64
		if err := rows.Scan(&nodeID, &level); err != nil {
			return nil, err
		}
		nodes[nodeID] = uint32(level)
	}
	return nodes, rows.Err()
}

// TradeLogRepository implementation

func (s *SQLiteStore) SaveTrade(ctx context.Context, entry *domain.TradeLogEntry) error {
	query := `INSERT INTO trades (id, player_id, asset, direction, outcome, profit_pct,
			  shards_reward, lumina_reward, is_critical_forge, is_real_trade, narration, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.PlayerID, entry.Asset, string(entry.Direction),
		string(entry.Event.Outcome), entry.Event.ProfitPct,
		int64(entry.Event.ShardsReward), int64(entry.Event.LuminaReward),
		entry.Event.IsCriticalForge, entry.Event.IsRealTrade, entry.Event.Narration, entry.CreatedAt)
	return err
}

func (s *SQLiteStore) ListTrades(ctx context.Context, playerID string, limit int) ([]*domain.TradeLogEntry, error) {
	query := `SELECT id, player_id, asset, direction, outcome, profit_pct, shards_reward,
			  lumina_reward, is_critical_forge, is_real_trade, narration, created_at
			  FROM trades WHERE player_id = ? ORDER BY created_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.TradeLogEntry
	for rows.Next() {
		var (
			e              domain.TradeLogEntry
			direction      string
			outcome        string
			shards, lumina int64
		)
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.Asset, &direction, &outcome,
			&e.Event.ProfitPct, &shards, &lumina, &e.Event.IsCriticalForge,
			&e.Event.IsRealTrade, &e.Event.Narration, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Direction = domain.Direction(direction)
		e.Event.Outcome = domain.Outcome(outcome)
		e.Event.ShardsReward = uint64(shards)
		e.Event.LuminaReward = uint64(lumina)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ domain.PlayerRepository = (*SQLiteStore)(nil)
var _ domain.TradeLogRepository = (*SQLiteStore)(nil)
