package domain

import "time"

// Tier is an ordered progression rank derived purely from cumulative XP.
type Tier int

const (
	TierStardust Tier = iota
	TierNebula
	TierSupernova
	TierQuasar
	TierSingularity
)

// tierThresholds maps each tier to the minimum TotalXP required for it.
// Thresholds are strictly increasing.
var tierThresholds = []struct {
	tier Tier
	xp   uint64
}{
	{TierStardust, 0},
	{TierNebula, 500},
	{TierSupernova, 2000},
	{TierQuasar, 5000},
	{TierSingularity, 12000},
}

func (t Tier) String() string {
	switch t {
	case TierStardust:
		return "Stardust"
	case TierNebula:
		return "Nebula"
	case TierSupernova:
		return "Supernova"
	case TierQuasar:
		return "Quasar"
	case TierSingularity:
		return "Singularity"
	}
	return "Unknown"
}

// Vitality is the derived three-state health indicator.
type Vitality string

const (
	VitalityFlourishing Vitality = "FLOURISHING"
	VitalityStable      Vitality = "STABLE"
	VitalityDecaying    Vitality = "DECAYING"
)

// PlayerState is the durable progression state for a single player.
// It is mutated only by the ProgressionEngine. Level and Tier are NOT
// stored: they are pure functions of TotalXP (see Level/CurrentTier).
type PlayerState struct {
	PlayerID       string
	StellarShards  uint64 // primary currency, abundant
	Lumina         uint64 // premium currency, locked until first profit
	Experience     uint64 // cosmetic counter, distinct from TotalXP
	TotalXP        uint64
	Vitality       Vitality
	TotalTrades    uint64
	WinStreak      uint32
	WinRate        float64
	LuminaUnlocked bool // one-time flag, set on first profitable trade
	AstroForgers   uint64
	NodeLevels     map[string]uint32
	UpdatedAt      time.Time
}

// NewPlayerState returns a fresh state for a player that has never traded.
func NewPlayerState(playerID string) *PlayerState {
	return &PlayerState{
		PlayerID:   playerID,
		Vitality:   VitalityStable,
		NodeLevels: make(map[string]uint32),
		UpdatedAt:  time.Now(),
	}
}

// LevelForXP computes the player level from cumulative XP.
func LevelForXP(totalXP uint64) uint32 {
	return uint32(1 + totalXP/100)
}

// TierForXP computes the progression tier from cumulative XP.
func TierForXP(totalXP uint64) Tier {
	tier := TierStardust
	for _, th := range tierThresholds {
		if totalXP >= th.xp {
			tier = th.tier
		}
	}
	return tier
}

// Level returns the level derived from the player's TotalXP.
func (p *PlayerState) Level() uint32 {
	return LevelForXP(p.TotalXP)
}

// CurrentTier returns the tier derived from the player's TotalXP.
func (p *PlayerState) CurrentTier() Tier {
	return TierForXP(p.TotalXP)
}

// NodeUpgradeCost is the Lumina price of raising a node from level to level+1.
func NodeUpgradeCost(currentLevel uint32) uint64 {
	return 10 + 15*uint64(currentLevel)
}

// ForgerCost is the Lumina price of the next Astro-Forger.
func ForgerCost(currentCount uint64) uint64 {
	return 100 + 50*currentCount
}
