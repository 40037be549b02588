package bot

import (
	"math/rand"
)

// BotLevel selects a strategy. Values match the "difficulty" field of the
// identity pool.
type BotLevel string

const (
	BotLevelEasy   BotLevel = "easy"
	BotLevelMedium BotLevel = "medium"
	BotLevelHard   BotLevel = "hard"
)

// NewBrain creates a strategy for the given level. Unknown levels get the
// cautious default rather than an error so a misconfigured identity pool
// still produces playable bots.
func NewBrain(level BotLevel, rng *rand.Rand) Brain {
	switch level {
	case BotLevelEasy:
		return &EasyBot{Rng: rng}
	default:
		return &CautiousBot{}
	}
}
