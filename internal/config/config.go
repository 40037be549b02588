package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// BetTier is one selectable table stake.
type BetTier struct {
	ID      string `json:"id"`
	BaseBet int64  `json:"base_bet"`
}

// GameConfig carries the tunable parameters of a Hearts table. It is
// loaded once at match init and passed where needed.
type GameConfig struct {
	// TurnDurationSeconds bounds how long a player may sit on their turn
	// before the deterministic auto-play fires.
	TurnDurationSeconds int `json:"turn_duration_seconds"`
	// PassDurationSeconds bounds the passing phase before laggards are
	// auto-passed.
	PassDurationSeconds int `json:"pass_duration_seconds"`
	// RoundIntervalSeconds is the score-display pause between rounds.
	RoundIntervalSeconds int `json:"round_interval_seconds"`

	BotMinDelaySeconds      int `json:"bot_min_delay_seconds"`
	BotMaxDelaySeconds      int `json:"bot_max_delay_seconds"`
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`

	// IdleSweepSeconds is how long an empty or finished session stays
	// addressable before registry eviction.
	IdleSweepSeconds int `json:"idle_sweep_seconds"`

	RakeRate    float64   `json:"rake_rate"`
	DefaultTier string    `json:"default_tier"`
	Tiers       []BetTier `json:"tiers"`
}

// Defaults returns a playable configuration for when no file is present.
func Defaults() *GameConfig {
	return &GameConfig{
		TurnDurationSeconds:  30,
		PassDurationSeconds:  60,
		RoundIntervalSeconds: 8,

		BotMinDelaySeconds:      1,
		BotMaxDelaySeconds:      3,
		BotAutoFillDelaySeconds: 10,

		IdleSweepSeconds: 300,

		RakeRate:    0,
		DefaultTier: "casual",
		Tiers:       []BetTier{{ID: "casual", BaseBet: 100}},
	}
}

// Load reads a GameConfig from the given path, filling any unset values
// with defaults. A missing file yields pure defaults without error.
func Load(path string) (*GameConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read game config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	cfg.applyFloors()
	return cfg, nil
}

func (c *GameConfig) applyFloors() {
	d := Defaults()
	if c.TurnDurationSeconds <= 0 {
		c.TurnDurationSeconds = d.TurnDurationSeconds
	}
	if c.PassDurationSeconds <= 0 {
		c.PassDurationSeconds = d.PassDurationSeconds
	}
	if c.RoundIntervalSeconds <= 0 {
		c.RoundIntervalSeconds = d.RoundIntervalSeconds
	}
	if c.BotMinDelaySeconds <= 0 {
		c.BotMinDelaySeconds = d.BotMinDelaySeconds
	}
	if c.BotMaxDelaySeconds < c.BotMinDelaySeconds {
		c.BotMaxDelaySeconds = c.BotMinDelaySeconds
	}
	if c.BotAutoFillDelaySeconds <= 0 {
		c.BotAutoFillDelaySeconds = d.BotAutoFillDelaySeconds
	}
	if c.IdleSweepSeconds <= 0 {
		c.IdleSweepSeconds = d.IdleSweepSeconds
	}
}

// BaseBet returns the base bet for a tier ID, falling back to the default
// tier and finally to 100.
func (c *GameConfig) BaseBet(tierID string) int64 {
	target := tierID
	if target == "" {
		target = c.DefaultTier
	}
	for _, tier := range c.Tiers {
		if tier.ID == target {
			return tier.BaseBet
		}
	}
	for _, tier := range c.Tiers {
		if tier.ID == c.DefaultTier {
			return tier.BaseBet
		}
	}
	return 100
}
