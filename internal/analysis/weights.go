package analysis

import (
	"fmt"

	"twstock-advisor/internal/indicator"
	"twstock-advisor/internal/signal"
)

// Weights are the scoring constants of the synthesizer.
type Weights struct {
	StrongTrendVotes    int     `json:"strong_trend_votes"`
	TrendVotes          int     `json:"trend_votes"`
	BaseConfidence      int     `json:"base_confidence"`
	TrendStep           int     `json:"trend_step"`
	SignalBonus         int     `json:"signal_bonus"`
	ConflictPenalty     int     `json:"conflict_penalty"`
	VolumeBonus         int     `json:"volume_bonus"`
	VolatilityThreshold float64 `json:"volatility_threshold"`
	VolatilityPenalty   int     `json:"volatility_penalty"`
}

func DefaultWeights() Weights {
	return Weights{
		StrongTrendVotes:    2,
		TrendVotes:          1,
		BaseConfidence:      30,
		TrendStep:           10,
		SignalBonus:         15,
		ConflictPenalty:     10,
		VolumeBonus:         10,
		VolatilityThreshold: 3.0,
		VolatilityPenalty:   10,
	}
}

func (w Weights) Validate() error {
	if w.StrongTrendVotes < w.TrendVotes || w.TrendVotes < 0 {
		return fmt.Errorf("trend votes must satisfy 0 <= trend <= strong trend")
	}
	if w.BaseConfidence < 0 || w.BaseConfidence > 100 {
		return fmt.Errorf("base confidence must be within 0..100")
	}
	if w.TrendStep < 0 || w.SignalBonus < 0 || w.ConflictPenalty < 0 || w.VolumeBonus < 0 || w.VolatilityPenalty < 0 {
		return fmt.Errorf("confidence adjustments must not be negative")
	}
	if w.VolatilityThreshold <= 0 {
		return fmt.Errorf("volatility threshold must be positive")
	}
	return nil
}

// Config bundles everything the engine needs; it is exposed read-only to callers.
type Config struct {
	Indicators indicator.Params  `json:"indicators"`
	Thresholds signal.Thresholds `json:"thresholds"`
	Weights    Weights           `json:"weights"`
}

func DefaultConfig() Config {
	return Config{
		Indicators: indicator.DefaultParams(),
		Thresholds: signal.DefaultThresholds(),
		Weights:    DefaultWeights(),
	}
}
