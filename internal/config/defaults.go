package config

import (
	_ "embed"
)

//go:embed defaults/signalmaster.yaml
var defaultSimYAML []byte

// DefaultSimConfig returns the built-in configuration.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Display: DisplayConfig{
			Width:  1600,
			Height: 900,
		},
		Train: TrainConfig{
			CarSpacing:      40,
			ForeBogeyOffset: 4,
			RearBogeyOffset: 36,
		},
		Track: TrackConfig{
			BoundsTolerance: 0.1,
		},
		Switch: SwitchConfig{
			HitMargin: 25,
		},
		Clock: ClockConfig{
			Speeds:           []float64{0.5, 1, 2, 4},
			InitialSpeed:     1,
			MinutesPerSecond: 1,
		},
	}
}
