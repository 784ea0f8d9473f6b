// Package config provides YAML-based simulation configuration for Signalmaster.
package config

import (
	"errors"
	"fmt"
	"math"
)

// SimConfig contains every tunable of the rail simulation and its host.
type SimConfig struct {
	Display DisplayConfig `yaml:"display"`
	Train   TrainConfig   `yaml:"train"`
	Track   TrackConfig   `yaml:"track"`
	Switch  SwitchConfig  `yaml:"switch"`
	Clock   ClockConfig   `yaml:"clock"`
	Catalog CatalogConfig `yaml:"catalog"`
}

// DisplayConfig is the resolution map coordinates are scaled to.
// Map files are authored against a 1600x900 reference.
type DisplayConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// TrainConfig defines bogey placement along a train.
type TrainConfig struct {
	CarSpacing      float64 `yaml:"car_spacing"`       // distance between consecutive cars
	ForeBogeyOffset float64 `yaml:"fore_bogey_offset"` // fore bogey distance behind the car front
	RearBogeyOffset float64 `yaml:"rear_bogey_offset"` // rear bogey distance behind the car front
}

// TrackConfig defines movement tolerances.
type TrackConfig struct {
	BoundsTolerance float64 `yaml:"bounds_tolerance"`
}

// SwitchConfig defines the clickable area around a switch anchor.
type SwitchConfig struct {
	HitMargin float64 `yaml:"hit_margin"`
}

// ClockConfig defines game time progression.
type ClockConfig struct {
	Speeds           []float64 `yaml:"speeds"`             // selectable speed multipliers, ascending
	InitialSpeed     float64   `yaml:"initial_speed"`      // multiplier at map start
	MinutesPerSecond float64   `yaml:"minutes_per_second"` // game minutes per real second at 1x
}

// CatalogConfig lists extra directories scanned for map files.
type CatalogConfig struct {
	MapDirs []string `yaml:"map_dirs"`
}

// TrainSpan returns the distance from the first fore bogey to the last rear
// bogey of a train with the given number of cars.
func (t TrainConfig) TrainSpan(cars int) float64 {
	if cars < 1 {
		return 0
	}
	return float64(cars-1)*t.CarSpacing + t.RearBogeyOffset
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Validate checks the configuration for values the simulation cannot run with.
func (c SimConfig) Validate() error {
	var errs []error
	if !positive(c.Display.Width) || !positive(c.Display.Height) {
		errs = append(errs, fmt.Errorf("display size must be positive, got %vx%v", c.Display.Width, c.Display.Height))
	}
	if !positive(c.Train.CarSpacing) {
		errs = append(errs, fmt.Errorf("train.car_spacing must be positive, got %v", c.Train.CarSpacing))
	}
	if c.Train.ForeBogeyOffset < 0 || c.Train.RearBogeyOffset < c.Train.ForeBogeyOffset {
		errs = append(errs, fmt.Errorf("train bogey offsets must satisfy 0 <= fore <= rear, got %v/%v",
			c.Train.ForeBogeyOffset, c.Train.RearBogeyOffset))
	}
	if c.Track.BoundsTolerance < 0 {
		errs = append(errs, fmt.Errorf("track.bounds_tolerance must not be negative, got %v", c.Track.BoundsTolerance))
	}
	if c.Switch.HitMargin <= 0 {
		errs = append(errs, fmt.Errorf("switch.hit_margin must be positive, got %v", c.Switch.HitMargin))
	}
	if len(c.Clock.Speeds) == 0 {
		errs = append(errs, errors.New("clock.speeds must list at least one multiplier"))
	}
	for i, s := range c.Clock.Speeds {
		if !positive(s) {
			errs = append(errs, fmt.Errorf("clock.speeds[%d] must be positive, got %v", i, s))
		}
		if i > 0 && s <= c.Clock.Speeds[i-1] {
			errs = append(errs, fmt.Errorf("clock.speeds must be ascending at index %d", i))
		}
	}
	if !positive(c.Clock.InitialSpeed) {
		errs = append(errs, fmt.Errorf("clock.initial_speed must be positive, got %v", c.Clock.InitialSpeed))
	}
	if !positive(c.Clock.MinutesPerSecond) {
		errs = append(errs, fmt.Errorf("clock.minutes_per_second must be positive, got %v", c.Clock.MinutesPerSecond))
	}
	return errors.Join(errs...)
}
