package config

// SpeedSelector steps through the configured clock multipliers.
type SpeedSelector struct {
	steps []float64
	idx   int
}

// NewSpeedSelector starts at the step closest to initial.
func NewSpeedSelector(cfg ClockConfig) *SpeedSelector {
	s := &SpeedSelector{steps: cfg.Speeds}
	if len(s.steps) == 0 {
		s.steps = []float64{1}
	}
	best := -1.0
	for i, v := range s.steps {
		d := v - cfg.InitialSpeed
		if d < 0 {
			d = -d
		}
		if best < 0 || d < best {
			best = d
			s.idx = i
		}
	}
	return s
}

// Current returns the selected multiplier.
func (s *SpeedSelector) Current() float64 {
	return s.steps[s.idx]
}

// Faster moves one step up, saturating at the fastest step.
func (s *SpeedSelector) Faster() float64 {
	if s.idx < len(s.steps)-1 {
		s.idx++
	}
	return s.Current()
}

// Slower moves one step down, saturating at the slowest step.
func (s *SpeedSelector) Slower() float64 {
	if s.idx > 0 {
		s.idx--
	}
	return s.Current()
}
