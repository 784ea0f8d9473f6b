package core

// RuntimeConfig is passed to a hosted simulation when it is (re)started.
type RuntimeConfig struct {
	ScreenW  int // Screen width in characters
	ScreenH  int // Screen height in characters
	TickRate int // Simulation ticks per second
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  120,
		ScreenH:  36,
		TickRate: 30,
	}
}

// GameState is the status a hosted simulation reports to the platform.
type GameState struct {
	Score    int  // Cars delivered so far
	GameOver bool // Schedule exhausted and network empty
	Paused   bool
}

// StepResult is returned after each simulation tick.
type StepResult struct {
	State GameState
	// Events are short human-readable notices raised during the tick
	// (train arrivals, refused switch toggles). The platform may show or log them.
	Events []string
}
