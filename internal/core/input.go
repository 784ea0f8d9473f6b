package core

// Action represents a semantic operator action, abstracted from physical key presses.
type Action int

const (
	ActionNone    Action = iota
	ActionFaster         // +, = - next clock speed step
	ActionSlower         // - - previous clock speed step
	ActionPause          // P, Space
	ActionRestart        // R - reload the current map
	ActionBack           // Esc - return to the map menu
	ActionQuit           // Q, Ctrl+C
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionFaster:
		return "Faster"
	case ActionSlower:
		return "Slower"
	case ActionPause:
		return "Pause"
	case ActionRestart:
		return "Restart"
	case ActionBack:
		return "Back"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}

// Cell is a screen position in character cells.
type Cell struct {
	X, Y int
}

// InputFrame is everything the operator did during one simulation tick.
type InputFrame struct {
	Actions map[Action]bool
	// Clicks holds mouse presses in screen cells, oldest first.
	Clicks []Cell
}

// NewInputFrame creates an empty input frame.
func NewInputFrame() InputFrame {
	return InputFrame{
		Actions: make(map[Action]bool),
	}
}

// Set marks an action as triggered for this frame.
func (f *InputFrame) Set(a Action) {
	if f.Actions == nil {
		f.Actions = make(map[Action]bool)
	}
	f.Actions[a] = true
}

// Has returns true if the given action was triggered this frame.
func (f InputFrame) Has(a Action) bool {
	return f.Actions[a]
}

// Click records a mouse press at cell (x, y).
func (f *InputFrame) Click(x, y int) {
	f.Clicks = append(f.Clicks, Cell{X: x, Y: y})
}

// Clear resets the frame for the next tick.
func (f *InputFrame) Clear() {
	for k := range f.Actions {
		delete(f.Actions, k)
	}
	f.Clicks = f.Clicks[:0]
}
