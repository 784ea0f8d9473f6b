package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/signalmaster/internal/catalog"
	"github.com/vovakirdan/signalmaster/internal/config"
	"github.com/vovakirdan/signalmaster/internal/core"
	"github.com/vovakirdan/signalmaster/internal/game"
	"github.com/vovakirdan/signalmaster/internal/storage"
)

// Game is what the platform hosts. Simulations contain pure logic with no
// Bubble Tea dependency; the platform handles input mapping, timing and
// drawing the screen buffer.
type Game interface {
	// ID identifies the run for score storage.
	ID() string

	// Title returns a human-readable name for display.
	Title() string

	// Reset starts a fresh run.
	Reset(cfg core.RuntimeConfig)

	// Step advances the simulation by one fixed tick.
	Step(in core.InputFrame) core.StepResult

	// Render draws the current state into the screen buffer.
	Render(dst *core.Screen)

	// State returns score, completion and pause status.
	State() core.GameState
}

// resizer is implemented by games that follow the terminal size without a restart.
type resizer interface {
	Resize(w, h int)
}

// summarizer is implemented by games that report more than a score for storage.
type summarizer interface {
	Summary() (score, trains int, minutes float64, completed bool)
}

// Env is everything a terminal session needs to start maps.
type Env struct {
	Catalog *catalog.Catalog
	Sim     config.SimConfig
	Store   *storage.Store // nil runs without score history
	Logger  *log.Logger
}

// NewGame creates a game for the named catalog map.
func (e Env) NewGame(name string) (Game, error) {
	m, err := e.Catalog.Get(name)
	if err != nil {
		return nil, err
	}
	return game.New(m, e.Sim, e.Logger), nil
}

// Model is the Bubble Tea model that runs one map.
type Model struct {
	game       Game
	screen     *core.Screen
	store      *storage.Store
	logger     *log.Logger
	config     core.RuntimeConfig
	keyMapper  *KeyMapper
	inputFrame core.InputFrame
	gameState  core.GameState
	embedded   bool // inside a session: Esc returns to the menu instead of quitting
	quitting   bool
	backToMenu bool
	runSaved   bool // whether the current run has been recorded
}

// NewModel creates a new Bubble Tea model for the given game.
func NewModel(g Game, store *storage.Store, logger *log.Logger, cfg core.RuntimeConfig) Model {
	if logger == nil {
		logger = log.Default()
	}
	return Model{
		game:       g,
		screen:     core.NewScreen(cfg.ScreenW, cfg.ScreenH),
		store:      store,
		logger:     logger,
		config:     cfg,
		keyMapper:  NewKeyMapper(),
		inputFrame: core.NewInputFrame(),
	}
}

// Init starts the run and the tick loop.
func (m Model) Init() tea.Cmd {
	m.game.Reset(m.config)
	return tickCmd(m.config.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.keyMapper.MapMouseToFrame(msg, &m.inputFrame)
		return m, nil

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+s" {
		m.saveScreenshot()
		return m, nil
	}

	if m.keyMapper.MapKeyToFrame(msg, &m.inputFrame) {
		m.recordRun()
		m.quitting = true
		return m, tea.Quit
	}

	if m.inputFrame.Has(core.ActionBack) {
		m.recordRun()
		if !m.embedded {
			m.quitting = true
			return m, tea.Quit
		}
		m.backToMenu = true
	}
	return m, nil
}

// handleResize follows the terminal size. The run keeps going.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.config.ScreenW = msg.Width
	m.config.ScreenH = msg.Height
	m.screen.Resize(msg.Width, msg.Height)
	if r, ok := m.game.(resizer); ok {
		r.Resize(msg.Width, msg.Height)
	}
	return m, nil
}

// handleTick processes simulation ticks.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	restart := m.inputFrame.Has(core.ActionRestart)
	if restart {
		// A restart abandons the current run.
		m.recordRun()
	}

	result := m.game.Step(m.inputFrame)
	m.gameState = result.State
	for _, ev := range result.Events {
		m.logger.Debug("event", "map", m.game.ID(), "msg", ev)
	}

	if restart {
		m.runSaved = false
	}
	if m.gameState.GameOver {
		m.recordRun()
	}

	m.inputFrame.Clear()
	return m, tickCmd(m.config.TickRate)
}

// recordRun saves the current run once. Runs that delivered nothing and did
// not finish are not recorded.
func (m *Model) recordRun() {
	if m.runSaved || m.store == nil {
		return
	}
	run := storage.Run{Map: m.game.ID(), Score: m.gameState.Score, Completed: m.gameState.GameOver}
	if s, ok := m.game.(summarizer); ok {
		run.Score, run.Trains, run.Minutes, run.Completed = s.Summary()
	}
	if run.Score == 0 && !run.Completed {
		return
	}
	m.runSaved = true
	if _, err := m.store.SaveRun(run); err != nil {
		m.logger.Error("could not save run", "map", run.Map, "err", err)
	}
}

// saveScreenshot saves the current screen to a file.
func (m *Model) saveScreenshot() {
	m.game.Render(m.screen)

	dir := filepath.Join(os.Getenv("HOME"), ".signalmaster", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.txt", m.game.ID(), timestamp)
	path := filepath.Join(dir, filename)

	//nolint:errcheck // Best-effort save, the run continues regardless
	os.WriteFile(path, []byte(m.screen.String()), 0o600)
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	m.game.Render(m.screen)
	return RenderScreen(m.screen)
}

// IsQuitting returns true if the user requested to quit entirely.
func (m Model) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if the user requested to go back to the menu.
func (m Model) BackToMenu() bool {
	return m.backToMenu
}

// Run starts the Bubble Tea program with the given game.
func Run(g Game, store *storage.Store, logger *log.Logger, cfg core.RuntimeConfig) error {
	model := NewModel(g, store, logger, cfg)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(), // switches are toggled by clicking them
	)

	_, err := p.Run()
	return err
}
