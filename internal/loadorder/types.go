// Package loadorder is the core engine: a total order over a game's
// installed plugins plus an active flag per plugin, editable subject to
// per-game validity rules and persisted in each game's native on-disk
// format. One LoadOrder instance corresponds to one C-ABI "handle" in the
// original design; here it is just a Go value owned by its caller (see
// internal/handle for the concurrent-session wrapper used by the server).
package loadorder

import (
	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/gamesettings"
	"github.com/mod-troubleshooter/loadorder/internal/headerparser"
	"github.com/mod-troubleshooter/loadorder/internal/plugin"
)

// State is the lifecycle of a LoadOrder instance.
type State int

const (
	Empty State = iota
	Loaded
	Dirty
)

func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case Loaded:
		return "Loaded"
	case Dirty:
		return "Dirty"
	default:
		return "Unknown"
	}
}

// LoadOrder is the total order over one game's installed plugins. Its
// behaviour is dispatched on Discipline rather than through an interface
// hierarchy: the four disciplines differ only in insertion position,
// load/save format and a couple of predicates, and a single tagged struct
// keeps that variation in one place instead of spread across four
// near-identical implementations.
type LoadOrder struct {
	settings *gamesettings.Settings
	parser   headerparser.Parser

	discipline game.Discipline
	state      State

	plugins []*plugin.Plugin

	// earlyLoaders mirrors settings.EarlyLoaders() for quick lookup; kept
	// here rather than re-derived so tests can override it independently
	// of a full Settings value.
	earlyLoaders []string

	// openmw holds the resolved layered config state; nil for every other
	// discipline.
	openmw *openmwState
}

// New constructs an empty LoadOrder for settings, using parser to read
// plugin headers.
func New(settings *gamesettings.Settings, parser headerparser.Parser) *LoadOrder {
	return &LoadOrder{
		settings:     settings,
		parser:       parser,
		discipline:   settings.Discipline(),
		state:        Empty,
		earlyLoaders: settings.EarlyLoaders(),
	}
}

func (lo *LoadOrder) State() State             { return lo.state }
func (lo *LoadOrder) Discipline() game.Discipline { return lo.discipline }
func (lo *LoadOrder) GameID() game.ID           { return lo.settings.ID() }
func (lo *LoadOrder) Settings() *gamesettings.Settings { return lo.settings }

func (lo *LoadOrder) markDirty() {
	lo.state = Dirty
}
