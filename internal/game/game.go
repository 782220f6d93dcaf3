// Package game holds the small set of facts that distinguish the eleven
// supported games: which ordering discipline they use, whether they support
// light/medium plugin tiers, and whether ghosting applies.
package game

import "fmt"

// ID discriminates the supported games.
type ID int

const (
	Morrowind ID = iota + 1
	Oblivion
	Skyrim
	Fallout3
	FalloutNV
	Fallout4
	SkyrimSE
	Fallout4VR
	SkyrimVR
	Starfield
	OpenMW
)

func (id ID) String() string {
	switch id {
	case Morrowind:
		return "Morrowind"
	case Oblivion:
		return "Oblivion"
	case Skyrim:
		return "Skyrim"
	case Fallout3:
		return "Fallout3"
	case FalloutNV:
		return "FalloutNV"
	case Fallout4:
		return "Fallout4"
	case SkyrimSE:
		return "SkyrimSE"
	case Fallout4VR:
		return "Fallout4VR"
	case SkyrimVR:
		return "SkyrimVR"
	case Starfield:
		return "Starfield"
	case OpenMW:
		return "OpenMW"
	default:
		return fmt.Sprintf("ID(%d)", int(id))
	}
}

// Discipline is the per-game policy for computing and persisting the load
// order.
type Discipline int

const (
	Timestamp Discipline = iota
	Textfile
	Asterisk
	OpenMWDiscipline
)

func (d Discipline) String() string {
	switch d {
	case Timestamp:
		return "Timestamp"
	case Textfile:
		return "Textfile"
	case Asterisk:
		return "Asterisk"
	case OpenMWDiscipline:
		return "OpenMW"
	default:
		return "Unknown"
	}
}

// LoadOrderMethod returns the discipline used to compute and persist the
// load order for this game.
func (id ID) LoadOrderMethod() Discipline {
	switch id {
	case Morrowind, Oblivion, Fallout3, FalloutNV:
		return Timestamp
	case Skyrim:
		return Textfile
	case SkyrimSE, Fallout4, Fallout4VR, SkyrimVR, Starfield:
		return Asterisk
	case OpenMW:
		return OpenMWDiscipline
	default:
		return Timestamp
	}
}

// SupportsLightPlugins reports whether the game recognises the ESL/light
// addressing tier.
func (id ID) SupportsLightPlugins() bool {
	switch id {
	case Fallout4, Fallout4VR, SkyrimSE, SkyrimVR, Starfield:
		return true
	default:
		return false
	}
}

// SupportsMediumPlugins reports whether the game recognises the
// Starfield-only medium tier.
func (id ID) SupportsMediumPlugins() bool {
	return id == Starfield
}

// SupportsBlueprintPlugins reports whether the game has the Starfield-only
// blueprint tier.
func (id ID) SupportsBlueprintPlugins() bool {
	return id == Starfield
}

// AllowsGhosting reports whether plugins may carry the ".ghost" suffix.
// Every game does except OpenMW.
func (id ID) AllowsGhosting() bool {
	return id != OpenMW
}

// PluginExtensions lists the recognised plugin file extensions for the
// game, lowercase and without the leading dot.
func (id ID) PluginExtensions() []string {
	if id == OpenMW {
		return []string{"esm", "esp", "omwgame", "omwaddon", "omwscripts"}
	}
	if id.SupportsLightPlugins() {
		return []string{"esm", "esp", "esl"}
	}
	return []string{"esm", "esp"}
}
