// Package gamesettings derives, from a game ID and an install location, all
// the per-game facts the load-order engine needs: where plugins live, where
// the active-plugins and load-order control files live, which plugins are
// implicitly active, and which load first no matter what the user does.
package gamesettings

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/gameini"
	"github.com/mod-troubleshooter/loadorder/internal/loadordererr"
	"github.com/mod-troubleshooter/loadorder/internal/userpaths"
	"github.com/mod-troubleshooter/loadorder/internal/winenc"
)

// Settings is the resolved, read-only description of one game installation.
type Settings struct {
	id         game.ID
	discipline game.Discipline

	gamePath  string
	localPath string
	dataDirs  []string

	activePluginsFile string
	loadOrderFile     string

	masterFile        string
	additionalMasters []string
	earlyLoaders      []string
	// extraImplicit holds the INI sTestFileN entries (and, for Starfield,
	// the Creation Club file's contents) that are folded into
	// implicitlyActive alongside the early loaders.
	extraImplicit    []string
	implicitlyActive []string

	// OpenMW-specific; empty for every other game.
	openMWUserConfigDir string
}

// New derives Settings for id given the game's install path. localPath, if
// non-empty, overrides the default per-user config directory (Documents\My
// Games\<Game> on Windows); this is how tests and the OpenMW config chain
// supply an alternate location.
func New(id game.ID, gamePath, localPath string) (*Settings, error) {
	s := &Settings{
		id:         id,
		discipline: id.LoadOrderMethod(),
		gamePath:   gamePath,
	}

	if localPath != "" {
		s.localPath = localPath
	} else {
		s.localPath = defaultLocalPath(id)
	}

	s.dataDirs = []string{filepath.Join(gamePath, dataFolderName(id))}
	s.masterFile = masterFile(id)
	s.earlyLoaders = earlyLoaders(id)

	oblivionTests, err := s.resolveActivePluginsFile()
	if err != nil {
		return nil, err
	}
	s.resolveLoadOrderFile()

	s.extraImplicit, err = s.resolveExtraImplicitPlugins(oblivionTests)
	if err != nil {
		return nil, err
	}
	s.implicitlyActive = append(append([]string{}, s.earlyLoaders...), s.extraImplicit...)

	return s, nil
}

func dataFolderName(id game.ID) string {
	if id == game.Morrowind {
		return "Data Files"
	}
	return "Data"
}

func masterFile(id game.ID) string {
	switch id {
	case game.Morrowind:
		return "Morrowind.esm"
	case game.Oblivion:
		return "Oblivion.esm"
	case game.Skyrim, game.SkyrimSE, game.SkyrimVR:
		return "Skyrim.esm"
	case game.Fallout3:
		return "Fallout3.esm"
	case game.FalloutNV:
		return "FalloutNV.esm"
	case game.Fallout4, game.Fallout4VR:
		return "Fallout4.esm"
	case game.Starfield:
		return "Starfield.esm"
	default:
		return ""
	}
}

// earlyLoaders returns the plugins that must occupy a fixed position at the
// front of the load order, in that order, regardless of user edits.
func earlyLoaders(id game.ID) []string {
	switch id {
	case game.SkyrimSE, game.SkyrimVR:
		return []string{"Skyrim.esm", "Update.esm", "Dawnguard.esm", "HearthFires.esm", "Dragonborn.esm", "_ResourcePack.esl"}
	case game.Fallout4, game.Fallout4VR:
		return []string{"Fallout4.esm", "DLCRobot.esm", "DLCworkshop01.esm", "DLCCoast.esm", "DLCworkshop02.esm", "DLCworkshop03.esm", "DLCNukaWorld.esm", "DLCUltraHighResolution.esm"}
	case game.Starfield:
		return []string{"Starfield.esm", "BlueprintShips-Starfield.esm", "OldMars.esm", "Constellation.esm", "SFBGS003.esm", "SFBGS006.esm", "SFBGS007.esm", "SFBGS008.esm"}
	case game.Skyrim:
		return []string{"Skyrim.esm", "Update.esm"}
	case game.Oblivion:
		return []string{"Oblivion.esm"}
	case game.Fallout3:
		return []string{"Fallout3.esm"}
	case game.FalloutNV:
		return []string{"FalloutNV.esm"}
	default:
		return nil
	}
}

func defaultLocalPath(id game.ID) string {
	switch id {
	case game.Morrowind:
		return "" // Morrowind keeps everything next to the install.
	case game.OpenMW:
		return userpaths.DefaultOpenMWUserConfigDir()
	default:
		return userpaths.MyGamesDir(myGamesFolderName(id))
	}
}

func myGamesFolderName(id game.ID) string {
	switch id {
	case game.Oblivion:
		return "Oblivion"
	case game.Skyrim:
		return "Skyrim"
	case game.SkyrimSE:
		return "Skyrim Special Edition"
	case game.SkyrimVR:
		return "Skyrim VR"
	case game.Fallout3:
		return "Fallout3"
	case game.FalloutNV:
		return "FalloutNV"
	case game.Fallout4:
		return "Fallout4"
	case game.Fallout4VR:
		return "Fallout4VR"
	case game.Starfield:
		return "Starfield"
	default:
		return id.String()
	}
}

// resolveActivePluginsFile implements the per-game logic for where the
// active-plugins list lives, including Oblivion's bUseMyGamesDirectory
// check against Oblivion.ini. For Oblivion it also returns the sTestFileN
// entries read from whichever Oblivion.ini was settled on, so New can fold
// them into the implicitly-active list without re-deciding the path.
func (s *Settings) resolveActivePluginsFile() (gameini.TestFiles, error) {
	switch s.id {
	case game.Morrowind:
		s.activePluginsFile = filepath.Join(s.gamePath, "Morrowind.ini")
		return gameini.TestFiles{}, nil
	case game.Oblivion:
		useMyGames, gameTests, err := gameini.ReadOblivionIni(filepath.Join(s.gamePath, "Oblivion.ini"))
		if err != nil {
			return gameini.TestFiles{}, err
		}
		tests := gameTests
		base := s.gamePath
		if useMyGames {
			base = s.localPath
			_, localTests, err := gameini.ReadOblivionIni(filepath.Join(s.localPath, "Oblivion.ini"))
			if err != nil {
				return gameini.TestFiles{}, err
			}
			tests = localTests
		}
		s.activePluginsFile = filepath.Join(base, "plugins.txt")
		return tests, nil
	case game.OpenMW:
		s.activePluginsFile = "" // active plugins live in openmw.cfg's content= lines instead.
		return gameini.TestFiles{}, nil
	default:
		s.activePluginsFile = filepath.Join(s.localPath, "plugins.txt")
		return gameini.TestFiles{}, nil
	}
}

// resolveExtraImplicitPlugins derives the sTestFileN fallback list (and, for
// Starfield, the Creation Club file) that the engine folds into the
// implicitly-active set alongside the fixed early loaders. oblivionTests is
// the result resolveActivePluginsFile already read for Oblivion, reused here
// so the ini isn't parsed twice.
func (s *Settings) resolveExtraImplicitPlugins(oblivionTests gameini.TestFiles) ([]string, error) {
	switch s.id {
	case game.Oblivion:
		return gameini.Merge(gameini.TestFiles{}, oblivionTests), nil
	case game.Skyrim, game.SkyrimSE:
		return s.mergedTestFiles("Skyrim.ini", "")
	case game.SkyrimVR:
		return s.mergedTestFiles("SkyrimVR.ini", "")
	case game.Fallout3:
		return s.mergedTestFiles("FALLOUT.INI", "")
	case game.FalloutNV:
		return s.mergedTestFiles("Fallout.ini", "")
	case game.Fallout4:
		return s.mergedTestFiles("Fallout4.ini", "Fallout4Custom.ini")
	case game.Fallout4VR:
		return s.mergedTestFiles("Fallout4VR.ini", "Fallout4VRCustom.ini")
	case game.Starfield:
		names, err := s.mergedTestFiles("Starfield.ini", "StarfieldCustom.ini")
		if err != nil {
			return nil, err
		}
		ccc, err := readCreationClubFile(filepath.Join(s.gamePath, "Starfield.ccc"))
		if err != nil {
			return nil, err
		}
		return append(names, ccc...), nil
	default:
		return nil, nil // Morrowind and OpenMW have no INI test-file fallback.
	}
}

// mergedTestFiles reads baseName from the local (My Games) directory and, if
// customName is non-empty, reads it too and lets its entries override
// base's, mirroring the engine's base-ini-plus-custom-ini convention.
func (s *Settings) mergedTestFiles(baseName, customName string) ([]string, error) {
	base, err := gameini.ReadTestFiles(filepath.Join(s.localPath, baseName))
	if err != nil {
		return nil, err
	}
	if customName == "" {
		return gameini.Merge(gameini.TestFiles{}, base), nil
	}
	custom, err := gameini.ReadTestFiles(filepath.Join(s.localPath, customName))
	if err != nil {
		return nil, err
	}
	for i, name := range custom {
		if strings.TrimSpace(name) != "" {
			base[i] = name
		}
	}
	return gameini.Merge(gameini.TestFiles{}, base), nil
}

// readCreationClubFile reads a Bethesda .ccc file: one plugin filename per
// line, blank lines ignored. A missing file yields no entries.
func readCreationClubFile(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, loadordererr.IOError(path, err)
	}
	decoded, err := winenc.Decode(raw)
	if err != nil {
		return nil, loadordererr.DecodeError(path, err)
	}

	var names []string
	for _, line := range strings.Split(decoded, "\n") {
		line = strings.TrimRight(strings.TrimSpace(line), "\r")
		if line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

func (s *Settings) resolveLoadOrderFile() {
	if s.id == game.Skyrim {
		s.loadOrderFile = filepath.Join(s.localPath, "loadorder.txt")
	}
}

// RefreshImplicitlyActivePlugins recomputes which plugins must always be
// active because the game depends on them, re-reading the game's Data
// folder for DLC detection where relevant. The master file, any early
// loaders, and any INI test files or Starfield Creation Club entries that
// are present on disk are included; everything else is dropped.
func (s *Settings) RefreshImplicitlyActivePlugins(existsInData func(filename string) bool) {
	active := make([]string, 0, len(s.earlyLoaders)+len(s.extraImplicit)+1)
	seen := map[string]bool{}
	add := func(name string) {
		if name == "" {
			return
		}
		key := strings.ToLower(name)
		if seen[key] {
			return
		}
		seen[key] = true
		active = append(active, name)
	}

	if s.masterFile != "" && existsInData(s.masterFile) {
		add(s.masterFile)
	}
	for _, p := range s.earlyLoaders {
		if existsInData(p) {
			add(p)
		}
	}
	for _, p := range s.extraImplicit {
		if existsInData(p) {
			add(p)
		}
	}
	s.implicitlyActive = active
}

// Accessors.

func (s *Settings) ID() game.ID                 { return s.id }
func (s *Settings) Discipline() game.Discipline  { return s.discipline }
func (s *Settings) GamePath() string             { return s.gamePath }
func (s *Settings) LocalPath() string            { return s.localPath }
func (s *Settings) DataDirs() []string           { return s.dataDirs }
func (s *Settings) ActivePluginsFile() string    { return s.activePluginsFile }
func (s *Settings) LoadOrderFile() string        { return s.loadOrderFile }
func (s *Settings) MasterFile() string           { return s.masterFile }
func (s *Settings) EarlyLoaders() []string       { return s.earlyLoaders }
func (s *Settings) ImplicitlyActivePlugins() []string { return s.implicitlyActive }
func (s *Settings) AllowsGhosting() bool         { return s.id.AllowsGhosting() }

// Validate checks that the paths this Settings depends on actually exist,
// returning a loadordererr.Error of kind InstallPathNotFound or
// LocalPathNotFound as appropriate.
func (s *Settings) Validate(exists func(string) bool) error {
	if !exists(s.gamePath) {
		return loadordererr.InstallPathNotFound(s.gamePath)
	}
	if s.localPath != "" && s.id != game.Morrowind && !exists(s.localPath) {
		return loadordererr.LocalPathNotFound(s.localPath)
	}
	return nil
}
