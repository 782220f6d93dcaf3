package loadorder

import (
	"path/filepath"
	"strings"

	"github.com/mod-troubleshooter/loadorder/internal/openmwcfg"
	"github.com/mod-troubleshooter/loadorder/internal/plugin"
)

// openmwState holds the resolved layered config and the set of data paths
// the user-writable config is responsible for (as opposed to paths
// inherited from a read-only lower layer), so Save writes data= lines only
// for the paths the user config itself declares.
type openmwState struct {
	fixed  openmwcfg.FixedPaths
	cfg    *openmwcfg.Config
	userDataPaths []string
}

// MaxActiveOpenMWPlugins mirrors the original's effectively-unbounded
// content-file limit.
const MaxActiveOpenMWPlugins = 0x7FFFFFFE

func (lo *LoadOrder) openmwLoad() error {
	fixed := openmwcfg.NewFixedPaths(lo.settings.GamePath())
	cfg, err := openmwcfg.Load(fixed)
	if err != nil {
		return err
	}

	dataPaths := cfg.DataPaths()
	if len(dataPaths) == 0 {
		dataPaths = []string{lo.settings.GamePath()}
	}
	content := cfg.ContentEntries()

	// DataPaths yields one path per data= entry, in entry order; keep only
	// those declared by the user config itself.
	var userDataPaths []string
	dataIdx := 0
	for _, e := range cfg.Entries {
		if e.Key != "data" {
			continue
		}
		if e.SourceDir == cfg.UserConfigDir && dataIdx < len(dataPaths) {
			userDataPaths = append(userDataPaths, dataPaths[dataIdx])
		}
		dataIdx++
	}

	lo.openmw = &openmwState{fixed: fixed, cfg: cfg, userDataPaths: userDataPaths}

	// Dedup by filename across data directories, keeping the first
	// occurrence for listing order (per spec.md §4.4.5's OpenMW rule)
	// while the resolved path always points at the last directory a
	// plugin of that name appears in.
	seen := map[string]string{}
	var orderedNames []string
	for _, dir := range dataPaths {
		isValid := func(name string) bool {
			return plugin.IsValid(filepath.Join(dir, name), lo.GameID(), lo.parser)
		}
		for _, name := range findPluginsInDir(dir, isValid) {
			key := strings.ToLower(plugin.TrimDotGhost(name))
			if _, ok := seen[key]; !ok {
				orderedNames = append(orderedNames, name)
			}
			seen[key] = dir
		}
	}

	activeNames := content

	sequence, err := lo.buildInstalledSequenceFromDirs(orderedNames, seen, activeNames)
	if err != nil {
		return err
	}
	lo.plugins = sequence

	lo.applyOpenMWLoadOrder(content)

	return lo.forceImplicitlyActive()
}

// buildInstalledSequenceFromDirs is the OpenMW-specific analogue of
// buildInstalledSequence: each name's resolved path comes from the last
// data directory it was found in rather than settings.DataDirs()'s single
// directory.
func (lo *LoadOrder) buildInstalledSequenceFromDirs(orderedNames []string, dirByName map[string]string, activeNames []string) ([]*plugin.Plugin, error) {
	active := map[string]bool{}
	for _, n := range activeNames {
		active[strings.ToLower(plugin.TrimDotGhost(n))] = true
	}

	var sequence []*plugin.Plugin
	for _, name := range orderedNames {
		key := strings.ToLower(plugin.TrimDotGhost(name))
		dir := dirByName[key]
		path := filepath.Join(dir, name)
		p, err := plugin.New(path, lo.parser, active[key])
		if err != nil {
			continue
		}
		sequence = append(sequence, p)
	}
	return sequence, nil
}

// applyOpenMWLoadOrder implements spec.md §4.9's apply_load_order: game-file
// hoisting, Tribunal/Bloodmoon reordering, a backward-scan hoist pass with a
// visited set to guarantee termination, and a final active-subsequence
// reorder to match content order.
func (lo *LoadOrder) applyOpenMWLoadOrder(content []string) {
	lo.hoistGameFile()
	lo.hoistTribunalBeforeBloodmoon()
	lo.openmwHoistDeclaredMasters()
	lo.reorderActiveSubsequence(content)
}

// hoistGameFile moves the first plugin with a recognised game-file
// extension and no declared masters immediately after the early-loader
// prefix (there being none for OpenMW, to the front).
func (lo *LoadOrder) hoistGameFile() {
	for i, p := range lo.plugins {
		if len(p.Masters()) > 0 {
			continue
		}
		if !isGameFileExtension(p.Path()) {
			continue
		}
		if i == 0 {
			return
		}
		moved := lo.plugins[i]
		lo.plugins = append(lo.plugins[:i], lo.plugins[i+1:]...)
		lo.plugins = append([]*plugin.Plugin{moved}, lo.plugins...)
		return
	}
}

func isGameFileExtension(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".esm") || strings.HasSuffix(lower, ".omwgame")
}

func (lo *LoadOrder) hoistTribunalBeforeBloodmoon() {
	ti, bi := -1, -1
	for i, p := range lo.plugins {
		if strings.EqualFold(p.Name(), "Tribunal.esm") {
			ti = i
		}
		if strings.EqualFold(p.Name(), "Bloodmoon.esm") {
			bi = i
		}
	}
	if ti < 0 || bi < 0 || ti < bi {
		return
	}
	moved := lo.plugins[ti]
	lo.plugins = append(lo.plugins[:ti], lo.plugins[ti+1:]...)
	if bi > ti {
		bi--
	}
	lo.plugins = append(lo.plugins[:bi], append([]*plugin.Plugin{moved}, lo.plugins[bi:]...)...)
}

// openmwHoistDeclaredMasters scans from the end towards the start; for
// every plugin, if any earlier plugin declares it as a master, it is moved
// to just before that earlier plugin. A visited set stops the same plugin
// being considered for a move more than once per pass, guaranteeing
// termination.
func (lo *LoadOrder) openmwHoistDeclaredMasters() {
	moved := map[string]bool{}

	for i := len(lo.plugins) - 1; i >= 0; i-- {
		p := lo.plugins[i]
		key := strings.ToLower(p.Name())
		if moved[key] {
			continue
		}

		earliestDependent := -1
		for j := 0; j < i; j++ {
			for _, m := range lo.plugins[j].Masters() {
				if p.NameMatches(m) {
					earliestDependent = j
					break
				}
			}
			if earliestDependent >= 0 {
				break
			}
		}
		if earliestDependent < 0 {
			continue
		}

		lo.plugins = append(lo.plugins[:i], lo.plugins[i+1:]...)
		lo.plugins = append(lo.plugins[:earliestDependent], append([]*plugin.Plugin{p}, lo.plugins[earliestDependent:]...)...)
		moved[key] = true
		i = len(lo.plugins) // restart the scan from the end.
	}
}

// reorderActiveSubsequence implements step 4: scanning content in order,
// ensure each next active plugin appears at an index >= the previous one,
// moving it later when necessary.
func (lo *LoadOrder) reorderActiveSubsequence(content []string) {
	minIndex := 0
	for _, name := range content {
		idx := -1
		for i, p := range lo.plugins {
			if p.NameMatches(name) {
				idx = i
				break
			}
		}
		if idx < 0 || idx >= minIndex {
			if idx >= 0 {
				minIndex = idx + 1
			}
			continue
		}

		moved := lo.plugins[idx]
		lo.plugins = append(lo.plugins[:idx], lo.plugins[idx+1:]...)
		insertAt := minIndex
		if insertAt > len(lo.plugins) {
			insertAt = len(lo.plugins)
		}
		lo.plugins = append(lo.plugins[:insertAt], append([]*plugin.Plugin{moved}, lo.plugins[insertAt:]...)...)
		minIndex = insertAt + 1
	}
}

// openmwSave rewrites openmw.cfg: unknown keys are preserved, data= and
// content= entries are replaced wholesale. Only user-controlled data paths
// (as opposed to paths inherited from a read-only lower-layer config) are
// written.
func (lo *LoadOrder) openmwSave() error {
	if lo.openmw == nil {
		return nil
	}
	return openmwcfg.Save(lo.openmw.cfg.UserConfigDir, lo.openmw.cfg.Entries, lo.openmw.userDataPaths, lo.ActivePluginNames())
}

func (lo *LoadOrder) openmwIsAmbiguous() bool {
	// Inactive plugin order beyond what the engine derives from directory
	// scanning and master hoisting has no on-disk representation, so two
	// readers of the same state can disagree about it.
	return true
}
