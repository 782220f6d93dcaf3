package loadorder

import (
	"os"
	"sort"
	"strings"

	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/loadordererr"
	"github.com/mod-troubleshooter/loadorder/internal/plugin"
)

// Tier limits shared by every discipline that enforces them (OpenMW
// overrides the normal-plugin cap with its own effectively-unbounded value,
// see maxActiveNormalPlugins).
const (
	MaxActiveNormalPlugins = 255
	MaxActiveLightPlugins  = 4096
	MaxActiveMediumPlugins = 256
)

// maxActiveNormalPlugins returns the normal-plugin tier cap for lo's
// discipline: spec.md §4.4.4 treats OpenMW's content-file limit as
// effectively unbounded rather than subject to the 255-plugin cap the
// other disciplines' plugins.txt/loadorder.txt formats impose.
func (lo *LoadOrder) maxActiveNormalPlugins() int {
	if lo.discipline == game.OpenMWDiscipline {
		return MaxActiveOpenMWPlugins
	}
	return MaxActiveNormalPlugins
}

// insertPosition computes where a not-yet-present plugin should be placed,
// applying the generic rule and then the active discipline's override.
func (lo *LoadOrder) insertPosition(p *plugin.Plugin) int {
	if pos, ok := lo.disciplineInsertPosition(p); ok {
		return pos
	}
	return lo.genericInsertPosition(p)
}

// genericInsertPosition implements spec.md §4.4.1's shared rule: masters go
// before the first non-master, non-masters that some installed master
// declares as a master get hoisted immediately before the earliest such
// master, everything else goes at the end.
func (lo *LoadOrder) genericInsertPosition(p *plugin.Plugin) int {
	if p.IsMasterFile(lo.GameID()) {
		if pos := lo.findFirstNonMasterPosition(); pos >= 0 {
			return pos
		}
		return len(lo.plugins)
	}

	for i, other := range lo.plugins {
		if !other.IsMasterFile(lo.GameID()) {
			continue
		}
		for _, m := range other.Masters() {
			if p.NameMatches(m) {
				return i
			}
		}
	}
	return len(lo.plugins)
}

func (lo *LoadOrder) findFirstNonMasterPosition() int {
	for i, p := range lo.plugins {
		if !p.IsMasterFile(lo.GameID()) {
			return i
		}
	}
	return -1
}

// validateIndex enforces spec.md §4.4.2's master/non-master placement
// legality for inserting or moving p to index.
func (lo *LoadOrder) validateIndex(p *plugin.Plugin, index int) error {
	if p.IsMasterFile(lo.GameID()) {
		return lo.validateMasterFileIndex(p, index)
	}
	return lo.validateNonMasterFileIndex(p, index)
}

func (lo *LoadOrder) validateMasterFileIndex(p *plugin.Plugin, index int) error {
	preceding := lo.plugins
	if index < len(lo.plugins) {
		preceding = lo.plugins[:index]
	}

	previousMasterPos := 0
	for i := len(preceding) - 1; i >= 0; i-- {
		if preceding[i].IsMasterFile(lo.GameID()) {
			previousMasterPos = i
			break
		}
	}

	masterNames := make(map[string]bool, len(p.Masters()))
	for _, m := range p.Masters() {
		masterNames[strings.ToLower(m)] = true
	}

	for i := previousMasterPos + 1; i < len(preceding); i++ {
		if !masterNames[strings.ToLower(preceding[i].Name())] {
			return loadordererr.NonMasterBeforeMaster(preceding[i].Name(), p.Name())
		}
	}

	for i := index; i < len(lo.plugins); i++ {
		other := lo.plugins[i]
		if other.IsMasterFile(lo.GameID()) {
			continue
		}
		if masterNames[strings.ToLower(other.Name())] {
			return loadordererr.UnrepresentedHoist(other.Name(), p.Name())
		}
	}
	return nil
}

func (lo *LoadOrder) validateNonMasterFileIndex(p *plugin.Plugin, index int) error {
	limit := index
	if limit > len(lo.plugins) {
		limit = len(lo.plugins)
	}
	for i := 0; i < limit; i++ {
		master := lo.plugins[i]
		if !master.IsMasterFile(lo.GameID()) {
			continue
		}
		for _, m := range master.Masters() {
			if p.NameMatches(m) {
				return loadordererr.UnrepresentedHoist(p.Name(), master.Name())
			}
		}
	}

	nextMasterPos := -1
	for i := index; i < len(lo.plugins); i++ {
		if lo.plugins[i].IsMasterFile(lo.GameID()) {
			nextMasterPos = i
			break
		}
	}
	if nextMasterPos < 0 {
		return nil
	}

	for _, m := range lo.plugins[nextMasterPos].Masters() {
		if p.NameMatches(m) {
			return nil
		}
	}
	return loadordererr.NonMasterBeforeMaster(p.Name(), lo.plugins[nextMasterPos].Name())
}

// hoistMasters implements spec.md §4.4.3: non-master plugins that some
// already-installed master declares as a master are moved to immediately
// before the earliest such master.
func (lo *LoadOrder) hoistMasters() {
	fromTo := map[int]int{}
	var fromOrder []int

	for index, p := range lo.plugins {
		if !p.IsMasterFile(lo.GameID()) {
			break
		}
		for _, m := range p.Masters() {
			pos := 0
			for i, other := range lo.plugins {
				if other.NameMatches(m) {
					pos = i
					break
				}
			}
			if pos > index && !lo.plugins[pos].IsMasterFile(lo.GameID()) {
				if _, exists := fromTo[pos]; !exists {
					fromOrder = append(fromOrder, pos)
					fromTo[pos] = index
				}
			}
		}
	}

	sort.Ints(fromOrder)
	moveElements(&lo.plugins, fromOrder, fromTo)
}

// moveElements applies the from->to moves in ascending from-index order,
// bumping any not-yet-applied to-index that now falls after the
// target of a completed move, exactly mirroring the original's
// BTreeMap-driven move_elements.
func moveElements(vec *[]*plugin.Plugin, order []int, fromTo map[int]int) {
	remaining := append([]int{}, order...)
	for len(remaining) > 0 {
		fromIndex := remaining[0]
		remaining = remaining[1:]
		toIndex := fromTo[fromIndex]
		delete(fromTo, fromIndex)

		elem := (*vec)[fromIndex]
		*vec = append((*vec)[:fromIndex], (*vec)[fromIndex+1:]...)
		*vec = append((*vec)[:toIndex], append([]*plugin.Plugin{elem}, (*vec)[toIndex:]...)...)

		for i, idx := range remaining {
			if fromTo[idx] > toIndex {
				fromTo[idx]++
			}
			_ = i
		}
	}
}

// findPluginsInDir implements spec.md §4.4.5: every recognised plugin file
// in the data directory, deduplicated against its ".ghost" sibling by
// keeping the first encountered entry in lexicographic scan order. isValid
// (typically plugin.IsValid) filters out files whose extension the game
// doesn't recognise or whose header doesn't parse; a nil isValid admits
// everything, which only the tests do.
func findPluginsInDir(dir string, isValid func(name string) bool) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	seen := map[string]bool{}
	var out []string
	for _, name := range names {
		if isValid != nil && !isValid(name) {
			continue
		}
		key := strings.ToLower(plugin.TrimDotGhost(name))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

func (lo *LoadOrder) countActiveNormalPlugins() int {
	n := 0
	for _, p := range lo.plugins {
		if p.IsActive() && !p.IsLightPlugin() && !p.IsMediumPlugin() && !p.IsOverridePlugin() {
			n++
		}
	}
	return n
}

func (lo *LoadOrder) countActiveLightPlugins() int {
	n := 0
	for _, p := range lo.plugins {
		if p.IsActive() && p.IsLightPlugin() {
			n++
		}
	}
	return n
}

func (lo *LoadOrder) countActiveMediumPlugins() int {
	n := 0
	for _, p := range lo.plugins {
		if p.IsActive() && p.IsMediumPlugin() {
			n++
		}
	}
	return n
}

// getExcessActivePluginIndices implements spec.md §4.4.4: scanning from the
// end towards the start, skipping implicitly-active plugins, collect
// indices to deactivate until every tier is within its limit.
func (lo *LoadOrder) getExcessActivePluginIndices() []int {
	implicit := lo.settings.ImplicitlyActivePlugins()
	normal := lo.countActiveNormalPlugins()
	light := lo.countActiveLightPlugins()
	medium := lo.countActiveMediumPlugins()
	maxNormal := lo.maxActiveNormalPlugins()

	var indices []int
	for i := len(lo.plugins) - 1; i >= 0; i-- {
		if normal <= maxNormal && light <= MaxActiveLightPlugins && medium <= MaxActiveMediumPlugins {
			break
		}
		p := lo.plugins[i]
		if !p.IsActive() {
			continue
		}
		implicitlyActive := false
		for _, name := range implicit {
			if p.NameMatches(name) {
				implicitlyActive = true
				break
			}
		}
		if implicitlyActive || p.IsOverridePlugin() {
			continue
		}

		switch {
		case p.IsLightPlugin() && light > MaxActiveLightPlugins:
			indices = append(indices, i)
			light--
		case p.IsMediumPlugin() && medium > MaxActiveMediumPlugins:
			indices = append(indices, i)
			medium--
		case !p.IsLightPlugin() && !p.IsMediumPlugin() && normal > maxNormal:
			indices = append(indices, i)
			normal--
		}
	}
	return indices
}

func (lo *LoadOrder) deactivateExcessPlugins() {
	for _, i := range lo.getExcessActivePluginIndices() {
		lo.plugins[i].Deactivate()
	}
}

// validateLoadOrder implements spec.md §3's ordering invariant check, used
// by replacePlugins before swapping in a candidate sequence: a forward pass
// confirms every non-master between the first non-master and the last
// master has been hoisted somewhere a master declares it, and a reverse
// pass confirms no master depends on a non-master that loads after it.
func (lo *LoadOrder) validateLoadOrder(plugins []*plugin.Plugin) error {
	firstNonMaster := -1
	for i, p := range plugins {
		if !p.IsMasterFile(lo.GameID()) {
			firstNonMaster = i
			break
		}
	}
	if firstNonMaster < 0 {
		return nil
	}

	lastMaster := -1
	for i := len(plugins) - 1; i >= 0; i-- {
		if plugins[i].IsMasterFile(lo.GameID()) {
			lastMaster = i
			break
		}
	}
	if lastMaster < 0 {
		return nil
	}

	if firstNonMaster < lastMaster {
		pending := map[string]string{}
		for i := firstNonMaster; i <= lastMaster; i++ {
			p := plugins[i]
			if !p.IsMasterFile(lo.GameID()) {
				pending[strings.ToLower(p.Name())] = p.Name()
				continue
			}
			for _, m := range p.Masters() {
				delete(pending, strings.ToLower(m))
			}
			if len(pending) > 0 {
				for _, name := range pending {
					return loadordererr.NonMasterBeforeMaster(name, p.Name())
				}
			}
		}
	}

	active := map[string]bool{}
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if !p.IsMasterFile(lo.GameID()) {
			active[strings.ToLower(p.Name())] = true
			continue
		}
		for _, m := range p.Masters() {
			if active[strings.ToLower(m)] {
				return loadordererr.UnrepresentedHoist(m, p.Name())
			}
		}
	}

	return nil
}
