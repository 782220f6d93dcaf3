package loadorder

import (
	"strings"

	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/loadordererr"
	"github.com/mod-troubleshooter/loadorder/internal/plugin"
)

// Load implements spec.md §4.5's load() contract: it clears the in-memory
// sequence, reads the discipline's on-disk control files, scans the data
// directory for anything not already listed, enforces implicit activation,
// hoists masters and trims excess active plugins. It is idempotent with
// respect to disk state.
func (lo *LoadOrder) Load() error {
	lo.plugins = nil

	if err := lo.disciplineLoad(); err != nil {
		return err
	}

	lo.hoistMasters()
	lo.deactivateExcessPlugins()

	lo.state = Loaded
	return nil
}

// Save persists the in-memory sequence to disk in the discipline's native
// format. It creates parent directories as needed. On failure, disk state
// is undefined and the in-memory model is unchanged; a subsequent Load is
// the recovery primitive.
func (lo *LoadOrder) Save() error {
	if err := lo.disciplineSave(); err != nil {
		return err
	}
	lo.state = Loaded
	return nil
}

// Add installs name into the sequence at its computed position. It fails
// if name is already present.
func (lo *LoadOrder) Add(name string) error {
	if lo.IndexOf(name) >= 0 {
		return loadordererr.DuplicatePlugin(name)
	}

	p, err := plugin.New(lo.resolvePath(name), lo.parser, false)
	if err != nil {
		return err
	}

	pos := lo.insertPosition(p)
	if err := lo.validateIndex(p, pos); err != nil {
		return err
	}

	lo.insertAt(pos, p)
	lo.markDirty()
	return nil
}

func (lo *LoadOrder) insertAt(pos int, p *plugin.Plugin) {
	if pos >= len(lo.plugins) {
		lo.plugins = append(lo.plugins, p)
		return
	}
	lo.plugins = append(lo.plugins, nil)
	copy(lo.plugins[pos+1:], lo.plugins[pos:])
	lo.plugins[pos] = p
}

// Remove uninstalls the named plugin from the in-memory sequence. It
// rejects removal if the file still exists on disk (the caller is meant to
// uninstall first) or if removing it would leave a later master's
// declared-master reference unrepresented.
func (lo *LoadOrder) Remove(name string) error {
	i := lo.IndexOf(name)
	if i < 0 {
		return loadordererr.PluginNotFound(name)
	}

	if pathExists(lo.plugins[i].Path()) {
		return loadordererr.InstalledPlugin(name)
	}

	candidate := append(append([]*plugin.Plugin{}, lo.plugins[:i]...), lo.plugins[i+1:]...)
	if err := lo.validateLoadOrder(candidate); err != nil {
		return err
	}

	lo.plugins = candidate
	lo.markDirty()
	return nil
}

// SetLoadOrder fully replaces the sequence via §4.4.6's replace-plugins
// algorithm. For textfile and asterisk disciplines the first element must
// be the game's main master (OpenMW is exempt).
func (lo *LoadOrder) SetLoadOrder(names []string) error {
	if (lo.discipline == game.Textfile || lo.discipline == game.Asterisk) && len(names) > 0 {
		if !strings.EqualFold(plugin.TrimDotGhost(names[0]), lo.settings.MasterFile()) {
			return loadordererr.GameMasterMustLoadFirst(lo.settings.MasterFile())
		}
	}
	return lo.replacePlugins(names)
}

// replacePlugins implements spec.md §4.4.6: rejects duplicates, resolves
// each name to a Plugin (reusing an existing record to preserve active
// state), validates the candidate order, and only swaps in on success.
func (lo *LoadOrder) replacePlugins(names []string) error {
	seen := map[string]bool{}
	for _, n := range names {
		key := strings.ToLower(plugin.TrimDotGhost(n))
		if seen[key] {
			return loadordererr.DuplicatePlugin(n)
		}
		seen[key] = true
	}

	candidate := make([]*plugin.Plugin, 0, len(names))
	for _, n := range names {
		if i := lo.IndexOf(n); i >= 0 {
			candidate = append(candidate, lo.plugins[i])
			continue
		}
		p, err := plugin.New(lo.resolvePath(n), lo.parser, false)
		if err != nil {
			return loadordererr.InvalidPlugin(n)
		}
		candidate = append(candidate, p)
	}

	if err := lo.validateLoadOrder(candidate); err != nil {
		return err
	}

	lo.plugins = candidate
	lo.markDirty()
	return nil
}

// SetPluginIndex moves or inserts name so it ends up at exactly pos
// (clamped to the end), preserving its active bit if it already exists. It
// rejects moving the main master away from index 0 on textfile/asterisk
// disciplines.
func (lo *LoadOrder) SetPluginIndex(name string, pos int) error {
	if pos < 0 {
		pos = 0
	}
	if pos > len(lo.plugins) {
		pos = len(lo.plugins)
	}

	if (lo.discipline == game.Textfile || lo.discipline == game.Asterisk) &&
		strings.EqualFold(plugin.TrimDotGhost(name), lo.settings.MasterFile()) && pos != 0 {
		return loadordererr.GameMasterMustLoadFirst(name)
	}

	existingIdx := lo.IndexOf(name)
	if existingIdx >= 0 && existingIdx == pos {
		return nil
	}

	var p *plugin.Plugin
	if existingIdx >= 0 {
		p = lo.plugins[existingIdx]
	} else {
		var err error
		p, err = plugin.New(lo.resolvePath(name), lo.parser, false)
		if err != nil {
			return err
		}
	}

	if err := lo.validateIndex(p, pos); err != nil {
		return err
	}

	if existingIdx >= 0 {
		lo.plugins = append(lo.plugins[:existingIdx], lo.plugins[existingIdx+1:]...)
	}
	lo.insertAt(pos, p)
	lo.markDirty()
	return nil
}

// Activate marks name active, enforcing tier limits before flipping the
// bit.
func (lo *LoadOrder) Activate(name string) error {
	i := lo.IndexOf(name)
	if i < 0 {
		return loadordererr.PluginNotFound(name)
	}
	if lo.plugins[i].IsActive() {
		return nil
	}
	if err := lo.checkTierLimitsForActivating(lo.plugins[i]); err != nil {
		return err
	}
	if err := lo.plugins[i].Activate(); err != nil {
		return err
	}
	lo.markDirty()
	return nil
}

// Deactivate marks name inactive. Deactivating an implicitly-active plugin
// fails.
func (lo *LoadOrder) Deactivate(name string) error {
	i := lo.IndexOf(name)
	if i < 0 {
		return loadordererr.PluginNotFound(name)
	}
	for _, implicit := range lo.settings.ImplicitlyActivePlugins() {
		if lo.plugins[i].NameMatches(implicit) {
			return loadordererr.ImplicitlyActivePlugin(name)
		}
	}
	lo.plugins[i].Deactivate()
	lo.markDirty()
	return nil
}

func (lo *LoadOrder) checkTierLimitsForActivating(p *plugin.Plugin) error {
	if p.IsOverridePlugin() {
		return nil
	}
	switch {
	case p.IsLightPlugin() && lo.countActiveLightPlugins()+1 > MaxActiveLightPlugins:
		return loadordererr.TooManyActivePlugins(lo.countActiveNormalPlugins(), lo.countActiveLightPlugins()+1, lo.countActiveMediumPlugins())
	case p.IsMediumPlugin() && lo.countActiveMediumPlugins()+1 > MaxActiveMediumPlugins:
		return loadordererr.TooManyActivePlugins(lo.countActiveNormalPlugins(), lo.countActiveLightPlugins(), lo.countActiveMediumPlugins()+1)
	case !p.IsLightPlugin() && !p.IsMediumPlugin() && lo.countActiveNormalPlugins()+1 > lo.maxActiveNormalPlugins():
		return loadordererr.TooManyActivePlugins(lo.countActiveNormalPlugins()+1, lo.countActiveLightPlugins(), lo.countActiveMediumPlugins())
	}
	return nil
}

// SetActivePlugins replaces the active set wholesale: it validates that the
// requested set fits within every tier limit and includes every installed
// implicitly-active plugin, then clears all active bits and activates
// exactly the given set.
func (lo *LoadOrder) SetActivePlugins(names []string) error {
	var normal, light, medium int
	want := map[string]bool{}
	for _, n := range names {
		want[strings.ToLower(plugin.TrimDotGhost(n))] = true
	}

	for _, n := range names {
		i := lo.IndexOf(n)
		if i < 0 {
			return loadordererr.PluginNotFound(n)
		}
		p := lo.plugins[i]
		switch {
		case p.IsOverridePlugin():
		case p.IsLightPlugin():
			light++
		case p.IsMediumPlugin():
			medium++
		default:
			normal++
		}
	}
	if normal > lo.maxActiveNormalPlugins() || light > MaxActiveLightPlugins || medium > MaxActiveMediumPlugins {
		return loadordererr.TooManyActivePlugins(normal, light, medium)
	}

	for _, implicit := range lo.settings.ImplicitlyActivePlugins() {
		if lo.IndexOf(implicit) < 0 {
			continue // not installed; nothing to require
		}
		if !want[strings.ToLower(plugin.TrimDotGhost(implicit))] {
			return loadordererr.ImplicitlyActivePlugin(implicit)
		}
	}

	for _, p := range lo.plugins {
		p.Deactivate()
	}
	for _, n := range names {
		if i := lo.IndexOf(n); i >= 0 {
			if err := lo.plugins[i].Activate(); err != nil {
				return err
			}
		}
	}
	lo.markDirty()
	return nil
}

// IsSelfConsistent reports whether the load-order and active-plugins files
// agree on relative order. Only the textfile discipline can disagree; every
// other discipline always returns true.
func (lo *LoadOrder) IsSelfConsistent() (bool, error) {
	return lo.disciplineIsSelfConsistent()
}

// IsAmbiguous reports whether different readers of the same disk state
// could infer different total orders (timestamp ties, OpenMW's
// insensitivity to inactive-plugin order, and similar discipline-specific
// cases).
func (lo *LoadOrder) IsAmbiguous() bool {
	return lo.disciplineIsAmbiguous()
}
