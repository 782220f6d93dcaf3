package loadorder

import (
	"github.com/mod-troubleshooter/loadorder/internal/plugin"
)

// PluginNames returns the canonical names of every installed plugin, in
// load order.
func (lo *LoadOrder) PluginNames() []string {
	names := make([]string, len(lo.plugins))
	for i, p := range lo.plugins {
		names[i] = p.Name()
	}
	return names
}

// IndexOf returns the position of name (case-insensitive, ignoring a
// ".ghost" suffix) or -1 if it is not installed.
func (lo *LoadOrder) IndexOf(name string) int {
	for i, p := range lo.plugins {
		if p.NameMatches(name) {
			return i
		}
	}
	return -1
}

// PluginAt returns the plugin at index i, or nil if i is out of range.
func (lo *LoadOrder) PluginAt(i int) *plugin.Plugin {
	if i < 0 || i >= len(lo.plugins) {
		return nil
	}
	return lo.plugins[i]
}

// ActivePluginNames returns the canonical names of active plugins,
// preserving load order.
func (lo *LoadOrder) ActivePluginNames() []string {
	var names []string
	for _, p := range lo.plugins {
		if p.IsActive() {
			names = append(names, p.Name())
		}
	}
	return names
}

// IsActive reports whether name is both installed and active.
func (lo *LoadOrder) IsActive(name string) bool {
	i := lo.IndexOf(name)
	if i < 0 {
		return false
	}
	return lo.plugins[i].IsActive()
}
