package loadorder

import (
	"os"
	"strings"

	"github.com/mod-troubleshooter/loadorder/internal/loadordererr"
	"github.com/mod-troubleshooter/loadorder/internal/plugin"
	"github.com/mod-troubleshooter/loadorder/internal/winenc"
)

// readPluginNames reads path as Windows-1252 text and applies lineMapper to
// each line, skipping lines lineMapper rejects. A missing file yields an
// empty, non-error result, matching the original engine's read_plugin_names.
func readPluginNames(path string, lineMapper func(line string) (string, bool)) ([]string, error) {
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

	var out []string
	for _, line := range strings.Split(decoded, "\n") {
		line = strings.TrimRight(line, "\r")
		if name, ok := lineMapper(line); ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// pluginLineMapper implements the shared "blank lines and '#' comments are
// skipped, everything else is a bare filename" rule used by the
// textfile/timestamp disciplines' plain lists.
func pluginLineMapper(line string) (string, bool) {
	if line == "" || strings.HasPrefix(line, "#") {
		return "", false
	}
	return line, true
}

// buildInstalledSequence implements the common shape of load(): given the
// ordered list of names the control file(s) declare active/present, and
// the data-directory scan, it constructs Plugin records (marking those named
// in activeNames active) in the declared order, inserts anything on disk
// that wasn't already named at its insertPosition, and returns the
// assembled sequence.
func (lo *LoadOrder) buildInstalledSequence(orderedNames []string, activeNames []string) ([]*plugin.Plugin, error) {
	active := map[string]bool{}
	for _, n := range activeNames {
		active[strings.ToLower(plugin.TrimDotGhost(n))] = true
	}

	seen := map[string]bool{}
	var sequence []*plugin.Plugin

	addByName := func(name string, insert bool) error {
		key := strings.ToLower(plugin.TrimDotGhost(name))
		if seen[key] {
			return nil
		}
		seen[key] = true
		p, err := plugin.New(lo.resolvePath(name), lo.parser, active[key])
		if err != nil {
			return err
		}
		if insert {
			lo.plugins = sequence
			lo.insertAt(lo.insertPosition(p), p)
			sequence = lo.plugins
			return nil
		}
		sequence = append(sequence, p)
		return nil
	}

	for _, n := range orderedNames {
		if err := addByName(n, false); err != nil {
			continue // a name in the control file that no longer resolves is skipped, not fatal.
		}
	}

	isValid := func(name string) bool {
		return plugin.IsValid(lo.resolvePath(name), lo.GameID(), lo.parser)
	}
	for _, dir := range lo.settings.DataDirs() {
		for _, name := range findPluginsInDir(dir, isValid) {
			_ = addByName(name, true)
		}
	}

	return sequence, nil
}

// forceImplicitlyActive ensures every installed plugin the game depends on
// is present (inserting it if necessary) and active.
func (lo *LoadOrder) forceImplicitlyActive() error {
	for _, name := range lo.settings.ImplicitlyActivePlugins() {
		i := lo.IndexOf(name)
		if i < 0 {
			p, err := plugin.New(lo.resolvePath(name), lo.parser, true)
			if err != nil {
				continue // not installed; nothing to force.
			}
			pos := lo.insertPosition(p)
			lo.insertAt(pos, p)
			continue
		}
		if !lo.plugins[i].IsActive() {
			_ = lo.plugins[i].Activate()
		}
	}
	return nil
}
