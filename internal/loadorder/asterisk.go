package loadorder

import (
	"strings"

	"github.com/mod-troubleshooter/loadorder/internal/loadordererr"
	"github.com/mod-troubleshooter/loadorder/internal/plugin"
	"github.com/mod-troubleshooter/loadorder/internal/winenc"
)

// asteriskInsertPosition implements spec.md §4.4.1's asterisk-discipline
// override: early-loaders go at their fixed index (counting only installed
// early-loaders that precede them), and on Starfield blueprint masters are
// placed past all non-blueprint masters.
func (lo *LoadOrder) asteriskInsertPosition(p *plugin.Plugin) (int, bool) {
	for i, name := range lo.earlyLoaders {
		if !p.NameMatches(name) {
			continue
		}
		pos := 0
		for _, earlier := range lo.earlyLoaders[:i] {
			if lo.IndexOf(earlier) >= 0 {
				pos++
			}
		}
		return pos, true
	}

	if p.IsBlueprintPlugin() {
		pos := 0
		for _, other := range lo.plugins {
			if other.IsMasterFile(lo.GameID()) && !other.IsBlueprintPlugin() {
				pos++
				continue
			}
			break
		}
		return pos, true
	}

	return 0, false
}

// asteriskLoad implements spec.md §4.8: a single Windows-1252 file, each
// line optionally prefixed with "*" for active, "#" for comment. The file
// defines relative order for everything it lists; unlisted installed
// plugins are appended (masters before non-masters via the generic
// insertion rule, which buildInstalledSequence's directory-scan insertion
// relies on since it runs after the declared names are seeded).
func (lo *LoadOrder) asteriskLoad() error {
	lines, err := readPluginNames(lo.settings.ActivePluginsFile(), func(line string) (string, bool) {
		if line == "" || strings.HasPrefix(line, "#") {
			return "", false
		}
		return line, true
	})
	if err != nil {
		return err
	}

	var orderedNames, activeNames []string
	for _, line := range lines {
		if strings.HasPrefix(line, "*") {
			name := strings.TrimSpace(line[1:])
			orderedNames = append(orderedNames, name)
			activeNames = append(activeNames, name)
		} else {
			orderedNames = append(orderedNames, strings.TrimSpace(line))
		}
	}

	sequence, err := lo.buildInstalledSequence(orderedNames, activeNames)
	if err != nil {
		return err
	}
	lo.plugins = sequence

	return lo.forceImplicitlyActive()
}

// asteriskSave writes one line per plugin in load order, "*" prefix for
// active, canonical unghosted name, omitting early-loaders since their
// presence is implicit.
func (lo *LoadOrder) asteriskSave() error {
	path := lo.settings.ActivePluginsFile()
	if err := ensureParentDir(path); err != nil {
		return err
	}

	isEarlyLoader := map[string]bool{}
	for _, n := range lo.earlyLoaders {
		isEarlyLoader[strings.ToLower(plugin.TrimDotGhost(n))] = true
	}

	var sb strings.Builder
	for _, p := range lo.plugins {
		if isEarlyLoader[strings.ToLower(p.Name())] {
			continue
		}
		if p.IsActive() {
			sb.WriteString("*")
		}
		sb.WriteString(p.Name())
		sb.WriteString("\r\n")
	}

	encoded, err := winenc.Encode(sb.String())
	if err != nil {
		return loadordererr.EncodeError(path, err)
	}
	if err := writeFileAtomic(path, encoded); err != nil {
		return loadordererr.IOError(path, err)
	}
	return nil
}
