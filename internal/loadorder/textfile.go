package loadorder

import (
	"strings"

	"github.com/mod-troubleshooter/loadorder/internal/loadordererr"
	"github.com/mod-troubleshooter/loadorder/internal/plugin"
	"github.com/mod-troubleshooter/loadorder/internal/winenc"
)

// textfileLoad implements spec.md §4.7: loadorder.txt (UTF-8, one canonical
// name per line) holds the full order including inactive plugins if it
// exists; plugins.txt (Windows-1252) holds only active names. If
// loadorder.txt is absent, the active-plugins file alone seeds both order
// and activation.
func (lo *LoadOrder) textfileLoad() error {
	activeNames, err := readPluginNames(lo.settings.ActivePluginsFile(), pluginLineMapper)
	if err != nil {
		return err
	}

	var orderedNames []string
	if path := lo.settings.LoadOrderFile(); path != "" && pathExists(path) {
		raw, readErr := readUTF8Lines(path)
		if readErr != nil {
			return readErr
		}
		for _, line := range raw {
			if name, ok := pluginLineMapper(line); ok {
				orderedNames = append(orderedNames, name)
			}
		}
	} else {
		orderedNames = activeNames
	}

	sequence, err := lo.buildInstalledSequence(orderedNames, activeNames)
	if err != nil {
		return err
	}
	lo.plugins = sequence

	return lo.forceImplicitlyActive()
}

// textfileSave writes both loadorder.txt and plugins.txt.
func (lo *LoadOrder) textfileSave() error {
	if path := lo.settings.LoadOrderFile(); path != "" {
		if err := ensureParentDir(path); err != nil {
			return err
		}
		var sb strings.Builder
		for _, name := range lo.PluginNames() {
			sb.WriteString(name)
			sb.WriteString("\n")
		}
		if err := writeFileAtomic(path, []byte(sb.String())); err != nil {
			return loadordererr.IOError(path, err)
		}
	}

	path := lo.settings.ActivePluginsFile()
	if err := ensureParentDir(path); err != nil {
		return err
	}
	var sb strings.Builder
	for _, name := range lo.ActivePluginNames() {
		sb.WriteString(name)
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

// textfileIsSelfConsistent implements spec.md §4.7: true iff the
// subsequence of load-order names that also appears in the active-plugins
// file matches the active-plugins file order element-for-element.
func (lo *LoadOrder) textfileIsSelfConsistent() (bool, error) {
	path := lo.settings.LoadOrderFile()
	if path == "" || !pathExists(path) {
		return true, nil
	}

	rawLines, err := readUTF8Lines(path)
	if err != nil {
		return false, err
	}
	var orderNames []string
	for _, line := range rawLines {
		if name, ok := pluginLineMapper(line); ok {
			orderNames = append(orderNames, name)
		}
	}

	activeNames, err := readPluginNames(lo.settings.ActivePluginsFile(), pluginLineMapper)
	if err != nil {
		return false, err
	}

	active := map[string]bool{}
	for _, n := range activeNames {
		active[strings.ToLower(plugin.TrimDotGhost(n))] = true
	}

	var subsequence []string
	for _, n := range orderNames {
		if active[strings.ToLower(plugin.TrimDotGhost(n))] {
			subsequence = append(subsequence, strings.ToLower(plugin.TrimDotGhost(n)))
		}
	}

	if len(subsequence) != len(activeNames) {
		return false, nil
	}
	for i, n := range activeNames {
		if subsequence[i] != strings.ToLower(plugin.TrimDotGhost(n)) {
			return false, nil
		}
	}
	return true, nil
}

func readUTF8Lines(path string) ([]string, error) {
	raw, err := readRawFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n"), nil
}

func readRawFile(path string) (string, error) {
	data, err := readFileBytes(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
