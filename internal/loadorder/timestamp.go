package loadorder

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/loadordererr"
	"github.com/mod-troubleshooter/loadorder/internal/winenc"
)

// timestampLoad implements spec.md §4.6: installed plugins are sorted by
// (is_master_file descending, modification_time ascending, canonical name
// ascending); the active set is read from the Windows-1252 active-plugins
// file, which for Morrowind uses an INI-like `[Game Files]` section and for
// everything else is one filename per line.
func (lo *LoadOrder) timestampLoad() error {
	var activeNames []string
	var err error
	if lo.GameID() == game.Morrowind {
		activeNames, err = readMorrowindActivePlugins(lo.settings.ActivePluginsFile())
	} else {
		activeNames, err = readPluginNames(lo.settings.ActivePluginsFile(), pluginLineMapper)
	}
	if err != nil {
		return err
	}

	sequence, err := lo.buildInstalledSequence(nil, activeNames)
	if err != nil {
		return err
	}

	sort.SliceStable(sequence, func(i, j int) bool {
		a, b := sequence[i], sequence[j]
		am, bm := a.IsMasterFile(lo.GameID()), b.IsMasterFile(lo.GameID())
		if am != bm {
			return am
		}
		if !a.ModTime().Equal(b.ModTime()) {
			return a.ModTime().Before(b.ModTime())
		}
		return strings.ToLower(a.Name()) < strings.ToLower(b.Name())
	})

	lo.plugins = sequence
	return lo.forceImplicitlyActive()
}

// timestampSave writes the active-plugins file and assigns each plugin in
// the current order a distinct, non-decreasing modification time, padding
// by 60-second increments so no two plugins tie.
func (lo *LoadOrder) timestampSave() error {
	if err := lo.writeActivePluginsFile(); err != nil {
		return err
	}

	var last time.Time
	for _, p := range lo.plugins {
		t := p.ModTime()
		if !last.IsZero() && !t.After(last) {
			t = last.Add(60 * time.Second)
		}
		if err := p.SetModificationTime(t); err != nil {
			return err
		}
		last = t
	}
	return nil
}

func (lo *LoadOrder) writeActivePluginsFile() error {
	path := lo.settings.ActivePluginsFile()
	if err := ensureParentDir(path); err != nil {
		return err
	}

	if lo.GameID() == game.Morrowind {
		return writeMorrowindActivePlugins(path, lo.ActivePluginNames())
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

func (lo *LoadOrder) timestampIsAmbiguous() bool {
	// Plugins sharing an exact modification time (to the second) have no
	// engine-visible canonical order beyond the name tie-break this engine
	// applies, which other tools need not replicate.
	seen := map[int64]bool{}
	for _, p := range lo.plugins {
		t := p.ModTime().Unix()
		if seen[t] {
			return true
		}
		seen[t] = true
	}
	return false
}

// readMorrowindActivePlugins reads the `[Game Files]` section's
// `GameFileN=` lines from Morrowind.ini.
func readMorrowindActivePlugins(path string) ([]string, error) {
	raw, err := readPluginNames(path, func(line string) (string, bool) {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToLower(trimmed), "gamefile") {
			return "", false
		}
		idx := strings.Index(trimmed, "=")
		if idx < 0 {
			return "", false
		}
		key := trimmed[:idx]
		if _, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(key), "gamefile")); err != nil {
			return "", false
		}
		return strings.TrimSpace(trimmed[idx+1:]), true
	})
	return raw, err
}

func writeMorrowindActivePlugins(path string, names []string) error {
	raw, err := readExistingFile(path)
	if err != nil {
		return err
	}

	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(strings.TrimRight(line, "\r"))
		if strings.HasPrefix(strings.ToLower(trimmed), "gamefile") {
			continue
		}
		if trimmed == "[Game Files]" {
			continue
		}
		kept = append(kept, line)
	}

	var sb strings.Builder
	for _, l := range kept {
		sb.WriteString(strings.TrimRight(l, "\r"))
		sb.WriteString("\r\n")
	}
	sb.WriteString("[Game Files]\r\n")
	for i, name := range names {
		sb.WriteString("GameFile")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString("=")
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
