// Package plugin models a single installed plugin file: its name, parsed
// header, modification time and active state, plus the operations the
// load-order engine performs on it (activation, ghosting, staleness
// checks).
package plugin

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/headerparser"
	"github.com/mod-troubleshooter/loadorder/internal/loadordererr"
)

// ghostSuffix is the extension the games (other than OpenMW) tolerate on
// inactive plugins so they're excluded from content scans performed by
// older engine versions.
const ghostSuffix = ".ghost"

// Plugin is one plugin file on disk, together with the subset of its
// header the engine cares about.
type Plugin struct {
	path          string // as found on disk, possibly with .ghost
	canonicalName string // filename with .ghost stripped
	header        headerparser.Header
	modTime       time.Time
	active        bool
}

// New parses the plugin at path using parser and returns a Plugin. active
// reports the plugin's current membership in the active-plugins set, as
// determined by the caller (the load-order engine owns that list, not the
// plugin file itself).
func New(path string, parser headerparser.Parser, active bool) (*Plugin, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, loadordererr.IOError(path, err)
	}

	h, err := parser.ParseHeader(path)
	if err != nil {
		return nil, err
	}

	return &Plugin{
		path:          path,
		canonicalName: TrimDotGhost(filepath.Base(path)),
		header:        h,
		modTime:       info.ModTime(),
		active:        active,
	}, nil
}

// IsValid reports whether path names a plugin id recognises: its extension
// (ignoring a trailing ".ghost") is one of id's recognised plugin
// extensions, and parser can successfully read a header from it.
func IsValid(path string, id game.ID, parser headerparser.Parser) bool {
	name := TrimDotGhost(filepath.Base(path))
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))

	recognised := false
	for _, e := range id.PluginExtensions() {
		if ext == e {
			recognised = true
			break
		}
	}
	if !recognised {
		return false
	}

	_, err := parser.ParseHeader(path)
	return err == nil
}

// TrimDotGhost strips a trailing ".ghost" suffix, case-insensitively.
func TrimDotGhost(name string) string {
	if len(name) > len(ghostSuffix) && strings.EqualFold(name[len(name)-len(ghostSuffix):], ghostSuffix) {
		return name[:len(name)-len(ghostSuffix)]
	}
	return name
}

// Name returns the plugin's canonical (unghosted) filename.
func (p *Plugin) Name() string { return p.canonicalName }

// NameMatches reports whether name refers to this plugin, ignoring case
// and any ".ghost" suffix on either side.
func (p *Plugin) NameMatches(name string) bool {
	return strings.EqualFold(p.canonicalName, TrimDotGhost(name))
}

// Path returns the plugin's on-disk path, which may carry a .ghost suffix.
func (p *Plugin) Path() string { return p.path }

// IsGhosted reports whether the plugin is currently stored with a .ghost
// suffix.
func (p *Plugin) IsGhosted() bool {
	return strings.HasSuffix(strings.ToLower(p.path), ghostSuffix)
}

func (p *Plugin) ModTime() time.Time { return p.modTime }

func (p *Plugin) IsActive() bool { return p.active }

func (p *Plugin) Masters() []string { return p.header.Masters }

func (p *Plugin) IsMasterFile(id game.ID) bool {
	if id == game.OpenMW {
		return false
	}
	if id == game.Starfield {
		return p.header.IsMaster && !p.header.IsBlueprint
	}
	return p.header.IsMaster
}

func (p *Plugin) IsLightPlugin() bool    { return p.header.IsLight }
func (p *Plugin) IsMediumPlugin() bool   { return p.header.IsMedium }
func (p *Plugin) IsBlueprintPlugin() bool { return p.header.IsBlueprint }
func (p *Plugin) IsOverridePlugin() bool { return p.header.IsOverride }
func (p *Plugin) IsLocalized() bool      { return p.header.IsLocalized }

// HasFileChanged reports whether the on-disk file's mtime differs from the
// one recorded when this Plugin was parsed, meaning it should be reparsed.
func (p *Plugin) HasFileChanged() (bool, error) {
	info, err := os.Stat(p.path)
	if err != nil {
		return false, loadordererr.IOError(p.path, err)
	}
	return !info.ModTime().Equal(p.modTime), nil
}

// SetModificationTime updates the plugin file's mtime on disk (used by the
// timestamp-based disciplines to express an ordering) and records it.
func (p *Plugin) SetModificationTime(t time.Time) error {
	if err := os.Chtimes(p.path, t, t); err != nil {
		return loadordererr.IOError(p.path, err)
	}
	p.modTime = t
	return nil
}

// Activate unghosts the plugin file if necessary and marks it active.
// Reparsing after an unghost is the caller's responsibility if masters
// need to be re-read; the rename alone does not change the header.
func (p *Plugin) Activate() error {
	if strings.HasSuffix(strings.ToLower(p.path), ghostSuffix) {
		unghosted := strings.TrimSuffix(p.path, p.path[len(p.path)-len(ghostSuffix):])
		if err := os.Rename(p.path, unghosted); err != nil {
			return loadordererr.IOError(p.path, err)
		}
		p.path = unghosted
	}
	p.active = true
	return nil
}

// Deactivate flips the active bit. Per the original engine's behaviour,
// deactivating a plugin never reghosts it.
func (p *Plugin) Deactivate() {
	p.active = false
}
