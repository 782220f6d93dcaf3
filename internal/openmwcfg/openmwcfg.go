// Package openmwcfg resolves OpenMW's layered openmw.cfg configuration
// chain and parses/serializes the key-value lines it contains, following
// the escaping and token-expansion rules OpenMW itself implements.
package openmwcfg

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mod-troubleshooter/loadorder/internal/loadordererr"
	"github.com/mod-troubleshooter/loadorder/internal/userpaths"
)

// FixedPaths are the set of well-known directories OpenMW's config tokens
// expand to.
type FixedPaths struct {
	Local        string // the game install directory.
	UserConfig   string
	UserData     string
	GlobalConfig string
	GlobalData   string
}

// NewFixedPaths derives FixedPaths for gamePath, detecting a Flatpak
// install the same way OpenMW does (a "metadata" file beside the
// executable's containing directory's app root).
func NewFixedPaths(gamePath string) FixedPaths {
	flatpak := isFlatpakInstall(gamePath)

	userConfig := userpaths.DefaultOpenMWUserConfigDir()
	userData := userpaths.DefaultOpenMWUserDataDir()
	if flatpak {
		if home, err := os.UserHomeDir(); err == nil {
			userConfig = filepath.Join(home, ".var/app/org.openmw.OpenMW/config/openmw")
			userData = filepath.Join(home, ".var/app/org.openmw.OpenMW/data/openmw")
		}
	}

	return FixedPaths{
		Local:        gamePath,
		UserConfig:   userConfig,
		UserData:     userData,
		GlobalConfig: userpaths.DefaultOpenMWGlobalConfigDir(),
		GlobalData:   "/usr/share/games/openmw",
	}
}

func isFlatpakInstall(gamePath string) bool {
	if userpaths.IsFlatpakInstall() {
		return true
	}
	_, err := os.Stat(filepath.Join(gamePath, "metadata"))
	return err == nil
}

// Entry is one key=value line, retaining its source file's directory so
// relative paths in its value can be resolved correctly.
type Entry struct {
	Key      string
	Value    string
	SourceDir string
}

// Config is the merged view of a chain of openmw.cfg files.
type Config struct {
	Entries []Entry

	// UserConfigDir is the directory of the last config file loaded; this
	// is where openmw.cfg is written back to.
	UserConfigDir string

	fixed FixedPaths
}

// Load resolves and parses the layered config chain rooted at
// fixed.Local/openmw.cfg or fixed.GlobalConfig/openmw.cfg, per spec.md
// §4.9 steps 1-5.
func Load(fixed FixedPaths) (*Config, error) {
	var chain []string

	first := filepath.Join(fixed.Local, "openmw.cfg")
	if !pathExists(first) {
		first = filepath.Join(fixed.GlobalConfig, "openmw.cfg")
	}
	if !pathExists(first) {
		return &Config{UserConfigDir: fixed.GlobalConfig, fixed: fixed}, nil
	}

	visited := map[string]bool{}
	queue := []string{first}
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		abs, _ := filepath.Abs(path)
		if visited[abs] {
			continue
		}
		visited[abs] = true
		chain = append(chain, path)

		entries, err := parseFile(path)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.Key == "config" {
				ref := expandTokens(e.Value, fixed)
				if !filepath.IsAbs(ref) {
					ref = filepath.Join(filepath.Dir(path), ref)
				}
				refFile := filepath.Join(ref, "openmw.cfg")
				if abs2, _ := filepath.Abs(refFile); !visited[abs2] {
					queue = append(queue, refFile)
				}
			}
		}
	}

	var merged []Entry
	replaceConfigAt := -1
	for i, path := range chain {
		entries, err := parseFile(path)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.Key == "replace" && e.Value == "config" {
				replaceConfigAt = i
			}
			merged = append(merged, e)
		}
	}

	if replaceConfigAt >= 0 {
		keepPaths := map[string]bool{}
		for i := 0; i <= replaceConfigAt; i++ {
			keepPaths[filepath.Dir(chain[i])] = true
		}
		var filtered []Entry
		for _, e := range merged {
			if keepPaths[e.SourceDir] {
				filtered = append(filtered, e)
			}
		}
		merged = filtered
		chain = chain[:replaceConfigAt+1]
	}

	userConfigDir := fixed.GlobalConfig
	if len(chain) > 0 {
		userConfigDir = filepath.Dir(chain[len(chain)-1])
	}

	return &Config{Entries: reduce(merged), UserConfigDir: userConfigDir, fixed: fixed}, nil
}

// reduce applies spec.md §4.9's per-key value reduction: resources/
// data-local take the first value; data/config/content/replace
// concatenate, with a later replace=<key> dropping earlier <key> values.
func reduce(entries []Entry) []Entry {
	var out []Entry
	seenFirst := map[string]bool{}
	for _, e := range entries {
		if e.Key == "replace" && e.Value != "config" {
			key := e.Value
			var filtered []Entry
			for _, o := range out {
				if o.Key != key {
					filtered = append(filtered, o)
				}
			}
			out = filtered
			continue
		}
		switch e.Key {
		case "resources", "data-local":
			if seenFirst[e.Key] {
				continue
			}
			seenFirst[e.Key] = true
			out = append(out, e)
		default:
			out = append(out, e)
		}
	}
	return out
}

// Values returns every value for key, in file order.
func (c *Config) Values(key string) []string {
	var out []string
	for _, e := range c.Entries {
		if e.Key == key {
			out = append(out, expandTokens(e.Value, c.fixed))
		}
	}
	return out
}

// First returns the first value for key, or "" if absent.
func (c *Config) First(key string) string {
	for _, e := range c.Entries {
		if e.Key == key {
			return expandTokens(e.Value, c.fixed)
		}
	}
	return ""
}

// DataPaths resolves every data= entry to an absolute path, relative to its
// source config file's directory when not already absolute.
func (c *Config) DataPaths() []string {
	var out []string
	for _, e := range c.Entries {
		if e.Key != "data" {
			continue
		}
		v := expandTokens(e.Value, c.fixed)
		if !filepath.IsAbs(v) {
			v = filepath.Join(e.SourceDir, v)
		}
		out = append(out, v)
	}
	return out
}

// ContentEntries returns the content= plugin names in file order.
func (c *Config) ContentEntries() []string {
	return c.Values("content")
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func parseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, loadordererr.IOError(path, err)
	}
	defer f.Close()

	dir := filepath.Dir(path)
	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := unescapeValue(strings.TrimSpace(line[idx+1:]))
		entries = append(entries, Entry{Key: key, Value: value, SourceDir: dir})
	}
	if err := scanner.Err(); err != nil {
		return nil, loadordererr.IOError(path, err)
	}
	return entries, nil
}

// unescapeValue implements spec.md §4.9's value grammar: values may be
// quoted with '"' and escaped with '&'; "&&" is a literal '&', `&"` is a
// literal '"'.
func unescapeValue(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2 {
		raw = raw[1 : len(raw)-1]
	}

	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '&' && i+1 < len(raw) && (raw[i+1] == '&' || raw[i+1] == '"') {
			sb.WriteByte(raw[i+1])
			i++
			continue
		}
		sb.WriteByte(raw[i])
	}
	return sb.String()
}

func escapeValue(v string) string {
	var sb strings.Builder
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case '&':
			sb.WriteString("&&")
		case '"':
			sb.WriteString(`&"`)
		default:
			sb.WriteByte(v[i])
		}
	}
	return sb.String()
}

// expandTokens replaces ?local?/?userconfig?/?userdata?/?global? with the
// corresponding fixed path.
func expandTokens(v string, fixed FixedPaths) string {
	replacer := strings.NewReplacer(
		"?local?", fixed.Local,
		"?userconfig?", fixed.UserConfig,
		"?userdata?", fixed.UserData,
		"?global?", fixed.GlobalConfig,
	)
	return replacer.Replace(v)
}

// Save writes entries to dir/openmw.cfg, preserving unrecognised keys and
// replacing all data= and content= entries with the given lists.
func Save(dir string, preserved []Entry, dataPaths []string, content []string) error {
	path := filepath.Join(dir, "openmw.cfg")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return loadordererr.IOError(dir, err)
	}

	var sb strings.Builder
	for _, e := range preserved {
		if e.Key == "data" || e.Key == "content" {
			continue
		}
		fmt.Fprintf(&sb, "%s=%s\n", e.Key, escapeValue(e.Value))
	}
	for _, d := range dataPaths {
		fmt.Fprintf(&sb, "data=\"%s\"\n", escapeValue(d))
	}
	for _, c := range content {
		fmt.Fprintf(&sb, "content=%s\n", escapeValue(c))
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(sb.String()), 0o644); err != nil {
		return loadordererr.IOError(path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return loadordererr.IOError(path, err)
	}
	return nil
}
