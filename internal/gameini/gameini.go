// Package gameini reads the handful of INI settings that influence where a
// game keeps its active-plugins list and which plugins it treats as
// implicitly active: Oblivion's bUseMyGamesDirectory, and the sTestFile1..10
// keys that Oblivion, the Skyrim and Fallout variants, and Starfield use as
// a fallback active-plugin list before a plugins.txt exists.
package gameini

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mvo5/goconfigparser"

	"github.com/mod-troubleshooter/loadorder/internal/loadordererr"
	"github.com/mod-troubleshooter/loadorder/internal/winenc"
)

// TestFiles holds the up-to-10 sTestFileN entries some games use as a
// fallback active-plugin list when no plugins.txt exists yet.
type TestFiles [10]string

// readGeneralSection loads path as a Windows-1252 ini file and returns its
// parser, or nil if the file does not exist.
func readGeneralSection(path string) (*goconfigparser.ConfigParser, error) {
	raw, readErr := os.ReadFile(path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return nil, nil
		}
		return nil, loadordererr.IOError(path, readErr)
	}

	decoded, decErr := winenc.Decode(raw)
	if decErr != nil {
		return nil, loadordererr.DecodeError(path, decErr)
	}

	cfg := goconfigparser.New()
	cfg.AllowNoSectionHeader = true
	if err := cfg.Read(strings.NewReader(decoded)); err != nil {
		return nil, loadordererr.ParsingError(path, err)
	}
	return cfg, nil
}

// ReadTestFiles reads the sTestFile1..10 keys from the General section of
// path, the fallback active-plugin list some games consult before a
// plugins.txt exists. A missing file yields a zero TestFiles, not an error.
func ReadTestFiles(path string) (TestFiles, error) {
	var tests TestFiles

	cfg, err := readGeneralSection(path)
	if err != nil || cfg == nil {
		return tests, err
	}

	for i := 0; i < len(tests); i++ {
		key := fmt.Sprintf("sTestFile%d", i+1)
		if v, getErr := cfg.Get("General", key); getErr == nil {
			tests[i] = strings.TrimSpace(v)
		}
	}
	return tests, nil
}

// ReadOblivionIni reads bUseMyGamesDirectory and the sTestFileN keys from
// an Oblivion.ini file. Per the engine's actual behaviour, the My Games
// directory is used unless the key is present and parses as the boolean
// false; a missing key, unparseable value, or missing file defaults to true.
func ReadOblivionIni(path string) (useMyGames bool, tests TestFiles, err error) {
	useMyGames = true

	cfg, err := readGeneralSection(path)
	if err != nil {
		return false, tests, err
	}
	if cfg == nil {
		return true, tests, nil
	}

	if v, getErr := cfg.Get("General", "bUseMyGamesDirectory"); getErr == nil {
		if b, parseErr := ParseBool(v); parseErr == nil {
			useMyGames = b
		}
	}

	for i := 0; i < len(tests); i++ {
		key := fmt.Sprintf("sTestFile%d", i+1)
		if v, getErr := cfg.Get("General", key); getErr == nil {
			tests[i] = strings.TrimSpace(v)
		}
	}

	return useMyGames, tests, nil
}

// Merge layers higher-priority test files (e.g. from an ini override) over
// base, skipping empty entries, and returns the distinct non-empty
// filenames in priority order.
func Merge(base, override TestFiles) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		key := strings.ToLower(name)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, name)
	}
	for _, v := range override {
		add(v)
	}
	for _, v := range base {
		add(v)
	}
	return out
}

// ParseBool parses an ini boolean value such as bUseMyGamesDirectory's,
// accepting the usual strconv forms ("0"/"1", "true"/"false").
func ParseBool(s string) (bool, error) {
	return strconv.ParseBool(strings.TrimSpace(s))
}
