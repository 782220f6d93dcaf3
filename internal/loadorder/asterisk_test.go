package loadorder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/gamesettings"
	"github.com/mod-troubleshooter/loadorder/internal/winenc"
)

func newStarfieldSandbox(t *testing.T) (*LoadOrder, string, string) {
	t.Helper()
	gameDir := t.TempDir()
	localDir := t.TempDir()
	dataDir := filepath.Join(gameDir, "Data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"Starfield.esm", "Blueprint.esm", "PluginA.esp"} {
		touch(t, filepath.Join(dataDir, name))
	}

	settings, err := gamesettings.New(game.Starfield, gameDir, localDir)
	if err != nil {
		t.Fatalf("gamesettings.New() error = %v", err)
	}
	settings.RefreshImplicitlyActivePlugins(func(name string) bool {
		_, err := os.Stat(filepath.Join(dataDir, name))
		return err == nil
	})

	parser := nameKeyedParser{
		"Starfield.esm": {IsMaster: true},
		"Blueprint.esm": {IsMaster: true, IsBlueprint: true},
		"PluginA.esp":   {Masters: []string{"Starfield.esm"}},
	}
	return New(settings, parser), dataDir, localDir
}

func TestAsteriskBlueprintMasterSortsAfterNonBlueprintMasters(t *testing.T) {
	lo, _, _ := newStarfieldSandbox(t)
	if err := lo.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	names := lo.PluginNames()
	starfieldIdx, blueprintIdx := -1, -1
	for i, n := range names {
		switch n {
		case "Starfield.esm":
			starfieldIdx = i
		case "Blueprint.esm":
			blueprintIdx = i
		}
	}
	if starfieldIdx == -1 || blueprintIdx == -1 {
		t.Fatalf("PluginNames() = %v, missing expected masters", names)
	}
	if blueprintIdx < starfieldIdx {
		t.Errorf("blueprint master at %d should sort after non-blueprint master at %d", blueprintIdx, starfieldIdx)
	}
}

func TestAsteriskLoadSkipsCommentLines(t *testing.T) {
	lo, _, localDir := newStarfieldSandbox(t)

	content := "# this is a comment\r\n*Starfield.esm\r\nBlueprint.esm\r\n*PluginA.esp\r\n"
	encoded, err := winenc.Encode(content)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(localDir, "plugins.txt"), encoded, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := lo.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !lo.IsActive("PluginA.esp") {
		t.Error("PluginA.esp should be active per the asterisk-prefixed line")
	}
	if lo.IsActive("Blueprint.esm") {
		t.Error("Blueprint.esm should not be active; its line has no asterisk")
	}
}

func TestAsteriskSaveOmitsEarlyLoaders(t *testing.T) {
	lo, _, localDir := newStarfieldSandbox(t)
	if err := lo.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := lo.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(localDir, "plugins.txt"))
	if err != nil {
		t.Fatalf("reading plugins.txt: %v", err)
	}
	decoded, err := winenc.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(decoded, "Starfield.esm") {
		t.Errorf("plugins.txt = %q, early-loader master Starfield.esm should be omitted", decoded)
	}
}
