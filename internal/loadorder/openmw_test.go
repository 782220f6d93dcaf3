package loadorder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/gamesettings"
)

func newOpenMWSandbox(t *testing.T) (*LoadOrder, string) {
	t.Helper()
	gameDir := t.TempDir()
	dataDir := filepath.Join(gameDir, "Data Files")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"Morrowind.esm", "Tribunal.esm", "Bloodmoon.esm", "PluginA.esp"} {
		touch(t, filepath.Join(dataDir, name))
	}

	cfgContent := "data=\"" + dataDir + "\"\ncontent=Morrowind.esm\ncontent=PluginA.esp\n"
	if err := os.WriteFile(filepath.Join(gameDir, "openmw.cfg"), []byte(cfgContent), 0o644); err != nil {
		t.Fatal(err)
	}

	settings, err := gamesettings.New(game.OpenMW, gameDir, t.TempDir())
	if err != nil {
		t.Fatalf("gamesettings.New() error = %v", err)
	}

	parser := nameKeyedParser{
		"Morrowind.esm": {IsMaster: true},
		"Tribunal.esm":  {IsMaster: true, Masters: []string{"Morrowind.esm"}},
		"Bloodmoon.esm": {IsMaster: true, Masters: []string{"Morrowind.esm", "Tribunal.esm"}},
		"PluginA.esp":   {Masters: []string{"Morrowind.esm"}},
	}
	return New(settings, parser), dataDir
}

func TestOpenMWLoadHoistsGameFileFirst(t *testing.T) {
	lo, _ := newOpenMWSandbox(t)
	if err := lo.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	names := lo.PluginNames()
	if len(names) == 0 || names[0] != "Morrowind.esm" {
		t.Fatalf("PluginNames() = %v, want Morrowind.esm (the masterless game file) first", names)
	}
}

func TestOpenMWLoadHoistsTribunalBeforeBloodmoon(t *testing.T) {
	lo, _ := newOpenMWSandbox(t)
	if err := lo.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	names := lo.PluginNames()
	ti, bi := -1, -1
	for i, n := range names {
		switch n {
		case "Tribunal.esm":
			ti = i
		case "Bloodmoon.esm":
			bi = i
		}
	}
	if ti < 0 || bi < 0 {
		t.Fatalf("PluginNames() = %v, missing Tribunal/Bloodmoon", names)
	}
	if ti >= bi {
		t.Errorf("Tribunal.esm at %d should load before Bloodmoon.esm at %d", ti, bi)
	}
}

func TestOpenMWLoadActivatesContentEntries(t *testing.T) {
	lo, _ := newOpenMWSandbox(t)
	if err := lo.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !lo.IsActive("Morrowind.esm") || !lo.IsActive("PluginA.esp") {
		t.Error("plugins listed in content= should be active")
	}
	if lo.IsActive("Tribunal.esm") {
		t.Error("Tribunal.esm has no content= entry and should not be active")
	}
}

func TestOpenMWIsAlwaysAmbiguous(t *testing.T) {
	lo, _ := newOpenMWSandbox(t)
	if err := lo.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !lo.IsAmbiguous() {
		t.Error("OpenMW load order has no representation for inactive-plugin order and should always report ambiguous")
	}
}

func TestOpenMWSaveWritesContentEntries(t *testing.T) {
	lo, _ := newOpenMWSandbox(t)
	if err := lo.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := lo.Activate("Tribunal.esm"); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if err := lo.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(lo.openmw.cfg.UserConfigDir, "openmw.cfg"))
	if err != nil {
		t.Fatalf("reading saved openmw.cfg: %v", err)
	}
	if !strings.Contains(string(data), "content=Tribunal.esm") {
		t.Errorf("openmw.cfg = %q, want content=Tribunal.esm after activation", string(data))
	}
}
