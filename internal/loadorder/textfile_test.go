package loadorder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/gamesettings"
)

func newSkyrimSandbox(t *testing.T) (*LoadOrder, string, string) {
	t.Helper()
	gameDir := t.TempDir()
	localDir := t.TempDir()
	dataDir := filepath.Join(gameDir, "Data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"Skyrim.esm", "Update.esm", "PluginA.esp", "PluginB.esp"} {
		touch(t, filepath.Join(dataDir, name))
	}

	settings, err := gamesettings.New(game.Skyrim, gameDir, localDir)
	if err != nil {
		t.Fatalf("gamesettings.New() error = %v", err)
	}
	settings.RefreshImplicitlyActivePlugins(func(name string) bool {
		_, err := os.Stat(filepath.Join(dataDir, name))
		return err == nil
	})

	parser := nameKeyedParser{
		"Skyrim.esm":  {IsMaster: true},
		"Update.esm":  {IsMaster: true, Masters: []string{"Skyrim.esm"}},
		"PluginA.esp": {Masters: []string{"Skyrim.esm"}},
		"PluginB.esp": {},
	}
	return New(settings, parser), dataDir, localDir
}

func TestTextfileLoadFallsBackToActivePluginsOrder(t *testing.T) {
	lo, _, localDir := newSkyrimSandbox(t)

	if err := os.WriteFile(filepath.Join(localDir, "plugins.txt"), []byte("Skyrim.esm\r\nPluginB.esp\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := lo.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	names := lo.PluginNames()
	if len(names) == 0 || names[0] != "Skyrim.esm" {
		t.Fatalf("PluginNames() = %v, want order to start from plugins.txt when loadorder.txt is absent", names)
	}
	if !lo.IsActive("PluginB.esp") {
		t.Error("PluginB.esp should be active per plugins.txt")
	}
}

func TestTextfileLoadUsesLoadOrderFileWhenPresent(t *testing.T) {
	lo, _, localDir := newSkyrimSandbox(t)

	if err := os.WriteFile(filepath.Join(localDir, "loadorder.txt"), []byte("Skyrim.esm\nUpdate.esm\nPluginB.esp\nPluginA.esp\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(localDir, "plugins.txt"), []byte("Skyrim.esm\r\nPluginA.esp\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := lo.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got := lo.PluginNames()
	want := []string{"Skyrim.esm", "Update.esm", "PluginB.esp", "PluginA.esp"}
	for i, n := range want {
		if got[i] != n {
			t.Fatalf("PluginNames() = %v, want %v (full order should follow loadorder.txt)", got, want)
		}
	}
	if !lo.IsActive("PluginA.esp") || lo.IsActive("PluginB.esp") {
		t.Error("activation should follow plugins.txt, independent of loadorder.txt's order")
	}
}

func TestTextfileSaveRoundTrip(t *testing.T) {
	lo, _, localDir := newSkyrimSandbox(t)
	if err := lo.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := lo.Activate("PluginA.esp"); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if err := lo.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	orderData, err := os.ReadFile(filepath.Join(localDir, "loadorder.txt"))
	if err != nil {
		t.Fatalf("reading loadorder.txt: %v", err)
	}
	if !strings.Contains(string(orderData), "PluginA.esp") {
		t.Errorf("loadorder.txt = %q, want it to list PluginA.esp", string(orderData))
	}

	activeData, err := os.ReadFile(filepath.Join(localDir, "plugins.txt"))
	if err != nil {
		t.Fatalf("reading plugins.txt: %v", err)
	}
	if !strings.Contains(string(activeData), "PluginA.esp") {
		t.Errorf("plugins.txt = %q, want it to contain PluginA.esp", string(activeData))
	}
}

func TestTextfileIsSelfConsistentDetectsOutOfOrderActivePlugins(t *testing.T) {
	lo, _, localDir := newSkyrimSandbox(t)

	if err := os.WriteFile(filepath.Join(localDir, "loadorder.txt"), []byte("Skyrim.esm\nUpdate.esm\nPluginA.esp\nPluginB.esp\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// plugins.txt lists PluginB.esp before PluginA.esp, the reverse of
	// loadorder.txt's subsequence, so the two files disagree.
	if err := os.WriteFile(filepath.Join(localDir, "plugins.txt"), []byte("Skyrim.esm\r\nPluginB.esp\r\nPluginA.esp\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ok, err := lo.textfileIsSelfConsistent()
	if err != nil {
		t.Fatalf("textfileIsSelfConsistent() error = %v", err)
	}
	if ok {
		t.Error("textfileIsSelfConsistent() = true, want false for an out-of-order active-plugins file")
	}
}

func TestTextfileIsSelfConsistentTrueWhenOrdersAgree(t *testing.T) {
	lo, _, localDir := newSkyrimSandbox(t)

	if err := os.WriteFile(filepath.Join(localDir, "loadorder.txt"), []byte("Skyrim.esm\nUpdate.esm\nPluginA.esp\nPluginB.esp\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(localDir, "plugins.txt"), []byte("Skyrim.esm\r\nPluginA.esp\r\nPluginB.esp\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ok, err := lo.textfileIsSelfConsistent()
	if err != nil {
		t.Fatalf("textfileIsSelfConsistent() error = %v", err)
	}
	if !ok {
		t.Error("textfileIsSelfConsistent() = false, want true when plugins.txt is a subsequence of loadorder.txt")
	}
}
