package loadorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/gamesettings"
)

func newFallout3Sandbox(t *testing.T) (*LoadOrder, string, string) {
	t.Helper()
	gameDir := t.TempDir()
	localDir := t.TempDir()
	dataDir := filepath.Join(gameDir, "Data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}

	base := time.Now().Add(-24 * time.Hour)
	entries := []struct {
		name   string
		offset time.Duration
	}{
		{"Fallout3.esm", 0},
		{"Newer.esp", 2 * time.Hour},
		{"Older.esp", 1 * time.Hour},
	}
	for _, e := range entries {
		path := filepath.Join(dataDir, e.name)
		touch(t, path)
		mt := base.Add(e.offset)
		if err := os.Chtimes(path, mt, mt); err != nil {
			t.Fatal(err)
		}
	}

	settings, err := gamesettings.New(game.Fallout3, gameDir, localDir)
	if err != nil {
		t.Fatalf("gamesettings.New() error = %v", err)
	}
	settings.RefreshImplicitlyActivePlugins(func(name string) bool {
		_, err := os.Stat(filepath.Join(dataDir, name))
		return err == nil
	})

	parser := nameKeyedParser{
		"Fallout3.esm": {IsMaster: true},
	}
	return New(settings, parser), dataDir, localDir
}

func TestTimestampLoadOrdersByModTimeAfterMasters(t *testing.T) {
	lo, _, _ := newFallout3Sandbox(t)
	if err := lo.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	names := lo.PluginNames()
	want := []string{"Fallout3.esm", "Older.esp", "Newer.esp"}
	if len(names) != len(want) {
		t.Fatalf("PluginNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("PluginNames()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestTimestampSavePadsModTimesApart(t *testing.T) {
	lo, _, _ := newFallout3Sandbox(t)
	if err := lo.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Collapse every mtime to force the 60-second padding logic on Save.
	now := time.Now()
	for _, p := range lo.plugins {
		if err := p.SetModificationTime(now); err != nil {
			t.Fatal(err)
		}
	}

	if err := lo.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var last time.Time
	for _, p := range lo.plugins {
		if !last.IsZero() && !p.ModTime().After(last) {
			t.Fatalf("Save() should strictly increase mtimes, got %v after %v", p.ModTime(), last)
		}
		last = p.ModTime()
	}
}

func TestTimestampIsAmbiguousOnTiedModTimes(t *testing.T) {
	lo, _, _ := newFallout3Sandbox(t)
	if err := lo.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if lo.IsAmbiguous() {
		t.Fatal("distinct mod times should not be ambiguous")
	}

	same := time.Now()
	if err := lo.plugins[1].SetModificationTime(same); err != nil {
		t.Fatal(err)
	}
	if err := lo.plugins[2].SetModificationTime(same); err != nil {
		t.Fatal(err)
	}
	if !lo.IsAmbiguous() {
		t.Error("two plugins sharing a mod time should be reported as ambiguous")
	}
}
