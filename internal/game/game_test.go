package game

import (
	"reflect"
	"testing"
)

func TestLoadOrderMethod(t *testing.T) {
	tests := []struct {
		id   ID
		want Discipline
	}{
		{Morrowind, Timestamp},
		{Oblivion, Timestamp},
		{Fallout3, Timestamp},
		{FalloutNV, Timestamp},
		{Skyrim, Textfile},
		{SkyrimSE, Asterisk},
		{SkyrimVR, Asterisk},
		{Fallout4, Asterisk},
		{Fallout4VR, Asterisk},
		{Starfield, Asterisk},
		{OpenMW, OpenMWDiscipline},
	}
	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			if got := tt.id.LoadOrderMethod(); got != tt.want {
				t.Errorf("LoadOrderMethod() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSupportsLightPlugins(t *testing.T) {
	for _, id := range []ID{Fallout4, Fallout4VR, SkyrimSE, SkyrimVR, Starfield} {
		if !id.SupportsLightPlugins() {
			t.Errorf("%v: SupportsLightPlugins() = false, want true", id)
		}
	}
	for _, id := range []ID{Morrowind, Oblivion, Skyrim, Fallout3, FalloutNV, OpenMW} {
		if id.SupportsLightPlugins() {
			t.Errorf("%v: SupportsLightPlugins() = true, want false", id)
		}
	}
}

func TestSupportsMediumAndBlueprintPluginsStarfieldOnly(t *testing.T) {
	if !Starfield.SupportsMediumPlugins() || !Starfield.SupportsBlueprintPlugins() {
		t.Error("Starfield should support both medium and blueprint tiers")
	}
	if SkyrimSE.SupportsMediumPlugins() || SkyrimSE.SupportsBlueprintPlugins() {
		t.Error("SkyrimSE should not support medium or blueprint tiers")
	}
}

func TestAllowsGhosting(t *testing.T) {
	if OpenMW.AllowsGhosting() {
		t.Error("OpenMW should not allow ghosting")
	}
	if !SkyrimSE.AllowsGhosting() {
		t.Error("SkyrimSE should allow ghosting")
	}
}

func TestPluginExtensions(t *testing.T) {
	tests := []struct {
		id   ID
		want []string
	}{
		{Morrowind, []string{"esm", "esp"}},
		{SkyrimSE, []string{"esm", "esp", "esl"}},
		{OpenMW, []string{"esm", "esp", "omwgame", "omwaddon", "omwscripts"}},
	}
	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			if got := tt.id.PluginExtensions(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PluginExtensions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIDString(t *testing.T) {
	if Starfield.String() != "Starfield" {
		t.Errorf("String() = %q, want %q", Starfield.String(), "Starfield")
	}
	if got := ID(999).String(); got != "ID(999)" {
		t.Errorf("String() = %q, want %q", got, "ID(999)")
	}
}
