package loadordererr

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestErrorMessagesMentionRelevantFields(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want []string
	}{
		{"NonMasterBeforeMaster", NonMasterBeforeMaster("Foo.esp", "Bar.esm"), []string{"Foo.esp", "Bar.esm"}},
		{"TooManyActivePlugins", TooManyActivePlugins(260, 10, 0), []string{"260", "10"}},
		{"UnrepresentedHoist", UnrepresentedHoist("Foo.esp", "Bar.esm"), []string{"Foo.esp", "Bar.esm"}},
		{"InvalidEarlyLoadingPluginPosition", InvalidEarlyLoadingPluginPosition("Update.esm", 3, 0), []string{"Update.esm", "3", "0"}},
		{"PluginNotFound", PluginNotFound("Missing.esp"), []string{"Missing.esp"}},
		{"InstalledPlugin", InstalledPlugin("Blank.esp"), []string{"Blank.esp", "still installed"}},
		{"UnknownHandle", UnknownHandle(), []string{"unknown handle"}},
		{"NotLoaded", NotLoaded(), []string{"not been loaded"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.want {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, want it to contain %q", msg, want)
				}
			}
		})
	}
}

func TestIOErrorUnwraps(t *testing.T) {
	cause := fs.ErrNotExist
	err := IOError("/some/path", cause)

	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("errors.Is should see through Unwrap to the wrapped cause")
	}

	var asErr *Error
	if !errors.As(err, &asErr) {
		t.Fatal("errors.As should recover the *Error")
	}
	if asErr.Kind != KindIOError {
		t.Errorf("Kind = %v, want KindIOError", asErr.Kind)
	}
	if asErr.Path != "/some/path" {
		t.Errorf("Path = %q, want %q", asErr.Path, "/some/path")
	}
}

func TestUnknownKindHasFallbackMessage(t *testing.T) {
	err := &Error{Kind: KindUnknown}
	if err.Error() != "unknown load order error" {
		t.Errorf("Error() = %q, want fallback message", err.Error())
	}
}
