// Package userpaths resolves the platform-specific directories games and
// OpenMW use for their per-user configuration, mirroring the directory
// conventions the original engines rely on (Windows "My Games", Linux XDG
// base directories, and the Flatpak sandbox's host-environment indirection).
package userpaths

import (
	"os"
	"path/filepath"
	"runtime"
)

// MyGamesDir returns the Windows "Documents\My Games\<name>" directory, or
// its closest analogue when cross-compiled for non-Windows test
// environments (honouring HOME so unit tests can redirect it).
func MyGamesDir(name string) string {
	docs := documentsDir()
	return filepath.Join(docs, "My Games", name)
}

func documentsDir() string {
	if runtime.GOOS == "windows" {
		if v := os.Getenv("USERPROFILE"); v != "" {
			return filepath.Join(v, "Documents")
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Documents")
}

// LocalAppDataDir returns the Windows %LOCALAPPDATA%\<name> directory, or
// the XDG-equivalent cache-ish location elsewhere.
func LocalAppDataDir(name string) string {
	if v := os.Getenv("LOCALAPPDATA"); v != "" {
		return filepath.Join(v, name)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", name)
}

// IsFlatpakInstall reports whether the process is running inside a Flatpak
// sandbox, detected the same way the original engine does: the presence of
// /.flatpak-info.
func IsFlatpakInstall() bool {
	_, err := os.Stat("/.flatpak-info")
	return err == nil
}

// XDGConfigHome returns $XDG_CONFIG_HOME, falling back to ~/.config. When
// running under Flatpak, HOST_XDG_CONFIG_HOME takes precedence so that
// paths resolve against the host filesystem rather than the sandbox's.
func XDGConfigHome() string {
	if IsFlatpakInstall() {
		if v := os.Getenv("HOST_XDG_CONFIG_HOME"); v != "" {
			return v
		}
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

// XDGDataHome returns $XDG_DATA_HOME, falling back to ~/.local/share, with
// the same Flatpak host-environment precedence as XDGConfigHome.
func XDGDataHome() string {
	if IsFlatpakInstall() {
		if v := os.Getenv("HOST_XDG_DATA_HOME"); v != "" {
			return v
		}
	}
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share")
}

// DefaultOpenMWUserConfigDir returns the default per-user openmw.cfg
// directory for the current platform.
func DefaultOpenMWUserConfigDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(documentsDir(), "My Games", "OpenMW")
	}
	return filepath.Join(XDGConfigHome(), "openmw")
}

// DefaultOpenMWUserDataDir returns the default per-user OpenMW data
// directory for the current platform.
func DefaultOpenMWUserDataDir() string {
	if runtime.GOOS == "windows" {
		return DefaultOpenMWUserConfigDir()
	}
	return filepath.Join(XDGDataHome(), "openmw")
}

// DefaultOpenMWGlobalConfigDir returns the machine-wide openmw.cfg
// directory installed alongside the engine on Linux; Windows has none.
func DefaultOpenMWGlobalConfigDir() string {
	if runtime.GOOS == "windows" {
		return ""
	}
	return "/etc/openmw"
}
