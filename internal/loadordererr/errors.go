// Package loadordererr defines the error taxonomy shared by every package
// in this module. Callers are expected to use errors.As to recover the
// *Error and inspect its Kind rather than matching on message text.
package loadordererr

import "fmt"

// Kind enumerates the distinct failure categories a load-order operation
// can report.
type Kind int

const (
	// KindUnknown is the zero value; it is never returned by this module.
	KindUnknown Kind = iota
	KindIOError
	KindNoFilename
	KindInvalidPlugin
	KindInstalledPlugin
	KindImplicitlyActivePlugin
	KindPluginNotFound
	KindTooManyActivePlugins
	KindDuplicatePlugin
	KindNonMasterBeforeMaster
	KindGameMasterMustLoadFirst
	KindInvalidEarlyLoadingPluginPosition
	KindInvalidBlueprintPluginPosition
	KindUnrepresentedHoist
	KindInstallPathNotFound
	KindLocalPathNotFound
	KindUnsupportedGame
	KindDecodeError
	KindEncodeError
	KindParsingError
	KindNotLoaded
	KindUnknownHandle
)

// Error is the structured error type of the load-order engine. Kind selects the category; the optional fields carry the
// offending names or positions, and Err carries a wrapped cause when one
// exists.
type Error struct {
	Kind Kind

	// Plugin-identifying fields, populated depending on Kind.
	Plugin     string
	Master     string
	Path       string
	Pos        int
	ExpectedPos int

	LightCount  int
	MediumCount int
	FullCount   int

	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindIOError:
		return fmt.Sprintf("I/O error accessing %q: %v", e.Path, e.Err)
	case KindNoFilename:
		return "path has no filename component"
	case KindInvalidPlugin:
		return fmt.Sprintf("%q is not a valid plugin", e.Plugin)
	case KindInstalledPlugin:
		return fmt.Sprintf("%q is still installed and cannot be removed from the load order", e.Plugin)
	case KindImplicitlyActivePlugin:
		return fmt.Sprintf("%q is implicitly active and cannot be deactivated", e.Plugin)
	case KindPluginNotFound:
		return fmt.Sprintf("plugin %q could not be found", e.Plugin)
	case KindTooManyActivePlugins:
		return fmt.Sprintf("too many active plugins: %d full, %d light, %d medium", e.FullCount, e.LightCount, e.MediumCount)
	case KindDuplicatePlugin:
		return fmt.Sprintf("plugin %q is listed more than once", e.Plugin)
	case KindNonMasterBeforeMaster:
		return fmt.Sprintf("non-master plugin %q loads before its master %q", e.Plugin, e.Master)
	case KindGameMasterMustLoadFirst:
		return fmt.Sprintf("the game's master file %q must load first", e.Plugin)
	case KindInvalidEarlyLoadingPluginPosition:
		return fmt.Sprintf("early-loading plugin %q is at position %d, expected %d", e.Plugin, e.Pos, e.ExpectedPos)
	case KindInvalidBlueprintPluginPosition:
		return fmt.Sprintf("blueprint plugin %q is at position %d, expected %d", e.Plugin, e.Pos, e.ExpectedPos)
	case KindUnrepresentedHoist:
		return fmt.Sprintf("plugin %q is a master of %q, which would hoist it out of position", e.Plugin, e.Master)
	case KindInstallPathNotFound:
		return fmt.Sprintf("game install path %q not found", e.Path)
	case KindLocalPathNotFound:
		return fmt.Sprintf("game local path %q not found", e.Path)
	case KindUnsupportedGame:
		return "unsupported game"
	case KindDecodeError:
		return fmt.Sprintf("could not decode %q: %v", e.Path, e.Err)
	case KindEncodeError:
		return fmt.Sprintf("could not encode %q: %v", e.Path, e.Err)
	case KindParsingError:
		return fmt.Sprintf("could not parse %q: %v", e.Path, e.Err)
	case KindNotLoaded:
		return "load order has not been loaded"
	case KindUnknownHandle:
		return "unknown handle"
	default:
		return "unknown load order error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

func IOError(path string, err error) *Error {
	return &Error{Kind: KindIOError, Path: path, Err: err}
}

func InvalidPlugin(name string) *Error {
	return &Error{Kind: KindInvalidPlugin, Plugin: name}
}

func InstalledPlugin(name string) *Error {
	return &Error{Kind: KindInstalledPlugin, Plugin: name}
}

func ImplicitlyActivePlugin(name string) *Error {
	return &Error{Kind: KindImplicitlyActivePlugin, Plugin: name}
}

func PluginNotFound(name string) *Error {
	return &Error{Kind: KindPluginNotFound, Plugin: name}
}

func TooManyActivePlugins(full, light, medium int) *Error {
	return &Error{Kind: KindTooManyActivePlugins, FullCount: full, LightCount: light, MediumCount: medium}
}

func DuplicatePlugin(name string) *Error {
	return &Error{Kind: KindDuplicatePlugin, Plugin: name}
}

func NonMasterBeforeMaster(nonMaster, master string) *Error {
	return &Error{Kind: KindNonMasterBeforeMaster, Plugin: nonMaster, Master: master}
}

func GameMasterMustLoadFirst(name string) *Error {
	return &Error{Kind: KindGameMasterMustLoadFirst, Plugin: name}
}

func InvalidEarlyLoadingPluginPosition(name string, pos, expected int) *Error {
	return &Error{Kind: KindInvalidEarlyLoadingPluginPosition, Plugin: name, Pos: pos, ExpectedPos: expected}
}

func InvalidBlueprintPluginPosition(name string, pos, expected int) *Error {
	return &Error{Kind: KindInvalidBlueprintPluginPosition, Plugin: name, Pos: pos, ExpectedPos: expected}
}

func UnrepresentedHoist(plugin, master string) *Error {
	return &Error{Kind: KindUnrepresentedHoist, Plugin: plugin, Master: master}
}

func InstallPathNotFound(path string) *Error {
	return &Error{Kind: KindInstallPathNotFound, Path: path}
}

func LocalPathNotFound(path string) *Error {
	return &Error{Kind: KindLocalPathNotFound, Path: path}
}

func UnsupportedGame() *Error {
	return &Error{Kind: KindUnsupportedGame}
}

func DecodeError(path string, err error) *Error {
	return &Error{Kind: KindDecodeError, Path: path, Err: err}
}

func EncodeError(path string, err error) *Error {
	return &Error{Kind: KindEncodeError, Path: path, Err: err}
}

func ParsingError(path string, err error) *Error {
	return &Error{Kind: KindParsingError, Path: path, Err: err}
}

func NotLoaded() *Error {
	return &Error{Kind: KindNotLoaded}
}

func UnknownHandle() *Error {
	return &Error{Kind: KindUnknownHandle}
}
