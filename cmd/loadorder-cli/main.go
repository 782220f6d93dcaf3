// Command loadorder-cli scripts against a game's on-disk load-order state
// directly, without going through cmd/loadorder-server.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/gamesettings"
	"github.com/mod-troubleshooter/loadorder/internal/headercache"
	"github.com/mod-troubleshooter/loadorder/internal/headerparser"
	"github.com/mod-troubleshooter/loadorder/internal/headerparser/tes4"
	"github.com/mod-troubleshooter/loadorder/internal/loadorder"
)

type options struct {
	Game      string `short:"g" long:"game" description:"game id (Morrowind, Oblivion, Skyrim, SkyrimSE, SkyrimVR, Fallout3, FalloutNV, Fallout4, Fallout4VR, Starfield, OpenMW)" required:"true"`
	GamePath  string `short:"p" long:"game-path" description:"path to the game's install directory" required:"true"`
	LocalPath string `short:"l" long:"local-path" description:"path to the game's local/user config directory; auto-detected if omitted"`
	Verbose   bool   `short:"v" long:"verbose" description:"enable debug logging"`

	List       listCommand       `command:"list" description:"print the current load order"`
	Activate   activateCommand   `command:"activate" description:"activate a plugin"`
	Deactivate deactivateCommand `command:"deactivate" description:"deactivate a plugin"`
	SetOrder   setOrderCommand   `command:"set-order" description:"replace the entire load order"`
}

var (
	opts   options
	logger zerolog.Logger

	activeLoadOrder *loadorder.LoadOrder
)

func main() {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// prepare constructs and loads the engine for the global game/path options,
// storing it in activeLoadOrder so each command's Execute can use it. Every
// subcommand's Execute calls this first.
func prepare() error {
	if opts.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	id := parseGameID(opts.Game)
	if id == 0 {
		return fmt.Errorf("unrecognised game %q", opts.Game)
	}

	settings, err := gamesettings.New(id, opts.GamePath, opts.LocalPath)
	if err != nil {
		logger.Error().Err(err).Msg("failed to resolve game settings")
		return err
	}

	p := tes4.Parser{OpenMWExtensions: id == game.OpenMW}
	activeLoadOrder = loadorder.New(settings, cachedParser(id, settings.LocalPath(), p))

	if err := activeLoadOrder.Load(); err != nil {
		logger.Error().Err(err).Msg("failed to load order")
		return err
	}
	return nil
}

// cachedParser wraps p in a SQLite-backed header cache stored alongside the
// game's local config directory. If the cache can't be opened (e.g. the
// directory doesn't exist yet) the raw parser is used instead, so a header
// cache failure never blocks listing or editing a load order.
func cachedParser(id game.ID, localPath string, p tes4.Parser) headerparser.Parser {
	if localPath == "" {
		return p
	}
	cache, err := headercache.Open(filepath.Join(localPath, "loadorder-header-cache.db"))
	if err != nil {
		logger.Warn().Err(err).Msg("failed to open header cache, parsing headers uncached")
		return p
	}
	return headercache.Cached{ID: id, Parser: p, Cache: cache, TTL: 7 * 24 * time.Hour}
}

func saveIfMutated() error {
	if activeLoadOrder.State() != loadorder.Dirty {
		return nil
	}
	if err := activeLoadOrder.Save(); err != nil {
		logger.Error().Err(err).Msg("failed to save load order")
		return err
	}
	return nil
}

type listCommand struct{}

func (c *listCommand) Execute(args []string) error {
	if err := prepare(); err != nil {
		return err
	}
	for _, name := range activeLoadOrder.PluginNames() {
		marker := " "
		if activeLoadOrder.IsActive(name) {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, name)
	}
	return nil
}

type activateCommand struct {
	Positional struct {
		Name string `positional-arg-name:"plugin"`
	} `positional-args:"true" required:"true"`
}

func (c *activateCommand) Execute(args []string) error {
	if err := prepare(); err != nil {
		return err
	}
	if err := activeLoadOrder.Activate(c.Positional.Name); err != nil {
		logger.Error().Err(err).Str("plugin", c.Positional.Name).Msg("activate failed")
		return err
	}
	return saveIfMutated()
}

type deactivateCommand struct {
	Positional struct {
		Name string `positional-arg-name:"plugin"`
	} `positional-args:"true" required:"true"`
}

func (c *deactivateCommand) Execute(args []string) error {
	if err := prepare(); err != nil {
		return err
	}
	if err := activeLoadOrder.Deactivate(c.Positional.Name); err != nil {
		logger.Error().Err(err).Str("plugin", c.Positional.Name).Msg("deactivate failed")
		return err
	}
	return saveIfMutated()
}

type setOrderCommand struct {
	Positional struct {
		Names []string `positional-arg-name:"plugin"`
	} `positional-args:"true" required:"true"`
}

func (c *setOrderCommand) Execute(args []string) error {
	if err := prepare(); err != nil {
		return err
	}
	if err := activeLoadOrder.SetLoadOrder(c.Positional.Names); err != nil {
		logger.Error().Err(err).Msg("set-order failed")
		return err
	}
	return saveIfMutated()
}

func parseGameID(name string) game.ID {
	switch strings.ToLower(name) {
	case "morrowind":
		return game.Morrowind
	case "oblivion":
		return game.Oblivion
	case "skyrim":
		return game.Skyrim
	case "fallout3":
		return game.Fallout3
	case "falloutnv":
		return game.FalloutNV
	case "fallout4":
		return game.Fallout4
	case "skyrimse":
		return game.SkyrimSE
	case "fallout4vr":
		return game.Fallout4VR
	case "skyrimvr":
		return game.SkyrimVR
	case "starfield":
		return game.Starfield
	case "openmw":
		return game.OpenMW
	default:
		return 0
	}
}
