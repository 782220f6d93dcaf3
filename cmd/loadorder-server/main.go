// Command loadorder-server exposes the load-order engine over a small JSON
// HTTP API. It is the practical stand-in for the out-of-scope C ABI: it
// marshals requests/responses and maps engine errors to HTTP status codes
// the way the C ABI maps error kinds to return codes.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/mod-troubleshooter/loadorder/internal/config"
	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/gamesettings"
	"github.com/mod-troubleshooter/loadorder/internal/handle"
	"github.com/mod-troubleshooter/loadorder/internal/headercache"
	"github.com/mod-troubleshooter/loadorder/internal/headerparser/tes4"
	"github.com/mod-troubleshooter/loadorder/internal/loadorder"
	"github.com/mod-troubleshooter/loadorder/internal/loadordererr"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("failed to create data directory")
	}
	cache, err := headercache.Open(filepath.Join(cfg.DataDir, "headers.db"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open header cache")
	}
	defer cache.Close()

	srv := &server{
		cfg:     cfg,
		manager: handle.NewManager(),
		log:     logger,
		cache:   cache,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /handles", srv.handleCreate)
	mux.HandleFunc("DELETE /handles/{id}", srv.handleDestroy)
	mux.HandleFunc("POST /handles/{id}/load", srv.handleLoad)
	mux.HandleFunc("POST /handles/{id}/save", srv.handleSave)
	mux.HandleFunc("GET /handles/{id}/plugins", srv.handlePlugins)
	mux.HandleFunc("POST /handles/{id}/activate", srv.handleActivate)
	mux.HandleFunc("POST /handles/{id}/deactivate", srv.handleDeactivate)
	mux.HandleFunc("POST /handles/{id}/set-load-order", srv.handleSetLoadOrder)
	mux.HandleFunc("GET /healthz", srv.handleHealthz)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
	})

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: corsHandler.Handler(mux),
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting loadorder-server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

type server struct {
	cfg     *config.Config
	manager *handle.Manager
	log     zerolog.Logger
	cache   *headercache.Cache
}

type createHandleRequest struct {
	Game      string `json:"game"`
	GamePath  string `json:"gamePath"`
	LocalPath string `json:"localPath"`
}

type createHandleResponse struct {
	ID string `json:"id"`
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createHandleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.log, errors.New("invalid request body"))
		return
	}

	id := parseGameID(req.Game, s.cfg.DefaultGameID)
	if id == 0 {
		writeError(w, s.log, loadordererr.UnsupportedGame())
		return
	}

	gamePath := req.GamePath
	if gamePath == "" {
		gamePath = s.cfg.GameInstallDirs[id.String()]
	}
	if gamePath == "" {
		writeError(w, s.log, loadordererr.InstallPathNotFound(""))
		return
	}

	settings, err := gamesettings.New(id, gamePath, req.LocalPath)
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	parser := tes4.Parser{OpenMWExtensions: id == game.OpenMW}
	cached := headercache.Cached{
		ID:     id,
		Parser: parser,
		Cache:  s.cache,
		TTL:    time.Duration(s.cfg.CacheTTLHours) * time.Hour,
	}
	lo := loadorder.New(settings, cached)
	handleID := s.manager.Create(lo)

	writeJSON(w, http.StatusCreated, createHandleResponse{ID: handleID.String()})
}

func (s *server) handleDestroy(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, s.log, loadordererr.UnknownHandle())
		return
	}
	s.manager.Destroy(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleLoad(w http.ResponseWriter, r *http.Request) {
	s.withWrite(w, r, func(lo *loadorder.LoadOrder) error {
		return lo.Load()
	})
}

func (s *server) handleSave(w http.ResponseWriter, r *http.Request) {
	s.withWrite(w, r, func(lo *loadorder.LoadOrder) error {
		return lo.Save()
	})
}

type pluginsResponse struct {
	Plugins []string `json:"plugins"`
	Active  []string `json:"active"`
}

func (s *server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, s.log, loadordererr.UnknownHandle())
		return
	}

	var resp pluginsResponse
	err = s.manager.WithRead(id, func(lo *loadorder.LoadOrder) error {
		resp = pluginsResponse{Plugins: lo.PluginNames(), Active: lo.ActivePluginNames()}
		return nil
	})
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.log, errors.New("invalid request body"))
		return
	}
	s.withWrite(w, r, func(lo *loadorder.LoadOrder) error {
		return lo.Activate(req.Name)
	})
}

func (s *server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.log, errors.New("invalid request body"))
		return
	}
	s.withWrite(w, r, func(lo *loadorder.LoadOrder) error {
		return lo.Deactivate(req.Name)
	})
}

type setLoadOrderRequest struct {
	Names []string `json:"names"`
}

func (s *server) handleSetLoadOrder(w http.ResponseWriter, r *http.Request) {
	var req setLoadOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.log, errors.New("invalid request body"))
		return
	}
	s.withWrite(w, r, func(lo *loadorder.LoadOrder) error {
		return lo.SetLoadOrder(req.Names)
	})
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) withWrite(w http.ResponseWriter, r *http.Request, fn func(*loadorder.LoadOrder) error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, s.log, loadordererr.UnknownHandle())
		return
	}
	if err := s.manager.WithWrite(id, fn); err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseGameID(name, fallback string) game.ID {
	if name == "" {
		name = fallback
	}
	switch name {
	case "Morrowind":
		return game.Morrowind
	case "Oblivion":
		return game.Oblivion
	case "Skyrim":
		return game.Skyrim
	case "Fallout3":
		return game.Fallout3
	case "FalloutNV":
		return game.FalloutNV
	case "Fallout4":
		return game.Fallout4
	case "SkyrimSE":
		return game.SkyrimSE
	case "Fallout4VR":
		return game.Fallout4VR
	case "SkyrimVR":
		return game.SkyrimVR
	case "Starfield":
		return game.Starfield
	case "OpenMW":
		return game.OpenMW
	default:
		return 0
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Error: err.Error()}

	var loErr *loadordererr.Error
	if errors.As(err, &loErr) {
		resp.Kind = kindName(loErr.Kind)
		status = statusForKind(loErr.Kind)
	}

	log.Error().Err(err).Int("status", status).Msg("request failed")
	writeJSON(w, status, resp)
}

func statusForKind(k loadordererr.Kind) int {
	switch k {
	case loadordererr.KindUnknownHandle, loadordererr.KindPluginNotFound, loadordererr.KindNotLoaded:
		return http.StatusNotFound
	case loadordererr.KindDuplicatePlugin, loadordererr.KindInvalidPlugin, loadordererr.KindTooManyActivePlugins,
		loadordererr.KindNonMasterBeforeMaster, loadordererr.KindGameMasterMustLoadFirst,
		loadordererr.KindInvalidEarlyLoadingPluginPosition, loadordererr.KindInvalidBlueprintPluginPosition,
		loadordererr.KindUnrepresentedHoist, loadordererr.KindImplicitlyActivePlugin, loadordererr.KindUnsupportedGame,
		loadordererr.KindInstalledPlugin:
		return http.StatusBadRequest
	case loadordererr.KindInstallPathNotFound, loadordererr.KindLocalPathNotFound:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func kindName(k loadordererr.Kind) string {
	names := map[loadordererr.Kind]string{
		loadordererr.KindIOError:                             "io_error",
		loadordererr.KindNoFilename:                           "no_filename",
		loadordererr.KindInvalidPlugin:                        "invalid_plugin",
		loadordererr.KindInstalledPlugin:                      "installed_plugin",
		loadordererr.KindImplicitlyActivePlugin:               "implicitly_active_plugin",
		loadordererr.KindPluginNotFound:                       "plugin_not_found",
		loadordererr.KindTooManyActivePlugins:                 "too_many_active_plugins",
		loadordererr.KindDuplicatePlugin:                      "duplicate_plugin",
		loadordererr.KindNonMasterBeforeMaster:                "non_master_before_master",
		loadordererr.KindGameMasterMustLoadFirst:              "game_master_must_load_first",
		loadordererr.KindInvalidEarlyLoadingPluginPosition:    "invalid_early_loading_plugin_position",
		loadordererr.KindInvalidBlueprintPluginPosition:       "invalid_blueprint_plugin_position",
		loadordererr.KindUnrepresentedHoist:                   "unrepresented_hoist",
		loadordererr.KindInstallPathNotFound:                  "install_path_not_found",
		loadordererr.KindLocalPathNotFound:                    "local_path_not_found",
		loadordererr.KindUnsupportedGame:                      "unsupported_game",
		loadordererr.KindDecodeError:                          "decode_error",
		loadordererr.KindEncodeError:                          "encode_error",
		loadordererr.KindParsingError:                         "parsing_error",
		loadordererr.KindNotLoaded:                            "not_loaded",
		loadordererr.KindUnknownHandle:                        "unknown_handle",
	}
	if n, ok := names[k]; ok {
		return n
	}
	return "unknown"
}
