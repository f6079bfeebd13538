package main

import (
	"context"
	"crypto/ecdsa"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/justinabrahms/pollchess/internal/auth"
	"github.com/justinabrahms/pollchess/internal/config"
	"github.com/justinabrahms/pollchess/internal/match"
	"github.com/justinabrahms/pollchess/internal/store"
	"github.com/justinabrahms/pollchess/internal/web"
)

func main() {
	// Parse command line flags
	var showHelp bool
	flag.BoolVar(&showHelp, "help", false, "Show help information")
	flag.BoolVar(&showHelp, "h", false, "Show help information")
	flag.Parse()

	if showHelp {
		showHelpMessage()
		return
	}

	// Setup logging
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setLogLevel(cfg)

	key, err := signingKey(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load signing key")
	}

	opts := match.Options{WaitTimeout: cfg.Wait.Timeout, WaitBuffer: cfg.Wait.Buffer}
	if cfg.Storage.JournalPath != "" {
		journal, err := store.OpenJournal(cfg.Storage.JournalPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Storage.JournalPath).Msg("Failed to open journal")
		}
		defer journal.Close()
		opts.Journal = journal
		log.Info().Str("path", cfg.Storage.JournalPath).Msg("Journal enabled")
	}

	games := match.NewService(store.NewMemoryStore(), auth.NewIssuer(key, cfg.Auth.Issuer), opts)
	watchers := web.NewHub()
	games.Observe(watchers.Publish)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifierDone := make(chan struct{})
	go func() {
		defer close(notifierDone)
		if err := games.Run(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Notifier stopped")
		}
	}()
	go watchers.Run(ctx)

	service := web.NewService(games, watchers)

	// Long-poll responses are written up to wait.timeout after the request arrives.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      service.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Wait.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Info().Str("addr", srv.Addr).Dur("waitTimeout", cfg.Wait.Timeout).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// Pending waits are released first so Shutdown does not sit on open long-polls.
	games.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	cancel()
	<-notifierDone
	log.Info().Msg("Server exited")
}

func setLogLevel(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Development.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Development.Debug {
		level = zerolog.DebugLevel
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	zerolog.SetGlobalLevel(level)
}

func signingKey(cfg *config.Config) (*ecdsa.PrivateKey, error) {
	if cfg.Auth.SigningKeyFile != "" {
		return auth.LoadKey(cfg.Auth.SigningKeyFile)
	}
	log.Warn().Msg("No signing key configured, generating an ephemeral key; tokens will not survive a restart")
	return auth.GenerateKey()
}

func showHelpMessage() {
	fmt.Println(`pollchess server

DESCRIPTION:
    Two-player chess server. Players host or join a game over HTTP, submit
    moves with their player token, and long-poll until it is their turn.

USAGE:
    chessd [OPTIONS]

OPTIONS:
    -h, --help    Show this help message

CONFIGURATION:
    Read from config.yaml in the current directory or ./config. Every key
    can be overridden with a POLLCHESS_ environment variable, e.g.
    POLLCHESS_WAIT_TIMEOUT=5m.

    Example config.yaml:
        server:
          host: localhost
          port: 8080
        wait:
          timeout: 60m      # bound on wait-for-my-move
          buffer: 64        # queued turn notifications
        storage:
          journal_path: ""  # SQLite journal of games and moves, empty = off
        auth:
          signing_key_file: ""  # PEM from generate-token-key, empty = ephemeral
          issuer: pollchess
        development:
          debug: false
          log_level: info

API ENDPOINTS:
    GET  /api/health                       - Service health check
    GET  /api/games                        - List games
    POST /api/game/host                    - Host a game, returns White's token
    POST /api/game/{id}/join               - Join a game, returns Black's token
    GET  /api/game/{id}                    - Game view (ptoken header optional)
    POST /api/game/{id}/move               - Submit {from,to,promotion} (ptoken)
    POST /api/game/{id}/wait-for-my-move   - Block until it is your turn (ptoken)
    GET  /api/game/{id}/watch              - WebSocket stream for spectators

EXAMPLES:
    curl -X POST http://localhost:8080/api/game/host
    curl -X POST http://localhost:8080/api/game/$ID/move \
      -H "ptoken: $TOKEN" -d '{"from":"e2","to":"e4"}'

SEE ALSO:
    generate-token-key(1)`)
}
