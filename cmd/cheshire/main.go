// Command cheshire runs the Cheshire Telegram bot: it loads the environment
// cache from SQLite, serves chat commands over long polling, flushes the
// cache periodically, and exposes the ops API when enabled.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/cheshire-bot/internal/config"
	"github.com/tbourn/cheshire-bot/internal/dispatch"
	httpapi "github.com/tbourn/cheshire-bot/internal/http"
	"github.com/tbourn/cheshire-bot/internal/observability"
	"github.com/tbourn/cheshire-bot/internal/repo"
	"github.com/tbourn/cheshire-bot/internal/services"
	"github.com/tbourn/cheshire-bot/internal/sysutil"
	"github.com/tbourn/cheshire-bot/internal/telegram"
	"github.com/tbourn/cheshire-bot/internal/throttle"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open store")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Warn().Err(err).Msg("gorm tracing disabled")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate store")
	}

	env, err := services.NewEnvironment(ctx, repo.NewGateway(db))
	if err != nil {
		log.Fatal().Err(err).Msg("load environment")
	}

	flusher := services.NewFlusher(env, cfg.Flush.Interval, cfg.Flush.Retries)
	go flusher.Run(ctx)

	tg, err := telegram.Dial(cfg.Bot.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram login")
	}
	bot := telegram.New(tg,
		dispatch.New(env, cfg.Bot.MasterUser),
		throttle.New(cfg.Bot.RateRPS, cfg.Bot.RateBurst),
	)
	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		if err := bot.Run(ctx); err != nil {
			log.Error().Err(err).Msg("telegram polling stopped")
		}
		stop()
	}()

	var api drainer
	if cfg.HTTP.Enabled {
		srv := newServer(cfg, env, flusher)
		api = srv
		go func() {
			log.Info().Str("addr", srv.Addr).Msg("ops api listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("ops api stopped")
				stop()
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")

	if err := shutdown(cfg.Flush.ShutdownTimeout, api, botDone, flusher); err != nil {
		log.Error().Err(err).Msg("final flush failed; unsaved changes are lost")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Flush.ShutdownTimeout)
	defer cancel()
	if err := otelShutdown(closeCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	if err := repo.Close(db); err != nil {
		log.Warn().Err(err).Msg("close store")
	}
	log.Info().Msg("bye")
}

func newServer(cfg config.Config, env *services.Environment, flusher *services.Flusher) *http.Server {
	gin.SetMode(cfg.HTTP.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, env, flusher, cfg)

	hc := cfg.HTTP
	return &http.Server{
		Addr:              ":" + hc.Port,
		Handler:           r,
		ReadTimeout:       hc.ReadTimeout,
		ReadHeaderTimeout: hc.ReadHeaderTimeout,
		WriteTimeout:      hc.WriteTimeout,
		IdleTimeout:       hc.IdleTimeout,
		MaxHeaderBytes:    hc.MaxHeaderBytes,
	}
}
