package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"videoforge/internal/http/handlers"
	"videoforge/internal/http/httpapi"
	"videoforge/internal/infra"
	"videoforge/internal/jobstore"
	"videoforge/internal/pipeline"
	"videoforge/internal/providers/avatar"
	"videoforge/internal/providers/caption"
	"videoforge/internal/providers/script"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := jobstore.Open(ctx, cfg.RedisURL, logger)

	httpClient := &http.Client{Timeout: 60 * time.Second}

	var scriptGen script.Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := script.NewGemini(script.GeminiOptions{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiModel,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: httpClient,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure gemini script generator")
		}
		scriptGen = gemini
	} else {
		logger.Warn().Msg("gemini api key missing, using static script generator")
		scriptGen = script.NewStatic()
	}

	var synth avatar.Synthesizer
	if cfg.HeyGenAPIKey != "" {
		heygen, err := avatar.NewHeyGen(avatar.HeyGenOptions{
			APIKey:  cfg.HeyGenAPIKey,
			BaseURL: cfg.HeyGenBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure heygen synthesizer")
		}
		synth = heygen
	} else {
		logger.Warn().Msg("heygen api key missing, video jobs will fail at the render stage")
		synth = avatar.NewUnconfigured()
	}

	var burner caption.Burner
	if cfg.SubmagicAPIKey != "" {
		submagic, err := caption.NewSubmagic(caption.SubmagicOptions{
			APIKey:  cfg.SubmagicAPIKey,
			BaseURL: cfg.SubmagicBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure submagic burner")
		}
		burner = submagic
	} else {
		logger.Warn().Msg("submagic api key missing, captions will be skipped")
		burner = caption.NewPassthrough()
	}

	executor := pipeline.NewExecutor(store, scriptGen, synth, burner, logger)
	orchestrator := pipeline.NewOrchestrator(store, executor, logger)

	app := handlers.NewApp(orchestrator, logger)
	router := httpapi.NewRouter(app, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}

	// In-flight jobs keep their executors until they reach a terminal state.
	logger.Info().Msg("waiting for running jobs to settle")
	orchestrator.Wait()
	logger.Info().Msg("server stopped")
}
