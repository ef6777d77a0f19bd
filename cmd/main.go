package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"video-transcriber/pkg/api"
	"video-transcriber/pkg/audio"
	"video-transcriber/pkg/config"
	"video-transcriber/pkg/media"
	"video-transcriber/pkg/pipeline"
	"video-transcriber/pkg/storage"
	"video-transcriber/pkg/transcribe"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.Recognizer.APIKey == "" {
		log.Warn().Msg("SPEECH_API_KEY is not set; recognition requests may be rejected")
	}

	jobStore := storage.NewMemoryStore()
	resultStore, err := storage.NewDiskStore(cfg.StoragePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize result storage")
	}
	defer resultStore.Close()

	ffmpeg := media.NewFFmpeg(cfg.FFmpegPath)
	splitter := audio.NewSilenceSplitter(ffmpeg, cfg.Segmenter, log)
	recognizer := transcribe.NewGoogleRecognizer(cfg.Recognizer, ffmpeg)
	throttle := transcribe.NewThrottle(cfg.Recognizer.Pacing)

	runner := pipeline.NewRunner(cfg, jobStore, resultStore, ffmpeg, splitter, recognizer, throttle, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner.Start(ctx)
	defer runner.Stop()

	handlers := api.NewHandlers(cfg, runner, jobStore, resultStore, log)
	router := mux.NewRouter()
	handlers.Register(router)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
