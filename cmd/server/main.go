package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhchabran/agora"
	"github.com/jhchabran/agora/cmd"
	"github.com/jhchabran/agora/notifier"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := cmd.DefaultConfig()
	err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot read configuration")
	}
	logger := cmd.SetupLogger(cfg)

	// setup storage
	backend, closeBackend, err := cmd.OpenBackend(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Backend).Msg("Cannot open backend")
	}
	defer func() {
		if err := closeBackend(); err != nil {
			logger.Error().Err(err).Msg("Cannot close backend")
		}
	}()

	s := agora.NewServer(&agora.ServerConfig{
		Addr:           cfg.Addr,
		ServerSecret:   cfg.ServerSecret,
		CurrentUser:    cfg.CurrentUser(),
		SecureCookies:  cfg.SecureCookies,
		MaxConnections: cfg.MaxConnections,
	}, logger, backend)

	if cfg.SlackWebhookURL != "" {
		ll := logger.With().Str("component", "slack notifier").Logger()
		s.AddReportHook(notifier.NewSlack(cfg.SlackWebhookURL, ll).Hook)
	}

	err = s.Prepare()
	if err != nil {
		logger.Fatal().Err(err).Msg("Cannot prepare server")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	g, ctx := errgroup.WithContext(context.Background())
	// Start returns once Stop has drained the pending requests.
	g.Go(s.Start)
	g.Go(func() error {
		select {
		case sig := <-stop:
			logger.Info().Str("signal", sig.String()).Msg("Shutting down")
		case <-ctx.Done():
			return nil
		}
		s.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Server failed")
	}
}
