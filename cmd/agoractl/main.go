// Command agoractl inspects and edits the interaction state of a single client, straight
// from the configured backend.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jhchabran/agora"
	"github.com/jhchabran/agora/cmd"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := cmd.DefaultConfig()
	err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot read configuration")
	}
	logger := cmd.SetupLogger(cfg)

	deps := &deps{
		out:    os.Stdout,
		logger: logger,
		author: cfg.CurrentUser(),
		open: func() (agora.ListableBackend, func() error, error) {
			return cmd.OpenBackend(cfg, logger)
		},
	}

	if err := newApp(deps).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
