package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/stormvale/voxelcore/pkg/config"
	"github.com/stormvale/voxelcore/pkg/logging"
	"github.com/stormvale/voxelcore/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (optional, overlays Default())")
	reliableAddress := flag.String("reliable-address", "", "Reliable (WebSocket) listen address, overrides config")
	unreliableAddress := flag.String("unreliable-address", "", "Unreliable (UDP) listen address, overrides config")
	maxPlayers := flag.Int("max-players", 0, "Maximum number of players, overrides config (0 = use config)")
	seed := flag.Int64("seed", 0, "World seed, overrides config (0 = use config)")
	regionDir := flag.String("region-dir", "", "Region file directory, overrides config")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fatalf("loading config: %v", err)
		}
		cfg = loaded
	}
	if *reliableAddress != "" {
		cfg.ReliableAddress = *reliableAddress
	}
	if *unreliableAddress != "" {
		cfg.UnreliableAddress = *unreliableAddress
	}
	if *maxPlayers != 0 {
		cfg.MaxPlayers = *maxPlayers
	}
	if *seed != 0 {
		cfg.World.Seed = *seed
	}
	if *regionDir != "" {
		cfg.World.RegionDir = *regionDir
	}
	if err := cfg.Validate(); err != nil {
		fatalf("invalid config: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fatalf("building logger: %v", err)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}

	logger.Info().
		Str("reliable_address", cfg.ReliableAddress).
		Str("unreliable_address", cfg.UnreliableAddress).
		Int("max_players", cfg.MaxPlayers).
		Msg("voxelcore server started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down, received signal")
	case <-srv.StopChan():
		logger.Info().Msg("shutting down, internal stop requested")
	}

	srv.Stop()
	logger.Info().Msg("server stopped")
}

func fatalf(format string, args ...any) {
	logger, _ := logging.New(config.LogConfig{Level: "info"})
	logger.Fatal().Msgf(format, args...)
}
