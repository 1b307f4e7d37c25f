package main

import (
	_ "embed"
	"flag"
	"os"
	"strings"

	"streamfs/pkg/log"
	"streamfs/pkg/objstore"
	"streamfs/pkg/server"
	"streamfs/pkg/stream/memstream"
)

//go:embed VERSION
var Version string

func main() {
	// Initialize logger first
	_ = log.Logger

	addr := flag.String("addr", "", "Gateway listen address (overrides config)")
	data := flag.String("data", "", "Journal database path; empty runs in memory (overrides config)")
	configPath := flag.String("config", "", "YAML configuration file")
	chunkSize := flag.Int("chunk-size", 0, "Default object chunk size in bytes (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		if err := loadConfig(*configPath, &cfg); err != nil {
			log.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load configuration")
		}
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *data != "" {
		cfg.Data = *data
	}
	if *chunkSize > 0 {
		cfg.ChunkSize = *chunkSize
	}
	if *debug {
		cfg.Debug = true
	}

	if cfg.Debug {
		log.SetDebugMode()
		log.Debug().Msg("Debug mode enabled")
	}

	var streamOpts []memstream.Option
	if cfg.Data != "" {
		streamOpts = append(streamOpts, memstream.WithJournal(cfg.Data))
		log.Info().Str("data", cfg.Data).Msg("Journaling to SQLite")
	} else {
		log.Info().Msg("Running in memory, no journal configured")
	}

	sc, err := memstream.New(streamOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open stream substrate")
	}

	var storeOpts []objstore.Option
	if cfg.ChunkSize > 0 {
		storeOpts = append(storeOpts, objstore.WithDefaultChunkSize(cfg.ChunkSize))
	}
	store := objstore.New(sc, storeOpts...)

	gw := server.NewGateway(store, strings.TrimSpace(Version))
	if err := gw.Start(cfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}

	if err := sc.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close stream substrate")
	}

	os.Exit(0)
}
