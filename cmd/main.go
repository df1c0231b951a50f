package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tracklink/internal/embeddings"
	"github.com/desertthunder/tracklink/internal/repositories"
	"github.com/desertthunder/tracklink/internal/services"
	"github.com/desertthunder/tracklink/internal/shared"
	"github.com/desertthunder/tracklink/internal/tasks"
	"github.com/desertthunder/tracklink/internal/vector"
)

func main() {
	godotenv.Load()

	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	applyEnvOverrides(config)

	var spotifyService services.Service
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
			if token := config.Credentials.Spotify.Token(); token != nil {
				if err := svc.Authenticate(context.Background(), map[string]string{"access_token": token.AccessToken}); err != nil {
					logger.Warn("failed to restore spotify session", "error", err)
				}
			}
			spotifyService = svc
		} else {
			logger.Warn("failed to create spotify service", "error", err)
		}
	}

	youtubeService := services.NewYouTubeService(config.Credentials.YouTube.ProxyURL)
	if config.Credentials.YouTube.HeadersPath != "" {
		if err := youtubeService.Authenticate(context.Background(), map[string]string{
			"headers_path": config.Credentials.YouTube.HeadersPath,
		}); err != nil {
			logger.Warn("failed to restore youtube session", "error", err)
		}
	}
	apiService := services.NewAPIService(config.Credentials.YouTube.ProxyURL, nil)

	opts := RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Spotify:    spotifyService,
		YouTube:    youtubeService,
		API:        apiService,
		Logger:     logger,
	}

	// The resolution pipeline needs the catalog database and the vector
	// index. Commands that only talk to the platform APIs still work when
	// either is missing, so wiring failures downgrade instead of aborting.
	if db, err := shared.NewDatabase(config.Database.Path); err != nil {
		logger.Warn("failed to open database, resolution commands disabled", "error", err)
	} else {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		opts.DB = db

		if index, err := vector.NewQdrantIndex(config.Vector, config.Embedding.Dimension, logger); err != nil {
			logger.Warn("failed to create vector index, resolution commands disabled", "error", err)
		} else {
			embedder := embeddings.NewCachedEmbedder(
				embeddings.NewOpenAIEmbedder(config.Credentials.OpenAI.APIKey, config.Embedding, logger),
				config.Embedding.CacheSize,
				config.Embedding.CacheTTL(),
			)

			links := repositories.NewLinkRepository(db)
			tracks := repositories.NewTrackRepository(db)
			playlists := repositories.NewPlaylistRepository(db)
			conversions := repositories.NewConversionRepository(db)

			opts.Resolver = tasks.NewMatchResolver(
				embedder, index, links, tracks,
				spotifyService, youtubeService,
				tasks.ResolverConfigFrom(config), logger,
			)
			opts.Engine = tasks.NewPlaylistEngine(opts.Resolver, spotifyService, youtubeService, playlists, conversions)
			opts.Enricher = tasks.NewVectorEnricher(embedder, index, tracks, logger)
		}
	}

	runner := NewRunner(opts)

	app := &cli.Command{
		Name:     "tracklink",
		Usage:    "Match and link tracks between Spotify & YouTube Music",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

// applyEnvOverrides lets environment variables (including a local .env)
// fill credentials the config file leaves blank.
func applyEnvOverrides(config *shared.Config) {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" && config.Credentials.Spotify.ClientID == "" {
		config.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" && config.Credentials.Spotify.ClientSecret == "" {
		config.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && config.Credentials.OpenAI.APIKey == "" {
		config.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("QDRANT_API_KEY"); v != "" && config.Vector.APIKey == "" {
		config.Vector.APIKey = v
	}
}
