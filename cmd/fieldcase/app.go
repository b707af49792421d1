package main

import (
	"context"
	"fmt"
	"os"

	"github.com/benmeehan/fieldcase/internal/repository"
	"github.com/benmeehan/fieldcase/internal/services"
	"github.com/benmeehan/fieldcase/internal/state_managers"
	"github.com/benmeehan/fieldcase/internal/utils"
	"github.com/benmeehan/fieldcase/pkg/file"
	"github.com/benmeehan/fieldcase/pkg/location"
	"github.com/benmeehan/fieldcase/pkg/mqtt"
	"github.com/benmeehan/fieldcase/pkg/s3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// App holds the dependencies built from the configuration for one command run.
type App struct {
	opts *Options
	ctx  context.Context

	config     *utils.Config
	logger     zerolog.Logger
	fileClient file.FileOperations

	closers []func()
}

// Setup loads the configuration and logger. Commands call it before anything else.
func (a *App) Setup() error {
	a.fileClient = file.NewFileService()

	config, loaded, err := utils.LoadConfigOrDefault(a.opts.ConfigFile, a.fileClient)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if a.opts.LogLevel != "" {
		config.Log.Level = a.opts.LogLevel
	}
	if a.opts.LogFormat != "" {
		config.Log.Format = a.opts.LogFormat
	}
	a.config = config

	a.logger, err = utils.NewLogger(config.Log.Level, config.Log.Format, os.Stderr)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if !loaded {
		a.logger.Warn().Str("path", a.opts.ConfigFile).Msg("Configuration file not found, using defaults")
	}
	return nil
}

// Close releases connections opened by the command, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// CaseStore opens the configured case store.
func (a *App) CaseStore() (services.CaseStore, error) {
	if a.config.Store.Backend != utils.StoreBackendPostgres {
		return state_managers.NewCaseStateManager(a.config.Store.FilePath, a.fileClient, a.logger), nil
	}

	pool, err := pgxpool.New(a.ctx, a.config.Store.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	repo := repository.NewRepository(pool)
	if err := repo.Migrate(a.ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// LocationProvider builds the configured location provider.
func (a *App) LocationProvider() (location.Provider, error) {
	cfg := a.config.Location

	var provider location.Provider
	if cfg.Provider == utils.ProviderGoogle {
		google, err := location.NewGoogleGeolocationProvider(cfg.MapsAPIKey, 0)
		if err != nil {
			return nil, err
		}
		provider = google
	} else {
		provider = location.NewDeviceSensorProvider(cfg.GPSDevicePort, cfg.GPSBaudRate, cfg.UEREMeters)
	}

	a.closers = append(a.closers, func() {
		if err := provider.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close location provider")
		}
	})
	return provider, nil
}

// EventPublisher connects to the MQTT broker when events are enabled. It returns nil otherwise.
func (a *App) EventPublisher() (*services.EventPublisher, error) {
	cfg := a.config.MQTT
	if !cfg.Enabled {
		return nil, nil
	}

	clientID := cfg.ClientID + "-" + uuid.New().String()
	client := mqtt.NewMqttService(a.fileClient)
	if err := client.Initialize(cfg.Broker, clientID, cfg.CACertificate); err != nil {
		return nil, fmt.Errorf("failed to initialize MQTT connection: %w", err)
	}
	a.closers = append(a.closers, func() { client.Disconnect(250) })

	a.logger.Info().Str("client_id", clientID).Msg("Connected to MQTT broker")
	return services.NewEventPublisher(cfg.Topic, cfg.QOS, client, a.logger), nil
}

// ImageHost connects to the configured object storage.
func (a *App) ImageHost() (s3.ImageHost, error) {
	cfg := a.config.ImageHost
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("image_host.endpoint is not configured")
	}

	storage := s3.NewObjectStorage(cfg.Bucket, cfg.Region)
	if err := storage.Connect(a.ctx, cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey, cfg.UseSSL); err != nil {
		return nil, err
	}
	return storage, nil
}
