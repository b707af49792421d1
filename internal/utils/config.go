package utils

import (
	"fmt"

	"github.com/benmeehan/fieldcase/internal/capture"
	"github.com/benmeehan/fieldcase/pkg/file"
	"github.com/benmeehan/fieldcase/pkg/location"
)

// Store backends
const (
	StoreBackendFile     = "file"
	StoreBackendPostgres = "postgres"
)

// Location providers
const (
	ProviderSensor = "sensor"
	ProviderGoogle = "google"
)

// Config represents the structure of the configuration file.
type Config struct {
	Log struct {
		Level  string `yaml:"level"`  // zerolog level name
		Format string `yaml:"format"` // console or json
	} `yaml:"log"`

	Store struct {
		Backend     string `yaml:"backend"`      // file or postgres
		FilePath    string `yaml:"file_path"`    // Path of the JSON case file
		PostgresDSN string `yaml:"postgres_dsn"` // Postgres connection string
	} `yaml:"store"`

	Location struct {
		Provider        string                `yaml:"provider"`           // sensor or google
		GPSDevicePort   string                `yaml:"gps_device_port"`    // UNIX Port where the GPS sensor is mounted
		GPSBaudRate     int                   `yaml:"gps_baud_rate"`      // The Baud rate for GPS sensor
		MapsAPIKey      string                `yaml:"maps_api_key"`       // Google maps API Key
		UEREMeters      float64               `yaml:"uere_meters"`        // Receiver error multiplied by HDOP
		Sampler         capture.SamplerPolicy `yaml:"sampler"`            // Sampling loop settings
		OpenMapOnCommit bool                  `yaml:"open_map_on_commit"` // Show the map after a save
	} `yaml:"location"`

	ImageHost struct {
		Endpoint        string `yaml:"endpoint"`          // S3 compatible endpoint, host:port
		AccessKeyID     string `yaml:"access_key_id"`     // Access key
		SecretAccessKey string `yaml:"secret_access_key"` // Secret key
		UseSSL          bool   `yaml:"use_ssl"`           // Use https for the endpoint
		Bucket          string `yaml:"bucket"`            // Bucket that holds case images
		Region          string `yaml:"region"`            // Bucket region
	} `yaml:"image_host"`

	MQTT struct {
		Enabled       bool   `yaml:"enabled"`        // Publish capture events
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate
		Topic         string `yaml:"topic"`          // Topic for capture events
		QOS           int    `yaml:"qos"`            // MQTT QoS level for capture events
	} `yaml:"mqtt"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	var config Config
	config.applyDefaults()
	return &config
}

// LoadConfig loads the YAML configuration from the specified file.
// Missing values are filled with defaults and the result is validated.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadConfigOrDefault loads filename, or returns DefaultConfig when the file does not exist.
func LoadConfigOrDefault(filename string, fileClient file.FileOperations) (*Config, bool, error) {
	exists, err := fileClient.IsFileExists(filename)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return DefaultConfig(), false, nil
	}

	config, err := LoadConfig(filename, fileClient)
	return config, true, err
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = StoreBackendFile
	}
	if c.Store.FilePath == "" {
		c.Store.FilePath = "data/cases.json"
	}
	if c.Location.Provider == "" {
		c.Location.Provider = ProviderSensor
	}
	if c.Location.GPSBaudRate == 0 {
		c.Location.GPSBaudRate = 9600
	}
	if c.Location.UEREMeters == 0 {
		c.Location.UEREMeters = location.DefaultUERE
	}

	defaults := capture.DefaultSamplerPolicy()
	if c.Location.Sampler.TargetCount == 0 {
		c.Location.Sampler.TargetCount = defaults.TargetCount
	}
	if c.Location.Sampler.InterAttemptDelay == 0 {
		c.Location.Sampler.InterAttemptDelay = defaults.InterAttemptDelay
	}
	if c.Location.Sampler.AttemptTimeout == 0 {
		c.Location.Sampler.AttemptTimeout = defaults.AttemptTimeout
	}

	if c.ImageHost.Bucket == "" {
		c.ImageHost.Bucket = "case-images"
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "fieldcase/capture"
	}
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreBackendFile:
	case StoreBackendPostgres:
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	switch c.Location.Provider {
	case ProviderSensor, ProviderGoogle:
	default:
		return fmt.Errorf("unknown location provider %q", c.Location.Provider)
	}

	if c.Location.Sampler.TargetCount < 1 {
		return capture.ErrInvalidTargetCount
	}
	if c.Location.Sampler.InterAttemptDelay < 0 || c.Location.Sampler.AttemptTimeout < 0 {
		return fmt.Errorf("sampler durations must not be negative")
	}
	if c.MQTT.QOS < 0 || c.MQTT.QOS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
	}
	return nil
}
