package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// QueueConfig contains tunables for queue listing behavior.
type QueueConfig struct {
	// DefaultListLimit caps List and view-queue results when the caller
	// does not supply a limit.
	DefaultListLimit int `mapstructure:"default_list_limit" validate:"gte=0"`

	// ResultsLimit caps completed-results listings.
	ResultsLimit int `mapstructure:"results_limit" validate:"gte=0"`
}
