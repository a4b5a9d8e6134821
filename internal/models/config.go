package models

// Config holds store or archive connection settings
type Config struct {
	Provider string            // sqlite, memory, mongodb
	URI      string            // Connection URI or file path
	Database string            // Database name
	Options  map[string]string // Provider-specific options
}
