package config

import (
	"embed"
	"os"
	"path/filepath"
)

//go:embed default_cardutil.json
var defaultConfigFS embed.FS

// defaultConfigPath is the path within defaultConfigFS of the built-in
// field table, used when neither CARDUTIL_CONFIG nor --config-file names
// one.
const defaultConfigPath = "default_cardutil.json"

// LoadDefault loads the module's built-in field table.
func LoadDefault() (*Config, error) {
	return Load(defaultConfigFS, defaultConfigPath)
}

// Resolve locates the configuration document to load, in priority order:
// an explicit --config-file path, then CARDUTIL_CONFIG/cardutil.json, then
// falling back to the built-in default. configFileFlag is empty when the
// CLI flag was not given.
func Resolve(configFileFlag string) (*Config, error) {
	if configFileFlag != "" {
		dir, file := filepath.Split(configFileFlag)
		if dir == "" {
			dir = "."
		}
		return Load(os.DirFS(dir), file)
	}
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return Load(os.DirFS(dir), DefaultConfigFileName)
	}
	return LoadDefault()
}
