package filestore

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the settings of a file-backed fragment store.
type Config struct {
	// Dir is the directory fragments are stored in.
	// It is created on New when it does not exist.
	Dir string `toml:"dir"`

	// FsyncOnWrite forces an fsync of every fragment file before it is
	// renamed into place. Slower, but a crash cannot lose an acknowledged write.
	FsyncOnWrite bool `toml:"fsync_on_write"`
}

// DefaultConfig returns the default file store configuration.
func DefaultConfig() *Config {
	return &Config{
		Dir:          "./fragments",
		FsyncOnWrite: false,
	}
}

// LoadConfig reads a TOML configuration file, falling back to defaults for
// missing keys. A missing file is not an error; the defaults are returned.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
