package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
)

// Initialize writes the default configuration to dir if no configuration
// exists there yet and then loads it.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	logger.Printf("Initializing config in %q\n", dir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	for _, name := range []string{ConfigurationName, TOMLConfigurationName} {
		existing := filepath.Join(dir, name)
		_, err := os.Stat(existing)
		switch {
		case err == nil:
			logger.Printf("- %s already exists, skipping\n", existing)
			return Load(dir)
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}

	target := filepath.Join(dir, ConfigurationName)
	logger.Printf("- writing %s\n", target)
	if err := os.WriteFile(target, defaultConfigData, 0600); err != nil {
		return nil, err
	}

	return Load(dir)
}
