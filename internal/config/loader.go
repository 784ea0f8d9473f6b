package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileName = "signalmaster.yaml"

// Load loads the simulation configuration.
// Search order: customPath -> ~/.signalmaster/configs/signalmaster.yaml ->
// ./configs/signalmaster.yaml -> embedded default.
// Files are decoded on top of the defaults, so a partial file only overrides
// the keys it names.
func Load(customPath string) (SimConfig, error) {
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return SimConfig{}, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		cfg, err := decode(data)
		if err != nil {
			return SimConfig{}, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		if err := cfg.Validate(); err != nil {
			return SimConfig{}, fmt.Errorf("invalid config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	candidates := []string{userConfigPath(fileName), filepath.Join("configs", fileName)}
	for _, path := range candidates {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if cfg, err := decode(data); err == nil && cfg.Validate() == nil {
			return cfg, nil
		}
	}

	cfg, err := decode(defaultSimYAML)
	if err != nil || cfg.Validate() != nil {
		return DefaultSimConfig(), nil // Fallback to hardcoded if embed is broken
	}
	return cfg, nil
}

func decode(data []byte) (SimConfig, error) {
	cfg := DefaultSimConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SimConfig{}, err
	}
	return cfg, nil
}

// userConfigPath returns the path to a user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".signalmaster", "configs", filename)
}
