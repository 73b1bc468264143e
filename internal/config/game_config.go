package config

import (
	"fmt"
	"os"

	"github.com/playmatatu/pong/internal/game"
	"gopkg.in/yaml.v3"
)

// LoadGameConfig builds the match configuration: defaults, then the YAML file
// at GameConfigPath (if any), then MAX_SCORE when it is set in the environment.
func (c *Config) LoadGameConfig() (game.GameConfig, error) {
	cfg, err := LoadGameConfigFile(c.GameConfigPath)
	if err != nil {
		return cfg, err
	}
	if c.MaxScore > 0 {
		cfg.MaxScore = c.MaxScore
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("game config: %w", err)
	}
	return cfg, nil
}

// LoadGameConfigFile reads a YAML GameConfig over the defaults. Fields absent
// from the file keep their default value. An empty path yields the defaults.
// Setting only the board size re-derives paddle and ball sizes from it.
func LoadGameConfigFile(path string) (game.GameConfig, error) {
	cfg := game.DefaultGameConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read game config %s: %w", path, err)
	}

	var board struct {
		Width  float64 `yaml:"board_width"`
		Height float64 `yaml:"board_height"`
	}
	if err := yaml.Unmarshal(data, &board); err != nil {
		return cfg, fmt.Errorf("parse game config %s: %w", path, err)
	}
	if board.Width > 0 && board.Height > 0 {
		cfg = game.NewGameConfig(board.Width, board.Height)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse game config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("game config %s: %w", path, err)
	}
	return cfg, nil
}
