// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// GameConfig contains the settings for a single game of go-stellar.
type GameConfig struct {
	Name                     string  `json:"name"`
	GalaxySize               string  `json:"galaxySize"`
	MaxPlayers               int     `json:"maxPlayers"`
	TurnTimeoutHours         uint32  `json:"turnTimeoutHours"`
	MaxTimeoutsBeforeForfeit uint32  `json:"maxTimeoutsBeforeForfeit"`
	FleetSpeedScale          float64 `json:"fleetSpeedScale"`
	JumpRange                float64 `json:"jumpRange"`
	MinHomeworldSeparation   float64 `json:"minHomeworldSeparation"`
	Seed                     uint64  `json:"seed"`
}

// Galaxy size names accepted by GameConfig.GalaxySize.
const (
	GalaxySmall  = "small"
	GalaxyMedium = "medium"
	GalaxyLarge  = "large"
)

// LoadConfig loads a game configuration from a file
func LoadConfig(path string) (*GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &config, nil
}

// SaveConfig saves a game configuration to a file
func SaveConfig(config *GameConfig, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration values are usable.
func (c *GameConfig) Validate() error {
	switch c.GalaxySize {
	case GalaxySmall, GalaxyMedium, GalaxyLarge:
	default:
		return fmt.Errorf("unknown galaxy size %q", c.GalaxySize)
	}
	if c.MaxPlayers < 2 {
		return fmt.Errorf("maxPlayers must be at least 2, got %d", c.MaxPlayers)
	}
	if c.TurnTimeoutHours == 0 {
		return fmt.Errorf("turnTimeoutHours must be positive")
	}
	if c.FleetSpeedScale <= 0 {
		return fmt.Errorf("fleetSpeedScale must be positive, got %f", c.FleetSpeedScale)
	}
	if c.JumpRange <= 0 {
		return fmt.Errorf("jumpRange must be positive, got %f", c.JumpRange)
	}
	if c.MinHomeworldSeparation < 0 {
		return fmt.Errorf("minHomeworldSeparation must not be negative, got %f", c.MinHomeworldSeparation)
	}
	return nil
}

// DefaultConfig returns a default game configuration
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Name:                     "New Game",
		GalaxySize:               GalaxyMedium,
		MaxPlayers:               4,
		TurnTimeoutHours:         72,
		MaxTimeoutsBeforeForfeit: 3,
		FleetSpeedScale:          5.0,
		JumpRange:                60.0,
		MinHomeworldSeparation:   20.0,
		Seed:                     0,
	}
}
