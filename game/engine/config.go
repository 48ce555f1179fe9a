package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidateGameConfig validates a reward mode configuration
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}
	if config.Mode < 1 {
		return fmt.Errorf("config validation: mode must be positive, got %d", config.Mode)
	}

	if len(config.RewardTrack) != TrackLength {
		return fmt.Errorf("config validation: reward_track must have %d entries, got %d", TrackLength, len(config.RewardTrack))
	}
	for i, tier := range config.RewardTrack {
		if tier < MinRewardTier || tier > MaxRewardTier {
			return fmt.Errorf("config validation: reward_track[%d] must be between %d and %d, got %d",
				i, MinRewardTier, MaxRewardTier, tier)
		}
	}

	if config.MaxMoves < 1 || config.MaxMoves > MaxMovesCap {
		return fmt.Errorf("config validation: max_moves must be between 1 and %d, got %d", MaxMovesCap, config.MaxMoves)
	}

	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}

	return nil
}

// DecodeGameConfig parses a config document. format is "json" or "yaml".
func DecodeGameConfig(data []byte, format string) (*GameConfig, error) {
	var config GameConfig
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	case "json", "":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	return &config, nil
}

// LoadGameConfig loads a game configuration from a JSON or YAML file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	config, err := DecodeGameConfig(data, filepath.Ext(configPath))
	if err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// SuperEpicTrack and UniqueTrack are the reward tables of the two built-in modes.
var (
	SuperEpicTrack = []int{0, 1, 1, 2, 1, 2, 2, 3, 2, 3, 3, 2, 3, 3, 3, 3, 4}
	UniqueTrack    = []int{0, 1, 2, 2, 3, 2, 3, 3, 4, 3, 4, 4, 3, 4, 4, 4, 5}
)

// DefaultGameConfig returns the built-in super epic mode.
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:        "Super Epic Altar",
		Description: "Mode 1: push the token to the end of the track for a Super Epic reward.",
		Mode:        1,
		RewardTrack: append([]int(nil), SuperEpicTrack...),
		MaxMoves:    DefaultMaxMoves,
		Messages: Messages{
			Welcome:    "Choose an action to move the token. Reach the last square for the best reward.",
			Finished:   "The session is finished.",
			OutOfMoves: "No moves left.",
			ReachedEnd: "The token reached the end of the track!",
		},
	}
}

// InitGameStateFromConfig creates a new game state using the provided configuration
func InitGameStateFromConfig(config *GameConfig) *GameState {
	if config == nil {
		config = DefaultGameConfig()
	}

	return &GameState{
		Position:          0,
		RemainingMoves:    config.MaxMoves,
		MaxMoves:          config.MaxMoves,
		Choice2Remaining:  DefaultChoiceUses,
		Choice3Remaining:  DefaultChoiceUses,
		Mode:              config.Mode,
		ConfigName:        config.Name,
		RewardTrack:       append([]int(nil), config.RewardTrack...),
		Message:           config.Messages.Welcome,
		MoveHistory:       []MoveHistoryEntry{},
		CurrentMoves:      []MoveHistoryEntry{},
		CurrentMovesCount: 0,
	}
}
