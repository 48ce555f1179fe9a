// Package config manages reward-mode configurations.
//
// Each mode lives in the config directory as a JSON or YAML file (.json,
// .yaml, .yml) and is identified by its file name without extension:
//
//	name: Unique Altar
//	description: Mode 2 ...
//	mode: 2
//	reward_track: [0, 1, 2, 2, 3, 2, 3, 3, 4, 3, 4, 4, 3, 4, 4, 4, 5]
//	max_moves: 8
//	messages:
//	  welcome: ...
//
// Two modes ship in configs/: super_epic and unique. The default is
// super_epic, then the first valid file, then engine.DefaultGameConfig.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("unique")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	configs, err := manager.ListConfigs()
//
// Loaded configurations are validated by engine.ValidateGameConfig and cached
// until RefreshCache is called.
package config
