package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/wricardo/minigame-solver/game/engine"
	"gopkg.in/yaml.v3"
)

func createValidConfig() *engine.GameConfig {
	return &engine.GameConfig{
		Name:        "Test Config",
		Description: "Test configuration",
		Mode:        1,
		RewardTrack: append([]int(nil), engine.SuperEpicTrack...),
		MaxMoves:    6,
		Messages: engine.Messages{
			Welcome:    "Welcome!",
			Finished:   "Done.",
			OutOfMoves: "Out of moves.",
			ReachedEnd: "End reached.",
		},
	}
}

func writeJSONConfig(t *testing.T, dir, name string, config *engine.GameConfig) {
	t.Helper()
	data, err := json.Marshal(config)
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func writeYAMLConfig(t *testing.T, dir, name string, config *engine.GameConfig) {
	t.Helper()
	data, err := yaml.Marshal(config)
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := t.TempDir()
		writeJSONConfig(t, dir, "super_epic.json", createValidConfig())

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		if manager.GetDefault().Name != "Test Config" {
			t.Errorf("Expected default 'Test Config', got %q", manager.GetDefault().Name)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager(filepath.Join(t.TempDir(), "missing"))
		if err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory falls back to built-in mode", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		def := manager.GetDefault()
		if def == nil || def.Name != engine.DefaultGameConfig().Name {
			t.Errorf("Expected built-in default, got %+v", def)
		}
	})

	t.Run("first available config when super_epic is missing", func(t *testing.T) {
		dir := t.TempDir()
		other := createValidConfig()
		other.Name = "Other"
		writeYAMLConfig(t, dir, "other.yaml", other)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		if manager.GetDefault().Name != "Other" {
			t.Errorf("Expected default 'Other', got %q", manager.GetDefault().Name)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeJSONConfig(t, dir, "valid.json", createValidConfig())

	yamlConfig := createValidConfig()
	yamlConfig.Name = "YAML Config"
	yamlConfig.Mode = 2
	yamlConfig.RewardTrack = append([]int(nil), engine.UniqueTrack...)
	writeYAMLConfig(t, dir, "unique.yml", yamlConfig)

	invalid := createValidConfig()
	invalid.RewardTrack = []int{1, 2, 3}
	writeJSONConfig(t, dir, "invalid.json", invalid)

	if err := os.WriteFile(filepath.Join(dir, "malformed.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	t.Run("load existing config", func(t *testing.T) {
		config, err := manager.LoadConfig("valid")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if config.MaxMoves != 6 {
			t.Errorf("Expected max moves 6, got %d", config.MaxMoves)
		}
	})

	t.Run("load with extension", func(t *testing.T) {
		config, err := manager.LoadConfig("valid.json")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if config.Name != "Test Config" {
			t.Errorf("Unexpected name %q", config.Name)
		}
	})

	t.Run("load yaml config", func(t *testing.T) {
		config, err := manager.LoadConfig("unique")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if config.Mode != 2 || engine.BestReward(config.RewardTrack) != 5 {
			t.Errorf("Unexpected yaml config %+v", config)
		}
	})

	t.Run("load from cache", func(t *testing.T) {
		first, _ := manager.LoadConfig("valid")
		second, _ := manager.LoadConfig("valid.json")
		if first != second {
			t.Error("Expected cached config to be returned")
		}
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := manager.LoadConfig("nope")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("load invalid config", func(t *testing.T) {
		_, err := manager.LoadConfig("invalid")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("load malformed JSON", func(t *testing.T) {
		_, err := manager.LoadConfig("malformed")
		if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
			t.Errorf("Expected parse error, got %v", err)
		}
	})
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()
	a := createValidConfig()
	a.Name = "Alpha"
	writeJSONConfig(t, dir, "alpha.json", a)

	b := createValidConfig()
	b.Name = "Beta"
	b.RewardTrack = append([]int(nil), engine.UniqueTrack...)
	writeYAMLConfig(t, dir, "beta.yaml", b)

	broken := createValidConfig()
	broken.Name = ""
	writeJSONConfig(t, dir, "broken.json", broken)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0755); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	configs, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("Expected 2 configs, got %d", len(configs))
	}

	if configs[0].ConfigID != "alpha" || configs[1].ConfigID != "beta" {
		t.Errorf("Unexpected order: %s, %s", configs[0].ConfigID, configs[1].ConfigID)
	}
	if configs[0].BestReward != "SuperEpic" {
		t.Errorf("Expected SuperEpic best reward, got %q", configs[0].BestReward)
	}
	if configs[1].BestReward != "Unique" || configs[1].Filename != "beta.yaml" {
		t.Errorf("Unexpected beta info %+v", configs[1])
	}
	if configs[1].MaxMoves != 6 || configs[1].Mode != 1 {
		t.Errorf("Unexpected beta counters %+v", configs[1])
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	t.Run("json", func(t *testing.T) {
		if err := manager.SaveConfig("saved", createValidConfig()); err != nil {
			t.Fatalf("SaveConfig failed: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(dir, "saved.json"))
		if err != nil {
			t.Fatalf("Saved file missing: %v", err)
		}
		if !strings.Contains(string(data), `"reward_track"`) {
			t.Errorf("Saved JSON lacks reward_track: %s", data)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		config := createValidConfig()
		config.Name = "Saved YAML"
		if err := manager.SaveConfig("saved_yaml.yaml", config); err != nil {
			t.Fatalf("SaveConfig failed: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(dir, "saved_yaml.yaml"))
		if err != nil {
			t.Fatalf("Saved file missing: %v", err)
		}
		if !strings.Contains(string(data), "name: Saved YAML") {
			t.Errorf("Saved YAML unexpected: %s", data)
		}

		if err := manager.RefreshCache(); err != nil {
			t.Fatalf("RefreshCache failed: %v", err)
		}
		loaded, err := manager.LoadConfig("saved_yaml")
		if err != nil {
			t.Fatalf("LoadConfig after refresh failed: %v", err)
		}
		if loaded.Name != "Saved YAML" {
			t.Errorf("Expected reloaded name, got %q", loaded.Name)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		config := createValidConfig()
		config.MaxMoves = 0
		if err := manager.SaveConfig("bad", config); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	other := createValidConfig()
	other.Name = "Other"
	writeJSONConfig(t, dir, "other.json", other)
	writeJSONConfig(t, dir, "super_epic.json", createValidConfig())

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if err := manager.SetDefault("other"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	if manager.GetDefault().Name != "Other" {
		t.Errorf("Expected default 'Other', got %q", manager.GetDefault().Name)
	}
	if err := manager.SetDefault("missing"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestManager_BundledConfigs(t *testing.T) {
	manager, err := NewManager("../../configs")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	superEpic, err := manager.LoadConfig("super_epic")
	if err != nil {
		t.Fatalf("Failed to load super_epic: %v", err)
	}
	if engine.BestReward(superEpic.RewardTrack) != 4 || superEpic.Mode != 1 {
		t.Errorf("Unexpected super_epic config %+v", superEpic)
	}

	unique, err := manager.LoadConfig("unique")
	if err != nil {
		t.Fatalf("Failed to load unique: %v", err)
	}
	if engine.BestReward(unique.RewardTrack) != 5 || unique.Mode != 2 {
		t.Errorf("Unexpected unique config %+v", unique)
	}

	if manager.GetDefault() != superEpic {
		t.Error("Expected super_epic to be the default")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	writeJSONConfig(t, dir, "super_epic.json", createValidConfig())
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := manager.LoadConfig("super_epic"); err != nil {
				errs <- err
			}
			_ = manager.GetDefault()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent load failed: %v", err)
	}
}
