// Command shell is an interactive, offline simulator: play the reward game
// with live odds and edit a placement workspace from a readline prompt.
package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/minigame-solver/game/config"
)

func main() {
	configDir := flag.String("config-dir", "configs", "Directory holding reward configurations")
	history := flag.String("history", filepath.Join(os.TempDir(), "minigame-shell.history"), "Readline history file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	configs, err := config.NewManager(*configDir)
	if err != nil {
		log.Warn().Err(err).Str("dir", *configDir).Msg("configs-unavailable-using-built-in-track")
		configs = nil
	}

	sc, err := NewShellController(configs, *history)
	if err != nil {
		log.Fatal().Err(err).Msg("readline-init-failed")
	}
	sc.Loop()
}
