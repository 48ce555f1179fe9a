// Command validate checks reward configurations and saved placement
// workspaces before they are deployed or imported. For configurations it
// checks:
//   - JSON or YAML structure and required fields
//   - Reward track length and tier range
//   - Move budget bounds
//   - Presence of every player message
//   - That the best reward can be reached from square 0 with a full budget
//
// For workspaces it runs the same import the server uses and reports pieces
// that would be skipped.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/minigame-solver/game/engine"
	"github.com/wricardo/minigame-solver/game/puzzle"
	"github.com/wricardo/minigame-solver/game/snapshot"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	config, err := engine.DecodeGameConfig(data, filepath.Ext(filePath))
	if err != nil {
		result.fail("Invalid config syntax: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(config); err != nil {
		result.fail("%v", err)
		return result
	}

	for key, text := range map[string]string{
		"finished":     config.Messages.Finished,
		"out_of_moves": config.Messages.OutOfMoves,
		"reached_end":  config.Messages.ReachedEnd,
	} {
		if text == "" {
			result.fail("Missing required message: %s", key)
		}
	}
	if !result.Valid {
		return result
	}

	best := engine.BestReward(config.RewardTrack)
	result.info("Track: best reward %s at squares %v", engine.RewardName(best), engine.BestPositions(config.RewardTrack))

	probs := engine.SolveProbabilities(0, config.MaxMoves, engine.DefaultChoiceUses, engine.DefaultChoiceUses, config.RewardTrack)
	if odds := probs.Best(); odds > 0 {
		result.info("Reachability: %.2f%% to finish on a best square from the start", odds*100)
	} else {
		result.fail("Best reward cannot be reached from the start in %d moves", config.MaxMoves)
	}

	return result
}

// validateSnapshot imports a workspace file and restores it into an empty
// puzzle, the same path the server's import takes.
func validateSnapshot(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	snap, report, err := snapshot.Import(data)
	if err != nil {
		result.fail("Import failed: %v", err)
		return result
	}
	if err := puzzle.New().Restore(snap); err != nil {
		result.fail("Restore failed: %v", err)
		return result
	}

	result.info("Format %s: %d pieces imported", report.Format, report.Imported)
	if snap.Board == nil {
		result.info("No board stored: the current board is kept")
	}
	for _, s := range report.Skipped {
		result.Errors = append(result.Errors, fmt.Sprintf("Skipped piece %d %s: %s", s.Index, s.ID, s.Reason))
	}
	return result
}

// configFiles lists the configuration documents in dir.
func configFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

// report prints the results and returns how many were invalid.
func report(w io.Writer, results []ValidationResult) int {
	invalid := 0
	for _, r := range results {
		status := "VALID"
		if !r.Valid {
			status = "INVALID"
			invalid++
		}
		fmt.Fprintf(w, "%s: %s\n", r.File, status)
		for _, msg := range r.Errors {
			fmt.Fprintf(w, "  %s\n", msg)
		}
	}
	fmt.Fprintf(w, "\n%d files checked, %d invalid\n", len(results), invalid)
	return invalid
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "check reward configurations and saved workspaces",
		Commands: []*cli.Command{
			{
				Name:  "configs",
				Usage: "validate every configuration in a directory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dir", Value: "../configs", Sources: cli.EnvVars("CONFIG_DIR")},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files, err := configFiles(cmd.String("dir"))
					if err != nil {
						return err
					}
					if len(files) == 0 {
						return cli.Exit("no configuration files found in "+cmd.String("dir"), 1)
					}
					results := make([]ValidationResult, 0, len(files))
					for _, f := range files {
						results = append(results, validateConfig(f))
					}
					if n := report(cmd.Root().Writer, results); n > 0 {
						return cli.Exit(fmt.Sprintf("%d invalid configurations", n), 1)
					}
					return nil
				},
			},
			{
				Name:      "snapshot",
				Usage:     "validate saved workspace files",
				ArgsUsage: "<file>...",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files := cmd.Args().Slice()
					if len(files) == 0 {
						return cli.Exit("at least one snapshot file is required", 1)
					}
					results := make([]ValidationResult, 0, len(files))
					for _, f := range files {
						results = append(results, validateSnapshot(f))
					}
					if n := report(cmd.Root().Writer, results); n > 0 {
						return cli.Exit(fmt.Sprintf("%d invalid snapshots", n), 1)
					}
					return nil
				},
			},
		},
	}
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("validation failed")
	}
}
