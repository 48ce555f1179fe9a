// Command analyze is an offline companion to the server. It prints odds
// tables for the reward game and runs the placement optimizer on a saved
// workspace without starting a session.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/minigame-solver/game/board"
	"github.com/wricardo/minigame-solver/game/config"
	"github.com/wricardo/minigame-solver/game/engine"
	"github.com/wricardo/minigame-solver/game/optimizer"
	"github.com/wricardo/minigame-solver/game/piece"
	"github.com/wricardo/minigame-solver/game/puzzle"
	"github.com/wricardo/minigame-solver/game/snapshot"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("analyze failed")
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "odds tables and offline placement optimization",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory holding reward configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "reward configuration id (defaults to the built-in super epic track)",
			},
		},
		Commands: []*cli.Command{
			oddsCommand(),
			tableCommand(),
			optimizeCommand(),
		},
	}
}

func oddsCommand() *cli.Command {
	return &cli.Command{
		Name:  "odds",
		Usage: "probability of finishing on a best square for each action",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "position", Usage: "current square (0-16)"},
			&cli.IntFlag{Name: "turns", Value: engine.DefaultMaxMoves, Usage: "moves left"},
			&cli.IntFlag{Name: "refine", Value: engine.DefaultChoiceUses, Usage: "refine uses left"},
			&cli.IntFlag{Name: "stabilize", Value: engine.DefaultChoiceUses, Usage: "stabilize uses left"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadTrack(cmd)
			if err != nil {
				return err
			}
			w := cmd.Root().Writer
			position := cmd.Int("position")
			turns := cmd.Int("turns")

			fmt.Fprintf(w, "%s: position %d, %d turns, refine %d, stabilize %d\n",
				cfg.Name, position, turns, cmd.Int("refine"), cmd.Int("stabilize"))
			fmt.Fprintf(w, "Best reward: %s\n", engine.RewardName(engine.BestReward(cfg.RewardTrack)))

			advice := engine.AdviseActions(position, turns, cmd.Int("refine"), cmd.Int("stabilize"), cfg.RewardTrack, false)
			for _, a := range advice {
				marker := " "
				if a.Best {
					marker = "*"
				}
				switch {
				case a.Disabled:
					fmt.Fprintf(w, "%s %-10s %s\n", marker, a.Label, a.Reason)
				case a.Probability != nil:
					fmt.Fprintf(w, "%s %-10s %7.2f%%\n", marker, a.Label, *a.Probability*100)
				}
			}
			return nil
		},
	}
}

func tableCommand() *cli.Command {
	return &cli.Command{
		Name:  "table",
		Usage: "best-action odds for every square with a full action budget",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "turns", Value: engine.DefaultMaxMoves, Usage: "moves left"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadTrack(cmd)
			if err != nil {
				return err
			}
			w := cmd.Root().Writer
			turns := cmd.Int("turns")

			fmt.Fprintf(w, "%s, %d turns\n", cfg.Name, turns)
			fmt.Fprintf(w, "%4s %5s %8s %8s %8s  %s\n", "pos", "tier", "strike", "refine", "stabil", "best")
			for pos := 0; pos <= engine.MaxPos; pos++ {
				probs := engine.SolveProbabilities(pos, turns, engine.DefaultChoiceUses, engine.DefaultChoiceUses, cfg.RewardTrack)
				advice := engine.AdviseActions(pos, turns, engine.DefaultChoiceUses, engine.DefaultChoiceUses, cfg.RewardTrack, false)
				best := "-"
				if i := engine.PickBest(advice); i >= 0 {
					best = advice[i].Label
				}
				fmt.Fprintf(w, "%4d %5d %8s %8s %8s  %s\n", pos, engine.RewardAt(cfg.RewardTrack, pos),
					percent(probs.Action1), percent(probs.Action2), percent(probs.Action3), best)
			}
			return nil
		},
	}
}

func percent(p *engine.ActionProbability) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", p.Probability*100)
}

// loadTrack resolves --config against --config-dir, or the built-in track.
func loadTrack(cmd *cli.Command) (*engine.GameConfig, error) {
	name := cmd.String("config")
	if name == "" {
		return engine.DefaultGameConfig(), nil
	}
	manager, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return nil, err
	}
	cfg, err := manager.LoadConfig(name)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", name, err)
	}
	return cfg, nil
}

func optimizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "optimize",
		Usage:     "optimize a saved workspace (browser export or native snapshot)",
		ArgsUsage: "<snapshot.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "role", Usage: "override the snapshot role (dealer, striker, supporter)"},
			&cli.DurationFlag{Name: "time-limit", Value: optimizer.DefaultTimeLimit, Usage: "search wall-clock budget"},
			&cli.Int64Flag{Name: "node-limit", Value: optimizer.DefaultNodeLimit, Usage: "search node budget"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("snapshot file is required")
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			snap, report, err := snapshot.Import(data)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			if role := cmd.String("role"); role != "" {
				if snap.Role, err = piece.ParseRole(role); err != nil {
					return err
				}
			}

			p := puzzle.New()
			if err := p.Restore(snap); err != nil {
				return fmt.Errorf("restore %s: %w", path, err)
			}
			log.Debug().Str("format", report.Format).Int("imported", report.Imported).
				Int("skipped", len(report.Skipped)).Msg("snapshot imported")

			res, err := p.Optimize(ctx, optimizer.Options{
				TimeLimit: cmd.Duration("time-limit"),
				NodeLimit: cmd.Int64("node-limit"),
			})
			if err != nil {
				return err
			}
			printResult(cmd.Root().Writer, p.Role(), res)
			return nil
		},
	}
}

func printResult(w io.Writer, role piece.Role, res *optimizer.Result) {
	fmt.Fprintf(w, "Role %s: placed %d pieces in %s (%d nodes, stop: %s)\n",
		role, len(res.Placements), res.Stats.Elapsed.Round(time.Millisecond), res.Stats.Nodes, res.Stats.StopReason)

	grid := make([][]byte, board.Size)
	for r := range grid {
		grid[r] = []byte(strings.Repeat(".", board.Size))
	}
	for i, pl := range res.Placements {
		for _, c := range pl.Cells {
			grid[c.Row][c.Col] = byte('a' + i%26)
		}
	}
	for _, row := range grid {
		fmt.Fprintln(w, string(row))
	}
	for i, pl := range res.Placements {
		fmt.Fprintf(w, "%c %s %s at %s\n", 'a'+i%26, pl.Piece.Shape, pl.Piece.Rarity, pl.Anchor)
	}
	fmt.Fprintf(w, "Score: %d base + %d bonus = %d\n", res.Score.BaseScore, res.Score.BonusScore, res.Score.TotalScore)
}
