// Command autoplay plays reward sessions against a running server, always
// taking the recommended action, and compares the observed success rate with
// the solver's prediction.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/minigame-solver/game/engine"
)

// Summary aggregates a batch of games.
type Summary struct {
	Games     int
	BestHits  int
	Predicted float64
	Rewards   map[int]int
	Moves     int
}

func (s Summary) Rate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.BestHits) / float64(s.Games)
}

// nextAction returns the recommended action from advice.
func nextAction(advice []engine.ActionAdvice) (engine.Action, bool) {
	for _, a := range advice {
		if a.Best && !a.Disabled {
			return a.Action, true
		}
	}
	return 0, false
}

// playGame resets the session and plays until the game ends.
func playGame(ctx context.Context, c *Client, delay time.Duration) (*engine.GameState, float64, int, error) {
	state, err := c.Reset(ctx)
	if err != nil {
		return nil, 0, 0, err
	}
	advice, err := c.Advice(ctx)
	if err != nil {
		return nil, 0, 0, err
	}

	predicted := 0.0
	if i := engine.PickBest(advice); i >= 0 && advice[i].Probability != nil {
		predicted = *advice[i].Probability
	}

	moves := 0
	for !state.GameOver {
		action, ok := nextAction(advice)
		if !ok {
			return state, predicted, moves, errors.New("no action available before game over")
		}
		result, err := c.Move(ctx, action)
		if err != nil {
			return state, predicted, moves, err
		}
		if !result.Success {
			return result.GameState, predicted, moves, fmt.Errorf("move rejected: %s", result.Message)
		}
		state = result.GameState
		advice = result.Advice
		moves++

		if step := result.Step; step != nil {
			log.Debug().Str("action", step.Label).Int("from", step.From).Int("to", step.To).
				Int("left", step.RemainingMoves).Msg("step")
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}
	return state, predicted, moves, nil
}

// run plays games until the count is reached or ctx ends.
func run(ctx context.Context, c *Client, games int, delay time.Duration) (Summary, error) {
	sum := Summary{Rewards: map[int]int{}}
	for sum.Games < games {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		state, predicted, moves, err := playGame(ctx, c, delay)
		if err != nil {
			return sum, fmt.Errorf("game %d: %w", sum.Games+1, err)
		}
		if sum.Games == 0 {
			sum.Predicted = predicted
		}
		sum.Games++
		sum.Moves += moves

		reward := 0
		if state.FinalReward != nil {
			reward = *state.FinalReward
		}
		sum.Rewards[reward]++
		if reward == engine.BestReward(state.RewardTrack) {
			sum.BestHits++
		}

		log.Info().Int("game", sum.Games).Int("position", state.Position).
			Str("reward", engine.RewardName(reward)).Str("reason", state.EndReason).Msg("game-finished")
	}
	return sum, nil
}

func printSummary(w io.Writer, sum Summary) {
	fmt.Fprintf(w, "Games: %d, moves: %d\n", sum.Games, sum.Moves)
	fmt.Fprintf(w, "Best reward: %d/%d (%.2f%%), predicted %.2f%%\n",
		sum.BestHits, sum.Games, sum.Rate()*100, sum.Predicted*100)
	for tier := engine.MaxRewardTier; tier >= engine.MinRewardTier; tier-- {
		if n := sum.Rewards[tier]; n > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", engine.RewardName(tier), n)
		}
	}
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Game server URL")
	configID := flag.String("config", "", "Reward configuration id (super_epic, unique)")
	continueSession := flag.String("continue", "", "Resume playing an existing session by ID")
	games := flag.Int("games", 100, "Number of games to play")
	verbose := flag.Bool("v", false, "Verbose output")
	delayMs := flag.Int("delay", 0, "Delay between moves in milliseconds (0 = no delay)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info().Str("url", *serverURL).Msg("connecting")
	client := NewClient(*serverURL)

	sessionFile := ".session"
	savedSessionID := *continueSession
	if savedSessionID == "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			savedSessionID = string(bytes.TrimSpace(data))
		}
	}

	if savedSessionID != "" {
		client.sessionID = savedSessionID
		if session, err := client.GetSession(ctx); err != nil {
			log.Warn().Err(err).Str("session", savedSessionID).Msg("resume-failed-creating-new")
			savedSessionID = ""
		} else {
			log.Info().Str("session", session.ID).Str("config", session.ConfigName).Msg("session-resumed")
		}
	}

	if savedSessionID == "" {
		session, err := client.CreateSession(ctx, *configID)
		if err != nil {
			log.Fatal().Err(err).Msg("create-session-failed")
		}
		log.Info().Str("session", session.ID).Str("config", session.ConfigName).Msg("session-created")
		if err := os.WriteFile(sessionFile, []byte(session.ID), 0644); err != nil {
			log.Warn().Err(err).Msg("save-session-id-failed")
		}
	}

	sum, err := run(ctx, client, *games, time.Duration(*delayMs)*time.Millisecond)
	printSummary(os.Stdout, sum)
	if err != nil {
		log.Fatal().Err(err).Msg("autoplay-stopped")
	}
}
