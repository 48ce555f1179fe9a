// Package engine implements the reward-track minigame and its odds calculator.
//
// A session moves a token along a 17-square track (positions 0..16). Each
// turn the player picks one of three actions:
//   - strike: advance 3 to 6 squares, unlimited
//   - refine: move -3 to +2 squares, 3 uses
//   - stabilize: advance 0 to 4 squares, 3 uses
//
// The session ends when the moves run out or the token reaches the last
// square, and the player receives the reward tier printed on the final square.
//
// Core Types:
//
// GameEngine drives a session and implements Engine. GameState is the
// serializable session state, and GameConfig describes a reward mode loaded
// from JSON or YAML.
//
// SolveProbabilities computes, by exact dynamic programming, the chance of
// finishing on a best-reward square for each action when every later choice
// is optimal. AdviseActions wraps it with disabled reasons and picks the
// recommended action.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/super_epic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, a := range gameEngine.Advise() {
//		if a.Best {
//			gameEngine.Move(a.Action)
//		}
//	}
package engine
