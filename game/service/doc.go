// Package service provides the business logic layer of the minigame solver.
//
// The service package implements:
//   - Multi-session management
//   - Reward game moves, history and action advice
//   - The per-session placement workspace and its optimizer runs
//   - Stateless probability and scoring calculators
//
// Core Interfaces:
//
// GameService is the main service interface used by the HTTP, WebSocket and
// MCP transports. SessionManager handles session storage and ConfigManager
// loads reward mode configurations.
//
// Each Session owns a reward engine and a puzzle workspace. Reward game
// operations are serialized by the service lock. Workspace operations lock
// the workspace itself, so a long OptimizePlacement call does not block
// moves in other sessions or in the same one.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithOptimizeTimeout(10*time.Second))
//
//	info, err := gameService.CreateSession(ctx, "super_epic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, engine.ActionStrike, false)
package service
