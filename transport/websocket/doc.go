// Package websocket pushes session updates to browser clients.
//
// A single Hub owns every connection. Clients join a session with
// /ws?session=abc1 and receive JSON messages for that session only:
//
//	{"session_id": "abc1", "event": "state_update", "game_state": {...}}
//	{"session_id": "abc1", "event": "puzzle_update", "data": {...}}
//	{"session_id": "abc1", "event": "optimizer_progress", "data": {"kind": "progress", "nodes": 120000, ...}}
//	{"session_id": "abc1", "event": "optimizer_finished", "data": {"kind": "finished", ...}}
//
// Broadcasts never block the caller. They are queued for the Run goroutine
// and dropped when the queue is full, so a slow hub cannot stall a move or
// an optimizer run.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	hub.BroadcastToSession(sessionID, state)
//	svc.OptimizePlacement(ctx, sessionID, req, hub.ProgressFunc())
package websocket
