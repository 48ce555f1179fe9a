// Package mcp exposes the solver to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a REST request against a
// running API server and the JSON answer is rendered as compact text.
//
// Tools:
//   - Sessions: create_session, get_session, list_sessions, list_configs
//   - Reward game: game_state, move, bulk_move, reset_game, move_history,
//     advice, probabilities
//   - Placement: get_puzzle, toggle_cell, open_all_cells, close_all_cells,
//     reset_board, set_role, add_piece, remove_piece, clear_pieces,
//     import_puzzle, optimize_placement
//   - Catalog: score_placement, list_shapes
//
// API errors are returned as tool errors, never as Go errors, so the agent
// sees the server's message.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
