// Package api provides the HTTP REST API of the minigame solver.
//
// Endpoints (all under /api):
//
// Sessions:
//   - POST   /sessions                     create ({"config_id": "unique"})
//   - GET    /sessions                     list (sort, order, limit)
//   - GET    /sessions/{id}                get
//   - DELETE /sessions/{id}                delete
//
// Reward game:
//   - POST /sessions/{id}/move              {"action": 1} or {"action": "strike"}
//   - POST /sessions/{id}/bulk-move         {"actions": [1, 1, "stabilize"], "reset": false}
//   - POST /sessions/{id}/reset
//   - GET  /sessions/{id}/state | history | advice
//
// Placement workspace:
//   - GET    /sessions/{id}/puzzle
//   - POST   /sessions/{id}/puzzle/cells/{row}/{col}/toggle
//   - POST   /sessions/{id}/puzzle/open-all | close-all | reset-board
//   - PUT    /sessions/{id}/puzzle/role        {"role": "striker"}
//   - POST   /sessions/{id}/puzzle/pieces      {"shape": "4-square", "rarity": "epic", "attribute": "pierce"}
//   - DELETE /sessions/{id}/puzzle/pieces[/{pieceId}]
//   - POST   /sessions/{id}/puzzle/import      browser export or native snapshot
//   - POST   /sessions/{id}/puzzle/optimize    {"time_limit_ms": 5000, "node_limit": 200000}
//
// Stateless:
//   - POST /probabilities   {"position": 4, "turns": 5, "choice2_remaining": 3, "choice3_remaining": 1}
//   - POST /score           {"role": "dealer", "pieces": [...]}
//   - GET  /shapes?size=8&role=dealer
//   - GET|POST /configs, GET /configs/{name}
//
// Session changes are pushed to /ws?session={id} subscribers through the
// websocket hub, including optimizer progress while a search runs.
//
// Errors are JSON bodies {"error": "..."}. Bad input maps to 400, unknown
// sessions, configs and pieces to 404, everything else to 500. An optimizer
// run with nothing to place is not an error: it returns an empty result
// whose note explains why.
package api
