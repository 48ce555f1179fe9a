package mcp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wricardo/minigame-solver/game/board"
	"github.com/wricardo/minigame-solver/game/engine"
	"github.com/wricardo/minigame-solver/game/optimizer"
	"github.com/wricardo/minigame-solver/game/piece"
	"github.com/wricardo/minigame-solver/game/scoring"
	"github.com/wricardo/minigame-solver/game/service"
)

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

// recordingServer answers every request with response and remembers the last
// request it saw.
type recordingServer struct {
	*httptest.Server
	method string
	path   string
	query  string
	body   string
}

func newRecordingServer(t *testing.T, status int, response any) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		rs.method, rs.path, rs.query, rs.body = r.Method, r.URL.Path, r.URL.RawQuery, string(data)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL)

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, map[string]any{"id": "ab12"})
	client := NewClient(rs.URL)

	var response map[string]any
	if err := client.apiCall(context.Background(), "POST", "/api/sessions", map[string]string{"config_id": "unique"}, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["id"] != "ab12" {
		t.Errorf("Expected id ab12, got %v", response["id"])
	}
	if rs.body != `{"config_id":"unique"}`+"\n" && rs.body != `{"config_id":"unique"}` {
		t.Errorf("Unexpected body %q", rs.body)
	}

	if err := client.apiCall(context.Background(), "POST", "/api/raw", []byte(`{"raw":true}`), nil); err != nil {
		t.Fatalf("apiCall with raw body failed: %v", err)
	}
	if rs.body != `{"raw":true}` {
		t.Errorf("Raw body should pass through unchanged, got %q", rs.body)
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")
		if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
			t.Error("Expected error for unreachable server")
		}
	})

	t.Run("error body", func(t *testing.T) {
		rs := newRecordingServer(t, http.StatusNotFound, map[string]string{"error": "session not found"})
		err := NewClient(rs.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		if err == nil || err.Error() != "session not found" {
			t.Errorf("Expected API error message, got %v", err)
		}
	})

	t.Run("plain status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "API error: 500") {
			t.Errorf("Expected 'API error: 500', got: %v", err)
		}
	})
}

func TestClient_createSession(t *testing.T) {
	rs := newRecordingServer(t, http.StatusCreated, service.SessionInfo{ID: "ab12", ConfigName: "unique"})
	client := NewClient(rs.URL)

	result, err := client.handleCreateSession(context.Background(), callRequest("create_session", map[string]any{"config_id": "unique"}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	if rs.method != "POST" || rs.path != "/api/sessions" {
		t.Errorf("Expected POST /api/sessions, got %s %s", rs.method, rs.path)
	}
	if !strings.Contains(rs.body, `"config_id":"unique"`) {
		t.Errorf("Expected config_id in body, got %s", rs.body)
	}
	if text := resultText(t, result); !strings.Contains(text, "ab12") {
		t.Errorf("Expected session ID in result, got: %s", text)
	}
}

func TestClient_move(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, service.MoveResult{
		Success:   true,
		GameState: &engine.GameState{Position: 4, RemainingMoves: 7, MaxMoves: 8, RewardTrack: engine.SuperEpicTrack},
		Step:      &service.StepInfo{Idx: 1, Action: engine.ActionStrike, Label: "strike", Delta: 4, From: 0, To: 4, RemainingMoves: 7, Success: true},
	})
	client := NewClient(rs.URL)

	result, err := client.handleMove(context.Background(), callRequest("move", map[string]any{
		"session_id": "ab12",
		"action":     "strike",
	}))
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}

	if rs.path != "/api/sessions/ab12/move" {
		t.Errorf("Unexpected path %s", rs.path)
	}
	if !strings.Contains(rs.body, `"action":"strike"`) {
		t.Errorf("Expected action label forwarded, got %s", rs.body)
	}

	text := resultText(t, result)
	for _, want := range []string{"✓ Move successful", "strike +4: 0→4", "Position: 4/16"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_argumentValidation(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	ctx := context.Background()

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
		want    string
	}{
		{"state without session", client.handleGameState, map[string]any{}, "session_id is required"},
		{"move without action", client.handleMove, map[string]any{"session_id": "ab12"}, "action is required"},
		{"bulk move without actions", client.handleBulkMove, map[string]any{"session_id": "ab12", "actions": []any{}}, "actions must not be empty"},
		{"toggle without row", client.handleToggleCell, map[string]any{"session_id": "ab12", "col": 1.0}, "row and col are required"},
		{"remove without piece", client.handleRemovePiece, map[string]any{"session_id": "ab12"}, "piece_id is required"},
		{"import without data", client.handleImportPuzzle, map[string]any{"session_id": "ab12"}, "data is required"},
		{"nil arguments", client.handleGetPuzzle, nil, "session_id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.handler(ctx, callRequest("tool", tt.args))
			if err != nil {
				t.Fatalf("Handler returned error: %v", err)
			}
			if !result.IsError {
				t.Error("Expected an error result")
			}
			if text := resultText(t, result); !strings.Contains(text, tt.want) {
				t.Errorf("Expected %q, got %q", tt.want, text)
			}
		})
	}
}

func TestClient_puzzleTools(t *testing.T) {
	update := service.PuzzleUpdate{
		Toggle: &board.ToggleResult{Cell: board.Cell{Row: 1, Col: 3}, Accepted: true, Open: true},
		Puzzle: &service.PuzzleState{Board: board.Core.Grid(), OpenCount: 16, Role: piece.Dealer},
	}
	rs := newRecordingServer(t, http.StatusOK, update)
	client := NewClient(rs.URL)
	ctx := context.Background()

	tests := []struct {
		name       string
		handler    func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args       map[string]any
		wantMethod string
		wantPath   string
		wantBody   string
	}{
		{"toggle", client.handleToggleCell, map[string]any{"session_id": "ab12", "row": 1.0, "col": 3.0},
			"POST", "/api/sessions/ab12/puzzle/cells/1/3/toggle", ""},
		{"open all", client.puzzleAction("/puzzle/open-all"), map[string]any{"session_id": "ab12"},
			"POST", "/api/sessions/ab12/puzzle/open-all", ""},
		{"set role", client.handleSetRole, map[string]any{"session_id": "ab12", "role": "striker"},
			"PUT", "/api/sessions/ab12/puzzle/role", `"role":"striker"`},
		{"add piece", client.handleAddPiece, map[string]any{"session_id": "ab12", "shape": "4-square", "rarity": "epic", "attribute": "pierce"},
			"POST", "/api/sessions/ab12/puzzle/pieces", `"shape":"4-square"`},
		{"remove piece", client.handleRemovePiece, map[string]any{"session_id": "ab12", "piece_id": "p-1"},
			"DELETE", "/api/sessions/ab12/puzzle/pieces/p-1", ""},
		{"clear pieces", client.handleClearPieces, map[string]any{"session_id": "ab12"},
			"DELETE", "/api/sessions/ab12/puzzle/pieces", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.handler(ctx, callRequest(tt.name, tt.args))
			if err != nil {
				t.Fatalf("Handler returned error: %v", err)
			}
			if result.IsError {
				t.Fatalf("Unexpected error result: %s", resultText(t, result))
			}
			if rs.method != tt.wantMethod || rs.path != tt.wantPath {
				t.Errorf("Expected %s %s, got %s %s", tt.wantMethod, tt.wantPath, rs.method, rs.path)
			}
			if tt.wantBody != "" && !strings.Contains(rs.body, tt.wantBody) {
				t.Errorf("Expected body containing %s, got %s", tt.wantBody, rs.body)
			}
			text := resultText(t, result)
			if !strings.Contains(text, "Cell (1,3) opened") || !strings.Contains(text, "Open cells: 16") {
				t.Errorf("Unexpected output: %s", text)
			}
		})
	}
}

func TestClient_importAndOptimize(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, optimizer.Result{
		Score: scoring.Result{BaseScore: 240, TotalScore: 240},
		Stats: optimizer.Stats{Nodes: 12, StopReason: optimizer.StopExhausted},
		Note:  "search finished",
	})
	client := NewClient(rs.URL)
	ctx := context.Background()

	result, err := client.handleOptimize(ctx, callRequest("optimize_placement", map[string]any{
		"session_id":    "ab12",
		"time_limit_ms": 1500.0,
	}))
	if err != nil {
		t.Fatalf("optimize failed: %v", err)
	}
	if rs.path != "/api/sessions/ab12/puzzle/optimize" || !strings.Contains(rs.body, `"time_limit_ms":1500`) {
		t.Errorf("Unexpected request %s %s", rs.path, rs.body)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "stop: exhausted") || !strings.Contains(text, "= 240") {
		t.Errorf("Unexpected output: %s", text)
	}

	const export = `{"puzzleBoard": "[[0]]"}`
	if _, err := client.handleImportPuzzle(ctx, callRequest("import_puzzle", map[string]any{
		"session_id": "ab12",
		"data":       export,
	})); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if rs.path != "/api/sessions/ab12/puzzle/import" || rs.body != export {
		t.Errorf("Expected snapshot forwarded verbatim, got %s %q", rs.path, rs.body)
	}
}

func TestClient_listShapes(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, map[string]any{
		"count":  1,
		"shapes": []piece.Shape{{Name: "8-dealer-1", Size: 8, Affinity: piece.Dealer}},
	})
	client := NewClient(rs.URL)

	result, err := client.handleListShapes(context.Background(), callRequest("list_shapes", map[string]any{"size": 8.0, "role": "dealer"}))
	if err != nil {
		t.Fatalf("list_shapes failed: %v", err)
	}
	if rs.query != "role=dealer&size=8" {
		t.Errorf("Unexpected query %q", rs.query)
	}
	if text := resultText(t, result); !strings.Contains(text, "8-dealer-1 (size 8) affinity dealer") {
		t.Errorf("Unexpected output: %s", text)
	}
}

func TestClient_apiErrorBecomesToolError(t *testing.T) {
	rs := newRecordingServer(t, http.StatusBadRequest, map[string]string{"error": "unknown shape: \"blob\""})
	client := NewClient(rs.URL)

	result, err := client.handleAddPiece(context.Background(), callRequest("add_piece", map[string]any{
		"session_id": "ab12",
		"shape":      "blob",
	}))
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "unknown shape") {
		t.Errorf("Expected tool error with API message")
	}
}

func TestFormatGameState(t *testing.T) {
	reward := 4
	state := &engine.GameState{
		Position:         16,
		RemainingMoves:   2,
		MaxMoves:         8,
		Choice2Remaining: 3,
		Choice3Remaining: 1,
		GameOver:         true,
		FinalReward:      &reward,
		EndReason:        engine.EndReachedEnd,
		RewardTrack:      engine.SuperEpicTrack,
		Message:          "The token reached the end of the track!",
	}

	result := formatGameState(state)

	for _, want := range []string{
		"Position: 16/16",
		"Moves left: 2/8",
		"Refine: 3 | Stabilize: 1",
		"3 3 [4]",
		"Best reward: SuperEpic (tier 4)",
		"GAME OVER (reached_end): reward SuperEpic",
		"The token reached the end of the track!",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in formatted output, got: %s", want, result)
		}
	}

	if got := formatGameState(nil); got != "No game state available" {
		t.Errorf("Unexpected nil output %q", got)
	}
}

func TestFormatAdvice(t *testing.T) {
	p := 0.4375
	advice := []engine.ActionAdvice{
		{Action: engine.ActionStrike, Label: "strike", Min: 3, Max: 6, Probability: &p, Best: true},
		{Action: engine.ActionRefine, Label: "refine", Min: -3, Max: 2, Disabled: true, Reason: "no uses left"},
	}

	result := formatAdvice(advice)
	if !strings.Contains(result, "* 1 strike    +3..+6 43.75%") {
		t.Errorf("Unexpected best line: %s", result)
	}
	if !strings.Contains(result, "disabled: no uses left") {
		t.Errorf("Expected disabled reason: %s", result)
	}
	if formatAdvice(nil) != "No advice available" {
		t.Error("Expected placeholder for empty advice")
	}
}

func TestFormatPlacementGrid(t *testing.T) {
	placements := []piece.Placement{
		{Cells: []board.Cell{{Row: 0, Col: 0}, {Row: 0, Col: 1}}},
		{Cells: []board.Cell{{Row: 6, Col: 6}}},
	}

	lines := strings.Split(strings.TrimSuffix(formatPlacementGrid(placements), "\n"), "\n")
	if len(lines) != board.Size {
		t.Fatalf("Expected %d rows, got %d", board.Size, len(lines))
	}
	if lines[0] != "aa....." {
		t.Errorf("Unexpected first row %q", lines[0])
	}
	if lines[6] != "......b" {
		t.Errorf("Unexpected last row %q", lines[6])
	}
}

func TestFormatGrid(t *testing.T) {
	got := formatGrid([][]int{{1, 0}, {0, 1}})
	if got != "#.\n.#\n" {
		t.Errorf("Unexpected grid %q", got)
	}
}
