package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/minigame-solver/game/board"
	"github.com/wricardo/minigame-solver/game/config"
	"github.com/wricardo/minigame-solver/game/engine"
	"github.com/wricardo/minigame-solver/game/optimizer"
	"github.com/wricardo/minigame-solver/game/piece"
	"github.com/wricardo/minigame-solver/game/puzzle"
	"github.com/wricardo/minigame-solver/game/scoring"
	"github.com/wricardo/minigame-solver/game/service"
	"github.com/wricardo/minigame-solver/game/session"
	"github.com/wricardo/minigame-solver/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Reward Game
	MoveFunc           func(ctx context.Context, sessionID string, action engine.Action, reset bool) (*service.MoveResult, error)
	BulkMoveFunc       func(ctx context.Context, sessionID string, actions []engine.Action, reset bool) (*service.BulkMoveResult, error)
	ResetFunc          func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)
	GetAdviceFunc      func(ctx context.Context, sessionID string) ([]engine.ActionAdvice, error)

	// Calculators
	ProbabilitiesFunc func(ctx context.Context, req service.ProbabilityRequest) (*service.ProbabilityResponse, error)
	ScorePiecesFunc   func(ctx context.Context, role string, pieces []service.PieceSpec) (*scoring.Result, error)
	ListShapesFunc    func(ctx context.Context, size int, role string) ([]piece.Shape, error)

	// Placement Workspace
	GetPuzzleFunc         func(ctx context.Context, sessionID string) (*service.PuzzleState, error)
	ToggleCellFunc        func(ctx context.Context, sessionID string, row, col int) (*service.PuzzleUpdate, error)
	OpenAllCellsFunc      func(ctx context.Context, sessionID string) (*service.PuzzleUpdate, error)
	CloseAllCellsFunc     func(ctx context.Context, sessionID string) (*service.PuzzleUpdate, error)
	ResetBoardFunc        func(ctx context.Context, sessionID string) (*service.PuzzleUpdate, error)
	SetRoleFunc           func(ctx context.Context, sessionID, role string) (*service.PuzzleUpdate, error)
	AddPieceFunc          func(ctx context.Context, sessionID string, spec service.PieceSpec) (*service.PuzzleUpdate, error)
	RemovePieceFunc       func(ctx context.Context, sessionID, pieceID string) (*service.PuzzleUpdate, error)
	ClearPiecesFunc       func(ctx context.Context, sessionID string) (*service.PuzzleUpdate, error)
	ImportPuzzleFunc      func(ctx context.Context, sessionID string, data []byte) (*service.ImportResult, error)
	OptimizePlacementFunc func(ctx context.Context, sessionID string, req service.OptimizeRequest, progress service.ProgressFunc) (*optimizer.Result, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error
}

var _ service.GameService = (*MockGameService)(nil)

func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{ID: "test-session", ConfigName: configName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "test-config", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) Move(ctx context.Context, sessionID string, action engine.Action, reset bool) (*service.MoveResult, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, sessionID, action, reset)
	}
	return &service.MoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) BulkMove(ctx context.Context, sessionID string, actions []engine.Action, reset bool) (*service.BulkMoveResult, error) {
	if m.BulkMoveFunc != nil {
		return m.BulkMoveFunc(ctx, sessionID, actions, reset)
	}
	return &service.BulkMoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{Moves: []engine.MoveHistoryEntry{}, Page: opts.Page, PageSize: opts.Limit, TotalPages: 1}, nil
}

func (m *MockGameService) GetAdvice(ctx context.Context, sessionID string) ([]engine.ActionAdvice, error) {
	if m.GetAdviceFunc != nil {
		return m.GetAdviceFunc(ctx, sessionID)
	}
	return []engine.ActionAdvice{}, nil
}

func (m *MockGameService) Probabilities(ctx context.Context, req service.ProbabilityRequest) (*service.ProbabilityResponse, error) {
	if m.ProbabilitiesFunc != nil {
		return m.ProbabilitiesFunc(ctx, req)
	}
	return &service.ProbabilityResponse{}, nil
}

func (m *MockGameService) ScorePieces(ctx context.Context, role string, pieces []service.PieceSpec) (*scoring.Result, error) {
	if m.ScorePiecesFunc != nil {
		return m.ScorePiecesFunc(ctx, role, pieces)
	}
	return &scoring.Result{}, nil
}

func (m *MockGameService) ListShapes(ctx context.Context, size int, role string) ([]piece.Shape, error) {
	if m.ListShapesFunc != nil {
		return m.ListShapesFunc(ctx, size, role)
	}
	return []piece.Shape{}, nil
}

func (m *MockGameService) GetPuzzle(ctx context.Context, sessionID string) (*service.PuzzleState, error) {
	if m.GetPuzzleFunc != nil {
		return m.GetPuzzleFunc(ctx, sessionID)
	}
	return &service.PuzzleState{OpenCount: 15, Role: piece.Dealer}, nil
}

func defaultUpdate() *service.PuzzleUpdate {
	return &service.PuzzleUpdate{Puzzle: &service.PuzzleState{OpenCount: 15, Role: piece.Dealer}}
}

func (m *MockGameService) ToggleCell(ctx context.Context, sessionID string, row, col int) (*service.PuzzleUpdate, error) {
	if m.ToggleCellFunc != nil {
		return m.ToggleCellFunc(ctx, sessionID, row, col)
	}
	return defaultUpdate(), nil
}

func (m *MockGameService) OpenAllCells(ctx context.Context, sessionID string) (*service.PuzzleUpdate, error) {
	if m.OpenAllCellsFunc != nil {
		return m.OpenAllCellsFunc(ctx, sessionID)
	}
	return defaultUpdate(), nil
}

func (m *MockGameService) CloseAllCells(ctx context.Context, sessionID string) (*service.PuzzleUpdate, error) {
	if m.CloseAllCellsFunc != nil {
		return m.CloseAllCellsFunc(ctx, sessionID)
	}
	return defaultUpdate(), nil
}

func (m *MockGameService) ResetBoard(ctx context.Context, sessionID string) (*service.PuzzleUpdate, error) {
	if m.ResetBoardFunc != nil {
		return m.ResetBoardFunc(ctx, sessionID)
	}
	return defaultUpdate(), nil
}

func (m *MockGameService) SetRole(ctx context.Context, sessionID, role string) (*service.PuzzleUpdate, error) {
	if m.SetRoleFunc != nil {
		return m.SetRoleFunc(ctx, sessionID, role)
	}
	return defaultUpdate(), nil
}

func (m *MockGameService) AddPiece(ctx context.Context, sessionID string, spec service.PieceSpec) (*service.PuzzleUpdate, error) {
	if m.AddPieceFunc != nil {
		return m.AddPieceFunc(ctx, sessionID, spec)
	}
	return defaultUpdate(), nil
}

func (m *MockGameService) RemovePiece(ctx context.Context, sessionID, pieceID string) (*service.PuzzleUpdate, error) {
	if m.RemovePieceFunc != nil {
		return m.RemovePieceFunc(ctx, sessionID, pieceID)
	}
	return defaultUpdate(), nil
}

func (m *MockGameService) ClearPieces(ctx context.Context, sessionID string) (*service.PuzzleUpdate, error) {
	if m.ClearPiecesFunc != nil {
		return m.ClearPiecesFunc(ctx, sessionID)
	}
	return defaultUpdate(), nil
}

func (m *MockGameService) ImportPuzzle(ctx context.Context, sessionID string, data []byte) (*service.ImportResult, error) {
	if m.ImportPuzzleFunc != nil {
		return m.ImportPuzzleFunc(ctx, sessionID, data)
	}
	return &service.ImportResult{Puzzle: defaultUpdate().Puzzle}, nil
}

func (m *MockGameService) OptimizePlacement(ctx context.Context, sessionID string, req service.OptimizeRequest, progress service.ProgressFunc) (*optimizer.Result, error) {
	if m.OptimizePlacementFunc != nil {
		return m.OptimizePlacementFunc(ctx, sessionID, req, progress)
	}
	return &optimizer.Result{}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.GameConfig{Name: configName, Description: "Test config"}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers
func setupTestServer(t *testing.T, mockService *MockGameService) *Server {
	t.Helper()
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return NewServer(mockService, hub)
}

func doRequest(t *testing.T, server *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v (body %s)", err, w.Body.String())
	}
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	parseResponse(t, w, &resp)
	return resp["error"]
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		wantConfig     string
		err            error
		expectedStatus int
	}{
		{"default config", nil, "", nil, http.StatusCreated},
		{"config_id", map[string]string{"config_id": "unique"}, "unique", nil, http.StatusCreated},
		{"legacy config_name", map[string]string{"config_name": "super_epic"}, "super_epic", nil, http.StatusCreated},
		{"unknown config", map[string]string{"config_id": "nope"}, "nope",
			fmt.Errorf("failed to load config nope: %w", config.ErrConfigNotFound), http.StatusNotFound},
		{"malformed body", "{", "", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockGameService{
				CreateSessionFunc: func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != tt.wantConfig {
						t.Errorf("Expected config %q, got %q", tt.wantConfig, configName)
					}
					if tt.err != nil {
						return nil, tt.err
					}
					return &service.SessionInfo{ID: "ab12", ConfigName: configName}, nil
				},
			}

			w := doRequest(t, setupTestServer(t, mock), "POST", "/api/sessions", tt.body)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d (%s)", tt.expectedStatus, w.Code, w.Body.String())
			}
			if w.Code == http.StatusCreated {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "ab12" {
					t.Errorf("Expected session ID ab12, got %s", resp.ID)
				}
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	mock := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: now.Add(-3 * time.Hour), LastAccessedAt: now.Add(-time.Hour)},
				{ID: "new", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-2 * time.Hour)},
				{ID: "mid", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now},
			}, nil
		},
	}
	server := setupTestServer(t, mock)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"mid", "old", "new"}},
		{"?sort=created", []string{"new", "mid", "old"}},
		{"?sort=created&order=asc", []string{"old", "mid", "new"}},
		{"?limit=2", []string{"mid", "old"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := doRequest(t, server, "GET", "/api/sessions"+tt.query, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)
			if resp.Total != 3 || resp.Count != len(tt.want) {
				t.Errorf("Unexpected counts %d/%d", resp.Count, resp.Total)
			}
			for i, id := range tt.want {
				if resp.Sessions[i].ID != id {
					t.Errorf("sessions[%d] = %s, want %s", i, resp.Sessions[i].ID, id)
				}
			}
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "ab12" {
				return nil, fmt.Errorf("session not found: %w", session.ErrSessionNotFound)
			}
			return &service.SessionInfo{ID: sessionID}, nil
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID != "ab12" {
				return session.ErrSessionNotFound
			}
			return nil
		},
	}
	server := setupTestServer(t, mock)

	if w := doRequest(t, server, "GET", "/api/sessions/ab12", nil); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if w := doRequest(t, server, "GET", "/api/sessions/zz99", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	w := doRequest(t, server, "DELETE", "/api/sessions/ab12", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	var resp map[string]string
	parseResponse(t, w, &resp)
	if resp["message"] != "Session ab12 deleted" {
		t.Errorf("Unexpected message %q", resp["message"])
	}
	if w := doRequest(t, server, "DELETE", "/api/sessions/zz99", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

// Reward Game Tests

func TestMove(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		wantAction     engine.Action
		wantReset      bool
		err            error
		expectedStatus int
		wantError      string
	}{
		{name: "numeric action", body: map[string]any{"action": 1}, wantAction: engine.ActionStrike, expectedStatus: http.StatusOK},
		{name: "label action", body: map[string]any{"action": "stabilize"}, wantAction: engine.ActionStabilize, expectedStatus: http.StatusOK},
		{name: "with reset", body: map[string]any{"action": 2, "reset": true}, wantAction: engine.ActionRefine, wantReset: true, expectedStatus: http.StatusOK},
		{name: "missing action", body: map[string]any{"reset": true}, expectedStatus: http.StatusBadRequest, wantError: "action must be 1, 2 or 3"},
		{name: "out of range", body: map[string]any{"action": 4}, expectedStatus: http.StatusBadRequest, wantError: "got 4"},
		{name: "unknown label", body: map[string]any{"action": "jump"}, expectedStatus: http.StatusBadRequest, wantError: "unknown action"},
		{name: "session not found", body: map[string]any{"action": 1}, wantAction: engine.ActionStrike,
			err: fmt.Errorf("session not found: %w", session.ErrSessionNotFound), expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockGameService{
				MoveFunc: func(ctx context.Context, sessionID string, action engine.Action, reset bool) (*service.MoveResult, error) {
					if action != tt.wantAction || reset != tt.wantReset {
						t.Errorf("Expected action %d reset %v, got %d %v", tt.wantAction, tt.wantReset, action, reset)
					}
					if tt.err != nil {
						return nil, tt.err
					}
					return &service.MoveResult{
						Success:   true,
						GameState: &engine.GameState{Position: 5, RemainingMoves: 7},
						Step:      &service.StepInfo{Idx: 1, Action: action, Label: "strike", From: 0, To: 5, Delta: 5},
					}, nil
				},
			}

			w := doRequest(t, setupTestServer(t, mock), "POST", "/api/sessions/ab12/move", tt.body)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d (%s)", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.wantError != "" && !strings.Contains(errorBody(t, w), tt.wantError) {
				t.Errorf("Expected error containing %q, got %q", tt.wantError, w.Body.String())
			}
			if w.Code == http.StatusOK {
				var resp service.MoveResult
				parseResponse(t, w, &resp)
				if !resp.Success || resp.GameState.Position != 5 {
					t.Errorf("Unexpected result %+v", resp)
				}
			}
		})
	}
}

func TestBulkMove(t *testing.T) {
	var got []engine.Action
	mock := &MockGameService{
		BulkMoveFunc: func(ctx context.Context, sessionID string, actions []engine.Action, reset bool) (*service.BulkMoveResult, error) {
			got = actions
			return &service.BulkMoveResult{
				Success:        false,
				MovesExecuted:  2,
				RequestedMoves: len(actions),
				StopReasonCode: "rejected_action",
				GameState:      &engine.GameState{Position: 9},
			}, nil
		},
	}
	server := setupTestServer(t, mock)

	w := doRequest(t, server, "POST", "/api/sessions/ab12/bulk-move", `{"actions": [1, "strike", 3]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	want := []engine.Action{engine.ActionStrike, engine.ActionStrike, engine.ActionStabilize}
	if len(got) != len(want) {
		t.Fatalf("Expected %d actions, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("actions[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	var resp service.BulkMoveResult
	parseResponse(t, w, &resp)
	if resp.StopReasonCode != "rejected_action" || resp.MovesExecuted != 2 {
		t.Errorf("Unexpected result %+v", resp)
	}

	if w := doRequest(t, server, "POST", "/api/sessions/ab12/bulk-move", `{"actions": []}`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty actions, got %d", w.Code)
	}
	if w := doRequest(t, server, "POST", "/api/sessions/ab12/bulk-move", `{"actions": ["fly"]}`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown label, got %d", w.Code)
	}
}

func TestResetStateHistoryAdvice(t *testing.T) {
	var gotOpts service.HistoryOptions
	mock := &MockGameService{
		ResetFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			return &engine.GameState{RemainingMoves: 8}, nil
		},
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			return nil, errors.New("session not found")
		},
		GetMoveHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			gotOpts = opts
			return &service.HistoryResponse{Moves: []engine.MoveHistoryEntry{}, Page: opts.Page}, nil
		},
		GetAdviceFunc: func(ctx context.Context, sessionID string) ([]engine.ActionAdvice, error) {
			p := 0.5
			return []engine.ActionAdvice{{Action: engine.ActionStrike, Best: true, Probability: &p}}, nil
		},
	}
	server := setupTestServer(t, mock)

	w := doRequest(t, server, "POST", "/api/sessions/ab12/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Reset: expected 200, got %d", w.Code)
	}
	var reset struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	parseResponse(t, w, &reset)
	if reset.State.RemainingMoves != 8 {
		t.Errorf("Expected 8 remaining moves, got %d", reset.State.RemainingMoves)
	}

	if w := doRequest(t, server, "GET", "/api/sessions/ab12/state", nil); w.Code != http.StatusNotFound {
		t.Errorf("State: expected 404, got %d", w.Code)
	}

	if w := doRequest(t, server, "GET", "/api/sessions/ab12/history?page=2&limit=5&order=asc", nil); w.Code != http.StatusOK {
		t.Errorf("History: expected 200, got %d", w.Code)
	}
	if gotOpts.Page != 2 || gotOpts.Limit != 5 || gotOpts.Order != "asc" {
		t.Errorf("Unexpected history options %+v", gotOpts)
	}
	doRequest(t, server, "GET", "/api/sessions/ab12/history?page=-1&order=sideways", nil)
	if gotOpts.Page != 1 || gotOpts.Limit != 20 || gotOpts.Order != "desc" {
		t.Errorf("Expected defaults, got %+v", gotOpts)
	}

	w = doRequest(t, server, "GET", "/api/sessions/ab12/advice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Advice: expected 200, got %d", w.Code)
	}
	var advice struct {
		Advice []engine.ActionAdvice `json:"advice"`
	}
	parseResponse(t, w, &advice)
	if len(advice.Advice) != 1 || !advice.Advice[0].Best || *advice.Advice[0].Probability != 0.5 {
		t.Errorf("Unexpected advice %+v", advice)
	}
}

// Placement Workspace Tests

func TestPuzzleRoutes(t *testing.T) {
	var calls []string
	record := func(call string) (*service.PuzzleUpdate, error) {
		calls = append(calls, call)
		return defaultUpdate(), nil
	}
	mock := &MockGameService{
		ToggleCellFunc: func(ctx context.Context, sessionID string, row, col int) (*service.PuzzleUpdate, error) {
			u, _ := record(fmt.Sprintf("toggle %s %d %d", sessionID, row, col))
			u.Toggle = &board.ToggleResult{Accepted: true, Open: true}
			return u, nil
		},
		OpenAllCellsFunc:  func(ctx context.Context, id string) (*service.PuzzleUpdate, error) { return record("open-all") },
		CloseAllCellsFunc: func(ctx context.Context, id string) (*service.PuzzleUpdate, error) { return record("close-all") },
		ResetBoardFunc:    func(ctx context.Context, id string) (*service.PuzzleUpdate, error) { return record("reset-board") },
		SetRoleFunc: func(ctx context.Context, id, role string) (*service.PuzzleUpdate, error) {
			return record("role " + role)
		},
		RemovePieceFunc: func(ctx context.Context, id, pieceID string) (*service.PuzzleUpdate, error) {
			return record("remove " + pieceID)
		},
		ClearPiecesFunc: func(ctx context.Context, id string) (*service.PuzzleUpdate, error) { return record("clear") },
	}
	server := setupTestServer(t, mock)

	requests := []struct {
		method, path string
		body         any
	}{
		{"POST", "/api/sessions/ab12/puzzle/cells/1/3/toggle", nil},
		{"POST", "/api/sessions/ab12/puzzle/open-all", nil},
		{"POST", "/api/sessions/ab12/puzzle/close-all", nil},
		{"POST", "/api/sessions/ab12/puzzle/reset-board", nil},
		{"PUT", "/api/sessions/ab12/puzzle/role", map[string]string{"role": "striker"}},
		{"DELETE", "/api/sessions/ab12/puzzle/pieces/p-1", nil},
		{"DELETE", "/api/sessions/ab12/puzzle/pieces", nil},
	}
	for _, r := range requests {
		w := doRequest(t, server, r.method, r.path, r.body)
		if w.Code != http.StatusOK {
			t.Errorf("%s %s: expected 200, got %d (%s)", r.method, r.path, w.Code, w.Body.String())
		}
	}

	want := []string{"toggle ab12 1 3", "open-all", "close-all", "reset-board", "role striker", "remove p-1", "clear"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("Unexpected calls %v", calls)
	}

	if w := doRequest(t, server, "POST", "/api/sessions/ab12/puzzle/cells/x/3/toggle", nil); w.Code != http.StatusNotFound {
		t.Errorf("Non-numeric cell should not match a route, got %d", w.Code)
	}
	if w := doRequest(t, server, "PUT", "/api/sessions/ab12/puzzle/role", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Errorf("Missing role: expected 400, got %d", w.Code)
	}
}

func TestPuzzleErrorMapping(t *testing.T) {
	mock := &MockGameService{
		AddPieceFunc: func(ctx context.Context, id string, spec service.PieceSpec) (*service.PuzzleUpdate, error) {
			if spec.Shape == "4-square" {
				np := piece.Piece{ID: "p-9", Shape: spec.Shape, Size: 4}
				u := defaultUpdate()
				u.Piece = &np
				return u, nil
			}
			return nil, fmt.Errorf("%w: %w", service.ErrInvalidArgument, piece.ErrUnknownShape)
		},
		RemovePieceFunc: func(ctx context.Context, id, pieceID string) (*service.PuzzleUpdate, error) {
			return nil, fmt.Errorf("%w: %s", puzzle.ErrPieceNotFound, pieceID)
		},
		SetRoleFunc: func(ctx context.Context, id, role string) (*service.PuzzleUpdate, error) {
			return nil, fmt.Errorf("%w: %w", service.ErrInvalidArgument, piece.ErrUnknownRole)
		},
	}
	server := setupTestServer(t, mock)

	w := doRequest(t, server, "POST", "/api/sessions/ab12/puzzle/pieces", service.PieceSpec{Shape: "4-square", Rarity: "epic", Attribute: "pierce"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var update service.PuzzleUpdate
	parseResponse(t, w, &update)
	if update.Piece == nil || update.Piece.ID != "p-9" {
		t.Errorf("Expected added piece in response, got %+v", update)
	}

	tests := []struct {
		method, path string
		body         any
		want         int
	}{
		{"POST", "/api/sessions/ab12/puzzle/pieces", service.PieceSpec{Shape: "blob"}, http.StatusBadRequest},
		{"POST", "/api/sessions/ab12/puzzle/pieces", map[string]string{}, http.StatusBadRequest},
		{"DELETE", "/api/sessions/ab12/puzzle/pieces/missing", nil, http.StatusNotFound},
		{"PUT", "/api/sessions/ab12/puzzle/role", map[string]string{"role": "healer"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := doRequest(t, server, tt.method, tt.path, tt.body)
		if w.Code != tt.want {
			t.Errorf("%s %s: expected %d, got %d (%s)", tt.method, tt.path, tt.want, w.Code, w.Body.String())
		}
		if errorBody(t, w) == "" {
			t.Errorf("%s %s: expected an error body", tt.method, tt.path)
		}
	}
}

func TestImportPuzzle(t *testing.T) {
	const export = `{"puzzleBoard": "[[0]]", "puzzlePieces": "[]"}`
	mock := &MockGameService{
		ImportPuzzleFunc: func(ctx context.Context, id string, data []byte) (*service.ImportResult, error) {
			if string(data) != export {
				return nil, fmt.Errorf("%w: unexpected body", service.ErrInvalidArgument)
			}
			return &service.ImportResult{Puzzle: defaultUpdate().Puzzle}, nil
		},
	}
	server := setupTestServer(t, mock)

	if w := doRequest(t, server, "POST", "/api/sessions/ab12/puzzle/import", export); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if w := doRequest(t, server, "POST", "/api/sessions/ab12/puzzle/import", "{}"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestOptimize(t *testing.T) {
	var gotReq service.OptimizeRequest
	var gotProgress bool
	mock := &MockGameService{
		OptimizePlacementFunc: func(ctx context.Context, id string, req service.OptimizeRequest, progress service.ProgressFunc) (*optimizer.Result, error) {
			gotReq = req
			gotProgress = progress != nil
			if progress != nil {
				progress(id, optimizer.Event{Kind: optimizer.EventFinished})
			}
			return &optimizer.Result{
				Score: scoring.Result{TotalScore: 505},
				Stats: optimizer.Stats{Nodes: 10, StopReason: optimizer.StopExhausted},
				Note:  "heuristic search; best placement found",
			}, nil
		},
	}
	server := setupTestServer(t, mock)

	w := doRequest(t, server, "POST", "/api/sessions/ab12/puzzle/optimize", map[string]int{"time_limit_ms": 1500, "node_limit": 2000})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if gotReq.TimeLimitMs != 1500 || gotReq.NodeLimit != 2000 {
		t.Errorf("Unexpected request %+v", gotReq)
	}
	if !gotProgress {
		t.Error("Expected a progress callback when the hub is present")
	}
	var res optimizer.Result
	parseResponse(t, w, &res)
	if res.Score.TotalScore != 505 {
		t.Errorf("Expected total 505, got %d", res.Score.TotalScore)
	}

	if w := doRequest(t, server, "POST", "/api/sessions/ab12/puzzle/optimize", nil); w.Code != http.StatusOK {
		t.Errorf("Empty body: expected 200, got %d", w.Code)
	}

	noHub := NewServer(mock, nil)
	if w := doRequest(t, noHub, "POST", "/api/sessions/ab12/puzzle/optimize", nil); w.Code != http.StatusOK {
		t.Errorf("Without hub: expected 200, got %d", w.Code)
	}
	if gotProgress {
		t.Error("Expected no progress callback without a hub")
	}
}

// Stateless Calculator Tests

func TestProbabilities(t *testing.T) {
	mock := &MockGameService{
		ProbabilitiesFunc: func(ctx context.Context, req service.ProbabilityRequest) (*service.ProbabilityResponse, error) {
			if len(req.Track) > 0 && len(req.Track) != engine.TrackLength {
				return nil, fmt.Errorf("%w: reward_track must have 17 entries", service.ErrInvalidArgument)
			}
			if req.Position != 12 || req.Turns != 1 || req.Choice3 != 2 {
				t.Errorf("Unexpected request %+v", req)
			}
			return &service.ProbabilityResponse{
				Probabilities: engine.Probabilities{
					Action1:    &engine.ActionProbability{Probability: 0.75},
					Action3:    &engine.ActionProbability{Probability: 0.2},
					BestReward: 4,
				},
				BestReward:    "SuperEpic",
			}, nil
		},
	}
	server := setupTestServer(t, mock)

	w := doRequest(t, server, "POST", "/api/probabilities", map[string]int{"position": 12, "turns": 1, "choice2_remaining": 0, "choice3_remaining": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp service.ProbabilityResponse
	parseResponse(t, w, &resp)
	if resp.BestReward != "SuperEpic" || resp.Probabilities.Action1 == nil || resp.Probabilities.Action1.Probability != 0.75 {
		t.Errorf("Unexpected response %+v", resp)
	}

	w = doRequest(t, server, "POST", "/api/probabilities", map[string]any{"position": 12, "reward_track": []int{1, 2}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for short track, got %d", w.Code)
	}
}

func TestScoreAndShapes(t *testing.T) {
	mock := &MockGameService{
		ScorePiecesFunc: func(ctx context.Context, role string, pieces []service.PieceSpec) (*scoring.Result, error) {
			if role != "dealer" || len(pieces) != 2 {
				t.Errorf("Unexpected score request %s %+v", role, pieces)
			}
			return &scoring.Result{BaseScore: 840, BonusScore: 265, TotalScore: 1105}, nil
		},
		ListShapesFunc: func(ctx context.Context, size int, role string) ([]piece.Shape, error) {
			if role == "healer" {
				return nil, fmt.Errorf("%w: %w", service.ErrInvalidArgument, piece.ErrUnknownRole)
			}
			return piece.ShapesOfSize(size), nil
		},
	}
	server := setupTestServer(t, mock)

	w := doRequest(t, server, "POST", "/api/score", map[string]any{
		"role":   "dealer",
		"pieces": []service.PieceSpec{{Shape: "4-square", Rarity: "epic"}, {Shape: "8-dealer-1"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Score: expected 200, got %d", w.Code)
	}
	var score scoring.Result
	parseResponse(t, w, &score)
	if score.TotalScore != 1105 {
		t.Errorf("Expected total 1105, got %d", score.TotalScore)
	}

	w = doRequest(t, server, "GET", "/api/shapes?size=4", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Shapes: expected 200, got %d", w.Code)
	}
	var shapes struct {
		Count int `json:"count"`
	}
	parseResponse(t, w, &shapes)
	if shapes.Count != 15 {
		t.Errorf("Expected 15 size-4 shapes, got %d", shapes.Count)
	}

	if w := doRequest(t, server, "GET", "/api/shapes?size=abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad size, got %d", w.Code)
	}
	if w := doRequest(t, server, "GET", "/api/shapes?role=healer", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad role, got %d", w.Code)
	}
}

// Configuration Tests

func TestConfigs(t *testing.T) {
	var savedID string
	mock := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{ConfigID: "super_epic", BestReward: "SuperEpic"}, {ConfigID: "unique", BestReward: "Unique"}}, nil
		},
		LoadConfigFunc: func(ctx context.Context, name string) (*engine.GameConfig, error) {
			if name != "unique" {
				return nil, config.ErrConfigNotFound
			}
			return &engine.GameConfig{Name: "Unique Altar", Mode: 2}, nil
		},
		SaveConfigFunc: func(ctx context.Context, name string, gc *engine.GameConfig) error {
			savedID = name
			if gc.MaxMoves == 0 {
				return fmt.Errorf("%w: max_moves must be between 1 and 20", config.ErrInvalidConfig)
			}
			return nil
		},
	}
	server := setupTestServer(t, mock)

	w := doRequest(t, server, "GET", "/api/configs", nil)
	var list []*service.ConfigInfo
	parseResponse(t, w, &list)
	if len(list) != 2 || list[1].BestReward != "Unique" {
		t.Errorf("Unexpected config list %+v", list)
	}

	w = doRequest(t, server, "GET", "/api/configs/unique", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if w := doRequest(t, server, "GET", "/api/configs/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}

	body := engine.DefaultGameConfig()
	body.Name = "My Custom Mode"
	w = doRequest(t, server, "POST", "/api/configs", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	if savedID != "my_custom_mode" {
		t.Errorf("Expected derived id my_custom_mode, got %q", savedID)
	}

	w = doRequest(t, server, "POST", "/api/configs", map[string]any{"id": "fixed", "name": "Other", "max_moves": 8})
	if w.Code != http.StatusCreated || savedID != "fixed" {
		t.Errorf("Expected explicit id to be used, got %d %q", w.Code, savedID)
	}

	if w := doRequest(t, server, "POST", "/api/configs", map[string]any{"name": "Broken"}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid config, got %d", w.Code)
	}
	if w := doRequest(t, server, "POST", "/api/configs", map[string]any{"mode": 1}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without name, got %d", w.Code)
	}
}

func TestUnifiedSessions(t *testing.T) {
	superEpic := engine.DefaultGameConfig()
	mock := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "a1", ConfigName: "super_epic", GameConfig: superEpic},
				{ID: "b2", ConfigName: "unique"},
				{ID: "c3", ConfigName: "super_epic", GameConfig: superEpic},
			}, nil
		},
		GetSessionFunc: func(ctx context.Context, id string) (*service.SessionInfo, error) {
			if id == "zz" {
				return nil, errors.New("session not found")
			}
			return &service.SessionInfo{ID: id, ConfigName: "super_epic", GameConfig: superEpic}, nil
		},
	}
	server := setupTestServer(t, mock)

	type unified struct {
		ConfigName string           `json:"config_name"`
		BestReward string           `json:"best_reward"`
		Sessions   []map[string]any `json:"sessions"`
	}

	tests := []struct {
		query     string
		wantCount int
	}{
		{"", 3},
		{"?configName=super_epic", 2},
		{"?sessionIds=a1,zz,%20c3", 2},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := doRequest(t, server, "GET", "/api/sessions/unified"+tt.query, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}
			var resp unified
			parseResponse(t, w, &resp)
			if len(resp.Sessions) != tt.wantCount {
				t.Errorf("Expected %d sessions, got %d", tt.wantCount, len(resp.Sessions))
			}
			if resp.ConfigName != "super_epic" || resp.BestReward != "SuperEpic" {
				t.Errorf("Unexpected header %s/%s", resp.ConfigName, resp.BestReward)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", service.ErrInvalidArgument), http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", config.ErrInvalidConfig), http.StatusBadRequest},
		{piece.ErrIllegalRarity, http.StatusBadRequest},
		{piece.ErrUnknownAttribute, http.StatusBadRequest},
		{fmt.Errorf("session not found: %w", session.ErrSessionNotFound), http.StatusNotFound},
		{config.ErrConfigNotFound, http.StatusNotFound},
		{puzzle.ErrPieceNotFound, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHealth(t *testing.T) {
	w := doRequest(t, setupTestServer(t, &MockGameService{}), "GET", "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		sessionErr     error
		expectedStatus int
	}{
		{"Missing session parameter", "", nil, http.StatusBadRequest},
		{"Invalid session", "?session=invalid", errors.New("session not found"), http.StatusNotFound},
		{"Valid session", "?session=ab12", nil, http.StatusSwitchingProtocols},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockGameService{
				GetSessionFunc: func(ctx context.Context, id string) (*service.SessionInfo, error) {
					if tt.sessionErr != nil {
						return nil, tt.sessionErr
					}
					return &service.SessionInfo{ID: id}, nil
				},
			}

			server := setupTestServer(t, mock)
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/ws"+tt.query, nil)
			if tt.expectedStatus == http.StatusSwitchingProtocols {
				req.Header.Set("Upgrade", "websocket")
				req.Header.Set("Connection", "Upgrade")
				req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
				req.Header.Set("Sec-WebSocket-Version", "13")
			}

			server.ServeHTTP(w, req)

			// httptest.ResponseRecorder cannot be hijacked, so an attempted
			// upgrade surfaces as a 500.
			if tt.expectedStatus == http.StatusSwitchingProtocols && w.Code == http.StatusInternalServerError {
				return
			}
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}
