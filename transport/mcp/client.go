package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/minigame-solver/game/engine"
	"github.com/wricardo/minigame-solver/game/optimizer"
	"github.com/wricardo/minigame-solver/game/piece"
	"github.com/wricardo/minigame-solver/game/scoring"
	"github.com/wricardo/minigame-solver/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API. The HTTP
// timeout leaves room for an optimizer run at the default budget.
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

const instructions = `Minigame Solver - MCP Interface

This is a thin client that proxies all requests to the REST API server.

REWARD GAME:
A token starts on square 0 of a 17-square reward track (0-16). Each turn pick one action:
  1 strike     moves +3..+6 (unlimited)
  2 refine     moves -3..+2 (limited uses)
  3 stabilize  moves  0..+4 (limited uses)
The token is clamped to the track. When moves run out or the token reaches 16, the square's reward is granted.
Use advice or probabilities to see the chance each action has of finishing on a best-reward square.

PLACEMENT PUZZLE:
Each session also has a 7x7 altar board. The 15-cell core is always open; other cells open one at a time
next to an open cell and must stay connected. Add pieces to the pool, pick a role, then call optimize_placement
to find the best-scoring arrangement.

AVAILABLE TOOLS:
- create_session, get_session, list_sessions, list_configs
- game_state, move, bulk_move, reset_game, move_history, advice, probabilities
- get_puzzle, toggle_cell, open_all_cells, close_all_cells, reset_board, set_role
- add_piece, remove_piece, clear_pieces, import_puzzle, optimize_placement
- score_placement, list_shapes`

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Minigame Solver",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(instructions),
	)

	c.registerTools()
}

var sessionProp = map[string]any{
	"type":        "string",
	"description": "Session ID",
}

func tool(name, description string, props map[string]any, required ...string) mcp.Tool {
	if props == nil {
		props = map[string]any{}
	}
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   required,
		},
	}
}

func sessionTool(name, description string) mcp.Tool {
	return tool(name, description, map[string]any{"session_id": sessionProp}, "session_id")
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(tool("create_session", "Create a new session with optional reward mode selection", map[string]any{
		"config_id": map[string]any{
			"type":        "string",
			"description": "Reward mode to use, e.g. super_epic or unique (optional)",
		},
	}), c.handleCreateSession)
	c.mcpServer.AddTool(tool("list_sessions", "List all active sessions", nil), c.handleListSessions)
	c.mcpServer.AddTool(sessionTool("get_session", "Get details of a specific session"), c.handleGetSession)
	c.mcpServer.AddTool(tool("list_configs", "List available reward modes", nil), c.handleListConfigs)

	// Reward game
	c.mcpServer.AddTool(sessionTool("game_state", "Get the current reward game state"), c.handleGameState)
	c.mcpServer.AddTool(tool("move", "Take one action in the reward game", map[string]any{
		"session_id": sessionProp,
		"action": map[string]any{
			"type":        "string",
			"enum":        []string{"1", "2", "3", "strike", "refine", "stabilize"},
			"description": "Action number or label",
		},
		"reset": map[string]any{
			"type":        "boolean",
			"description": "Reset before moving",
		},
	}, "session_id", "action"), c.handleMove)
	c.mcpServer.AddTool(tool("bulk_move", "Take several actions in sequence, stopping at the first rejected one", map[string]any{
		"session_id": sessionProp,
		"actions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "string",
				"enum": []string{"1", "2", "3", "strike", "refine", "stabilize"},
			},
			"description": "Actions to take",
		},
		"reset": map[string]any{
			"type":        "boolean",
			"description": "Reset before moving",
		},
	}, "session_id", "actions"), c.handleBulkMove)
	c.mcpServer.AddTool(sessionTool("reset_game", "Reset the reward game to its initial state"), c.handleReset)
	c.mcpServer.AddTool(tool("move_history", "View past moves", map[string]any{
		"session_id": sessionProp,
		"page":       map[string]any{"type": "number", "description": "Page number (default 1)"},
		"limit":      map[string]any{"type": "number", "description": "Moves per page (default 20)"},
	}, "session_id"), c.handleMoveHistory)
	c.mcpServer.AddTool(sessionTool("advice", "Rank the available actions by their chance of reaching the best reward"), c.handleAdvice)
	c.mcpServer.AddTool(tool("probabilities", "Compute action odds for an arbitrary situation without a session", map[string]any{
		"position":          map[string]any{"type": "number", "description": "Token square 0-16"},
		"turns":             map[string]any{"type": "number", "description": "Moves left"},
		"choice2_remaining": map[string]any{"type": "number", "description": "Refine uses left"},
		"choice3_remaining": map[string]any{"type": "number", "description": "Stabilize uses left"},
		"config":            map[string]any{"type": "string", "description": "Reward mode (optional)"},
	}, "position", "turns"), c.handleProbabilities)

	// Placement workspace
	c.mcpServer.AddTool(sessionTool("get_puzzle", "Show the altar board, piece pool and current score"), c.handleGetPuzzle)
	c.mcpServer.AddTool(tool("toggle_cell", "Open or close one board cell", map[string]any{
		"session_id": sessionProp,
		"row":        map[string]any{"type": "number", "description": "Row 0-6"},
		"col":        map[string]any{"type": "number", "description": "Column 0-6"},
	}, "session_id", "row", "col"), c.handleToggleCell)
	c.mcpServer.AddTool(sessionTool("open_all_cells", "Open every cell on the board"), c.puzzleAction("/puzzle/open-all"))
	c.mcpServer.AddTool(sessionTool("close_all_cells", "Close every cell outside the core"), c.puzzleAction("/puzzle/close-all"))
	c.mcpServer.AddTool(sessionTool("reset_board", "Reset the board to the core cells"), c.puzzleAction("/puzzle/reset-board"))
	c.mcpServer.AddTool(tool("set_role", "Select the role whose attributes score bonuses", map[string]any{
		"session_id": sessionProp,
		"role": map[string]any{
			"type": "string",
			"enum": []string{string(piece.Dealer), string(piece.Striker), string(piece.Supporter)},
		},
	}, "session_id", "role"), c.handleSetRole)
	c.mcpServer.AddTool(tool("add_piece", "Add a piece to the pool", map[string]any{
		"session_id": sessionProp,
		"shape":      map[string]any{"type": "string", "description": "Catalog shape name, e.g. 4-square (see list_shapes)"},
		"rarity":     map[string]any{"type": "string", "description": "rare, epic or super_epic (ignored for size-8 shapes)"},
		"attribute":  map[string]any{"type": "string", "description": "Attribute, e.g. pierce (ignored for size-8 shapes)"},
	}, "session_id", "shape"), c.handleAddPiece)
	c.mcpServer.AddTool(tool("remove_piece", "Remove a piece from the pool", map[string]any{
		"session_id": sessionProp,
		"piece_id":   map[string]any{"type": "string", "description": "Piece ID"},
	}, "session_id", "piece_id"), c.handleRemovePiece)
	c.mcpServer.AddTool(sessionTool("clear_pieces", "Remove every piece from the pool"), c.handleClearPieces)
	c.mcpServer.AddTool(tool("import_puzzle", "Import a browser export or native snapshot", map[string]any{
		"session_id": sessionProp,
		"data":       map[string]any{"type": "string", "description": "Snapshot JSON"},
	}, "session_id", "data"), c.handleImportPuzzle)
	c.mcpServer.AddTool(tool("optimize_placement", "Search for the best placement of the pool on the open cells", map[string]any{
		"session_id":    sessionProp,
		"time_limit_ms": map[string]any{"type": "number", "description": "Search time budget in milliseconds"},
		"node_limit":    map[string]any{"type": "number", "description": "Search node budget"},
	}, "session_id"), c.handleOptimize)

	// Stateless
	c.mcpServer.AddTool(tool("score_placement", "Score a set of pieces for a role as if all were placed", map[string]any{
		"role": map[string]any{"type": "string"},
		"pieces": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"shape":     map[string]any{"type": "string"},
					"rarity":    map[string]any{"type": "string"},
					"attribute": map[string]any{"type": "string"},
				},
			},
		},
	}, "role", "pieces"), c.handleScorePieces)
	c.mcpServer.AddTool(tool("list_shapes", "List catalog shapes", map[string]any{
		"size": map[string]any{"type": "number", "description": "Only shapes of this size (optional)"},
		"role": map[string]any{"type": "string", "description": "Only size-8 shapes with this affinity (optional)"},
	}), c.handleListShapes)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reqBody = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]any {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return map[string]any{}
	}
	return args
}

func sessionPath(args map[string]any, suffix string) (string, bool) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", false
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, true
}

func errNoSession() *mcp.CallToolResult {
	return mcp.NewToolResultError("session_id is required")
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nConfig: %s\n", session.ID, session.ConfigName)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		result += fmt.Sprintf("- %s (Config: %s, Created: %s)\n",
			s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, ok := sessionPath(arguments(request), "")
	if !ok {
		return errNoSession(), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Configurations:\n\n"
	for _, cfg := range configs {
		result += fmt.Sprintf("• %s (%s)\n  %s\n  Mode: %d, Moves: %d, Best reward: %s\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.Mode, cfg.MaxMoves, cfg.BestReward)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, ok := sessionPath(arguments(request), "/state")
	if !ok {
		return errNoSession(), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, ok := sessionPath(args, "/move")
	if !ok {
		return errNoSession(), nil
	}
	action, ok := args["action"]
	if !ok {
		return mcp.NewToolResultError("action is required"), nil
	}
	reset, _ := args["reset"].(bool)

	body := map[string]any{
		"action": action,
		"reset":  reset,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, ok := sessionPath(args, "/bulk-move")
	if !ok {
		return errNoSession(), nil
	}
	actions, _ := args["actions"].([]any)
	if len(actions) == 0 {
		return mcp.NewToolResultError("actions must not be empty"), nil
	}
	reset, _ := args["reset"].(bool)

	body := map[string]any{
		"actions": actions,
		"reset":   reset,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sessionID, _ := args["session_id"].(string)
	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, ok := sessionPath(arguments(request), "/reset")
	if !ok {
		return errNoSession(), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprint(int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprint(int(limit)))
	}
	suffix := "/history"
	if len(params) > 0 {
		suffix += "?" + params.Encode()
	}

	path, ok := sessionPath(args, suffix)
	if !ok {
		return errNoSession(), nil
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleAdvice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, ok := sessionPath(arguments(request), "/advice")
	if !ok {
		return errNoSession(), nil
	}

	var response struct {
		Advice []engine.ActionAdvice `json:"advice"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatAdvice(response.Advice)), nil
}

func (c *Client) handleProbabilities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	req := service.ProbabilityRequest{}
	if v, ok := args["position"].(float64); ok {
		req.Position = int(v)
	}
	if v, ok := args["turns"].(float64); ok {
		req.Turns = int(v)
	}
	if v, ok := args["choice2_remaining"].(float64); ok {
		req.Choice2 = int(v)
	}
	if v, ok := args["choice3_remaining"].(float64); ok {
		req.Choice3 = int(v)
	}
	req.Config, _ = args["config"].(string)

	var resp service.ProbabilityResponse
	if err := c.apiCall(ctx, "POST", "/api/probabilities", req, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Position %d, %d turns, refine x%d, stabilize x%d (best reward: %s)\n\n",
		req.Position, req.Turns, req.Choice2, req.Choice3, resp.BestReward)
	return mcp.NewToolResultText(result + formatAdvice(resp.Advice)), nil
}

func (c *Client) handleGetPuzzle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, ok := sessionPath(arguments(request), "/puzzle")
	if !ok {
		return errNoSession(), nil
	}

	var state service.PuzzleState
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPuzzle(&state)), nil
}

// puzzleMutation posts to a workspace endpoint and renders the update.
func (c *Client) puzzleMutation(ctx context.Context, method, path string, body any) (*mcp.CallToolResult, error) {
	var update service.PuzzleUpdate
	if err := c.apiCall(ctx, method, path, body, &update); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatPuzzleUpdate(&update)), nil
}

func (c *Client) puzzleAction(suffix string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, ok := sessionPath(arguments(request), suffix)
		if !ok {
			return errNoSession(), nil
		}
		return c.puzzleMutation(ctx, "POST", path, nil)
	}
}

func (c *Client) handleToggleCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	row, rowOK := args["row"].(float64)
	col, colOK := args["col"].(float64)
	if !rowOK || !colOK {
		return mcp.NewToolResultError("row and col are required"), nil
	}
	path, ok := sessionPath(args, fmt.Sprintf("/puzzle/cells/%d/%d/toggle", int(row), int(col)))
	if !ok {
		return errNoSession(), nil
	}
	return c.puzzleMutation(ctx, "POST", path, nil)
}

func (c *Client) handleSetRole(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, ok := sessionPath(args, "/puzzle/role")
	if !ok {
		return errNoSession(), nil
	}
	role, _ := args["role"].(string)
	return c.puzzleMutation(ctx, "PUT", path, map[string]string{"role": role})
}

func (c *Client) handleAddPiece(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, ok := sessionPath(args, "/puzzle/pieces")
	if !ok {
		return errNoSession(), nil
	}
	spec := service.PieceSpec{}
	spec.Shape, _ = args["shape"].(string)
	spec.Rarity, _ = args["rarity"].(string)
	spec.Attribute, _ = args["attribute"].(string)
	return c.puzzleMutation(ctx, "POST", path, spec)
}

func (c *Client) handleRemovePiece(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	pieceID, _ := args["piece_id"].(string)
	if pieceID == "" {
		return mcp.NewToolResultError("piece_id is required"), nil
	}
	path, ok := sessionPath(args, "/puzzle/pieces/"+url.PathEscape(pieceID))
	if !ok {
		return errNoSession(), nil
	}
	return c.puzzleMutation(ctx, "DELETE", path, nil)
}

func (c *Client) handleClearPieces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, ok := sessionPath(arguments(request), "/puzzle/pieces")
	if !ok {
		return errNoSession(), nil
	}
	return c.puzzleMutation(ctx, "DELETE", path, nil)
}

func (c *Client) handleImportPuzzle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, ok := sessionPath(args, "/puzzle/import")
	if !ok {
		return errNoSession(), nil
	}
	data, _ := args["data"].(string)
	if data == "" {
		return mcp.NewToolResultError("data is required"), nil
	}

	var result service.ImportResult
	if err := c.apiCall(ctx, "POST", path, []byte(data), &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Imported %d pieces (%s format)\n", result.Report.Imported, result.Report.Format)
	for _, s := range result.Report.Skipped {
		text += fmt.Sprintf("- skipped #%d %s: %s\n", s.Index, s.ID, s.Reason)
	}
	if result.Puzzle != nil {
		text += "\n" + formatPuzzle(result.Puzzle)
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleOptimize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, ok := sessionPath(args, "/puzzle/optimize")
	if !ok {
		return errNoSession(), nil
	}

	req := service.OptimizeRequest{}
	if v, ok := args["time_limit_ms"].(float64); ok {
		req.TimeLimitMs = int64(v)
	}
	if v, ok := args["node_limit"].(float64); ok {
		req.NodeLimit = int64(v)
	}

	var result optimizer.Result
	if err := c.apiCall(ctx, "POST", path, req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatOptimizeResult(&result)), nil
}

func (c *Client) handleScorePieces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	role, _ := args["role"].(string)

	raw, _ := args["pieces"].([]any)
	pieces := make([]service.PieceSpec, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		spec := service.PieceSpec{}
		spec.Shape, _ = m["shape"].(string)
		spec.Rarity, _ = m["rarity"].(string)
		spec.Attribute, _ = m["attribute"].(string)
		pieces = append(pieces, spec)
	}

	var result scoring.Result
	body := map[string]any{"role": role, "pieces": pieces}
	if err := c.apiCall(ctx, "POST", "/api/score", body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatScore(&result)), nil
}

func (c *Client) handleListShapes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	params := url.Values{}
	if size, ok := args["size"].(float64); ok {
		params.Set("size", fmt.Sprint(int(size)))
	}
	if role, _ := args["role"].(string); role != "" {
		params.Set("role", role)
	}
	path := "/api/shapes"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var response struct {
		Count  int           `json:"count"`
		Shapes []piece.Shape `json:"shapes"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatShapes(response.Shapes)), nil
}
