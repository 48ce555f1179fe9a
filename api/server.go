package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/minigame-solver/game/config"
	"github.com/wricardo/minigame-solver/game/engine"
	"github.com/wricardo/minigame-solver/game/piece"
	"github.com/wricardo/minigame-solver/game/puzzle"
	"github.com/wricardo/minigame-solver/game/service"
	"github.com/wricardo/minigame-solver/game/session"
	"github.com/wricardo/minigame-solver/game/snapshot"
	"github.com/wricardo/minigame-solver/transport/websocket"
)

// maxImportSize bounds the body of a snapshot import.
const maxImportSize = 1 << 20

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	// Overview of several sessions (must be before {id} pattern)
	api.HandleFunc("/sessions/unified", s.handleUnifiedSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Reward game
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/bulk-move", s.handleBulkMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/sessions/{id}/advice", s.handleGetAdvice).Methods("GET")

	// Placement workspace
	api.HandleFunc("/sessions/{id}/puzzle", s.handleGetPuzzle).Methods("GET")
	api.HandleFunc("/sessions/{id}/puzzle/cells/{row:[0-9]+}/{col:[0-9]+}/toggle", s.handleToggleCell).Methods("POST")
	api.HandleFunc("/sessions/{id}/puzzle/open-all", s.handleOpenAll).Methods("POST")
	api.HandleFunc("/sessions/{id}/puzzle/close-all", s.handleCloseAll).Methods("POST")
	api.HandleFunc("/sessions/{id}/puzzle/reset-board", s.handleResetBoard).Methods("POST")
	api.HandleFunc("/sessions/{id}/puzzle/role", s.handleSetRole).Methods("PUT")
	api.HandleFunc("/sessions/{id}/puzzle/pieces", s.handleAddPiece).Methods("POST")
	api.HandleFunc("/sessions/{id}/puzzle/pieces", s.handleClearPieces).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/puzzle/pieces/{pieceId}", s.handleRemovePiece).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/puzzle/import", s.handleImportPuzzle).Methods("POST")
	api.HandleFunc("/sessions/{id}/puzzle/optimize", s.handleOptimize).Methods("POST")

	// Stateless calculators
	api.HandleFunc("/probabilities", s.handleProbabilities).Methods("POST")
	api.HandleFunc("/score", s.handleScore).Methods("POST")
	api.HandleFunc("/shapes", s.handleListShapes).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, engine.ErrUnknownAction),
		errors.Is(err, piece.ErrUnknownShape),
		errors.Is(err, piece.ErrIllegalRarity),
		errors.Is(err, piece.ErrUnknownAttribute),
		errors.Is(err, piece.ErrUnknownRole),
		errors.Is(err, snapshot.ErrInvalidJSON),
		errors.Is(err, snapshot.ErrUnrecognized):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, config.ErrConfigNotFound),
		errors.Is(err, puzzle.ErrPieceNotFound),
		strings.Contains(err.Error(), "not found"):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

// decodeOptional decodes a JSON body when one is present.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) broadcastState(sessionID string, state *engine.GameState) {
	if s.hub != nil && state != nil {
		s.hub.BroadcastToSession(sessionID, state)
	}
}

func (s *Server) broadcastPuzzle(sessionID string, state *service.PuzzleState) {
	if s.hub != nil && state != nil {
		s.hub.BroadcastPuzzle(sessionID, state)
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
	}

	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	configID := req.ConfigID
	if configID == "" && req.ConfigName != "" {
		configID = req.ConfigName
	}

	info, err := s.service.CreateSession(r.Context(), configID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Reward Game Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetGameState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Action engine.Action `json:"action"`
		Reset  bool          `json:"reset,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if !req.Action.Valid() {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("action must be 1, 2 or 3, got %d", req.Action))
		return
	}

	result, err := s.service.Move(r.Context(), sessionID, req.Action, req.Reset)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastState(sessionID, result.GameState)

	if step := result.Step; step != nil {
		log.Info().Str("session", sessionID).Str("action", step.Label).
			Int("from", step.From).Int("to", step.To).Int("delta", step.Delta).
			Int("remaining", step.RemainingMoves).Bool("ok", result.Success).Msg("move")
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleBulkMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Actions []engine.Action `json:"actions"`
		Reset   bool            `json:"reset,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if len(req.Actions) == 0 {
		respondError(w, http.StatusBadRequest, "actions must not be empty")
		return
	}

	result, err := s.service.BulkMove(r.Context(), sessionID, req.Actions, req.Reset)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastState(sessionID, result.GameState)

	log.Info().Str("session", sessionID).
		Int("executed", result.MovesExecuted).Int("requested", result.RequestedMoves).
		Str("stop", result.StopReasonCode).Int("end", result.EndPosition).Msg("bulk-move")

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	s.broadcastState(sessionID, state)

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Game reset successfully",
		"state":   state,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetMoveHistory(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleGetAdvice(w http.ResponseWriter, r *http.Request) {
	advice, err := s.service.GetAdvice(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"advice": advice})
}

// Placement Workspace Handlers

func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetPuzzle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// respondPuzzleUpdate finishes a workspace mutation.
func (s *Server) respondPuzzleUpdate(w http.ResponseWriter, sessionID string, update *service.PuzzleUpdate, err error) {
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.broadcastPuzzle(sessionID, update.Puzzle)
	respondJSON(w, http.StatusOK, update)
}

func (s *Server) handleToggleCell(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	row, errRow := strconv.Atoi(vars["row"])
	col, errCol := strconv.Atoi(vars["col"])
	if errRow != nil || errCol != nil {
		respondError(w, http.StatusBadRequest, "row and col must be integers")
		return
	}

	update, err := s.service.ToggleCell(r.Context(), vars["id"], row, col)
	s.respondPuzzleUpdate(w, vars["id"], update, err)
}

func (s *Server) handleOpenAll(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	update, err := s.service.OpenAllCells(r.Context(), sessionID)
	s.respondPuzzleUpdate(w, sessionID, update, err)
}

func (s *Server) handleCloseAll(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	update, err := s.service.CloseAllCells(r.Context(), sessionID)
	s.respondPuzzleUpdate(w, sessionID, update, err)
}

func (s *Server) handleResetBoard(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	update, err := s.service.ResetBoard(r.Context(), sessionID)
	s.respondPuzzleUpdate(w, sessionID, update, err)
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Role == "" {
		respondError(w, http.StatusBadRequest, "role is required")
		return
	}

	update, err := s.service.SetRole(r.Context(), sessionID, req.Role)
	s.respondPuzzleUpdate(w, sessionID, update, err)
}

func (s *Server) handleAddPiece(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var spec service.PieceSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if spec.Shape == "" {
		respondError(w, http.StatusBadRequest, "shape is required")
		return
	}

	update, err := s.service.AddPiece(r.Context(), sessionID, spec)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.broadcastPuzzle(sessionID, update.Puzzle)
	respondJSON(w, http.StatusCreated, update)
}

func (s *Server) handleRemovePiece(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	update, err := s.service.RemovePiece(r.Context(), vars["id"], vars["pieceId"])
	s.respondPuzzleUpdate(w, vars["id"], update, err)
}

func (s *Server) handleClearPieces(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	update, err := s.service.ClearPieces(r.Context(), sessionID)
	s.respondPuzzleUpdate(w, sessionID, update, err)
}

func (s *Server) handleImportPuzzle(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	result, err := s.service.ImportPuzzle(r.Context(), sessionID, data)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastPuzzle(sessionID, result.Puzzle)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req service.OptimizeRequest
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var progress service.ProgressFunc
	if s.hub != nil {
		progress = s.hub.ProgressFunc()
	}

	result, err := s.service.OptimizePlacement(r.Context(), sessionID, req, progress)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if state, err := s.service.GetPuzzle(r.Context(), sessionID); err == nil {
		s.broadcastPuzzle(sessionID, state)
	}

	respondJSON(w, http.StatusOK, result)
}

// Stateless Calculator Handlers

func (s *Server) handleProbabilities(w http.ResponseWriter, r *http.Request) {
	var req service.ProbabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := s.service.Probabilities(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role   string              `json:"role"`
		Pieces []service.PieceSpec `json:"pieces"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.ScorePieces(r.Context(), req.Role, req.Pieces)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleListShapes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	size := 0
	if sizeStr := query.Get("size"); sizeStr != "" {
		n, err := strconv.Atoi(sizeStr)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "size must be a non-negative integer")
			return
		}
		size = n
	}

	shapes, err := s.service.ListShapes(r.Context(), size, query.Get("role"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":  len(shapes),
		"shapes": shapes,
	})
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	gameConfig, err := s.service.LoadConfig(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, gameConfig)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id,omitempty"`
		engine.GameConfig
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	configID := req.ID
	if configID == "" {
		configID = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(req.Name), " ", "_"))
	}

	gameConfig := req.GameConfig
	if err := s.service.SaveConfig(r.Context(), configID, &gameConfig); err != nil {
		respondError(w, statusFor(err), fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// Unified Sessions Handler

func (s *Server) handleUnifiedSessions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var sessions []*service.SessionInfo

	if sessionIDs := query.Get("sessionIds"); sessionIDs != "" {
		for _, id := range strings.Split(sessionIDs, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if info, err := s.service.GetSession(r.Context(), id); err == nil {
				sessions = append(sessions, info)
			}
		}
	} else {
		all, err := s.service.ListSessions(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		configName := query.Get("configName")
		for _, info := range all {
			if configName == "" || info.ConfigName == configName {
				sessions = append(sessions, info)
			}
		}
	}

	configName := ""
	bestReward := ""
	if len(sessions) > 0 {
		configName = sessions[0].ConfigName
		if gc := sessions[0].GameConfig; gc != nil {
			bestReward = engine.RewardName(engine.BestReward(gc.RewardTrack))
		}
	}

	entries := make([]map[string]any, 0, len(sessions))
	for _, info := range sessions {
		entries = append(entries, map[string]any{
			"session_id":    info.ID,
			"config_name":   info.ConfigName,
			"game_state":    info.GameState,
			"created_at":    info.CreatedAt,
			"last_accessed": info.LastAccessedAt,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"config_name": configName,
		"best_reward": bestReward,
		"sessions":    entries,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "websocket disabled", http.StatusServiceUnavailable)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
