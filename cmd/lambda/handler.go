package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/minigame-solver/game/optimizer"
	"github.com/wricardo/minigame-solver/game/piece"
	"github.com/wricardo/minigame-solver/game/puzzle"
	"github.com/wricardo/minigame-solver/game/snapshot"
)

// MaxTimeLimit keeps a search inside the function timeout.
const MaxTimeLimit = 25 * time.Second

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

// optimizeRequest carries a workspace in either import format.
type optimizeRequest struct {
	Snapshot    json.RawMessage `json:"snapshot"`
	Role        string          `json:"role,omitempty"`
	TimeLimitMs int64           `json:"time_limit_ms,omitempty"`
	NodeLimit   int64           `json:"node_limit,omitempty"`
}

type optimizeResponse struct {
	Result *optimizer.Result `json:"result"`
	Report snapshot.Report   `json:"report"`
	Role   piece.Role        `json:"role"`
}

func timeLimit(ms int64) time.Duration {
	d := time.Duration(ms) * time.Millisecond
	if d <= 0 || d > MaxTimeLimit {
		return MaxTimeLimit
	}
	return d
}

func handler(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(400, "invalid base64 body")
		}
		body = string(decoded)
	}

	var req optimizeRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return errResp(400, "invalid JSON: "+err.Error())
	}
	if len(req.Snapshot) == 0 {
		return errResp(400, "missing snapshot field")
	}

	snap, report, err := snapshot.Import(req.Snapshot)
	if err != nil {
		return errResp(400, err.Error())
	}
	if req.Role != "" {
		if snap.Role, err = piece.ParseRole(req.Role); err != nil {
			return errResp(400, err.Error())
		}
	}

	p := puzzle.New()
	if err := p.Restore(snap); err != nil {
		return errResp(400, err.Error())
	}

	res, err := p.Optimize(ctx, optimizer.Options{
		TimeLimit: timeLimit(req.TimeLimitMs),
		NodeLimit: req.NodeLimit,
	})
	if errors.Is(err, optimizer.ErrNoOpenCells) || errors.Is(err, optimizer.ErrNoUsablePieces) {
		return errResp(422, err.Error())
	}
	if err != nil {
		return errResp(500, err.Error())
	}

	log.Info().Int("placed", len(res.Placements)).Int("score", res.Score.TotalScore).
		Int64("nodes", res.Stats.Nodes).Str("stop", string(res.Stats.StopReason)).Msg("optimize-finished")

	respJSON, err := json.Marshal(optimizeResponse{Result: res, Report: report, Role: p.Role()})
	if err != nil {
		return errResp(500, err.Error())
	}
	return events.LambdaFunctionURLResponse{StatusCode: 200, Headers: jsonHeader, Body: string(respJSON)}, nil
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}
