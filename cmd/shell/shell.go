package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/minigame-solver/game/board"
	"github.com/wricardo/minigame-solver/game/config"
	"github.com/wricardo/minigame-solver/game/engine"
	"github.com/wricardo/minigame-solver/game/optimizer"
	"github.com/wricardo/minigame-solver/game/piece"
	"github.com/wricardo/minigame-solver/game/puzzle"
	"github.com/wricardo/minigame-solver/game/snapshot"
)

var errQuit = errors.New("quit")

const helpText = `Reward game:
  new [config]          start a game (super_epic, unique, ...)
  move <action>         1/strike, 2/refine, 3/stabilize
  advice                odds for each action
  state                 current position and budgets
  history               moves of this game
  reset                 restart the current game
Placement:
  board                 show the workspace
  toggle <row> <col>    open or close a cell
  open-all | close-all | reset-board
  role <role>           dealer, striker, supporter
  add <shape> [rarity] [attribute]
  remove <piece-id> | clear
  shapes <size>         list catalog shapes
  import <file>         load a browser export or snapshot
  optimize [seconds]    place the pool
help, quit`

// ShellController runs the interactive simulator. All state is local; no
// server is involved.
type ShellController struct {
	l       *readline.Instance
	configs *config.Manager
	game    *engine.GameEngine
	puzzle  *puzzle.Puzzle
	roller  engine.Roller
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

// newController builds the simulator state. configs may be nil, in which
// case only the built-in track is available.
func newController(configs *config.Manager, roller engine.Roller) (*ShellController, error) {
	sc := &ShellController{
		configs: configs,
		puzzle:  puzzle.New(),
		roller:  roller,
	}
	cfg := engine.DefaultGameConfig()
	if configs != nil {
		cfg = configs.GetDefault()
	}
	if err := sc.startGame(cfg); err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	return sc, nil
}

// startGame replaces the current game; on error the old one is kept.
func (sc *ShellController) startGame(cfg *engine.GameConfig) error {
	game, err := engine.NewEngine(cfg, sc.engineOptions()...)
	if err != nil {
		return err
	}
	sc.game = game
	return nil
}

func (sc *ShellController) engineOptions() []engine.Option {
	if sc.roller == nil {
		return nil
	}
	return []engine.Option{engine.WithRoller(sc.roller)}
}

func NewShellController(configs *config.Manager, historyFile string) (*ShellController, error) {
	sc, err := newController(configs, nil)
	if err != nil {
		return nil, err
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36mminigame>\033[0m ",
		HistoryFile:     historyFile,
		EOFPrompt:       "quit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}
	sc.l = l
	return sc, nil
}

// Loop reads commands until quit or EOF.
func (sc *ShellController) Loop() {
	defer sc.l.Close()
	showMessage("Type help for commands.", sc.l.Stdout())

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return
			}
			continue
		} else if err == io.EOF {
			return
		}

		out, err := sc.execute(strings.TrimSpace(line))
		if errors.Is(err, errQuit) {
			return
		}
		if err != nil {
			showMessage("Error: "+err.Error(), sc.l.Stderr())
			continue
		}
		if out != "" {
			showMessage(out, sc.l.Stdout())
		}
	}
}

func (sc *ShellController) execute(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help", "?":
		return helpText, nil
	case "quit", "exit":
		return "", errQuit
	case "new":
		return sc.newGame(args)
	case "move", "m":
		if len(args) != 1 {
			return "", errors.New("usage: move <action>")
		}
		return sc.move(args[0])
	case "advice", "odds":
		return formatAdvice(sc.game.Advise()), nil
	case "state":
		return formatState(sc.game.GetState()), nil
	case "history":
		return formatHistory(sc.game.GetState().CurrentMoves), nil
	case "reset":
		return formatState(sc.game.Reset()), nil

	case "board", "show":
		return formatWorkspace(sc.puzzle), nil
	case "toggle":
		return sc.toggle(args)
	case "open-all":
		return fmt.Sprintf("Opened %d cells\n%s", sc.puzzle.OpenAll(), sc.puzzle.Board()), nil
	case "close-all":
		return fmt.Sprintf("Closed %d cells\n%s", sc.puzzle.CloseAll(), sc.puzzle.Board()), nil
	case "reset-board":
		sc.puzzle.ResetBoard()
		return sc.puzzle.Board().String(), nil
	case "role":
		if len(args) != 1 {
			return "", errors.New("usage: role <dealer|striker|supporter>")
		}
		role, err := piece.ParseRole(args[0])
		if err != nil {
			return "", err
		}
		return "Role: " + string(role), sc.puzzle.SetRole(role)
	case "add":
		return sc.addPiece(args)
	case "remove":
		if len(args) != 1 {
			return "", errors.New("usage: remove <piece-id>")
		}
		return "Removed " + args[0], sc.puzzle.RemovePiece(args[0])
	case "clear":
		sc.puzzle.ClearPieces()
		return "Pool cleared", nil
	case "shapes":
		return sc.shapes(args)
	case "import":
		return sc.importFile(args)
	case "optimize":
		return sc.optimize(args)
	}
	return "", fmt.Errorf("unknown command %q (try help)", cmd)
}

func (sc *ShellController) newGame(args []string) (string, error) {
	cfg := engine.DefaultGameConfig()
	if len(args) > 0 {
		if sc.configs == nil {
			return "", errors.New("no configuration directory loaded")
		}
		var err error
		if cfg, err = sc.configs.LoadConfig(args[0]); err != nil {
			return "", fmt.Errorf("load %s: %w", args[0], err)
		}
	} else if sc.configs != nil {
		cfg = sc.configs.GetDefault()
	}
	if err := sc.startGame(cfg); err != nil {
		return "", err
	}
	return formatState(sc.game.GetState()), nil
}

func (sc *ShellController) move(arg string) (string, error) {
	action, err := engine.ParseAction(arg)
	if err != nil {
		return "", err
	}
	if !sc.game.Move(action) {
		return "", fmt.Errorf("%s is not available: %s", arg, sc.game.GetState().Message)
	}
	last := sc.game.GetLastMove()
	spec, _ := action.Spec()
	return fmt.Sprintf("%s %+d: %d -> %d\n%s", spec.Label, last.Delta, last.FromPosition, last.ToPosition,
		formatState(sc.game.GetState())), nil
}

func (sc *ShellController) toggle(args []string) (string, error) {
	if len(args) != 2 {
		return "", errors.New("usage: toggle <row> <col>")
	}
	row, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("row: %w", err)
	}
	col, err := strconv.Atoi(args[1])
	if err != nil {
		return "", fmt.Errorf("col: %w", err)
	}
	res := sc.puzzle.Toggle(board.Cell{Row: row, Col: col})
	if !res.Accepted {
		return "", fmt.Errorf("cell %s: %s", res.Cell, res.Reason)
	}
	return sc.puzzle.Board().String(), nil
}

func (sc *ShellController) addPiece(args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("usage: add <shape> [rarity] [attribute]")
	}
	var (
		rarity piece.Rarity
		attr   piece.Attribute
		err    error
	)
	if len(args) > 1 {
		if rarity, err = piece.ParseRarity(args[1]); err != nil {
			return "", err
		}
	}
	if len(args) > 2 {
		if attr, err = piece.ParseAttribute(args[2]); err != nil {
			return "", err
		}
	}
	p, err := sc.puzzle.AddPiece(args[0], rarity, attr)
	if err != nil {
		return "", err
	}
	return "Added " + formatPiece(p), nil
}

func (sc *ShellController) shapes(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: shapes <size>")
	}
	size, err := strconv.Atoi(args[0])
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, s := range puzzle.AvailableShapes(size, sc.puzzle.Role()) {
		fmt.Fprintf(&b, "%s\n", s.Name)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no shapes of size %d", size)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (sc *ShellController) importFile(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: import <file>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	snap, report, err := snapshot.Import(data)
	if err != nil {
		return "", err
	}
	current := sc.puzzle.Snapshot()
	if snap.Board == nil {
		snap.Board = current.Board
	}
	if snap.Role == "" {
		snap.Role = current.Role
	}
	if err := sc.puzzle.Restore(snap); err != nil {
		return "", err
	}
	msg := fmt.Sprintf("Imported %d pieces (%s format)", report.Imported, report.Format)
	for _, s := range report.Skipped {
		msg += fmt.Sprintf("\n  skipped #%d %s: %s", s.Index, s.ID, s.Reason)
	}
	return msg, nil
}

func (sc *ShellController) optimize(args []string) (string, error) {
	opts := optimizer.Options{}
	if len(args) > 0 {
		secs, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return "", fmt.Errorf("seconds: %w", err)
		}
		opts.TimeLimit = time.Duration(secs * float64(time.Second))
	}
	res, err := sc.puzzle.Optimize(context.Background(), opts)
	if err != nil {
		return "", err
	}
	log.Debug().Int64("nodes", res.Stats.Nodes).Str("stop", string(res.Stats.StopReason)).Msg("optimized")
	return formatResult(res), nil
}
