package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/justinabrahms/pollchess/internal/client"
	"github.com/justinabrahms/pollchess/internal/match"
	"github.com/justinabrahms/pollchess/internal/web"
)

// Terminal color codes
const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

type session struct {
	api *client.Client
	rl  *readline.Instance
}

func main() {
	server := flag.String("server", "http://localhost:8080", "game server base URL")
	flag.Parse()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt(""),
		HistoryFile:     ".pollchess_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("host"),
			readline.PcItem("join"),
			readline.PcItem("move"),
			readline.PcItem("wait"),
			readline.PcItem("show"),
			readline.PcItem("hints"),
			readline.PcItem("games"),
			readline.PcItem("help"),
			readline.PcItem("exit"),
		),
	})
	if err != nil {
		fmt.Printf("%s%s%s\n", red, err.Error(), reset)
		os.Exit(1)
	}
	defer rl.Close()

	s := &session{api: client.NewClient(*server), rl: rl}
	fmt.Printf("%spollchess client%s\n", cyan, reset)
	fmt.Printf("%sServer: %s%s\n", cyan, *server, reset)
	if err := s.api.Ping(context.Background()); err != nil {
		fmt.Printf("%sServer not reachable: %v%s\n", red, err, reset)
	}
	fmt.Printf("Type 'help' for commands\n\n")

	for {
		rl.SetPrompt(prompt(s.api.GameID()))
		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "exit" || fields[0] == "quit" {
			break
		}
		if err := s.execute(fields[0], fields[1:]); err != nil {
			fmt.Printf("%s%v%s\n", red, err, reset)
		}
	}
}

func prompt(gameID string) string {
	if len(gameID) > 8 {
		gameID = gameID[:8]
	}
	if gameID == "" {
		return yellow + "chess > " + reset
	}
	return yellow + "chess [" + gameID + "] > " + reset
}

func (s *session) execute(cmd string, args []string) error {
	ctx := context.Background()

	switch cmd {
	case "help":
		printHelp()
		return nil

	case "host":
		conn, err := s.api.Host(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%sHosted game %s as %s%s\n", green, conn.GameID, conn.PlayerSide, reset)
		fmt.Printf("Share the game id; your opponent runs: join %s\n", conn.GameID)
		return show(conn.GameState)

	case "join":
		if len(args) != 1 {
			return errors.New("usage: join <game-id>")
		}
		conn, err := s.api.Join(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%sJoined game %s as %s%s\n", green, conn.GameID, conn.PlayerSide, reset)
		return show(conn.GameState)

	case "move", "m":
		if len(args) != 1 {
			return errors.New("usage: move <from><to>[promotion], e.g. move e2e4")
		}
		view, err := s.api.Move(ctx, args[0])
		if err != nil {
			return err
		}
		return show(view)

	case "wait", "w":
		fmt.Printf("%sWaiting for your turn...%s\n", cyan, reset)
		for {
			view, err := s.api.WaitForTurn(ctx)
			if client.IsCode(err, web.ErrCodeWaitTimeout) {
				continue
			}
			if err != nil {
				return err
			}
			return show(view)
		}

	case "show", "s":
		if s.api.GameID() == "" && len(args) == 0 {
			return errors.New("usage: show <game-id>")
		}
		id := s.api.GameID()
		if len(args) == 1 {
			id = args[0]
		}
		view, err := s.api.Game(ctx, id)
		if err != nil {
			return err
		}
		return show(view)

	case "hints":
		view, err := s.api.Game(ctx, s.api.GameID())
		if err != nil {
			return err
		}
		hints := client.Hints(view)
		if len(hints) == 0 {
			fmt.Println("No moves available right now")
			return nil
		}
		fmt.Println(strings.Join(hints, " "))
		return nil

	case "games":
		games, err := s.api.Games(ctx)
		if err != nil {
			return err
		}
		if len(games) == 0 {
			fmt.Println("No games")
		}
		for _, g := range games {
			fmt.Printf("%s  %-15s  %s to move  moves:%d  joined:%v  spectators:%d\n",
				g.GameID, g.Status, g.CurrentPlayer, g.MoveCount, g.OpponentJoined, g.SpectatorCount)
		}
		return nil
	}
	return fmt.Errorf("unknown command %q, type 'help'", cmd)
}

func show(view match.View) error {
	out, err := client.Render(view)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func printHelp() {
	fmt.Println(`Commands:
  host              host a new game as White
  join <id>         join a hosted game as Black
  move <uci>        play a move, e.g. move e2e4 or move e7e8n
  wait              block until it is your turn
  show [id]         show your game, or any game as a spectator
  hints             list your legal moves
  games             list games on the server
  exit              quit`)
}
