// Package main is the terminal chess client. Without --server it plays
// hot-seat on one board; with it, it joins the relay as one seat.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"chessroom/internal/client/commands"
	"chessroom/internal/client/display"
	"chessroom/internal/client/netclient"
	"chessroom/internal/logx"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const dialTimeout = 10 * time.Second

func main() {
	cmd := &cli.Command{
		Name:  "chess-client",
		Usage: "terminal chess, local or through a relay server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "relay address (host:port or URL); local hot-seat when empty",
				Sources: cli.EnvVars("CHESS_SERVER"),
			},
			&cli.StringFlag{
				Name:  "join",
				Usage: "join this session code after connecting",
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "reclaim a seat with the token printed by an earlier session",
			},
			&cli.BoolFlag{
				Name:  "find",
				Usage: "queue for a random opponent after connecting",
			},
			&cli.BoolFlag{
				Name:    "no-color",
				Usage:   "disable colors",
				Sources: cli.EnvVars("NO_COLOR"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "print every relay event",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "write debug logs to this file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "debug",
				Usage: "log level for --log-file",
			},
			&cli.StringFlag{
				Name:  "history-file",
				Value: ".chess_history",
				Usage: "readline history file",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", display.Paint(display.Red, err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, c *cli.Command) error {
	if c.Bool("no-color") {
		display.SetEnabled(false)
	}

	log := zap.NewNop()
	if path := c.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		log = logx.New(logx.Config{Level: c.String("log-level"), Output: f})
	}
	defer log.Sync()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("chess"),
		HistoryFile:     c.String("history-file"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	out := rl.Stdout()

	var relay *netclient.Client
	if server := c.String("server"); server != "" {
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		relay, err = netclient.Dial(dialCtx, server, log)
		cancel()
		if err != nil {
			return err
		}
		defer relay.Close()
	}

	var session *commands.Session
	if relay != nil {
		session = commands.NewSession(out, relay)
	} else {
		session = commands.NewSession(out, nil)
	}
	session.Verbose = c.Bool("verbose")
	registry := commands.NewRegistry(session)
	rl.Config.AutoComplete = registry.Completer()

	fmt.Fprintln(out, display.Paint(display.Cyan, "Chess Client"))
	if relay != nil {
		fmt.Fprintln(out, display.Paint(display.Cyan, "Relay: "+c.String("server")))
		go pump(relay, session, rl, log)

		switch {
		case c.String("token") != "":
			err = relay.Reconnect(c.String("token"))
		case c.String("join") != "":
			err = relay.JoinGame(c.String("join"))
		case c.Bool("find"):
			err = relay.FindGame("")
		}
		if err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, display.Paint(display.Cyan, "Local hot-seat game"))
		registry.Execute("show")
	}
	fmt.Fprintf(out, "Type 'help' for commands\n\n")

	for {
		rl.SetPrompt(session.Prompt())
		line, err := rl.Readline()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "quit" {
			line = "exit"
		}
		if errors.Is(registry.Execute(line), commands.ErrExit) {
			break
		}
	}

	fmt.Fprintln(out, display.Paint(display.Cyan, "Goodbye!"))
	return nil
}

// pump feeds relay events to the session until the connection ends
func pump(relay *netclient.Client, session *commands.Session, rl *readline.Instance, log *zap.Logger) {
	for env := range relay.Events() {
		session.HandleEvent(env)
		rl.SetPrompt(session.Prompt())
		rl.Refresh()
	}

	err := relay.Err()
	if errors.Is(err, netclient.ErrClosed) {
		return
	}
	log.Warn("relay connection lost", zap.Error(err))
	fmt.Fprintln(rl.Stdout(), display.Paint(display.Red, "Connection to the relay lost"))
	if token := session.SeatToken(); token != "" {
		fmt.Fprintf(rl.Stdout(), "Rejoin with: --token %s\n", token)
	}
	rl.Refresh()
}
