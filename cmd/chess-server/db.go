package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"chessroom/internal/logx"
	"chessroom/internal/server/storage"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

func dbCommand() *cli.Command {
	pathFlag := &cli.StringFlag{
		Name:     "path",
		Usage:    "database file path",
		Required: true,
		Sources:  cli.EnvVars("CHESS_STORAGE_PATH"),
	}

	return &cli.Command{
		Name:  "db",
		Usage: "manage the session database",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "create the database schema",
				Flags:  []cli.Flag{pathFlag},
				Action: runInit,
			},
			{
				Name:  "query",
				Usage: "list stored sessions, or the moves of one session",
				Flags: []cli.Flag{
					pathFlag,
					&cli.StringFlag{Name: "gameId", Usage: "session code to filter (* for all)"},
					&cli.StringFlag{Name: "status", Usage: "waiting, playing or finished (* for all)"},
					&cli.BoolFlag{Name: "moves", Usage: "print the move log of --gameId"},
					&cli.IntFlag{Name: "round", Usage: "restrict --moves to one round"},
				},
				Action: runQuery,
			},
			{
				Name:  "delete",
				Usage: "delete the database file",
				Flags: []cli.Flag{
					pathFlag,
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "skip confirmation"},
				},
				Action: runDelete,
			},
			{
				Name:  "prune",
				Usage: "remove sessions not updated within --older-than",
				Flags: []cli.Flag{
					pathFlag,
					&cli.DurationFlag{Name: "older-than", Value: 30 * 24 * time.Hour, Usage: "age cutoff"},
				},
				Action: runPrune,
			},
		},
	}
}

func openStore(path string) (*storage.Store, error) {
	log := logx.New(logx.Config{Level: "warn", Console: true})
	store, err := storage.NewStore(path, false, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func runInit(ctx context.Context, c *cli.Command) error {
	path := c.String("path")
	store, err := openStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Printf("Database initialized at: %s\n", path)
	return nil
}

func runQuery(ctx context.Context, c *cli.Command) error {
	store, err := openStore(c.String("path"))
	if err != nil {
		return err
	}
	defer store.Close()

	if c.Bool("moves") {
		gameID := strings.ToUpper(c.String("gameId"))
		if gameID == "" || gameID == "*" {
			return fmt.Errorf("--moves needs a single --gameId")
		}
		moves, err := store.QueryMoves(gameID, int(c.Int("round")))
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		return printMoves(os.Stdout, moves)
	}

	sessions, err := store.QuerySessions(strings.ToUpper(c.String("gameId")), c.String("status"))
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return printSessions(os.Stdout, sessions)
}

func printSessions(out io.Writer, sessions []storage.SessionRecord) error {
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game ID\tType\tStatus\tRound\tResult\tUpdated")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, s := range sessions {
		result := s.Result
		if result == "" {
			result = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.GameID, s.GameType, s.Status, s.Round, result,
			s.UpdatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nFound %d session(s)\n", len(sessions))
	return nil
}

func printMoves(out io.Writer, moves []storage.MoveRecord) error {
	if len(moves) == 0 {
		fmt.Fprintln(out, "No moves found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Round\t#\tPlayer\tPayload")
	for _, m := range moves {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", m.Round, m.MoveNumber, m.Player, m.Payload)
	}
	return w.Flush()
}

func runDelete(ctx context.Context, c *cli.Command) error {
	path := c.String("path")
	if !c.Bool("force") {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("refusing to delete %s without --force on a non-interactive stdin", path)
		}
		if !confirm(os.Stdin, os.Stdout, fmt.Sprintf("Delete %s?", path)) {
			fmt.Println("Aborted")
			return nil
		}
	}

	store, err := openStore(path)
	if err != nil {
		return err
	}
	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Printf("Database deleted: %s\n", path)
	return nil
}

// confirm asks a yes/no question, defaulting to no
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func runPrune(ctx context.Context, c *cli.Command) error {
	store, err := openStore(c.String("path"))
	if err != nil {
		return err
	}
	defer store.Close()

	cutoff := time.Now().Add(-c.Duration("older-than"))
	n, err := store.DeleteSessionsBefore(cutoff)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	fmt.Printf("Removed %d session(s) last updated before %s\n", n, cutoff.Format(time.RFC3339))
	return nil
}
