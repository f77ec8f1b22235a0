// Package main runs the game relay server: a websocket relay with a small
// REST API, optional SQLite persistence and database maintenance commands.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "chess-server",
		Usage: "two-player game relay",
		Commands: []*cli.Command{
			serveCommand(),
			dbCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "chess-server: %v\n", err)
		os.Exit(1)
	}
}
