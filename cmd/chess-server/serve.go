package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chessroom/internal/logx"
	"chessroom/internal/server/http"
	"chessroom/internal/server/processor"
	"chessroom/internal/server/service"
	"chessroom/internal/server/storage"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
	statsBroadcastInterval  = 5 * time.Second
	devTokenSecret          = "dev-secret-minimum-32-characters-long"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the relay server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":3000",
				Usage:   "listen address",
				Sources: cli.EnvVars("CHESS_ADDR"),
			},
			&cli.BoolFlag{
				Name:    "dev",
				Usage:   "development mode (relaxed rate limits, console logs, fixed token secret)",
				Sources: cli.EnvVars("CHESS_DEV"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "debug, info, warn or error",
				Sources: cli.EnvVars("CHESS_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "storage-path",
				Usage:   "SQLite database file (persistence disabled when empty)",
				Sources: cli.EnvVars("CHESS_STORAGE_PATH"),
			},
			&cli.BoolFlag{
				Name:    "validate-moves",
				Usage:   "referee chess sessions on the server",
				Sources: cli.EnvVars("CHESS_VALIDATE_MOVES"),
			},
			&cli.StringFlag{
				Name:    "static-dir",
				Usage:   "serve static files from this directory at /",
				Sources: cli.EnvVars("CHESS_STATIC_DIR"),
			},
			&cli.StringFlag{
				Name:  "pid",
				Usage: "write the process id to this file",
			},
			&cli.BoolFlag{
				Name:  "pid-lock",
				Usage: "lock the PID file so only one instance runs (requires --pid)",
			},
			&cli.DurationFlag{
				Name:    "session-ttl",
				Value:   service.SessionTTL,
				Usage:   "idle time before an unfinished session is removed",
				Sources: cli.EnvVars("CHESS_SESSION_TTL"),
			},
			&cli.StringFlag{
				Name:    "token-secret",
				Usage:   "HMAC secret for seat tokens (random per start when empty)",
				Sources: cli.EnvVars("CHESS_TOKEN_SECRET"),
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, c *cli.Command) error {
	dev := c.Bool("dev")
	log := logx.New(logx.Config{
		Level:   c.String("log-level"),
		Dev:     dev,
		Console: dev,
	})
	defer log.Sync()

	if c.Bool("pid-lock") && c.String("pid") == "" {
		return fmt.Errorf("--pid-lock requires --pid")
	}
	if path := c.String("pid"); path != "" {
		cleanup, err := managePIDFile(path, c.Bool("pid-lock"))
		if err != nil {
			return fmt.Errorf("pid file: %w", err)
		}
		defer cleanup()
		log.Info("pid file created", zap.String("path", path), zap.Bool("lock", c.Bool("pid-lock")))
	}

	var store *storage.Store
	if path := c.String("storage-path"); path != "" {
		var err error
		store, err = storage.NewStore(path, dev, log)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		if err := store.InitDB(); err != nil {
			store.Close()
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		log.Info("persistent storage enabled", zap.String("path", path))
	} else {
		log.Info("persistent storage disabled (use --storage-path to enable)")
	}

	secret, err := tokenSecret(c.String("token-secret"), dev)
	if err != nil {
		return err
	}

	cfg := service.Config{
		Store:      store,
		Secret:     secret,
		SessionTTL: c.Duration("session-ttl"),
		Log:        log,
	}
	if c.Bool("validate-moves") {
		cfg.Validator = processor.NewReferee()
		log.Info("server-side move validation enabled for chess")
	}
	svc, err := service.New(cfg)
	if err != nil {
		return err
	}

	jobs, stopJobs := context.WithCancel(ctx)
	defer stopJobs()
	go svc.RunCleanupJob(jobs, service.CleanupJobInterval)

	proc := processor.New(svc, log)
	handler := http.NewHTTPHandler(proc, svc, log)
	app := http.NewFiberApp(handler, http.Options{
		DevMode:   dev,
		StaticDir: c.String("static-dir"),
		Log:       log,
		Context:   jobs,
	})
	go handler.Hub().RunStatsBroadcast(jobs, statsBroadcastInterval)

	addr := c.String("addr")
	listenErr := make(chan error, 1)
	go func() {
		log.Info("relay listening",
			zap.String("addr", addr),
			zap.Bool("dev", dev),
			zap.Bool("storage", store != nil),
		)
		listenErr <- app.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
	case <-ctx.Done():
	case runErr = <-listenErr:
		log.Error("listen failed", zap.Error(runErr))
	}

	log.Info("shutting down")
	// Ends background jobs and releases pending long-polls
	stopJobs()
	if err := app.ShutdownWithTimeout(gracefulShutdownTimeout); err != nil {
		log.Warn("server forced to shutdown", zap.Error(err))
	}
	if err := svc.Shutdown(gracefulShutdownTimeout); err != nil {
		log.Warn("service shutdown", zap.Error(err))
	}
	log.Info("server exited")
	return runErr
}

// tokenSecret picks the seat token secret: the configured one, a fixed one
// in dev mode, or 32 random bytes.
func tokenSecret(configured string, dev bool) ([]byte, error) {
	switch {
	case configured != "":
		if len(configured) < service.MinSecretLength {
			return nil, fmt.Errorf("--token-secret: %w", service.ErrWeakSecret)
		}
		return []byte(configured), nil
	case dev:
		return []byte(devTokenSecret), nil
	}
	secret := make([]byte, service.MinSecretLength)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate token secret: %w", err)
	}
	return secret, nil
}
