package http

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chessroom/internal/server/core"
	"chessroom/internal/server/processor"
	"chessroom/internal/server/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const rateLimitRate = 10 // req/sec

// Options configures the fiber app
type Options struct {
	DevMode   bool
	StaticDir string // serve files from here at / when set
	Log       *zap.Logger

	// Context bounds long-polls; cancel it before shutting the app down
	Context context.Context
}

// HTTPHandler handles REST requests against the relay service
type HTTPHandler struct {
	proc *processor.Processor
	svc  *service.Service
	hub  *Hub
	log  *zap.Logger
	ctx  context.Context
}

func NewHTTPHandler(proc *processor.Processor, svc *service.Service, log *zap.Logger) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{proc: proc, svc: svc, hub: NewHub(proc, log), log: log.Named("http"), ctx: context.Background()}
}

// Hub returns the websocket hub serving /ws
func (h *HTTPHandler) Hub() *Hub {
	return h.hub
}

func NewFiberApp(h *HTTPHandler, opts Options) *fiber.App {
	if opts.Context != nil {
		h.ctx = opts.Context
	}
	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          35 * time.Second,
		IdleTimeout:           60 * time.Second,
		DisableStartupMessage: true,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	accessLog := logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}
	if opts.Log != nil && !opts.DevMode {
		// Access lines go through the structured logger outside dev mode
		accessLog.Format = "${status} ${method} ${path} ${latency}"
		accessLog.Output = zap.NewStdLog(opts.Log.Named("access")).Writer()
	}
	app.Use(logger.New(accessLog))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	// Websocket relay
	app.Use("/ws", websocketUpgrade)
	app.Get("/ws", websocket.New(h.hub.Handle, websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}))

	api := app.Group("/api/v1")

	maxReq := rateLimitRate
	if opts.DevMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	api.Get("/stats", h.Stats)
	api.Get("/game-types", h.GameTypes)
	api.Get("/games/:gameId", validationMiddleware, h.GetSession)

	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}

	return app
}

// websocketUpgrade rejects plain HTTP requests to the relay endpoint
func websocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrGameNotFound
		case fiber.StatusBadRequest, fiber.StatusUpgradeRequired:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// Health check endpoint with storage status
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"storage": h.svc.GetStorageHealth(),
	})
}

// Stats returns online players, queue length and session counts
func (h *HTTPHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(h.svc.Stats())
}

// GameTypes lists the seat layouts the relay can host
func (h *HTTPHandler) GameTypes(c *fiber.Ctx) error {
	types := core.GameTypes()
	configs := make([]core.GameConfig, 0, len(types))
	for _, t := range types {
		cfg, _ := core.LookupConfig(t)
		configs = append(configs, cfg)
	}
	return c.JSON(configs)
}

// GetSession returns a session. With ?wait=true&version=N the request
// long-polls until the session moves past version N.
func (h *HTTPHandler) GetSession(c *fiber.Ctx) error {
	gameID, _ := c.Locals("gameId").(string)
	query, ok := c.Locals("validatedQuery").(*core.SessionQuery)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "validation bypass detected",
			Code:  core.ErrInternalError,
		})
	}

	var (
		view core.SessionResponse
		err  error
	)
	if query.Wait {
		// fasthttp's RequestCtx only signals server shutdown and is not
		// safe to watch from another goroutine
		view, err = h.svc.WaitForChange(h.ctx, gameID, query.Version)
	} else {
		view, err = h.svc.SessionView(gameID)
	}

	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "game not found",
			Code:  core.ErrGameNotFound,
		})
	case errors.Is(err, service.ErrInvalidGameCode):
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error: "invalid game code",
			Code:  core.ErrInvalidGameCode,
		})
	case err != nil:
		// Server is going away
		return c.Status(fiber.StatusServiceUnavailable).JSON(core.ErrorResponse{
			Error: "server shutting down",
			Code:  core.ErrInternalError,
		})
	}
	return c.JSON(view)
}
