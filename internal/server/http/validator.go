package http

import (
	"strings"

	"chessroom/internal/server/core"

	"github.com/gofiber/fiber/v2"
)

// validationMiddleware checks the game code path parameter and the session
// query string before the handler runs
func validationMiddleware(c *fiber.Ctx) error {
	path := core.JoinGameRequest{GameID: strings.ToUpper(c.Params("gameId"))}
	if err := core.Validate.Struct(&path); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid game code",
			Code:    core.ErrInvalidGameCode,
			Details: core.ValidationDetails(err),
		})
	}

	query := new(core.SessionQuery)
	if err := c.QueryParser(query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid query",
			Code:    core.ErrInvalidRequest,
			Details: err.Error(),
		})
	}
	if err := core.Validate.Struct(query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "validation failed",
			Code:    core.ErrInvalidRequest,
			Details: core.ValidationDetails(err),
		})
	}

	c.Locals("gameId", path.GameID)
	c.Locals("validatedQuery", query)
	return c.Next()
}
