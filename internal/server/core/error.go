package core

// Error codes
const (
	ErrInvalidGameCode   = "INVALID_GAME_CODE"
	ErrGameFull          = "GAME_FULL"
	ErrGameNotFound      = "GAME_NOT_FOUND"
	ErrNotYourTurn       = "NOT_YOUR_TURN"
	ErrGameNotStarted    = "GAME_NOT_STARTED"
	ErrGameFinished      = "GAME_FINISHED"
	ErrNoActiveGame      = "NO_ACTIVE_GAME"
	ErrIllegalMove       = "ILLEGAL_MOVE"
	ErrAlreadyInGame     = "ALREADY_IN_GAME"
	ErrUnknownGameType   = "UNKNOWN_GAME_TYPE"
	ErrInvalidToken      = "INVALID_TOKEN"
	ErrUnknownEvent      = "UNKNOWN_EVENT"
	ErrRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrInvalidContent    = "INVALID_CONTENT_TYPE"
	ErrInvalidRequest    = "INVALID_REQUEST"
	ErrInternalError     = "INTERNAL_ERROR"
)
