package core

import (
	"slices"
	"sort"
)

const (
	GameTypeChess     = "chess"
	GameTypeTicTacToe = "tictactoe"

	// DefaultGameType is used when a client creates a game without naming one
	DefaultGameType = GameTypeChess
)

// GameConfig describes the seat layout of a game type. Roles are listed in
// turn order; the first role moves first.
type GameConfig struct {
	Type       string   `json:"type"`
	Roles      []string `json:"roles"`
	MinPlayers int      `json:"minPlayers"`
	MaxPlayers int      `json:"maxPlayers"`
}

var registry = map[string]GameConfig{
	GameTypeChess: {
		Type:       GameTypeChess,
		Roles:      []string{"white", "black"},
		MinPlayers: 2,
		MaxPlayers: 2,
	},
	GameTypeTicTacToe: {
		Type:       GameTypeTicTacToe,
		Roles:      []string{"X", "O"},
		MinPlayers: 2,
		MaxPlayers: 2,
	},
}

// LookupConfig returns the configuration for gameType. An empty type maps to
// DefaultGameType.
func LookupConfig(gameType string) (GameConfig, bool) {
	if gameType == "" {
		gameType = DefaultGameType
	}
	cfg, ok := registry[gameType]
	if !ok {
		return GameConfig{}, false
	}
	cfg.Roles = slices.Clone(cfg.Roles)
	return cfg, true
}

// GameTypes lists the registered game types in name order.
func GameTypes() []string {
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// NextRole returns the role after role in turn order, wrapping around.
func (c GameConfig) NextRole(role string) string {
	i := slices.Index(c.Roles, role)
	if i < 0 {
		return c.Roles[0]
	}
	return c.Roles[(i+1)%len(c.Roles)]
}
