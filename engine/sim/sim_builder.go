package sim

import (
	"time"

	"go.uber.org/zap"
)

// GameOption adjusts a game while NewGame constructs it.
type GameOption func(*game)

// WithLogger routes the game's debug logging through the given logger.
//
// Parameters:
//   - logger: *zap.Logger to log through. A nil logger is ignored.
//
// Returns:
//   - GameOption: the option to pass to NewGame.
func WithLogger(logger *zap.Logger) GameOption {
	return func(g *game) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithClock replaces the wall clock the game stamps transactions with.
// Tests use this to make record expiry deterministic.
//
// Parameters:
//   - now: func() time.Time returning the current time.
//
// Returns:
//   - GameOption: the option to pass to NewGame.
func WithClock(now func() time.Time) GameOption {
	return func(g *game) {
		if now != nil {
			g.now = now
		}
	}
}

// WithMailboxSize sets the buffered capacity of the game's mailbox.
//
// Parameters:
//   - size: int capacity, ignored unless positive.
//
// Returns:
//   - GameOption: the option to pass to NewGame.
func WithMailboxSize(size int) GameOption {
	return func(g *game) {
		if size > 0 {
			g.mailbox = make(chan func(*gameState), size)
		}
	}
}
