// Package sc2 launches StarCraft II game processes and exchanges API requests
// with them. Message types are those of github.com/aiseeq/s2l/protocol/api.
package sc2

import (
	"context"

	"github.com/aiseeq/s2l/protocol/api"
)

type (
	// Controller controls one running game process.
	Controller interface {
		// CreateGame creates a new game, advancing the process to init_game.
		CreateGame(ctx context.Context, req *api.RequestCreateGame) error

		// JoinGame joins the created game as a participant.
		JoinGame(ctx context.Context, req *api.RequestJoinGame) (*api.ResponseJoinGame, error)

		// GameInfo returns static information about the game, including the
		// players who have joined so far.
		GameInfo(ctx context.Context) (*api.ResponseGameInfo, error)

		// Observe returns the latest observation of the game.
		Observe(ctx context.Context) (*api.ResponseObservation, error)

		// Step advances a non-realtime game by count game loops.
		Step(ctx context.Context, count uint32) error

		// SaveReplay returns the replay of the game so far.
		SaveReplay(ctx context.Context) ([]byte, error)

		// Status returns the last status reported by the game.
		Status() api.Status

		// Quit force-terminates the game process. It is safe to call more
		// than once.
		Quit() error
	}

	// Launcher starts game processes.
	Launcher interface {
		// Launch starts a game process and returns a controller connected
		// to it. The caller owns the controller and must Quit it.
		Launch(ctx context.Context, fullscreen bool) (Controller, error)
	}
)
