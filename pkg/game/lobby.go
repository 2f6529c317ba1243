package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/config"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/sc2"
	"github.com/aiseeq/s2l/protocol/api"
	"github.com/sirupsen/logrus"
)

var (
	ErrLobbyTimeout  = errors.New("timed out waiting for players")
	ErrUnknownPlayer = errors.New("unknown player joined")
)

type (
	// LobbyTimeoutError is returned when not every expected player joined
	// before the lobby timeout.
	LobbyTimeoutError struct {
		Elapsed  time.Duration
		Timeout  time.Duration
		Joined   int
		Expected int
	}

	// UnknownPlayerError is returned when a player joined which does not
	// match any unassigned slot of the configuration.
	UnknownPlayerError struct {
		PlayerID uint32
		Type     api.PlayerType
		Race     api.Race
	}
)

// Error returns the error string.
func (e *LobbyTimeoutError) Error() string {
	return fmt.Sprintf(
		"timed out after waiting %s > %s for players to join (%d of %d joined)",
		e.Elapsed.Round(100*time.Millisecond), e.Timeout, e.Joined, e.Expected,
	)
}

// Unwrap returns ErrLobbyTimeout.
func (e *LobbyTimeoutError) Unwrap() error {
	return ErrLobbyTimeout
}

// Error returns the error string.
func (e *UnknownPlayerError) Error() string {
	return fmt.Sprintf("could not match player %d (%s %s) to any configured slot", e.PlayerID, e.Type, e.Race)
}

// Unwrap returns ErrUnknownPlayer.
func (e *UnknownPlayerError) Unwrap() error {
	return ErrUnknownPlayer
}

// lobby tracks the players the game has reported while waiting for the match
// to fill.
type lobby struct {
	cfg    *config.Config
	logger *logrus.Entry

	// known holds the ids of every player the game has reported
	known map[uint32]struct{}
}

func newLobby(c *config.Config, logger *logrus.Entry) *lobby {
	return &lobby{
		cfg:    c,
		logger: logger,
		known:  make(map[uint32]struct{}),
	}
}

// identify records the players reported by the game. Each new player other
// than the host is assigned to the first unassigned slot of the same type and
// requested race.
func (l *lobby) identify(players []*api.PlayerInfo) error {
	host := l.cfg.WhoAmI()

	for _, pi := range players {
		if pi == nil {
			continue
		}

		id := uint32(pi.PlayerId)
		if _, ok := l.known[id]; ok {
			continue
		}

		l.known[id] = struct{}{}

		if host != nil && host.PlayerID == id {
			continue
		}

		slot := l.match(pi.Type, pi.RaceRequested)
		if slot == nil {
			return &UnknownPlayerError{
				PlayerID: id,
				Type:     pi.Type,
				Race:     pi.RaceRequested,
			}
		}

		l.cfg.UpdateID(id, slot)
		l.logger.
			WithField("slot", slot.Name).
			WithField("player_id", id).
			Info("player joined the match")
	}

	return nil
}

// match returns the first unassigned slot of the given type and race.
func (l *lobby) match(typ api.PlayerType, race api.Race) *config.PlayerSlot {
	for _, p := range l.cfg.Players {
		if p.Identified() {
			continue
		}

		if p.Matches(typ, race) {
			return p
		}
	}

	return nil
}

// joined returns the number of players reported so far.
func (l *lobby) joined() int {
	return len(l.known)
}

// waitForPlayers polls the game until every expected player has joined. It
// fails if the lobby timeout elapses first or an unknown player joins.
func (g *Game) waitForPlayers(ctx context.Context, ctrl sc2.Controller, c *config.Config, logger *logrus.Entry) error {
	l := newLobby(c, logger)
	expected := c.ExpectedPlayers()
	start := g.now()

	t := time.NewTicker(g.pollInterval)
	defer t.Stop()

	for {
		if elapsed := g.now().Sub(start); elapsed > g.lobbyTimeout {
			return &LobbyTimeoutError{
				Elapsed:  elapsed,
				Timeout:  g.lobbyTimeout,
				Joined:   l.joined(),
				Expected: expected,
			}
		}

		info, err := ctrl.GameInfo(ctx)
		if err != nil {
			return fmt.Errorf("error fetching game info: %w", err)
		}

		if err = l.identify(info.PlayerInfo); err != nil {
			return err
		}

		g.state.setPlayers(l.joined())

		if l.joined() >= expected {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
