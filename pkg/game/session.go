package game

import (
	"context"
	"fmt"

	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/config"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/replay"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/result"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/sc2"
	"github.com/aiseeq/s2l/protocol/api"
	"github.com/sirupsen/logrus"
)

// session is a single match played in a launched game.
type session struct {
	ctrl   sc2.Controller
	cfg    *config.Config
	agent  Agent
	snaps  *replay.Snapshotter
	logger *logrus.Entry

	createReq *api.RequestCreateGame
	joinReq   *api.RequestJoinGame
}

// play creates and joins the game, waits for the lobby to fill and runs the
// match to its end.
func (g *Game) play(ctx context.Context, s *session) (result.Result, error) {
	g.transition(s.logger.WithField("status", s.ctrl.Status().String()), PhaseJoining)

	if err := s.ctrl.CreateGame(ctx, s.createReq); err != nil {
		return result.Result{}, fmt.Errorf("error creating game: %w", err)
	}

	join, err := s.ctrl.JoinGame(ctx, s.joinReq)
	if err != nil {
		return result.Result{}, fmt.Errorf("error joining game: %w", err)
	}

	s.cfg.UpdateID(uint32(join.PlayerId), nil)
	s.logger.
		WithField("player_id", uint32(join.PlayerId)).
		Info("joined match")

	g.transition(s.logger.WithField("expected", s.cfg.ExpectedPlayers()), PhaseWaitingForPlayers)

	if err = g.waitForPlayers(ctx, s.ctrl, s.cfg, s.logger); err != nil {
		return result.Result{}, err
	}

	s.logger.
		WithField("players", s.cfg.ExpectedPlayers()).
		WithField("status", s.ctrl.Status().String()).
		Info("all players joined")

	if err = s.publish(); err != nil {
		return result.Result{}, err
	}

	g.transition(s.logger, PhaseRunning)

	if err = callAgent(agentPhaseInit, func() error { return s.agent.Init(ctx, s.cfg.Name) }); err != nil {
		s.logger.
			WithField("error", err.Error()).
			Error("agent crashed during init")
		g.transition(s.logger, PhaseCrashed)

		return result.PlayerCrashed(s.cfg), nil
	}

	res, err := g.gameLoop(ctx, s)

	s.finalSnapshot()

	return res, err
}

// publish writes the fully identified configuration for the other processes
// taking part in the match. Configurations not loaded from a file are not
// published.
func (s *session) publish() error {
	if s.cfg.Path() == "" {
		s.logger.Debug("config has no path, not publishing")

		return nil
	}

	if err := s.cfg.Save(); err != nil {
		return fmt.Errorf("error publishing config: %w", err)
	}

	s.logger.
		WithField("path", s.cfg.Path()).
		Debug("config published")

	return nil
}

// finalSnapshot makes one last attempt to save the complete replay. Failure
// is only logged.
func (s *session) finalSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), finalReplayTimeout)
	defer cancel()

	if err := s.snaps.Save(ctx); err != nil {
		s.logger.
			WithField("error", err.Error()).
			Warning("error saving final replay")

		return
	}

	s.logger.
		WithField("bytes", len(s.snaps.Data())).
		Debug("final replay saved")
}
