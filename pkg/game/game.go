package game

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/config"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/replay"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/result"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/sc2"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultLobbyTimeout is how long players are waited for by default.
	DefaultLobbyTimeout = 2 * time.Minute

	// DefaultPollInterval is the default time between lobby polls.
	DefaultPollInterval = 250 * time.Millisecond

	// finalReplayTimeout bounds the replay save made once the match is over.
	finalReplayTimeout = 10 * time.Second
)

var (
	ErrNoAgent              = errors.New("no agent provided")
	ErrNoLauncher           = errors.New("no launcher provided")
	ErrUnknownQueryProtocol = errors.New("unknown query protocol")
)

type (
	// Settings configures how matches are hosted.
	Settings struct {
		// LobbyTimeout is how long to wait for every player to join
		LobbyTimeout time.Duration

		// PollInterval is the time between lobby polls
		PollInterval time.Duration

		// ReplayInterval is the time between periodic replay snapshots
		ReplayInterval time.Duration

		// Debug logs lifecycle transitions at info level
		Debug bool

		// QueryBind is the address to answer status queries on, e.g.
		// "0.0.0.0:7787"; queries are not answered when empty
		QueryBind string

		// QueryProtocol is the protocol queries are answered with: sqp or a2s
		QueryProtocol string

		// ReadBuffer is the size of the query read buffer
		ReadBuffer int
	}

	// Game hosts StarCraft II matches, one at a time.
	Game struct {
		// launcher starts the game processes matches are played in
		launcher sc2.Launcher

		// logger handles structured logging for this game
		logger *logrus.Entry

		lobbyTimeout   time.Duration
		pollInterval   time.Duration
		replayInterval time.Duration
		debug          bool

		queryBind     string
		queryProtocol string
		readBuffer    int

		// queryAddr is the address the query server is bound to
		queryAddr net.Addr
		addrMu    sync.Mutex

		// now returns the current time
		now func() time.Time

		// state represents the hosted match as reported to queries
		state *matchState

		// wg handles synchronising termination of the query responder
		wg sync.WaitGroup
	}
)

// New creates a game which launches matches with launcher.
func New(logger *logrus.Entry, launcher sc2.Launcher, s Settings) (*Game, error) {
	if launcher == nil {
		return nil, ErrNoLauncher
	}

	if _, err := newQueryResponder(s.QueryProtocol, nil); err != nil {
		return nil, err
	}

	g := &Game{
		launcher:       launcher,
		logger:         logger,
		lobbyTimeout:   s.LobbyTimeout,
		pollInterval:   s.PollInterval,
		replayInterval: s.ReplayInterval,
		debug:          s.Debug,
		queryBind:      s.QueryBind,
		queryProtocol:  s.QueryProtocol,
		readBuffer:     s.ReadBuffer,
		now:            time.Now,
		state:          newMatchState(),
	}

	if g.lobbyTimeout <= 0 {
		g.lobbyTimeout = DefaultLobbyTimeout
	}

	if g.pollInterval <= 0 {
		g.pollInterval = DefaultPollInterval
	}

	if g.replayInterval <= 0 {
		g.replayInterval = replay.DefaultInterval
	}

	if g.queryProtocol == "" {
		g.queryProtocol = QueryProtocolSQP
	}

	return g, nil
}

// Phase returns the lifecycle phase of the current or last hosted match.
func (g *Game) Phase() Phase {
	return g.state.Phase()
}

// QueryAddr returns the address status queries are answered on, or nil if
// the query server is not running.
func (g *Game) QueryAddr() net.Addr {
	g.addrMu.Lock()
	defer g.addrMu.Unlock()

	return g.queryAddr
}

func (g *Game) setQueryAddr(addr net.Addr) {
	g.addrMu.Lock()
	g.queryAddr = addr
	g.addrMu.Unlock()
}

// Host plays the match described by c as its host slot, relaying
// observations to agent, and returns the match result together with the
// replay as base64 text.
//
// Launch failures, a lobby timeout and unknown players are returned as
// errors with no result. Agent crashes, lost connections and cancellation of
// ctx all produce a result instead. The game process is terminated before
// Host returns.
func (g *Game) Host(ctx context.Context, c *config.Config, agent Agent) (res result.Result, replayText string, err error) {
	if agent == nil {
		return result.Result{}, "", ErrNoAgent
	}

	if err = c.Validate(); err != nil {
		return result.Result{}, "", fmt.Errorf("invalid config: %w", err)
	}

	logger := g.logger.
		WithField("match_id", c.EnsureMatchID()).
		WithField("player", c.Host)

	// A config published by an earlier match still carries its player ids.
	if c.ResetIDs() && c.Path() != "" {
		if err = c.Save(); err != nil {
			return result.Result{}, "", fmt.Errorf("error unpublishing config: %w", err)
		}

		logger.
			WithField("path", c.Path()).
			Debug("cleared player ids of previous match")
	}

	g.state.reset(c)

	if g.queryBind != "" {
		stop, err := g.startQuery(logger)
		if err != nil {
			return result.Result{}, "", err
		}

		defer func() {
			stop()
			g.setQueryAddr(nil)
		}()
	}

	g.transition(logger.WithField("fullscreen", c.Fullscreen), PhaseLaunching)

	createReq := createGameRequest(c, g.now())
	joinReq := joinGameRequest(c)

	ctrl, err := g.launcher.Launch(ctx, c.Fullscreen)
	if err != nil {
		g.transition(logger, PhaseDone)

		return result.Result{}, "", fmt.Errorf("error launching game: %w", err)
	}

	snaps := replay.NewSnapshotter(ctrl, g.replayInterval, g.now)

	defer func() {
		g.transition(logger, PhaseCleanup)

		if err == nil {
			replayText = snaps.Encoded()
		}

		if qerr := ctrl.Quit(); qerr != nil {
			logger.
				WithField("error", qerr.Error()).
				Warning("error terminating game")
		}

		g.transition(logger, PhaseDone)
	}()

	s := &session{
		ctrl:      ctrl,
		cfg:       c,
		agent:     agent,
		snaps:     snaps,
		logger:    logger,
		createReq: createReq,
		joinReq:   joinReq,
	}

	res, err = g.play(ctx, s)
	if err == nil {
		return res, "", nil
	}

	return g.classify(ctx, s, err)
}

// classify turns an error which ended the session into a result. Errors
// which abort hosting are returned as is.
func (g *Game) classify(ctx context.Context, s *session, err error) (result.Result, string, error) {
	switch {
	case errors.Is(err, ErrLobbyTimeout), errors.Is(err, ErrUnknownPlayer):
		s.logger.
			WithField("error", err.Error()).
			Error("hosting aborted")

		return result.Result{}, "", err

	case ctx.Err() != nil:
		s.logger.Info("hosting interrupted, surrendering")
		g.transition(s.logger, PhaseSurrendered)

		return result.PlayerSurrendered(s.cfg), "", nil

	case sc2.IsClientError(err):
		if sc2.WasInGame(err) {
			s.logger.
				WithField("error", err.Error()).
				Warning("left the game while it was running")
			g.transition(s.logger, PhaseSurrendered)

			return result.PlayerSurrendered(s.cfg), "", nil
		}

		s.logger.
			WithField("error", err.Error()).
			Warning("connection to the game has ended")
		g.transition(s.logger, PhaseDisconnected)

		return result.PlayerDisconnected(s.cfg), "", nil
	}

	return result.Result{}, "", err
}

// transition records the new lifecycle phase of the match.
func (g *Game) transition(logger *logrus.Entry, p Phase) {
	g.state.setPhase(p)

	l := logger.WithField("phase", string(p))
	if g.debug {
		l.Info("match phase changed")
	} else {
		l.Debug("match phase changed")
	}
}
