package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/result"
	"github.com/aiseeq/s2l/protocol/api"
)

type (
	// Agent plays the hosting slot. Init is called once the match is full,
	// then Tick once per observation until the match ends.
	Agent interface {
		Init(ctx context.Context, configName string) error
		Tick(ctx context.Context, obs *api.ResponseObservation) error
	}

	// AgentFuncs adapts plain functions to Agent. Nil functions do nothing.
	AgentFuncs struct {
		InitFunc func(ctx context.Context, configName string) error
		TickFunc func(ctx context.Context, obs *api.ResponseObservation) error
	}

	// AgentCrashError is returned when an agent fails or panics.
	AgentCrashError struct {
		// Phase is either "init" or "tick"
		Phase string
		Cause error
	}
)

const (
	agentPhaseInit = "init"
	agentPhaseTick = "tick"
)

var ErrAgentPanic = errors.New("agent panicked")

// Init calls InitFunc.
func (a AgentFuncs) Init(ctx context.Context, configName string) error {
	if a.InitFunc == nil {
		return nil
	}

	return a.InitFunc(ctx, configName)
}

// Tick calls TickFunc.
func (a AgentFuncs) Tick(ctx context.Context, obs *api.ResponseObservation) error {
	if a.TickFunc == nil {
		return nil
	}

	return a.TickFunc(ctx, obs)
}

// Error returns the error string.
func (e *AgentCrashError) Error() string {
	return fmt.Sprintf("agent crashed during %s: %v", e.Phase, e.Cause)
}

// Unwrap returns the cause of the crash.
func (e *AgentCrashError) Unwrap() error {
	return e.Cause
}

// callAgent runs f, converting a returned error or a panic into an
// AgentCrashError.
func callAgent(phase string, f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &AgentCrashError{
				Phase: phase,
				Cause: fmt.Errorf("%w: %v", ErrAgentPanic, r),
			}
		}
	}()

	if err = f(); err != nil {
		return &AgentCrashError{Phase: phase, Cause: err}
	}

	return nil
}

// gameLoop relays observations to the agent until the game reports a result
// or the agent crashes. A replay snapshot is refreshed whenever the snapshot
// interval has elapsed.
func (g *Game) gameLoop(ctx context.Context, s *session) (result.Result, error) {
	ctrl, c, snaps, logger := s.ctrl, s.cfg, s.snaps, s.logger
	snaps.Reset()

	for loops := 0; ; loops++ {
		if err := ctx.Err(); err != nil {
			return result.Result{}, err
		}

		obs, err := ctrl.Observe(ctx)
		if err != nil {
			return result.Result{}, fmt.Errorf("error observing game: %w", err)
		}

		if len(obs.PlayerResult) > 0 {
			res := result.IDPlayerResults(c, obs.PlayerResult)
			logger.
				WithField("result", res.String()).
				WithField("ticks", loops).
				Info("match ended")
			g.transition(logger, PhaseResolved)

			return res, nil
		}

		if err = callAgent(agentPhaseTick, func() error { return s.agent.Tick(ctx, obs) }); err != nil {
			// An agent giving up because the match was interrupted has not crashed.
			if ctx.Err() != nil {
				return result.Result{}, ctx.Err()
			}

			logger.
				WithField("error", err.Error()).
				WithField("ticks", loops).
				Error("agent crashed during game")
			g.transition(logger, PhaseCrashed)

			return result.PlayerCrashed(c), nil
		}

		saved, err := snaps.Tick(ctx)
		if err != nil {
			return result.Result{}, fmt.Errorf("error saving replay: %w", err)
		}

		if saved {
			logger.
				WithField("bytes", len(snaps.Data())).
				Debug("replay snapshot saved")
		}

		if c.StepSize > 0 && !c.Realtime {
			if err = ctrl.Step(ctx, c.StepSize); err != nil {
				return result.Result{}, fmt.Errorf("error stepping game: %w", err)
			}
		}
	}
}
