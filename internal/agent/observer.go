// Package agent provides the agent used when the host has no player logic of
// its own.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/config"
	"github.com/aiseeq/s2l/protocol/api"
	"github.com/sirupsen/logrus"
)

const (
	// PublishTimeout bounds how long Init waits for the published config.
	PublishTimeout = 30 * time.Second

	// defaultLogEvery is how many ticks pass between progress logs.
	defaultLogEvery = 224
)

// Observer is an agent which takes no actions. It reads the published match
// configuration on init and logs the progress of the game.
type Observer struct {
	configFile string
	logger     *logrus.Entry
	logEvery   int

	cfg   *config.Config
	ticks int
	loop  uint32
}

// NewObserver returns an observer reading the published configuration from
// configFile. An empty configFile skips reading it.
func NewObserver(logger *logrus.Entry, configFile string) *Observer {
	return &Observer{
		configFile: configFile,
		logger:     logger,
		logEvery:   defaultLogEvery,
	}
}

// Init waits until the configuration named configName has been published
// with every player identified.
func (o *Observer) Init(ctx context.Context, configName string) error {
	if o.configFile == "" {
		o.logger.
			WithField("config", configName).
			Info("observer started without a published config")

		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	c, err := config.WaitForPublished(ctx, o.logger, o.configFile, configName)
	if err != nil {
		return fmt.Errorf("error waiting for config %q: %w", configName, err)
	}

	o.cfg = c

	for _, p := range c.Players {
		o.logger.
			WithField("slot", p.Name).
			WithField("player_id", p.PlayerID).
			WithField("race", string(p.Race)).
			Debug("player identified")
	}

	o.logger.
		WithField("config", configName).
		WithField("players", len(c.Players)).
		Info("observer started")

	return nil
}

// Tick records the game loop of obs.
func (o *Observer) Tick(_ context.Context, obs *api.ResponseObservation) error {
	o.ticks++

	if obs != nil && obs.Observation != nil {
		o.loop = obs.Observation.GameLoop
	}

	if o.logEvery > 0 && o.ticks%o.logEvery == 0 {
		o.logger.
			WithField("ticks", o.ticks).
			WithField("game_loop", o.loop).
			Debug("observing")
	}

	return nil
}

// Config returns the published configuration read on init, if any.
func (o *Observer) Config() *config.Config {
	return o.cfg
}

// GameLoop returns the game loop of the latest observation.
func (o *Observer) GameLoop() uint32 {
	return o.loop
}
