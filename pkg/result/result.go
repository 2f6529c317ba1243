// Package result resolves the outcome of a hosted match for every configured
// player.
package result

import (
	"fmt"

	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/config"
	"github.com/aiseeq/s2l/protocol/api"
)

type (
	// Outcome is the result of a match for one player.
	Outcome string

	// Result is the resolved outcome of a match.
	Result struct {
		// Host is the name of the hosting player
		Host string

		// Outcome is the hosting player's outcome
		Outcome Outcome

		// Players holds the outcome of every configured player by name
		Players map[string]Outcome
	}
)

const (
	Victory      = Outcome("victory")
	Defeat       = Outcome("defeat")
	Tie          = Outcome("tie")
	Undecided    = Outcome("undecided")
	Crashed      = Outcome("crashed")
	Disconnected = Outcome("disconnected")
)

// FromAPI converts a game reported result into an Outcome.
func FromAPI(r api.Result) Outcome {
	switch r {
	case api.Result_Victory:
		return Victory
	case api.Result_Defeat:
		return Defeat
	case api.Result_Tie:
		return Tie
	default:
		return Undecided
	}
}

// IDPlayerResults attributes the results reported by the game to the
// configured players by their player id. Players the game did not report on
// are undecided.
func IDPlayerResults(c *config.Config, results []*api.PlayerResult) Result {
	r := newResult(c, Undecided)

	for _, pr := range results {
		if pr == nil {
			continue
		}

		slot := c.SlotByID(uint32(pr.PlayerId))
		if slot == nil {
			continue
		}

		r.Players[slot.Name] = FromAPI(pr.Result)
	}

	r.Outcome = r.Players[r.Host]

	return r
}

// PlayerCrashed is the result of the hosting player's agent failing. Every
// other participant wins.
func PlayerCrashed(c *config.Config) Result {
	return hostResult(c, Crashed, Victory)
}

// PlayerDisconnected is the result of the hosting player losing its
// connection to the game before a result was known.
func PlayerDisconnected(c *config.Config) Result {
	return hostResult(c, Disconnected, Undecided)
}

// PlayerSurrendered is the result of the hosting player leaving a running
// game. Every other participant wins.
func PlayerSurrendered(c *config.Config) Result {
	return hostResult(c, Defeat, Victory)
}

// String returns a short description of the result.
func (r Result) String() string {
	return fmt.Sprintf("%s: %s", r.Host, r.Outcome)
}

func hostResult(c *config.Config, host, others Outcome) Result {
	r := newResult(c, others)
	r.Players[r.Host] = host
	r.Outcome = host

	return r
}

func newResult(c *config.Config, fill Outcome) Result {
	r := Result{
		Host:    c.Host,
		Players: make(map[string]Outcome, len(c.Players)),
	}

	for _, p := range c.Players {
		r.Players[p.Name] = fill
	}

	return r
}
