package game

import (
	"sync"

	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/config"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/proto"
)

// Phase is a step of the hosting lifecycle.
type Phase string

const (
	PhaseIdle              = Phase("idle")
	PhaseLaunching         = Phase("launching")
	PhaseJoining           = Phase("joining")
	PhaseWaitingForPlayers = Phase("waiting_for_players")
	PhaseRunning           = Phase("running")
	PhaseResolved          = Phase("resolved")
	PhaseCrashed           = Phase("crashed")
	PhaseDisconnected      = Phase("disconnected")
	PhaseSurrendered       = Phase("surrendered")
	PhaseCleanup           = Phase("cleanup")
	PhaseDone              = Phase("done")
)

// gameType is reported to queries as the game being hosted.
const gameType = "starcraft2"

// matchState is the state of the hosted match as reported to queries. It is
// written by the driver and read by the query responder.
type matchState struct {
	mu    sync.RWMutex
	phase Phase
	qs    proto.QueryState
}

func newMatchState() *matchState {
	return &matchState{phase: PhaseIdle}
}

// reset prepares the state for hosting the match described by c.
func (s *matchState) reset(c *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = PhaseIdle
	s.qs = proto.QueryState{
		MaxPlayers: int32(c.ExpectedPlayers()),
		ServerName: c.Name,
		GameType:   gameType,
		Map:        c.MapName(),
		Port:       uint16(c.Ports.Game),
	}
}

// QueryState implements proto.StateSource.
func (s *matchState) QueryState() proto.QueryState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	qs := s.qs
	qs.Phase = string(s.phase)

	return qs
}

func (s *matchState) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.phase
}

func (s *matchState) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

func (s *matchState) setPlayers(n int) {
	s.mu.Lock()
	s.qs.CurrentPlayers = int32(n)
	s.mu.Unlock()
}
