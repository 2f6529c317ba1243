package game

import (
	"context"
	"sync"
	"time"

	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/config"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/sc2"
	"github.com/aiseeq/s2l/protocol/api"
	"github.com/sirupsen/logrus"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeController plays back scripted responses. Each hook receives the
// number of earlier calls of the same request.
type fakeController struct {
	status api.Status

	createErr  error
	join       *api.ResponseJoinGame
	joinErr    error
	gameInfo   func(n int) (*api.ResponseGameInfo, error)
	observe    func(n int) (*api.ResponseObservation, error)
	saveReplay func(n int) ([]byte, error)

	created *api.RequestCreateGame
	joined  *api.RequestJoinGame
	calls   map[string]int
	steps   []uint32
	quits   int
}

func newFakeController() *fakeController {
	return &fakeController{
		status: api.Status_launched,
		join:   &api.ResponseJoinGame{PlayerId: 1},
		calls:  make(map[string]int),
	}
}

func (f *fakeController) count(op string) int {
	n := f.calls[op]
	f.calls[op]++

	return n
}

func (f *fakeController) CreateGame(_ context.Context, req *api.RequestCreateGame) error {
	f.count("create_game")
	f.created = req

	if f.createErr != nil {
		return f.createErr
	}

	f.status = api.Status_init_game

	return nil
}

func (f *fakeController) JoinGame(_ context.Context, req *api.RequestJoinGame) (*api.ResponseJoinGame, error) {
	f.count("join_game")
	f.joined = req

	if f.joinErr != nil {
		return nil, f.joinErr
	}

	f.status = api.Status_in_game

	return f.join, nil
}

func (f *fakeController) GameInfo(_ context.Context) (*api.ResponseGameInfo, error) {
	n := f.count("game_info")
	if f.gameInfo == nil {
		return &api.ResponseGameInfo{}, nil
	}

	return f.gameInfo(n)
}

func (f *fakeController) Observe(_ context.Context) (*api.ResponseObservation, error) {
	n := f.count("observation")
	if f.observe == nil {
		return &api.ResponseObservation{}, nil
	}

	return f.observe(n)
}

func (f *fakeController) Step(_ context.Context, count uint32) error {
	f.count("step")
	f.steps = append(f.steps, count)

	return nil
}

func (f *fakeController) SaveReplay(_ context.Context) ([]byte, error) {
	n := f.count("save_replay")
	if f.saveReplay == nil {
		return nil, nil
	}

	return f.saveReplay(n)
}

func (f *fakeController) Status() api.Status {
	return f.status
}

func (f *fakeController) Quit() error {
	f.quits++
	f.status = api.Status_quit

	return nil
}

// fakeLauncher hands out a single controller.
type fakeLauncher struct {
	ctrl       *fakeController
	err        error
	launches   int
	fullscreen bool
	onLaunch   func()
}

func (l *fakeLauncher) Launch(_ context.Context, fullscreen bool) (sc2.Controller, error) {
	l.launches++
	l.fullscreen = fullscreen

	if l.onLaunch != nil {
		l.onLaunch()
	}

	if l.err != nil {
		return nil, l.err
	}

	return l.ctrl, nil
}

// recordingAgent records what it is called with.
type recordingAgent struct {
	initName string
	ticks    int
	initErr  error
	onTick   func(n int) error
}

func (a *recordingAgent) Init(_ context.Context, configName string) error {
	a.initName = configName

	return a.initErr
}

func (a *recordingAgent) Tick(_ context.Context, _ *api.ResponseObservation) error {
	n := a.ticks
	a.ticks++

	if a.onTick == nil {
		return nil
	}

	return a.onTick(n)
}

// soloConfig is an agent playing the built-in AI.
func soloConfig() *config.Config {
	return &config.Config{
		Name:    "test",
		Host:    "bot",
		MapPath: "Ladder/Simple64.SC2Map",
		Players: []*config.PlayerSlot{
			{Name: "bot", Control: config.ControlAgent, Race: config.RaceTerran},
			{Name: "cpu", Control: config.ControlComputer, Race: config.RaceProtoss, Difficulty: "hard"},
		},
		Ports: config.Ports{Game: 5001},
	}
}

// duelConfig is an agent playing a human on another game client.
func duelConfig() *config.Config {
	return &config.Config{
		Name:    "duel",
		Host:    "bot",
		MapPath: "Ladder/Simple64.SC2Map",
		Players: []*config.PlayerSlot{
			{Name: "bot", Control: config.ControlAgent, Race: config.RaceTerran},
			{Name: "friend", Control: config.ControlHuman, Race: config.RaceZerg},
		},
		Ports: config.Ports{
			Game:   5001,
			Base:   5002,
			Shared: 5000,
			Slaves: []config.PortPair{{Game: 5003, Base: 5004}},
		},
	}
}

// soloInfo reports the host and the built-in AI of soloConfig.
func soloInfo(int) (*api.ResponseGameInfo, error) {
	return &api.ResponseGameInfo{
		PlayerInfo: []*api.PlayerInfo{
			{PlayerId: 1, Type: api.PlayerType_Participant, RaceRequested: api.Race_Terran},
			{PlayerId: 2, Type: api.PlayerType_Computer, RaceRequested: api.Race_Protoss},
		},
	}, nil
}

// hostOnlyInfo reports only the host.
func hostOnlyInfo(int) (*api.ResponseGameInfo, error) {
	return &api.ResponseGameInfo{
		PlayerInfo: []*api.PlayerInfo{
			{PlayerId: 1, Type: api.PlayerType_Participant, RaceRequested: api.Race_Terran},
		},
	}, nil
}

// endsAfter returns an observation hook which reports a victory for player 1
// once ticks observations without a result have been made.
func endsAfter(ticks int) func(n int) (*api.ResponseObservation, error) {
	return func(n int) (*api.ResponseObservation, error) {
		if n < ticks {
			return &api.ResponseObservation{}, nil
		}

		return &api.ResponseObservation{
			PlayerResult: []*api.PlayerResult{
				{PlayerId: 1, Result: api.Result_Victory},
				{PlayerId: 2, Result: api.Result_Defeat},
			},
		}, nil
	}
}

func replayOf(data string) func(int) ([]byte, error) {
	return func(int) ([]byte, error) {
		return []byte(data), nil
	}
}

// newTestGame returns a game hosting with ctrl on a fake clock.
func newTestGame(ctrl *fakeController, s Settings) (*Game, *fakeLauncher, *fakeClock) {
	l := &fakeLauncher{ctrl: ctrl}
	clock := newFakeClock()

	if s.PollInterval == 0 {
		s.PollInterval = time.Millisecond
	}

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	g, err := New(logrus.NewEntry(logger), l, s)
	if err != nil {
		panic(err)
	}

	g.now = clock.Now

	return g, l, clock
}
