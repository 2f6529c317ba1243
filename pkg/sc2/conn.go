package sc2

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aiseeq/s2l/protocol/api"
	"github.com/gogo/protobuf/proto"
	"github.com/gorilla/websocket"
)

// apiPath is the websocket endpoint served by the game.
const apiPath = "/sc2api"

var errUnexpectedResponse = errors.New("unexpected response type")

// Conn is a websocket connection to the API of a running game. Requests are
// strictly sequential; a Conn must not be used from more than one goroutine.
type Conn struct {
	ws     *websocket.Conn
	status api.Status
}

// Dial connects to the game API at address (host:port) and pings it to learn
// its status.
func Dial(ctx context.Context, address string) (*Conn, error) {
	url := fmt.Sprintf("ws://%s%s", address, apiPath)

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err != nil {
		return nil, &ConnectionError{Op: "dial", Err: err}
	}

	c := &Conn{ws: ws}
	if err = c.Ping(ctx); err != nil {
		_ = ws.Close()
		return nil, err
	}

	return c, nil
}

// Status returns the last status reported by the game.
func (c *Conn) Status() api.Status {
	return c.status
}

// Ping checks the game is responsive and refreshes its status.
func (c *Conn) Ping(ctx context.Context) error {
	resp, err := c.request(ctx, "ping", &api.Request{
		Request: &api.Request_Ping{Ping: &api.RequestPing{}},
	})
	if err != nil {
		return err
	}

	if _, ok := resp.Response.(*api.Response_Ping); !ok {
		return c.unexpected("ping", resp)
	}

	return nil
}

// CreateGame creates a new game.
func (c *Conn) CreateGame(ctx context.Context, req *api.RequestCreateGame) error {
	prev := c.status

	resp, err := c.request(ctx, "create_game", &api.Request{
		Request: &api.Request_CreateGame{CreateGame: req},
	})
	if err != nil {
		return err
	}

	r, ok := resp.Response.(*api.Response_CreateGame)
	if !ok || r.CreateGame == nil {
		return c.unexpected("create_game", resp)
	}

	if r.CreateGame.Error != 0 {
		return &RequestError{
			Op:      "create_game",
			Status:  prev,
			Code:    r.CreateGame.Error.String(),
			Details: r.CreateGame.ErrorDetails,
		}
	}

	return nil
}

// JoinGame joins the created game.
func (c *Conn) JoinGame(ctx context.Context, req *api.RequestJoinGame) (*api.ResponseJoinGame, error) {
	prev := c.status

	resp, err := c.request(ctx, "join_game", &api.Request{
		Request: &api.Request_JoinGame{JoinGame: req},
	})
	if err != nil {
		return nil, err
	}

	r, ok := resp.Response.(*api.Response_JoinGame)
	if !ok || r.JoinGame == nil {
		return nil, c.unexpected("join_game", resp)
	}

	if r.JoinGame.Error != 0 {
		return nil, &RequestError{
			Op:      "join_game",
			Status:  prev,
			Code:    r.JoinGame.Error.String(),
			Details: r.JoinGame.ErrorDetails,
		}
	}

	return r.JoinGame, nil
}

// GameInfo returns static information about the game.
func (c *Conn) GameInfo(ctx context.Context) (*api.ResponseGameInfo, error) {
	resp, err := c.request(ctx, "game_info", &api.Request{
		Request: &api.Request_GameInfo{GameInfo: &api.RequestGameInfo{}},
	})
	if err != nil {
		return nil, err
	}

	r, ok := resp.Response.(*api.Response_GameInfo)
	if !ok || r.GameInfo == nil {
		return nil, c.unexpected("game_info", resp)
	}

	return r.GameInfo, nil
}

// Observe returns the latest observation.
func (c *Conn) Observe(ctx context.Context) (*api.ResponseObservation, error) {
	resp, err := c.request(ctx, "observation", &api.Request{
		Request: &api.Request_Observation{Observation: &api.RequestObservation{}},
	})
	if err != nil {
		return nil, err
	}

	r, ok := resp.Response.(*api.Response_Observation)
	if !ok || r.Observation == nil {
		return nil, c.unexpected("observation", resp)
	}

	return r.Observation, nil
}

// Step advances the game by count game loops.
func (c *Conn) Step(ctx context.Context, count uint32) error {
	resp, err := c.request(ctx, "step", &api.Request{
		Request: &api.Request_Step{Step: &api.RequestStep{Count: count}},
	})
	if err != nil {
		return err
	}

	if _, ok := resp.Response.(*api.Response_Step); !ok {
		return c.unexpected("step", resp)
	}

	return nil
}

// SaveReplay returns the replay of the game so far.
func (c *Conn) SaveReplay(ctx context.Context) ([]byte, error) {
	resp, err := c.request(ctx, "save_replay", &api.Request{
		Request: &api.Request_SaveReplay{SaveReplay: &api.RequestSaveReplay{}},
	})
	if err != nil {
		return nil, err
	}

	r, ok := resp.Response.(*api.Response_SaveReplay)
	if !ok || r.SaveReplay == nil {
		return nil, c.unexpected("save_replay", resp)
	}

	return r.SaveReplay.Data, nil
}

// RequestQuit asks the game to exit.
func (c *Conn) RequestQuit(ctx context.Context) error {
	_, err := c.request(ctx, "quit", &api.Request{
		Request: &api.Request_Quit{Quit: &api.RequestQuit{}},
	})

	return err
}

// Close closes the connection without notifying the game.
func (c *Conn) Close() error {
	return c.ws.Close()
}

// request sends req and waits for the game's response, updating the known
// status. A cancelled ctx aborts the wait.
func (c *Conn) request(ctx context.Context, op string, req *api.Request) (*api.Response, error) {
	prev := c.status

	data, err := proto.Marshal(req)
	if err != nil {
		return nil, &ProtocolError{Op: op, Status: prev, Err: err}
	}

	deadline, _ := ctx.Deadline()
	if err = c.ws.SetWriteDeadline(deadline); err != nil {
		return nil, &ConnectionError{Op: op, Status: prev, Err: err}
	}

	if err = c.ws.SetReadDeadline(deadline); err != nil {
		return nil, &ConnectionError{Op: op, Status: prev, Err: err}
	}

	// Unblock the read below if ctx is cancelled without a deadline.
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			_ = c.ws.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	if err = c.ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return nil, c.transportError(ctx, op, prev, err)
	}

	_, msg, err := c.ws.ReadMessage()
	if err != nil {
		return nil, c.transportError(ctx, op, prev, err)
	}

	resp := &api.Response{}
	if err = proto.Unmarshal(msg, resp); err != nil {
		return nil, &ProtocolError{Op: op, Status: prev, Err: err}
	}

	if resp.Status != 0 {
		c.status = resp.Status
	}

	if len(resp.Error) > 0 {
		return nil, &ProtocolError{Op: op, Status: prev, Errors: resp.Error}
	}

	return resp, nil
}

// transportError returns the error for a failed read or write. Failures caused
// by ctx are reported as ctx's error.
func (c *Conn) transportError(ctx context.Context, op string, status api.Status, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}

	return &ConnectionError{Op: op, Status: status, Err: err}
}

func (c *Conn) unexpected(op string, resp *api.Response) error {
	return &ProtocolError{
		Op:     op,
		Status: c.status,
		Err:    fmt.Errorf("%w: %T", errUnexpectedResponse, resp.Response),
	}
}
