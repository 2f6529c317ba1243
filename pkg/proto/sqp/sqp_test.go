package sqp

import (
	"bytes"
	"testing"

	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/proto"
	"github.com/stretchr/testify/require"
)

type staticState proto.QueryState

func (s staticState) QueryState() proto.QueryState {
	return proto.QueryState(s)
}

func Test_Respond(t *testing.T) {
	t.Parallel()
	q, err := NewQueryResponder(staticState{
		CurrentPlayers: 1,
		MaxPlayers:     2,
	})
	require.NoError(t, err)
	require.NotNil(t, q)

	addr := "client-addr:65534"

	// Challenge packet
	resp, err := q.Respond(addr, []byte{0, 0, 0, 0, 0})
	require.NoError(t, err)
	require.Equal(t, byte(0), resp[0])

	// Query packet
	resp, err = q.Respond(
		addr,
		bytes.Join(
			[][]byte{
				{1},
				resp[1:5], // challenge
				{0, 1},    // SQP version
				{1},       // Request chunks (server info only)
			},
			nil,
		),
	)
	require.NoError(t, err)
	require.Equal(
		t,
		bytes.Join(
			[][]byte{
				{1},
				resp[1:5],
				resp[5:7],
				{0},
				{0},
				{0x0, 0xe, 0x0, 0x0, 0x0, 0xa, 0x0, 0x1, 0x0, 0x2, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0},
			},
			nil,
		),
		resp,
	)
}

func Test_Respond_matchState(t *testing.T) {
	t.Parallel()
	q, err := NewQueryResponder(staticState{
		CurrentPlayers: 1,
		MaxPlayers:     2,
		ServerName:     "m",
		GameType:       "sc2",
		Phase:          "lobby",
		Map:            "Simple64",
		Port:           5000,
	})
	require.NoError(t, err)

	addr := "client-addr:65534"

	challenge, err := q.Respond(addr, []byte{0, 0, 0, 0, 0})
	require.NoError(t, err)

	resp, err := q.Respond(addr, bytes.Join([][]byte{{1}, challenge[1:5], {0, 1}, {1}}, nil))
	require.NoError(t, err)

	info := bytes.Join(
		[][]byte{
			{0x0, 0x1},
			{0x0, 0x2},
			[]byte("m\x00"),
			[]byte("sc2 - lobby\x00"),
			{0x0},
			[]byte("Simple64\x00"),
			{0x13, 0x88},
		},
		nil,
	)
	require.Equal(t, info, resp[len(resp)-len(info):])
}

func Test_Respond_errors(t *testing.T) {
	t.Parallel()
	q, err := NewQueryResponder(staticState{})
	require.NoError(t, err)

	addr := "client-addr:65534"

	_, err = q.Respond(addr, []byte{1, 0, 0, 0, 0, 0, 1, 1})
	require.ErrorIs(t, err, ErrNoChallenge)

	challenge, err := q.Respond(addr, []byte{0, 0, 0, 0, 0})
	require.NoError(t, err)

	_, err = q.Respond(addr, bytes.Join([][]byte{{1}, challenge[1:5], {0, 2}, {1}}, nil))
	require.Error(t, err)

	_, err = q.Respond(addr, []byte{7})
	require.Error(t, err)
}
