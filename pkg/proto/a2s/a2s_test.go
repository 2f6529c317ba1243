package a2s

import (
	"bytes"
	"runtime"
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
		ServerName:     "m",
		GameType:       "sc2",
		Phase:          "running",
		Map:            "Simple64",
	})
	require.NoError(t, err)

	resp, err := q.Respond("client-addr:65534", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x54, 0x00})
	require.NoError(t, err)
	require.Equal(
		t,
		bytes.Join(
			[][]byte{
				{0xFF, 0xFF, 0xFF, 0xFF, 0x49},
				{0x1},
				[]byte("m\x00"),
				[]byte("Simple64\x00"),
				[]byte("StarCraftII\x00"),
				[]byte("sc2 - running\x00"),
				{0x0, 0x0},
				{0x1, 0x2, 0x0, 0x0},
				{environmentFromRuntime(runtime.GOOS)},
				{0x0, 0x0},
			},
			nil,
		),
		resp,
	)
}

func Test_Respond_unsupported(t *testing.T) {
	t.Parallel()
	q, err := NewQueryResponder(nil)
	require.NoError(t, err)

	_, err = q.Respond("client-addr:65534", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x55})
	require.Error(t, err)

	_, err = q.Respond("client-addr:65534", []byte{0xFF})
	require.Error(t, err)
}

func Test_clampByte(t *testing.T) {
	t.Parallel()
	require.Equal(t, uint8(0), clampByte(-1))
	require.Equal(t, uint8(7), clampByte(7))
	require.Equal(t, uint8(0xFF), clampByte(300))
}
