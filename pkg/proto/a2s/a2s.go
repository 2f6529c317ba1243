package a2s

import (
	"bytes"
	"runtime"

	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/proto"
)

type (
	// QueryResponder answers A2S_INFO queries about a hosted match.
	QueryResponder struct {
		enc   *encoder
		state proto.StateSource
	}

	// infoWireFormat describes the format of a A2S_INFO query response.
	infoWireFormat struct {
		Header      []byte
		Protocol    byte
		ServerName  string
		GameMap     string
		GameFolder  string
		GameName    string
		SteamAppID  int16
		PlayerCount uint8
		MaxPlayers  uint8
		NumBots     uint8
		ServerType  byte
		Environment byte
		Visibility  byte
		VACEnabled  byte
	}
)

const gameFolder = "StarCraftII"

var (
	a2sInfoRequest  = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x54}
	a2sInfoResponse = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x49}
)

// NewQueryResponder creates a new responder capable of responding to
// A2S-formatted queries about the state provided by state.
func NewQueryResponder(state proto.StateSource) (proto.QueryResponder, error) {
	q := &QueryResponder{
		enc:   &encoder{},
		state: state,
	}

	return q, nil
}

// Respond writes a query response to the requester in the A2S wire protocol.
func (q *QueryResponder) Respond(_ string, buf []byte) ([]byte, error) {
	if len(buf) < len(a2sInfoRequest) {
		return nil, NewErrUnsupportedQuery(buf)
	}

	if bytes.Equal(buf[0:5], a2sInfoRequest) {
		return q.handleInfoRequest()
	}

	return nil, NewErrUnsupportedQuery(buf[0:5])
}

func (q *QueryResponder) handleInfoRequest() ([]byte, error) {
	resp := bytes.NewBuffer(nil)
	f := infoWireFormat{
		Header:      a2sInfoResponse,
		Protocol:    1,
		ServerName:  "n/a",
		GameMap:     "n/a",
		GameFolder:  gameFolder,
		GameName:    "n/a",
		Environment: environmentFromRuntime(runtime.GOOS),
	}

	if q.state != nil {
		qs := q.state.QueryState()
		f.ServerName = qs.ServerName
		f.GameMap = qs.Map
		f.PlayerCount = clampByte(qs.CurrentPlayers)
		f.MaxPlayers = clampByte(qs.MaxPlayers)
		f.GameName = qs.Description()
	}

	if err := proto.WireWrite(resp, q.enc, f); err != nil {
		return nil, err
	}

	return resp.Bytes(), nil
}

func clampByte(n int32) uint8 {
	switch {
	case n < 0:
		return 0
	case n > 0xFF:
		return 0xFF
	default:
		return uint8(n)
	}
}

func environmentFromRuntime(rt string) byte {
	switch rt {
	case "darwin":
		return byte('m')
	case "windows":
		return byte('w')
	default:
		return byte('l')
	}
}
