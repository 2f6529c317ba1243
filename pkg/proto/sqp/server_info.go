package sqp

import (
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/proto"
)

type (
	sqpServerInfo struct {
		CurrentPlayers uint16
		MaxPlayers     uint16
		ServerName     string
		GameType       string
		BuildID        string
		GameMap        string
		Port           uint16
	}
)

// queryStateToServerInfo converts a snapshot of the match state to
// sqpServerInfo.
func queryStateToServerInfo(src proto.StateSource) sqpServerInfo {
	if src == nil {
		return sqpServerInfo{}
	}

	qs := src.QueryState()

	return sqpServerInfo{
		CurrentPlayers: uint16(qs.CurrentPlayers),
		MaxPlayers:     uint16(qs.MaxPlayers),
		ServerName:     qs.ServerName,
		GameType:       qs.Description(),
		GameMap:        qs.Map,
		Port:           qs.Port,
	}
}

// Size returns the number of bytes sqpServerInfo will use on the wire.
func (si sqpServerInfo) Size() uint32 {
	return uint32(
		2 + // CurrentPlayers
			2 + // MaxPlayers
			len([]byte(si.ServerName)) + 1 +
			len([]byte(si.GameType)) + 1 +
			len([]byte(si.BuildID)) + 1 +
			len([]byte(si.GameMap)) + 1 +
			2, // Port
	)
}
