package game

import (
	"time"

	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/config"
	"github.com/aiseeq/s2l/protocol/api"
)

// featureLayerWidth is the width of the feature layer camera requested when
// joining.
const featureLayerWidth = 24

// createGameRequest builds the request creating the game described by c. The
// game is seeded with the current second.
func createGameRequest(c *config.Config, now time.Time) *api.RequestCreateGame {
	req := &api.RequestCreateGame{
		Map: &api.RequestCreateGame_LocalMap{
			LocalMap: &api.LocalMap{
				MapPath: c.MapPath,
				MapData: c.MapData,
			},
		},
		DisableFog: c.FogDisabled,
		RandomSeed: uint32(now.Unix()),
		Realtime:   c.Realtime,
	}

	for _, p := range c.Players {
		setup := &api.PlayerSetup{
			Type:       p.Type(),
			Race:       p.Race.Value(),
			PlayerName: p.Name,
		}

		if p.IsComputer() {
			setup.Difficulty = p.Difficulty.Value()
			setup.AiBuild = p.AIBuild.Value()
		}

		req.PlayerSetup = append(req.PlayerSetup, setup)
	}

	return req
}

// interfaceOptions returns the observation interfaces requested when joining.
func interfaceOptions(c *config.Config) *api.InterfaceOptions {
	return &api.InterfaceOptions{
		Raw:   c.Interfaces.Raw,
		Score: c.Interfaces.Score,
		FeatureLayer: &api.SpatialCameraSetup{
			Width: featureLayerWidth,
		},
	}
}

// joinGameRequest builds the request joining the game as the host slot of c.
// Server ports are only set when other game clients take part.
func joinGameRequest(c *config.Config) *api.RequestJoinGame {
	req := &api.RequestJoinGame{
		Options: interfaceOptions(c),
	}

	if host := c.WhoAmI(); host != nil {
		req.Participation = &api.RequestJoinGame_Race{Race: host.Race.Value()}
	}

	if c.IsMultiplayer() {
		req.ServerPorts = &api.PortSet{
			GamePort: c.Ports.Game,
			BasePort: c.Ports.Base,
		}
		req.SharedPort = c.Ports.Shared
	}

	for _, s := range c.Ports.Slaves {
		req.ClientPorts = append(req.ClientPorts, &api.PortSet{
			GamePort: s.Game,
			BasePort: s.Base,
		})
	}

	return req
}
