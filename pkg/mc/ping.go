// Package mc queries the Minecraft server process running on the instance.
// The EC2 instance being up does not mean the server accepts connections yet,
// so ping failures while the instance runs are treated as "still booting".
package mc

import (
	"fmt"
	"time"

	"github.com/dreamscached/minequery/v2"

	"github.com/minefleet/spindle/internal/models"
)

// DefaultPort is the default Minecraft server port
const DefaultPort = 25565

// Pinger queries a game server for live status
type Pinger interface {
	Ping(host string, port int) (models.ServerStatus, error)
}

// QueryClient is a Pinger backed by the server list ping protocol
type QueryClient struct {
	pinger *minequery.Pinger
}

// NewQueryClient creates a QueryClient with the given per-ping timeout
func NewQueryClient(timeout time.Duration) *QueryClient {
	return &QueryClient{
		pinger: minequery.NewPinger(minequery.WithTimeout(timeout)),
	}
}

// Ping performs a server list ping against host:port
func (c *QueryClient) Ping(host string, port int) (models.ServerStatus, error) {
	if port == 0 {
		port = DefaultPort
	}

	status, err := c.pinger.Ping17(host, port)
	if err != nil {
		return models.ServerStatus{}, fmt.Errorf("error pinging %s:%d: %w", host, port, err)
	}

	names := make([]string, 0, len(status.SamplePlayers))
	for _, player := range status.SamplePlayers {
		names = append(names, player.Nickname)
	}

	return models.ServerStatus{
		Online:        true,
		PlayersOnline: status.OnlinePlayers,
		PlayersMax:    status.MaxPlayers,
		PlayerNames:   names,
		Version:       status.VersionName,
	}, nil
}
