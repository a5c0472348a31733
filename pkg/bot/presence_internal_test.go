package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/minefleet/spindle/internal/models"
)

func TestPresenceTopic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		instance models.Instance
		status   models.ServerStatus
		want     string
	}{
		{
			name:     "instance stopped",
			instance: models.Instance{State: models.StateStopped},
			want:     "The Minecraft server is not currently running.",
		},
		{
			name:     "instance running but server booting",
			instance: models.Instance{State: models.StateRunning},
			want:     "The Minecraft server is starting up.",
		},
		{
			name:     "nobody online",
			instance: models.Instance{State: models.StateRunning},
			status:   models.ServerStatus{Online: true},
			want:     "No players currently online.",
		},
		{
			name:     "players online",
			instance: models.Instance{State: models.StateRunning},
			status: models.ServerStatus{
				Online:        true,
				PlayersOnline: 2,
				PlayerNames:   []string{"alice", "bob"},
			},
			want: "Players online: alice, bob",
		},
		{
			name:     "count only when names are hidden",
			instance: models.Instance{State: models.StateRunning},
			status: models.ServerStatus{
				Online:        true,
				PlayersOnline: 7,
			},
			want: "Players online: 7",
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := presenceTopic(testCase.instance, testCase.status)
			assert.Equal(t, testCase.want, got)
		})
	}
}
