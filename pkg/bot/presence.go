package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/minefleet/spindle/internal/models"
)

// presenceLoop keeps the channel topic in sync with who is online. Topic
// edits are heavily rate-limited by Discord, so the loop only edits when the
// text actually changed.
func (b *Bot) presenceLoop(ctx context.Context) {
	ticker := time.NewTicker(b.presenceInterval)
	defer ticker.Stop()

	var lastTopic string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		instance, status, err := b.controller.Observe(ctx)
		if err != nil {
			logrus.WithError(err).Warn("presence update failed")
			continue
		}

		topic := presenceTopic(instance, status)
		if topic == lastTopic {
			continue
		}

		if _, err := b.session.ChannelEdit(b.channelID, &discordgo.ChannelEdit{Topic: topic}); err != nil {
			logrus.WithError(err).Warn("error updating channel topic")
			continue
		}
		lastTopic = topic
	}
}

// presenceTopic renders the channel topic for the observed state
func presenceTopic(instance models.Instance, status models.ServerStatus) string {
	if instance.State != models.StateRunning {
		return "The Minecraft server is not currently running."
	}
	if !status.Online {
		return "The Minecraft server is starting up."
	}
	if status.PlayersOnline == 0 {
		return "No players currently online."
	}
	if len(status.PlayerNames) == 0 {
		return "Players online: " + strconv.Itoa(status.PlayersOnline)
	}
	return "Players online: " + strings.Join(status.PlayerNames, ", ")
}
