// Package bot wires chat commands to EC2 instance lifecycle calls.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/minefleet/spindle/pkg/config"
)

// Bot is the Discord front end. It listens in a single channel, dispatches
// commands against the lifecycle controller, and keeps the channel topic in
// sync with the game server.
type Bot struct {
	session          *discordgo.Session
	dispatcher       *Dispatcher
	controller       *Controller
	channelID        string
	presenceInterval time.Duration
}

// New creates a Bot from configuration and a controller
func New(cfg *config.Config, controller *Controller) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	b := &Bot{
		session:          session,
		dispatcher:       NewDispatcher(cfg.Discord.Prefix, cfg.RateLimit.PerUser),
		controller:       controller,
		channelID:        cfg.Discord.ChannelID,
		presenceInterval: cfg.Presence.Interval,
	}
	b.registerCommands()

	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessage)

	return b, nil
}

// registerCommands binds the command set to the controller
func (b *Bot) registerCommands() {
	b.dispatcher.Register("help", "show this message", func(ctx context.Context) (string, error) {
		return b.dispatcher.Help(), nil
	})
	b.dispatcher.Register("status", "show the current server state", b.controller.Status)
	b.dispatcher.Register("ip", "show the server address", b.controller.IP)
	b.dispatcher.Register("spinup", "start the server", b.controller.Spinup)
	b.dispatcher.Register("spindown", "stop the server", b.controller.Spindown)
	b.dispatcher.Register("players", "list players currently online", b.controller.Players)
}

// Run connects to Discord and blocks until the context is canceled
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening Discord connection: %w", err)
	}

	go b.presenceLoop(ctx)

	<-ctx.Done()

	if err := b.session.Close(); err != nil {
		return fmt.Errorf("error closing Discord connection: %w", err)
	}
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	logrus.WithField("user", r.User.Username).Info("bot connected")
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if m.ChannelID != b.channelID {
		return
	}

	reply, handled := b.dispatcher.Dispatch(context.Background(), m.Author.ID, m.Content)
	if !handled || reply == "" {
		return
	}

	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		logrus.WithError(err).Error("error sending reply")
	}
}
