package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/minefleet/spindle/internal/models"
	"github.com/minefleet/spindle/pkg/cache"
	"github.com/minefleet/spindle/pkg/mc"
)

// LifecycleAPI is the provider surface the controller drives
type LifecycleAPI interface {
	DescribeInstance(ctx context.Context) (models.Instance, error)
	StartInstance(ctx context.Context) error
	StopInstance(ctx context.Context) error
}

// Controller translates chat commands into idempotent lifecycle transitions.
// It serializes all operations; provider calls never run concurrently for
// the managed instance.
type Controller struct {
	mu     sync.Mutex
	api    LifecycleAPI
	cache  *cache.StateCache
	pinger mc.Pinger
	mcPort int
}

// NewController creates a Controller
func NewController(api LifecycleAPI, stateCache *cache.StateCache, pinger mc.Pinger, mcPort int) *Controller {
	return &Controller{
		api:    api,
		cache:  stateCache,
		pinger: pinger,
		mcPort: mcPort,
	}
}

// observe returns the current instance snapshot, from cache when fresh
func (c *Controller) observe(ctx context.Context) (models.Instance, error) {
	if snapshot, ok := c.cache.Get(); ok {
		return snapshot, nil
	}

	snapshot, err := c.api.DescribeInstance(ctx)
	if err != nil {
		return models.Instance{}, err
	}

	c.cache.Put(snapshot)
	return snapshot, nil
}

// Status reports the current lifecycle state. While running it appends
// uptime and, when the game server answers, the online player count.
func (c *Controller) Status(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	instance, err := c.observe(ctx)
	if err != nil {
		return "", fmt.Errorf("error checking server status: %w", err)
	}

	reply := fmt.Sprintf("The server is currently %s.", instance.State.Phrase())

	if instance.State == models.StateRunning {
		if !instance.LaunchTime.IsZero() {
			reply = fmt.Sprintf("The server is currently running (up since %s).",
				humanize.Time(instance.LaunchTime))
		}
		if status, ok := c.pingServer(instance); ok {
			reply += fmt.Sprintf(" %d/%d players online.", status.PlayersOnline, status.PlayersMax)
		}
	}

	return reply, nil
}

// IP reports the public address, present only while running
func (c *Controller) IP(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	instance, err := c.observe(ctx)
	if err != nil {
		return "", fmt.Errorf("error retrieving the IP: %w", err)
	}

	switch {
	case instance.State == models.StatePending:
		return "Please wait, the server is currently starting up.", nil
	case instance.State == models.StateRunning && instance.PublicIP != "":
		return fmt.Sprintf("The current server IP is %s", instance.PublicIP), nil
	case instance.State == models.StateRunning:
		return "The server is running but has no public IP yet. Try again in a moment.", nil
	default:
		return "The server is not currently running.", nil
	}
}

// Spinup starts the instance unless a start is redundant or unsafe.
// Repeating the command while the instance transitions is a no-op that
// reports the current state.
func (c *Controller) Spinup(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	instance, err := c.observe(ctx)
	if err != nil {
		return "", fmt.Errorf("error checking server state: %w", err)
	}

	switch instance.State {
	case models.StatePending:
		return "The server is already starting up.", nil
	case models.StateRunning:
		return "The server is already running.", nil
	case models.StateShuttingDown, models.StateStopping:
		return "Please wait, the server is currently shutting down.", nil
	case models.StateStopped, models.StateTerminated:
		if err := c.api.StartInstance(ctx); err != nil {
			c.cache.Invalidate()
			return "", fmt.Errorf("error starting the server: %w", err)
		}
		// Record the transition so an immediate repeat debounces
		c.cache.MarkTransition(models.StatePending)
		logrus.WithField("instance", instance.InstanceID).Info("start issued")
		return "The server has been started.", nil
	default:
		return fmt.Sprintf("The server is %s; not starting it.", instance.State.Phrase()), nil
	}
}

// Spindown is the symmetric counterpart of Spinup
func (c *Controller) Spindown(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	instance, err := c.observe(ctx)
	if err != nil {
		return "", fmt.Errorf("error checking server state: %w", err)
	}

	switch instance.State {
	case models.StatePending:
		return "Please wait, the server is currently starting up.", nil
	case models.StateShuttingDown, models.StateStopping:
		return "The server is already shutting down.", nil
	case models.StateStopped, models.StateTerminated:
		return "The server was already stopped.", nil
	case models.StateRunning:
		if err := c.api.StopInstance(ctx); err != nil {
			c.cache.Invalidate()
			return "", fmt.Errorf("error stopping the server: %w", err)
		}
		c.cache.MarkTransition(models.StateStopping)
		logrus.WithField("instance", instance.InstanceID).Info("stop issued")
		return "The server has been stopped.", nil
	default:
		return fmt.Sprintf("The server is %s; not stopping it.", instance.State.Phrase()), nil
	}
}

// Players lists the names of players currently online
func (c *Controller) Players(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	instance, err := c.observe(ctx)
	if err != nil {
		return "", fmt.Errorf("error checking server state: %w", err)
	}

	if instance.State != models.StateRunning {
		return "The server is not currently running.", nil
	}

	status, ok := c.pingServer(instance)
	if !ok {
		return "The server is still booting up, try again shortly.", nil
	}

	if status.PlayersOnline == 0 {
		return "No players currently online.", nil
	}
	if len(status.PlayerNames) == 0 {
		return fmt.Sprintf("%d players online.", status.PlayersOnline), nil
	}
	return "Players online: " + strings.Join(status.PlayerNames, ", "), nil
}

// Observe returns the instance snapshot and, while running, the game server
// status. Used by the presence loop.
func (c *Controller) Observe(ctx context.Context) (models.Instance, models.ServerStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	instance, err := c.observe(ctx)
	if err != nil {
		return models.Instance{}, models.ServerStatus{}, err
	}

	var status models.ServerStatus
	if instance.State == models.StateRunning {
		status, _ = c.pingServer(instance)
	}

	return instance, status, nil
}

// pingServer queries the game server on the instance's public address
func (c *Controller) pingServer(instance models.Instance) (models.ServerStatus, bool) {
	if c.pinger == nil || instance.PublicIP == "" {
		return models.ServerStatus{}, false
	}

	status, err := c.pinger.Ping(instance.PublicIP, c.mcPort)
	if err != nil {
		// Instance up but the server process not answering yet
		logrus.WithError(err).Debug("game server ping failed")
		return models.ServerStatus{}, false
	}

	return status, true
}
