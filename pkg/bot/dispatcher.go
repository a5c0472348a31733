package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HandlerFunc executes a chat command and returns the reply text
type HandlerFunc func(ctx context.Context) (string, error)

type command struct {
	name        string
	description string
	run         HandlerFunc
}

// Dispatcher maps command tokens to handlers. Commands take no arguments;
// unknown commands and extra tokens get a help reply. A per-user rate limit
// keeps command spam from turning into provider API spam.
type Dispatcher struct {
	prefix   string
	limit    time.Duration
	commands map[string]command

	mu       sync.Mutex
	lastSeen map[string]time.Time

	// now is swappable for tests
	now func() time.Time
}

// NewDispatcher creates a Dispatcher with the given command prefix and
// per-user rate limit (0 disables limiting)
func NewDispatcher(prefix string, limit time.Duration) *Dispatcher {
	return &Dispatcher{
		prefix:   prefix,
		limit:    limit,
		commands: make(map[string]command),
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Register adds a command
func (d *Dispatcher) Register(name, description string, run HandlerFunc) {
	d.commands[strings.ToLower(name)] = command{
		name:        strings.ToLower(name),
		description: description,
		run:         run,
	}
}

// Help renders the help message from the registered commands
func (d *Dispatcher) Help() string {
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s%s - %s\n", d.prefix, name, d.commands[name].description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Dispatch parses and runs a command from a raw chat message. The second
// return value is false when the message is not a command at all.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, content string) (string, bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, d.prefix) {
		return "", false
	}

	fields := strings.Fields(strings.TrimPrefix(content, d.prefix))
	if len(fields) == 0 {
		return "", false
	}
	name := strings.ToLower(fields[0])

	if wait, limited := d.rateLimited(userID); limited {
		return fmt.Sprintf("Easy there, try again in %s.", wait.Round(time.Second)), true
	}

	cmd, ok := d.commands[name]
	if !ok {
		return "Unknown command.\n" + d.Help(), true
	}

	if len(fields) > 1 {
		return "This command takes no arguments.", true
	}

	reply, err := cmd.run(ctx)
	if err != nil {
		logrus.WithError(err).WithField("command", name).Error("command failed")
		return "Something went wrong with the command.", true
	}

	return reply, true
}

// rateLimited records the command attempt and reports whether the user has
// to wait. The window only refreshes on allowed commands, so a spamming user
// is not locked out forever.
func (d *Dispatcher) rateLimited(userID string) (time.Duration, bool) {
	if d.limit <= 0 {
		return 0, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.lastSeen[userID]; ok {
		if elapsed := now.Sub(last); elapsed < d.limit {
			return d.limit - elapsed, true
		}
	}

	d.lastSeen[userID] = now
	return 0, false
}
