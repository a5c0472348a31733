package models

import "time"

// InstanceState represents the lifecycle state of the EC2 instance
type InstanceState string

const (
	StatePending      InstanceState = "pending"
	StateRunning      InstanceState = "running"
	StateShuttingDown InstanceState = "shutting-down"
	StateTerminated   InstanceState = "terminated"
	StateStopping     InstanceState = "stopping"
	StateStopped      InstanceState = "stopped"
	StateUnknown      InstanceState = "unknown"
)

// EC2 instance state codes as returned by DescribeInstances.
// The high byte is cleared by the API; these are the documented low-byte values.
const (
	StateCodePending      = 0
	StateCodeRunning      = 16
	StateCodeShuttingDown = 32
	StateCodeTerminated   = 48
	StateCodeStopping     = 64
	StateCodeStopped      = 80
)

// StateFromCode maps an EC2 state code to an InstanceState
func StateFromCode(code int32) InstanceState {
	switch code {
	case StateCodePending:
		return StatePending
	case StateCodeRunning:
		return StateRunning
	case StateCodeShuttingDown:
		return StateShuttingDown
	case StateCodeTerminated:
		return StateTerminated
	case StateCodeStopping:
		return StateStopping
	case StateCodeStopped:
		return StateStopped
	default:
		return StateUnknown
	}
}

// Phrase returns the human-readable phrase used in chat replies
func (s InstanceState) Phrase() string {
	switch s {
	case StatePending:
		return "starting up"
	case StateRunning:
		return "running"
	case StateShuttingDown, StateStopping:
		return "shutting down"
	case StateStopped, StateTerminated:
		return "stopped"
	default:
		return "in an unknown state"
	}
}

// IsTransitional reports whether the state is between stable states
func (s InstanceState) IsTransitional() bool {
	return s == StatePending || s == StateStopping || s == StateShuttingDown
}

// Instance represents the last observed snapshot of the managed EC2 instance
type Instance struct {
	InstanceID       string
	Name             string
	InstanceType     string
	Region           string
	AvailabilityZone string
	State            InstanceState
	PublicIP         string // empty unless running
	LaunchTime       time.Time
	ObservedAt       time.Time
}

// Uptime returns the time elapsed since launch, or zero when not running
func (i Instance) Uptime() time.Duration {
	if i.State != StateRunning || i.LaunchTime.IsZero() {
		return 0
	}
	return time.Since(i.LaunchTime)
}
