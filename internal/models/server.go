package models

// ServerStatus represents the result of querying the game server itself.
// The EC2 instance can be running while the server process is still booting,
// so Online is tracked separately from the instance lifecycle state.
type ServerStatus struct {
	Online        bool
	PlayersOnline int
	PlayersMax    int
	PlayerNames   []string
	Version       string
}
