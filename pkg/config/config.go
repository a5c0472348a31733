// Package config loads spindle configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full spindle configuration
type Config struct {
	Discord   DiscordConfig   `mapstructure:"discord"`
	AWS       AWSConfig       `mapstructure:"aws"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Presence  PresenceConfig  `mapstructure:"presence"`
	MC        MCConfig        `mapstructure:"mc"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// DiscordConfig holds the chat platform settings
type DiscordConfig struct {
	// Token is the bot token. Comes from file or SPINDLE_DISCORD_TOKEN,
	// never from a flag.
	Token string `mapstructure:"token"`

	// ChannelID is the only channel the bot listens in
	ChannelID string `mapstructure:"channel_id"`

	// Prefix is the command prefix, e.g. "?"
	Prefix string `mapstructure:"prefix"`
}

// AWSConfig holds the cloud provider settings
type AWSConfig struct {
	Region string `mapstructure:"region"`

	// InstanceID pins the managed instance explicitly. When empty, the
	// instance is resolved at startup (by InstanceTag, else first instance).
	InstanceID string `mapstructure:"instance_id"`

	// InstanceTag is a "key=value" tag filter used during resolution
	InstanceTag string `mapstructure:"instance_tag"`
}

// CacheConfig holds state cache settings
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// PresenceConfig holds the channel-topic presence loop settings
type PresenceConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// MCConfig holds the game server query settings
type MCConfig struct {
	Port    int           `mapstructure:"port"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig holds the per-user command rate limit
type RateLimitConfig struct {
	PerUser time.Duration `mapstructure:"per_user"`
}

// Load reads configuration from the given file (optional), the default
// search paths, and SPINDLE_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Every key needs a default so AutomaticEnv values survive Unmarshal
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.channel_id", "")
	v.SetDefault("discord.prefix", "?")
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.instance_id", "")
	v.SetDefault("aws.instance_tag", "")
	v.SetDefault("cache.ttl", 10*time.Second)
	v.SetDefault("presence.interval", 30*time.Second)
	v.SetDefault("mc.port", 25565)
	v.SetDefault("mc.timeout", 5*time.Second)
	v.SetDefault("ratelimit.per_user", 3*time.Second)

	v.SetEnvPrefix("SPINDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("spindle")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.spindle")
	}

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine when not explicitly requested;
		// environment variables may carry everything needed
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings a running bot cannot do without
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord token is required (discord.token or SPINDLE_DISCORD_TOKEN)")
	}
	if c.Discord.ChannelID == "" {
		return fmt.Errorf("discord channel ID is required (discord.channel_id or SPINDLE_DISCORD_CHANNEL_ID)")
	}
	return nil
}
