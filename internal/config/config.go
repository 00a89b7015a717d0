package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// Runtime env keys that override the file configuration.
const (
	EnvMaxMessageLength        = "tienlen_chat_max_message_length"
	EnvMentionAlertsEnabled    = "tienlen_chat_mention_alerts_enabled"
	EnvMentionNotificationCode = "tienlen_chat_mention_notification_code"
	EnvNotificationPersistent  = "tienlen_chat_notification_persistent"
	EnvMaxRosterSize           = "tienlen_chat_max_roster_size"
)

const (
	DefaultMaxMessageLength        = 500
	DefaultMentionNotificationCode = 110
	DefaultMaxRosterSize           = 4
)

type ChatConfig struct {
	// MaxMessageLength is measured in runes.
	MaxMessageLength        int  `json:"max_message_length"`
	MentionAlertsEnabled    bool `json:"mention_alerts_enabled"`
	MentionNotificationCode int  `json:"mention_notification_code"`
	NotificationPersistent  bool `json:"notification_persistent"`
	// MaxRosterSize caps players seated in one table chat.
	MaxRosterSize int `json:"max_roster_size"`
}

// Default returns the configuration used when no file is present.
func Default() ChatConfig {
	return ChatConfig{
		MaxMessageLength:        DefaultMaxMessageLength,
		MentionAlertsEnabled:    true,
		MentionNotificationCode: DefaultMentionNotificationCode,
		NotificationPersistent:  true,
		MaxRosterSize:           DefaultMaxRosterSize,
	}
}

var (
	cfg      *ChatConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadChatConfig loads the chat configuration from the given path.
// Only the first call reads the file.
func LoadChatConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read chat config: %w", err)
			return
		}

		c, err := ParseChatConfig(data)
		if err != nil {
			loadErr = err
			return
		}
		cfg = &c
	})
	return loadErr
}

// ParseChatConfig decodes a JSON config. Missing or non-positive numeric
// fields keep their defaults.
func ParseChatConfig(data []byte) (ChatConfig, error) {
	c := Default()
	if err := json.Unmarshal(data, &c); err != nil {
		return ChatConfig{}, fmt.Errorf("failed to unmarshal chat config: %w", err)
	}
	c.fillDefaults()
	return c, nil
}

// GetChatConfig returns the loaded configuration, or Default if nothing was loaded.
func GetChatConfig() ChatConfig {
	if cfg == nil {
		return Default()
	}
	return *cfg
}

// WithEnv returns a copy of c with runtime env overrides applied.
// Unparseable values are reported and skipped.
func (c ChatConfig) WithEnv(env map[string]string) (ChatConfig, []error) {
	var errs []error
	intVal := func(key string, dst *int) {
		val, ok := env[key]
		if !ok {
			return
		}
		i, err := strconv.Atoi(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: %w", key, val, err))
			return
		}
		*dst = i
	}
	boolVal := func(key string, dst *bool) {
		val, ok := env[key]
		if !ok {
			return
		}
		b, err := strconv.ParseBool(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: %w", key, val, err))
			return
		}
		*dst = b
	}

	intVal(EnvMaxMessageLength, &c.MaxMessageLength)
	boolVal(EnvMentionAlertsEnabled, &c.MentionAlertsEnabled)
	intVal(EnvMentionNotificationCode, &c.MentionNotificationCode)
	boolVal(EnvNotificationPersistent, &c.NotificationPersistent)
	intVal(EnvMaxRosterSize, &c.MaxRosterSize)
	c.fillDefaults()
	return c, errs
}

// LoadEnvFile reads KEY=value pairs from a dotenv file, for running tools
// outside the Nakama runtime.
func LoadEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	return env, nil
}

func (c *ChatConfig) fillDefaults() {
	if c.MaxMessageLength <= 0 {
		c.MaxMessageLength = DefaultMaxMessageLength
	}
	if c.MentionNotificationCode <= 0 {
		c.MentionNotificationCode = DefaultMentionNotificationCode
	}
	if c.MaxRosterSize <= 0 {
		c.MaxRosterSize = DefaultMaxRosterSize
	}
}
