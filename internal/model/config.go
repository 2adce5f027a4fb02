package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ChatConfig holds the simulated support desk settings.
type ChatConfig struct {
	ReplyDelay   time.Duration `mapstructure:"reply_delay" yaml:"reply_delay" validate:"gt=0"`
	ConnectDelay time.Duration `mapstructure:"connect_delay" yaml:"connect_delay" validate:"gt=0"`
	AgentName    string        `mapstructure:"agent_name" yaml:"agent_name" validate:"required"`
	AgentRole    string        `mapstructure:"agent_role" yaml:"agent_role"`
	SupportName  string        `mapstructure:"support_name" yaml:"support_name" validate:"required"`
}

// PresenceConfig controls the simulated agent presence.
type PresenceConfig struct {
	Interval        time.Duration `mapstructure:"interval" yaml:"interval" validate:"gt=0"`
	FlipProbability float64       `mapstructure:"flip_probability" yaml:"flip_probability" validate:"gte=0,lte=1"`
	StartOnline     bool          `mapstructure:"start_online" yaml:"start_online"`
}

// NotificationConfig controls the notification center.
type NotificationConfig struct {
	// AutoDismiss removes non-persistent notifications after this delay.
	// Zero disables auto-dismiss.
	AutoDismiss time.Duration `mapstructure:"auto_dismiss" yaml:"auto_dismiss" validate:"gte=0"`
	MaxToasts   int           `mapstructure:"max_toasts" yaml:"max_toasts" validate:"gte=0"`
}

// MailboxConfig holds the lab inbox settings. The password lives in the
// system keyring, never in the config file.
type MailboxConfig struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	Host            string `mapstructure:"host" yaml:"host" validate:"required_if=Enabled true"`
	Port            string `mapstructure:"port" yaml:"port"`
	Username        string `mapstructure:"username" yaml:"username" validate:"required_if=Enabled true"`
	TLS             bool   `mapstructure:"tls" yaml:"tls"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec" validate:"gte=0"`
}

// ArchiveConfig controls where finished chats are archived.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	DBPath  string `mapstructure:"db_path" yaml:"db_path"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Identity      Identity           `mapstructure:"identity" yaml:"identity"`
	Chat          ChatConfig         `mapstructure:"chat" yaml:"chat"`
	Presence      PresenceConfig     `mapstructure:"presence" yaml:"presence"`
	Notifications NotificationConfig `mapstructure:"notifications" yaml:"notifications"`
	Mailbox       MailboxConfig      `mapstructure:"mailbox" yaml:"mailbox"`
	Archive       ArchiveConfig      `mapstructure:"archive" yaml:"archive"`
	Log           LogConfig          `mapstructure:"log" yaml:"log"`
}

// ConfigError lists the fields that failed validation.
type ConfigError struct {
	Fields map[string]string
}

func (e *ConfigError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid config: " + strings.Join(parts, "; ")
}

// ConfigDir returns ~/.config/labdesk, falling back to the working directory.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "labdesk")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/labdesk/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Chat: ChatConfig{
			ReplyDelay:   2 * time.Second,
			ConnectDelay: 3 * time.Second,
			AgentName:    "Dr. Maria Santos",
			AgentRole:    "Support Specialist",
			SupportName:  "MEGH Support",
		},
		Presence: PresenceConfig{
			Interval:        30 * time.Second,
			FlipProbability: 0.2,
			StartOnline:     true,
		},
		Notifications: NotificationConfig{
			AutoDismiss: 5 * time.Second,
			MaxToasts:   3,
		},
		Mailbox: MailboxConfig{
			Port:            "993",
			TLS:             true,
			PollIntervalSec: 120,
		},
		Archive: ArchiveConfig{
			Enabled: true,
			DBPath:  filepath.Join(ConfigDir(), "labdesk.db"),
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(ConfigDir(), "labdesk.log"),
		},
	}
}

// setDefaults mirrors defaultAppConfig so missing keys resolve to sensible values.
func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("chat.reply_delay", d.Chat.ReplyDelay)
	v.SetDefault("chat.connect_delay", d.Chat.ConnectDelay)
	v.SetDefault("chat.agent_name", d.Chat.AgentName)
	v.SetDefault("chat.agent_role", d.Chat.AgentRole)
	v.SetDefault("chat.support_name", d.Chat.SupportName)
	v.SetDefault("presence.interval", d.Presence.Interval)
	v.SetDefault("presence.flip_probability", d.Presence.FlipProbability)
	v.SetDefault("presence.start_online", d.Presence.StartOnline)
	v.SetDefault("notifications.auto_dismiss", d.Notifications.AutoDismiss)
	v.SetDefault("notifications.max_toasts", d.Notifications.MaxToasts)
	v.SetDefault("mailbox.port", d.Mailbox.Port)
	v.SetDefault("mailbox.tls", d.Mailbox.TLS)
	v.SetDefault("mailbox.poll_interval_sec", d.Mailbox.PollIntervalSec)
	v.SetDefault("archive.enabled", d.Archive.Enabled)
	v.SetDefault("archive.db_path", d.Archive.DBPath)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("LABDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, defaultAppConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints with go-playground/validator.
func (c *AppConfig) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
	})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		// Namespace is "AppConfig.chat.reply_delay"; drop the root type.
		name := fe.Namespace()
		if i := strings.Index(name, "."); i >= 0 {
			name = name[i+1:]
		}
		fields[name] = validationMessage(fe)
	}
	return &ConfigError{Fields: fields}
}

// validationMessage turns a validator field error into a short sentence.
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("identity.name", cfg.Identity.Name)
	v.Set("identity.role", string(cfg.Identity.Role))
	v.Set("chat.reply_delay", cfg.Chat.ReplyDelay.String())
	v.Set("chat.connect_delay", cfg.Chat.ConnectDelay.String())
	v.Set("chat.agent_name", cfg.Chat.AgentName)
	v.Set("chat.agent_role", cfg.Chat.AgentRole)
	v.Set("chat.support_name", cfg.Chat.SupportName)
	v.Set("presence.interval", cfg.Presence.Interval.String())
	v.Set("presence.flip_probability", cfg.Presence.FlipProbability)
	v.Set("presence.start_online", cfg.Presence.StartOnline)
	v.Set("notifications.auto_dismiss", cfg.Notifications.AutoDismiss.String())
	v.Set("notifications.max_toasts", cfg.Notifications.MaxToasts)
	v.Set("mailbox", cfg.Mailbox)
	v.Set("archive", cfg.Archive)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
