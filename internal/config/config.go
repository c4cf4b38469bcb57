// Package config handles loading the spdctl configuration.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	speechd "github.com/ilyapashuk/go-speechd/v2"
)

// Config is the root configuration for spdctl.
type Config struct {
	Speechd SpeechdConfig `mapstructure:"speechd"`
	Voice   VoiceConfig   `mapstructure:"voice"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SpeechdConfig describes how to reach the daemon and how to identify to it.
type SpeechdConfig struct {
	Address        string `mapstructure:"address"` // speech-dispatcher notation, empty for the default
	Autospawn      bool   `mapstructure:"autospawn"`
	Threaded       bool   `mapstructure:"threaded"`
	ClientName     string `mapstructure:"client_name"`
	ConnectionName string `mapstructure:"connection_name"`
	UserName       string `mapstructure:"user_name"`
}

// VoiceConfig holds the parameters applied to every new connection.
// Unset pointer fields leave the daemon's own defaults alone.
type VoiceConfig struct {
	Priority       string `mapstructure:"priority"`
	Rate           *int   `mapstructure:"rate"`
	Pitch          *int   `mapstructure:"pitch"`
	Volume         *int   `mapstructure:"volume"`
	Language       string `mapstructure:"language"`
	OutputModule   string `mapstructure:"output_module"`
	VoiceType      string `mapstructure:"voice_type"`
	SynthesisVoice string `mapstructure:"synthesis_voice"`
	Punctuation    string `mapstructure:"punctuation"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"address":   "speechd.address",
	"autospawn": "speechd.autospawn",
	"threaded":  "speechd.threaded",
	"log-level": "logging.level",
	"priority":  "voice.priority",
}

// Load reads the configuration from file, environment variables, flags and defaults.
// If configFile is non-empty it is used directly; otherwise the search order is
// ./spdctl.yaml, $XDG_CONFIG_HOME/spdctl/spdctl.yaml, /etc/spdctl/spdctl.yaml.
// Flags present in flags and listed in flagKeys override every other source;
// flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("speechd.address", "")
	v.SetDefault("speechd.autospawn", true)
	v.SetDefault("speechd.threaded", false)
	v.SetDefault("speechd.client_name", "spdctl")
	v.SetDefault("speechd.connection_name", "main")
	v.SetDefault("speechd.user_name", defaultUser())
	v.SetDefault("voice.priority", "text")
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("spdctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(dir + "/spdctl")
		}
		v.AddConfigPath("/etc/spdctl")
	}

	// Environment variables: SPDCTL_SPEECHD_ADDRESS, SPDCTL_VOICE_RATE, etc.
	v.SetEnvPrefix("SPDCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about.
	for _, key := range []string{"voice.rate", "voice.pitch", "voice.volume", "voice.language",
		"voice.output_module", "voice.voice_type", "voice.synthesis_voice", "voice.punctuation"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Debug("no config file found, using defaults and environment variables")
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.Speechd.ParsedAddress(); err != nil {
		return fmt.Errorf("speechd.address: %w", err)
	}
	if _, err := speechd.ParsePriority(c.Voice.Priority); err != nil {
		return fmt.Errorf("voice.priority: %w", err)
	}
	for key, p := range map[string]*int{"rate": c.Voice.Rate, "pitch": c.Voice.Pitch, "volume": c.Voice.Volume} {
		if p != nil && (*p < -100 || *p > 100) {
			return fmt.Errorf("voice.%s %d: %w", key, *p, speechd.ErrOutOfRange)
		}
	}
	if c.Voice.VoiceType != "" {
		if _, err := speechd.ParseVoiceType(c.Voice.VoiceType); err != nil {
			return fmt.Errorf("voice.voice_type: %w", err)
		}
	}
	if c.Voice.Punctuation != "" {
		if _, err := speechd.ParsePunctuation(c.Voice.Punctuation); err != nil {
			return fmt.Errorf("voice.punctuation: %w", err)
		}
	}
	return nil
}

// ParsedAddress returns the configured address, or the default one when unset.
func (c SpeechdConfig) ParsedAddress() (speechd.Address, error) {
	if c.Address == "" {
		return speechd.DefaultAddress()
	}
	return speechd.ParseAddress(c.Address)
}

// Mode returns the notification delivery mode.
func (c SpeechdConfig) Mode() speechd.Mode {
	if c.Threaded {
		return speechd.ModeThreaded
	}
	return speechd.ModeSingle
}

// Open connects to the daemon described by c.
func (c SpeechdConfig) Open(opts ...speechd.Option) (*speechd.Connection, error) {
	addr, err := c.ParsedAddress()
	if err != nil {
		return nil, err
	}
	return speechd.OpenAddress(c.ClientName, c.ConnectionName, c.UserName, c.Mode(), addr, c.Autospawn, opts...)
}

// Apply sends the configured voice parameters to conn.
func (vc VoiceConfig) Apply(conn *speechd.Connection) error {
	if vc.OutputModule != "" {
		if err := conn.SetOutputModule(vc.OutputModule); err != nil {
			return err
		}
	}
	if vc.Language != "" {
		if err := conn.SetLanguage(vc.Language); err != nil {
			return err
		}
	}
	if vc.VoiceType != "" {
		vt, err := speechd.ParseVoiceType(vc.VoiceType)
		if err != nil {
			return err
		}
		if err := conn.SetVoiceType(vt); err != nil {
			return err
		}
	}
	if vc.SynthesisVoice != "" {
		if err := conn.SetSynthesisVoice(vc.SynthesisVoice); err != nil {
			return err
		}
	}
	if vc.Punctuation != "" {
		p, err := speechd.ParsePunctuation(vc.Punctuation)
		if err != nil {
			return err
		}
		if err := conn.SetPunctuation(p); err != nil {
			return err
		}
	}
	if vc.Rate != nil {
		if err := conn.SetVoiceRate(*vc.Rate); err != nil {
			return err
		}
	}
	if vc.Pitch != nil {
		if err := conn.SetVoicePitch(*vc.Pitch); err != nil {
			return err
		}
	}
	if vc.Volume != nil {
		if err := conn.SetVolume(*vc.Volume); err != nil {
			return err
		}
	}
	return nil
}

// ParsedPriority returns the configured message priority.
func (vc VoiceConfig) ParsedPriority() speechd.Priority {
	p, err := speechd.ParsePriority(vc.Priority)
	if err != nil {
		return speechd.Text
	}
	return p
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}

// SetupLogging configures the global slog logger based on config.
// Output goes to w so that it never mixes with command output.
func SetupLogging(cfg LoggingConfig, w io.Writer) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}
