package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/hamed0406/availability/internal/logging"
)

const (
	DefaultAddr     = ":5000"
	DefaultLogDir   = "logs"
	DefaultLogLevel = "info"
	CheckInterval   = 15 * time.Second
	ProbeTimeout    = 10 * time.Second
)

const (
	keyFile = "file"
	keyLog  = "log"
)

// ErrHelp is returned when -h/--help was requested.
var ErrHelp = pflag.ErrHelp

// Settings is the resolved process configuration.
type Settings struct {
	ConfigFile string
	LogLevel   string
	// Level is LogLevel parsed; unknown names become info and LevelFallback
	// is set so the caller can warn about it.
	Level         zapcore.Level
	LevelFallback bool

	LogDir   string
	Addr     string
	Interval time.Duration
	Timeout  time.Duration
}

// Load resolves settings from command line args (without the program name)
// and the CONFIG_FILE / LOG_LEVEL environment variables. Flags win over the
// environment.
func Load(args []string) (*Settings, error) {
	fs := pflag.NewFlagSet("availability", pflag.ContinueOnError)
	fs.SetNormalizeFunc(normalize)
	fs.StringP(keyFile, "f", "", "path to the YAML endpoint file (env CONFIG_FILE)")
	fs.String(keyLog, DefaultLogLevel, "log level: debug, info, warn, error (env LOG_LEVEL)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault(keyLog, DefaultLogLevel)
	if err := v.BindEnv(keyFile, "CONFIG_FILE"); err != nil {
		return nil, err
	}
	if err := v.BindEnv(keyLog, "LOG_LEVEL"); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	s := &Settings{
		ConfigFile: strings.TrimSpace(v.GetString(keyFile)),
		LogLevel:   strings.TrimSpace(v.GetString(keyLog)),
		LogDir:     DefaultLogDir,
		Addr:       DefaultAddr,
		Interval:   CheckInterval,
		Timeout:    ProbeTimeout,
	}
	var ok bool
	s.Level, ok = logging.ParseLevel(s.LogLevel)
	s.LevelFallback = !ok && s.LogLevel != ""

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

// normalize lets the short historic spelling --f stand for --file.
func normalize(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "f" {
		name = keyFile
	}
	return pflag.NormalizedName(name)
}

func (s *Settings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.ConfigFile, validation.Required.Error("endpoint file is required (--f or CONFIG_FILE)")),
		validation.Field(&s.Addr, validation.Required, validation.By(validateHostPort)),
		validation.Field(&s.Interval, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&s.Timeout, validation.Required, validation.Min(time.Millisecond)),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}
	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}
	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}
	return nil
}

// IsHelp reports whether err came from a help request.
func IsHelp(err error) bool { return errors.Is(err, ErrHelp) }
