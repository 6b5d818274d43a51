package server

import (
	"io"

	"github.com/iov-one/grantd/errors"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	envPrefix = "grantd"

	flagBind     = "bind"
	flagMetrics  = "metrics"
	flagDebug    = "debug"
	flagLogLevel = "log_level"
)

// Config is the runtime configuration of the daemon. Values are read from
// GRANTD_* environment variables and can be overridden by command line
// flags.
type Config struct {
	// Bind is the address the ABCI socket server listens on.
	Bind string `envconfig:"BIND" default:"tcp://localhost:26658"`
	// Metrics is the address of the prometheus endpoint. Empty disables it.
	Metrics string `envconfig:"METRICS" default:":9100"`
	// Debug returns call stacks with errors.
	Debug    bool   `envconfig:"DEBUG"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// RegisterFlags declares the flags that override the environment.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(flagBind, "tcp://localhost:26658", "address server listens on")
	fs.String(flagMetrics, ":9100", "prometheus metrics address, empty to disable")
	fs.Bool(flagDebug, false, "call stack returned on error")
	fs.String(flagLogLevel, "info", "log level: debug, info, error or none")
}

// LoadConfig reads the environment and applies every flag that was set
// explicitly.
func LoadConfig(fs *pflag.FlagSet) (Config, error) {
	var c Config
	if err := envconfig.Process(envPrefix, &c); err != nil {
		return c, errors.Wrap(errors.ErrInput, err.Error())
	}
	var err error
	if fs.Changed(flagBind) {
		c.Bind, err = fs.GetString(flagBind)
	}
	if err == nil && fs.Changed(flagMetrics) {
		c.Metrics, err = fs.GetString(flagMetrics)
	}
	if err == nil && fs.Changed(flagDebug) {
		c.Debug, err = fs.GetBool(flagDebug)
	}
	if err == nil && fs.Changed(flagLogLevel) {
		c.LogLevel, err = fs.GetString(flagLogLevel)
	}
	if err != nil {
		return c, errors.Wrap(errors.ErrInput, err.Error())
	}
	return c, nil
}

// NewLogger returns a tendermint logger writing to w that drops entries
// below given level.
func NewLogger(w io.Writer, level string) (log.Logger, error) {
	allow, err := log.AllowLevel(level)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	logger := log.NewTMLogger(log.NewSyncWriter(w))
	return log.NewFilter(logger, allow), nil
}
