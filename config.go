package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind             string
	idleTimeout      time.Duration
	pingInterval     time.Duration
	port             int
	prefix           string
	profile          bool
	rolloverInterval time.Duration
	sweepInterval    time.Duration
	tlsCert          string
	tlsKey           string
	verbose          bool
	version          bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.pingInterval < time.Second {
		return fmt.Errorf("invalid ping interval (must be at least 1s): %s", c.pingInterval)
	}
	if c.sweepInterval < time.Second {
		return fmt.Errorf("invalid sweep interval (must be at least 1s): %s", c.sweepInterval)
	}
	if c.idleTimeout < c.sweepInterval {
		return fmt.Errorf("invalid idle timeout (must be at least the sweep interval): %s", c.idleTimeout)
	}
	if c.rolloverInterval < time.Minute {
		return fmt.Errorf("invalid rollover interval (must be at least 1m): %s", c.rolloverInterval)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PIPCLOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "pipclock",
		Short:         "A single-room chat and minigame server, with the clock rendered client-side.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: PIPCLOCK_BIND)")
	fs.DurationVar(&cfg.idleTimeout, "idle-timeout", 60*time.Second, "time before silent sessions are evicted (env: PIPCLOCK_IDLE_TIMEOUT)")
	fs.DurationVar(&cfg.pingInterval, "ping-interval", 20*time.Second, "interval between heartbeat pings (env: PIPCLOCK_PING_INTERVAL)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: PIPCLOCK_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: PIPCLOCK_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: PIPCLOCK_PROFILE)")
	fs.DurationVar(&cfg.rolloverInterval, "rollover-interval", time.Hour, "interval between chat history rollovers (env: PIPCLOCK_ROLLOVER_INTERVAL)")
	fs.DurationVar(&cfg.sweepInterval, "sweep-interval", 15*time.Second, "interval between idle session sweeps (env: PIPCLOCK_SWEEP_INTERVAL)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: PIPCLOCK_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: PIPCLOCK_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: PIPCLOCK_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: PIPCLOCK_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("pipclock v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
