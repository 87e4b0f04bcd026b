package main

import (
	"rillstats/pkg/config"

	"github.com/spf13/pflag"
)

type options struct {
	configPath  string
	port        int
	keystore    string
	password    string
	databaseURL string
	prunePeriod uint64
	countdown   uint64
	unixPath    string
	logLevel    string

	flags *pflag.FlagSet
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("collector", pflag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "configs/config.yaml", "path to the YAML configuration file")
	fs.IntVarP(&opts.port, "port", "p", 0, "port to listen on")
	fs.StringVarP(&opts.keystore, "tls-keystore", "t", "", "PKCS#12 keystore enabling TLS")
	fs.StringVar(&opts.password, "tls-password", "", "keystore password")
	fs.StringVarP(&opts.databaseURL, "database-url", "d", "", "InfluxDB UDP endpoint; console output when empty")
	fs.Uint64Var(&opts.prunePeriod, "prune-period", 60, "seconds of silence before a connection is evicted, 0 disables")
	fs.Uint64VarP(&opts.countdown, "countdown", "c", 0, "seconds to run before exiting, 0 runs until interrupted")
	fs.StringVar(&opts.unixPath, "unix-path", "", "unix socket carrying binary frame headers")
	fs.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.flags = fs
	return opts, nil
}

// apply copies every flag given on the command line over cfg.
func (o *options) apply(cfg *config.Config) {
	changed := o.flags.Changed
	if changed("port") {
		cfg.Server.Port = o.port
	}
	if changed("tls-keystore") {
		cfg.TLS.Keystore = o.keystore
	}
	if changed("tls-password") {
		cfg.TLS.Password = o.password
	}
	if changed("database-url") {
		cfg.Storage.URL = o.databaseURL
	}
	if changed("prune-period") {
		cfg.Pool.PrunePeriod = o.prunePeriod
	}
	if changed("countdown") {
		cfg.Pool.Countdown = o.countdown
	}
	if changed("unix-path") {
		cfg.LocalSource.Path = o.unixPath
	}
	if changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
}
