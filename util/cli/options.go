package cli

import (
	"flag"
	"time"
)

type Options struct {
	ChannelBufferSize int
	MaxAttempts       int
	NumWorkers        int
	PrintHelp         bool
	RequeueTimeout    time.Duration
}

var defaultAttempts = 5
var defaultBufSize = 20
var defaultWorkers = 3
var defaultTimeout = 1 * time.Minute

var EnvMessage = `This requires the following environment vars:

ASSET_CONFIG_DIR - Path to the directory containing the .env settings file.

ASSET_ENV - Name of the configuration to load. For example:
    test - Loads .env.test from ASSET_CONFIG_DIR
    dev  - Loads .env.dev from ASSET_CONFIG_DIR

Any setting in the .env file can be overridden by an environment
variable of the same name, for example STORE_BACKEND=redis.
`

// NewFlagSet returns a flag set bound to opts, with defaults filled in.
func NewFlagSet(name string, opts *Options) *flag.FlagSet {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.IntVar(&opts.ChannelBufferSize, "bufsize", defaultBufSize, "Channel buffer size for go workers")
	flags.IntVar(&opts.MaxAttempts, "max-attempts", defaultAttempts, "Maximum number of times a worker should attempt to process an item")
	flags.IntVar(&opts.NumWorkers, "workers", defaultWorkers, "Number of go routines to handle main processing work")
	flags.BoolVar(&opts.PrintHelp, "help", false, "Print help message")
	flags.DurationVar(&opts.RequeueTimeout, "requeue-timeout", defaultTimeout, "Requeue timeout for reprocessing items with non-fatal errors. Format examples: 500ms, 12s, 10m, 3m30s, 3h")
	return flags
}

// ParseOpts parses args, which should not include the program name.
func ParseOpts(name string, args []string) (Options, *flag.FlagSet, error) {
	opts := Options{}
	flags := NewFlagSet(name, &opts)
	err := flags.Parse(args)
	return opts, flags, err
}
