package workers

import (
	"encoding/json"
	"time"

	"github.com/reelvault/asset-services/models/common"
	"github.com/reelvault/asset-services/util/cli"
)

// Settings contains settings for a queue worker.
type Settings struct {
	// ChannelBufferSize is the size of the buffer for the
	// ProcessChannel, SuccessChannel, ErrorChannel,
	// and FatalErrorChannel. It is also NSQ's max_in_flight.
	ChannelBufferSize int

	// MaxAttempts is the maximum number of times the worker should
	// attempt its work before giving up. Note that this applies
	// only to attempts that fail from non-fatal (transient) errors.
	// Workers automatically stop trying after fatal errors.
	MaxAttempts int

	// NSQChannel is the NSQ channel the worker should subscribe
	// to to receive messages.
	NSQChannel string

	// NSQTopic is the NSQ topic the worker should subscribe
	// to to receive messages.
	NSQTopic string

	// NumberOfWorkers is the number of go routines to spin up
	// to handle the main task of the worker. Replication is
	// network-bound, so this can be higher than the CPU count.
	NumberOfWorkers int

	// RequeueTimeout describes how long of a timeout to set
	// on the NSQ requeue after an item fails with non-fatal
	// errors.
	RequeueTimeout time.Duration
}

// NewReplicationSettings returns settings for the replication worker,
// with the queue names from config and the rest from the command line.
func NewReplicationSettings(config *common.Config, opts cli.Options) *Settings {
	return &Settings{
		ChannelBufferSize: opts.ChannelBufferSize,
		MaxAttempts:       opts.MaxAttempts,
		NSQChannel:        config.ReplicationChannel,
		NSQTopic:          config.ReplicationTopic,
		NumberOfWorkers:   opts.NumWorkers,
		RequeueTimeout:    opts.RequeueTimeout,
	}
}

func (settings *Settings) ToJSON() string {
	data, _ := json.Marshal(settings)
	return string(data)
}
