package main

import (
	"fmt"
	"os"

	"github.com/reelvault/asset-services/models/common"
	"github.com/reelvault/asset-services/replication"
	"github.com/reelvault/asset-services/util/cli"
	"github.com/reelvault/asset-services/workers"
)

func main() {
	opts, flags, err := cli.ParseOpts("asset_replicator", os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if opts.PrintHelp {
		printHelp()
		flags.PrintDefaults()
		os.Exit(0)
	}

	// If anything goes wrong, this panics.
	_context := common.NewContext()
	defer _context.Close()
	if _context.S3Client == nil {
		_context.Logger.Fatal("asset_replicator requires S3_HOST")
	}

	settings := workers.NewReplicationSettings(_context.Config, opts)
	_context.Logger.Infof("Replicator settings: %s", settings.ToJSON())
	uploader := replication.NewUploader(_context.S3Client, _context.Config.ReplicationBucket, _context.Logger)
	replicator := workers.NewReplicator(_context, settings, uploader)
	replicator.Start()
	replicator.WatchSignals()
	if err := replicator.RegisterAsNsqConsumer(); err != nil {
		_context.Logger.Fatalf("Cannot register as NSQ consumer: %v", err)
	}

	// This channel blocks until we get an interrupt,
	// so our program does not exit without Control-C
	// or other kill signal.
	<-replicator.NSQConsumer.StopChan
}

func printHelp() {
	message := `
asset_replicator copies committed video assets to the replication
bucket. The asset server queues each new asset id in NSQ, and this
worker loads the asset and uploads its media to
<REPLICATION_BUCKET>/assets/<id>/<storage name>.
`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
