package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reelvault/asset-services/api"
	"github.com/reelvault/asset-services/models/common"
	"github.com/reelvault/asset-services/util"
	"github.com/reelvault/asset-services/util/cli"
	"golang.org/x/sync/errgroup"
)

func main() {
	help := false
	flag.BoolVar(&help, "help", false, "Print help message")
	flag.Parse()
	if help {
		printHelp()
		os.Exit(0)
	}

	// If anything goes wrong, this panics.
	_context := common.NewContext()
	defer _context.Close()

	if _context.Config.PidFile != "" {
		if err := util.AcquirePidFile(_context.Config.PidFile); err != nil {
			_context.Logger.Fatalf("Cannot start: %v", err)
		}
		defer util.DeletePidFile(_context.Config.PidFile)
	}

	server := api.NewServer(_context)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	group, groupCtx := errgroup.WithContext(context.Background())
	group.Go(server.ListenAndServe)
	group.Go(func() error {
		select {
		case sig := <-signals:
			_context.Logger.Infof("Received signal %s, shutting down", sig)
		case <-groupCtx.Done():
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	})
	if err := group.Wait(); err != nil {
		_context.Logger.Errorf("Server stopped: %v", err)
	}
}

func printHelp() {
	message := `
asset_server serves the video asset API: upload, get, trim, merge,
and time-limited share links. Every route except share link redemption,
/ping and /metrics requires the bearer token in API_TOKEN.

Committed assets are queued for replication when NSQ_URL is set.
`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
