package workers

import (
	"time"

	"github.com/nsqio/go-nsq"
	"github.com/reelvault/asset-services/models/asset"
)

// Task encapsulates everything that a worker will need to
// pass from one channel to the next during procesing.
type Task struct {
	// AssetID is the id from the NSQ message body.
	AssetID int64

	// Asset is loaded from the store during processing.
	Asset *asset.Asset

	// Err is the error from the last processing attempt, if any.
	Err error

	// NSQMessage is the NSQ message the worker is processing.
	NSQMessage *nsq.Message

	nsqStopChannel chan bool

	// For testing
	nsqStartCalled bool

	// For testing
	tickerStopped bool
}

// NSQStart creates a timer that touches the NSQ message
// every two minutes while the task is in process, so that long
// uploads don't time out in nsqd.
func (item *Task) NSQStart() {
	item.NSQMessage.DisableAutoResponse()
	interval := time.Duration(2) * time.Minute
	ticker := time.NewTicker(interval)
	stopChannel := make(chan bool)
	go func() {
		for {
			select {
			case <-ticker.C:
				item.NSQMessage.Touch()
			case <-stopChannel:
				ticker.Stop()
				return
			}
		}
	}()
	item.nsqStartCalled = true
	item.nsqStopChannel = stopChannel
}

// NSQRequeue requeues the message with the specified duration
// and stops sending touches.
func (item *Task) NSQRequeue(delay time.Duration) {
	item.stopTicker()
	item.NSQMessage.Requeue(delay)
}

// NSQFinish finishes the message and stops sending touches.
func (item *Task) NSQFinish() {
	item.stopTicker()
	item.NSQMessage.Finish()
}

func (item *Task) stopTicker() {
	if item.nsqStopChannel != nil && !item.tickerStopped {
		item.nsqStopChannel <- true
		item.tickerStopped = true
	}
}

// StartCalled returns true if NSQStart() has been called on this object.
// This method exist for testing purposes.
func (item *Task) StartCalled() bool {
	return item.nsqStartCalled
}

// TickerStopped returns true if either NSQFinish() or NSQRequeue()
// has been called. This method exist for testing purposes.
func (item *Task) TickerStopped() bool {
	return item.tickerStopped
}
