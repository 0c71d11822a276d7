package workers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/minio/minio-go/v7"
	"github.com/nsqio/go-nsq"
	"github.com/reelvault/asset-services/models/asset"
	"github.com/reelvault/asset-services/models/common"
)

// AssetUploader copies an asset's media somewhere safe.
// replication.Uploader satisfies it.
type AssetUploader interface {
	Upload(ctx context.Context, a *asset.Asset) (minio.UploadInfo, error)
}

// Replicator reads asset ids from NSQ and copies each asset's media
// to the replication bucket.
type Replicator struct {
	// Context contains the config, logger and asset store.
	Context *common.Context

	// Settings describes the queue and how hard to try.
	Settings *Settings

	// Uploader does the copying.
	Uploader AssetUploader

	// ProcessChannel is where the uploads happen.
	ProcessChannel chan *Task

	// SuccessChannel finishes tasks that uploaded.
	SuccessChannel chan *Task

	// ErrorChannel requeues tasks with transient errors, such as
	// S3 or store timeouts, until they hit Settings.MaxAttempts.
	ErrorChannel chan *Task

	// FatalErrorChannel finishes tasks that can never succeed,
	// such as those whose asset does not exist.
	FatalErrorChannel chan *Task

	// KillChannel handles SIGTERM and SIGINT.
	KillChannel chan os.Signal

	// NSQConsumer implements HandleMessage to receive messages from NSQ.
	NSQConsumer *nsq.Consumer

	stopChannel chan struct{}
	stopOnce    sync.Once
	workers     sync.WaitGroup

	// itemsInProcess keeps track of asset ids the worker is currently
	// processing, because NSQ does not dedupe messages.
	itemsInProcess map[int64]bool
	mutex          sync.Mutex
}

func NewReplicator(context *common.Context, settings *Settings, uploader AssetUploader) *Replicator {
	bufSize := settings.ChannelBufferSize
	return &Replicator{
		Context:           context,
		Settings:          settings,
		Uploader:          uploader,
		ProcessChannel:    make(chan *Task, bufSize),
		SuccessChannel:    make(chan *Task, bufSize),
		ErrorChannel:      make(chan *Task, bufSize),
		FatalErrorChannel: make(chan *Task, bufSize),
		KillChannel:       make(chan os.Signal, 1),
		stopChannel:       make(chan struct{}),
		itemsInProcess:    make(map[int64]bool),
	}
}

// Start launches the processing go routines. Call this before
// RegisterAsNsqConsumer.
func (r *Replicator) Start() {
	r.workers.Add(r.Settings.NumberOfWorkers)
	for i := 0; i < r.Settings.NumberOfWorkers; i++ {
		go func() {
			defer r.workers.Done()
			r.ProcessItems()
		}()
	}
	go r.watchKillChannel()
	go r.ProcessSuccessChannel()
	go r.ProcessErrorChannel()
	go r.ProcessFatalErrorChannel()
}

// RegisterAsNsqConsumer registers this worker as an NSQ consumer on
// Settings.NSQTopic and Settings.NSQChannel. Note that as soon as you
// call this, your worker will start handling messages if any are
// available.
func (r *Replicator) RegisterAsNsqConsumer() error {
	config := nsq.NewConfig()
	config.Set("heartbeat_interval", "10s")
	config.Set("max_in_flight", r.Settings.ChannelBufferSize)
	config.Set("max_attempts", r.Settings.MaxAttempts)
	consumer, err := nsq.NewConsumer(r.Settings.NSQTopic, r.Settings.NSQChannel, config)
	if err != nil {
		return err
	}
	r.NSQConsumer = consumer
	r.NSQConsumer.AddHandler(r)
	if err := r.NSQConsumer.ConnectToNSQLookupd(r.Context.Config.NsqLookupd); err != nil {
		return err
	}
	r.Context.Logger.Infof("Registered as NSQ consumer on %s/%s", r.Settings.NSQTopic, r.Settings.NSQChannel)
	return nil
}

// HandleMessage parses the asset id in the message and queues a task
// for it. Messages that cannot be parsed are finished without retry.
func (r *Replicator) HandleMessage(message *nsq.Message) error {
	body := strings.TrimSpace(string(message.Body))
	assetID, err := strconv.ParseInt(body, 10, 64)
	if err != nil || assetID <= 0 {
		r.Context.Logger.Errorf("Ignoring NSQ message with bad asset id '%s'", body)
		return nil
	}
	if r.stopped() {
		message.DisableAutoResponse()
		message.Requeue(r.Settings.RequeueTimeout)
		return nil
	}
	if !r.addToInProcessList(assetID) {
		r.Context.Logger.Infof("Skipping asset %d: already in process", assetID)
		return nil
	}
	task := &Task{AssetID: assetID, NSQMessage: message}
	task.NSQStart()
	select {
	case r.ProcessChannel <- task:
	case <-r.stopChannel:
		r.removeFromInProcessList(assetID)
		task.NSQRequeue(r.Settings.RequeueTimeout)
	}

	// Return nil (no error) so NSQ knows we're working on this.
	return nil
}

// ProcessItems runs tasks from ProcessChannel until it is closed
// or the replicator stops.
func (r *Replicator) ProcessItems() {
	for {
		select {
		case task, ok := <-r.ProcessChannel:
			if !ok {
				return
			}
			r.processItem(task)
		case <-r.stopChannel:
			return
		}
	}
}

func (r *Replicator) watchKillChannel() {
	select {
	case sig := <-r.KillChannel:
		r.Context.Logger.Infof("Received signal %s, stopping", sig)
		r.Stop()
	case <-r.stopChannel:
	}
}

// Stop stops the NSQ consumer and every ProcessItems go routine.
// Messages that arrive afterward are requeued. It is safe to call
// more than once.
func (r *Replicator) Stop() {
	r.stopOnce.Do(func() {
		if r.NSQConsumer != nil {
			r.NSQConsumer.Stop()
		}
		close(r.stopChannel)
	})
}

func (r *Replicator) stopped() bool {
	select {
	case <-r.stopChannel:
		return true
	default:
		return false
	}
}

// WaitForWorkers blocks until every ProcessItems go routine
// started by Start has returned.
func (r *Replicator) WaitForWorkers() {
	r.workers.Wait()
}

func (r *Replicator) processItem(task *Task) {
	config := r.Context.Config
	sctx, cancel := context.WithTimeout(context.Background(), config.StoreTimeout)
	a, err := r.Context.Store.AssetByID(sctx, task.AssetID)
	cancel()
	if err != nil {
		task.Err = fmt.Errorf("load asset %d: %w", task.AssetID, err)
		r.ErrorChannel <- task
		return
	}
	if a == nil {
		task.Err = fmt.Errorf("asset %d does not exist", task.AssetID)
		r.FatalErrorChannel <- task
		return
	}
	task.Asset = a

	uctx, cancel := context.WithTimeout(context.Background(), config.TranscodeTimeout)
	_, err = r.Uploader.Upload(uctx, a)
	cancel()
	if err != nil {
		task.Err = err
		r.ErrorChannel <- task
		return
	}
	r.SuccessChannel <- task
}

func (r *Replicator) ProcessSuccessChannel() {
	for task := range r.SuccessChannel {
		r.Context.Logger.Infof("Replicated asset %d", task.AssetID)
		r.finish(task)
	}
}

func (r *Replicator) ProcessErrorChannel() {
	for task := range r.ErrorChannel {
		attempts := int(task.NSQMessage.Attempts)
		if attempts >= r.Settings.MaxAttempts {
			r.Context.Logger.Errorf("Giving up on asset %d after %d attempts: %v",
				task.AssetID, attempts, task.Err)
			r.finish(task)
			continue
		}
		r.Context.Logger.Warningf("Requeueing asset %d (attempt %d of %d): %v",
			task.AssetID, attempts, r.Settings.MaxAttempts, task.Err)
		r.removeFromInProcessList(task.AssetID)
		task.NSQRequeue(r.Settings.RequeueTimeout)
	}
}

func (r *Replicator) ProcessFatalErrorChannel() {
	for task := range r.FatalErrorChannel {
		r.Context.Logger.Errorf("Cannot replicate asset %d: %v", task.AssetID, task.Err)
		r.finish(task)
	}
}

// WatchSignals sends SIGINT and SIGTERM to KillChannel.
func (r *Replicator) WatchSignals() {
	signal.Notify(r.KillChannel, syscall.SIGINT, syscall.SIGTERM)
}

func (r *Replicator) finish(task *Task) {
	r.removeFromInProcessList(task.AssetID)
	task.NSQFinish()
}

// addToInProcessList returns false if assetID is already there.
func (r *Replicator) addToInProcessList(assetID int64) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.itemsInProcess[assetID] {
		return false
	}
	r.itemsInProcess[assetID] = true
	return true
}

func (r *Replicator) removeFromInProcessList(assetID int64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.itemsInProcess, assetID)
}

// InProcess returns true if assetID is being worked on.
func (r *Replicator) InProcess(assetID int64) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.itemsInProcess[assetID]
}
