package lifecycle_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/op/go-logging"
	"github.com/reelvault/asset-services/constants"
	"github.com/reelvault/asset-services/lifecycle"
	"github.com/reelvault/asset-services/models/common"
	"github.com/reelvault/asset-services/util/logger"
	"github.com/reelvault/asset-services/util/testutil"
)

var testNow = time.Date(2024, time.June, 16, 10, 24, 16, 0, time.UTC)

// harness wires a Manager and ShareIssuer to an in-memory store and
// a mock transcoder that writes into a temp dir.
type harness struct {
	context    *common.Context
	manager    *lifecycle.Manager
	issuer     *lifecycle.ShareIssuer
	store      *testutil.MemoryStore
	transcoder *testutil.MockTranscoder
	notifier   *recordingNotifier
	logs       *bytes.Buffer
	now        time.Time
}

type recordingNotifier struct {
	topics []string
	ids    []int64
	err    error
}

func (n *recordingNotifier) Enqueue(topic string, assetID int64) error {
	if n.err != nil {
		return n.err
	}
	n.topics = append(n.topics, topic)
	n.ids = append(n.ids, assetID)
	return nil
}

func newHarness(t *testing.T) *harness {
	logs := &bytes.Buffer{}
	config := &common.Config{
		DefaultShareExpiryHours: constants.DefaultShareExpiryHours,
		MaxDurationSeconds:      constants.DefaultMaxDurationSeconds,
		MaxSizeBytes:            constants.DefaultMaxSizeBytes,
		MinDurationSeconds:      constants.DefaultMinDurationSeconds,
		MinSizeBytes:            constants.DefaultMinSizeBytes,
		ReplicationTopic:        constants.ReplicationTopic,
		ShareBaseURL:            "http://localhost:8080",
		StoreTimeout:            time.Second,
		TranscodeTimeout:        time.Second,
	}
	h := &harness{
		store:      testutil.NewMemoryStore(),
		transcoder: testutil.NewMockTranscoder(t.TempDir()),
		notifier:   &recordingNotifier{},
		logs:       logs,
		now:        testNow,
	}
	h.context = &common.Context{
		Config:     config,
		Logger:     logger.NewLogger("lifecycle-test", logs, logging.DEBUG),
		Store:      h.store,
		Transcoder: h.transcoder,
	}
	h.manager = lifecycle.NewManager(h.context)
	h.manager.Notifier = h.notifier
	h.manager.Now = func() time.Time { return h.now }
	h.issuer = lifecycle.NewShareIssuer(h.manager)
	h.issuer.Now = func() time.Time { return h.now }
	return h
}

// video returns n bytes of fake video.
func video(n int) *bytes.Reader {
	return bytes.NewReader(bytes.Repeat([]byte{0x42}, n))
}
