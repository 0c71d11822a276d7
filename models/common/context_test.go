package common_test

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/op/go-logging"
	"github.com/reelvault/asset-services/constants"
	"github.com/reelvault/asset-services/media"
	"github.com/reelvault/asset-services/models/common"
	"github.com/reelvault/asset-services/store"
	"github.com/reelvault/asset-services/util/logger"
	"github.com/reelvault/asset-services/util/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *common.Config {
	dir := t.TempDir()
	return &common.Config{
		AssetCacheSize:   0,
		FFmpegBin:        "ffmpeg",
		FFprobeBin:       "ffprobe",
		LogLevel:         logging.DEBUG,
		SQLitePath:       filepath.Join(dir, "assets.db"),
		StorageRoot:      dir,
		StoreBackend:     constants.BackendSQLite,
		StoreTimeout:     time.Second,
		TranscodeTimeout: time.Second,
	}
}

func TestNewContextFromConfig(t *testing.T) {
	context, err := common.NewContextFromConfig(testConfig(t))
	require.Nil(t, err)
	defer context.Close()

	assert.NotNil(t, context.Logger)
	assert.IsType(t, &store.SQLiteStore{}, context.Store)
	assert.IsType(t, &media.FFmpegTranscoder{}, context.Transcoder)
	assert.Nil(t, context.FormatIdentifier)
	assert.Nil(t, context.NSQClient)
	assert.Nil(t, context.S3Client)
}

func TestNewContextWithCacheAndClients(t *testing.T) {
	redisServer := testutil.NewRedisServer()
	defer redisServer.Close()
	s3Server := testutil.NewS3Server()
	defer s3Server.Close()

	config := testConfig(t)
	config.StoreBackend = constants.BackendRedis
	config.RedisURL = redisServer.Addr()
	config.AssetCacheSize = 16
	config.NsqURL = "http://localhost:4151"
	config.S3Host = s3Server.Host()
	config.S3Key = "key"
	config.S3Secret = "secret"

	context, err := common.NewContextFromConfig(config)
	require.Nil(t, err)
	defer context.Close()
	assert.IsType(t, &store.CachedStore{}, context.Store)
	require.NotNil(t, context.NSQClient)
	assert.Equal(t, "http://localhost:4151", context.NSQClient.URL)
	assert.NotNil(t, context.S3Client)
}

func TestNewContextBadSignature(t *testing.T) {
	config := testConfig(t)
	config.SiegfriedSignature = filepath.Join(t.TempDir(), "missing.sig")
	_, err := common.NewContextFromConfig(config)
	assert.NotNil(t, err)
}

func TestTracer(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.NewLogger("tracer-test", buf, logging.DEBUG)
	tracer := common.NewTracer(log)
	n, err := tracer.Write([]byte("GET /asset-replicas HTTP/1.1\n"))
	require.Nil(t, err)
	assert.Equal(t, 29, n)
	assert.Contains(t, buf.String(), "[DEBUG] GET /asset-replicas HTTP/1.1")
}
