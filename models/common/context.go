package common

import (
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/op/go-logging"
	"github.com/reelvault/asset-services/constants"
	"github.com/reelvault/asset-services/media"
	"github.com/reelvault/asset-services/network"
	"github.com/reelvault/asset-services/store"
	"github.com/reelvault/asset-services/util/logger"
)

// Context bundles the config, logger and clients that the lifecycle
// manager, the HTTP API and the workers share.
//
// FormatIdentifier, NSQClient and S3Client are nil when the config
// does not set them up.
type Context struct {
	Config           *Config
	Logger           *logging.Logger
	FormatIdentifier media.FormatIdentifier
	NSQClient        *network.NSQClient
	S3Client         *minio.Client
	Store            store.AssetStore
	Transcoder       media.Transcoder
}

// NewContext builds a Context from the environment. See NewConfig.
// It panics if any client cannot be created.
func NewContext() *Context {
	config := NewConfig()
	context, err := NewContextFromConfig(config)
	if err != nil {
		panic(err)
	}
	return context
}

func NewContextFromConfig(config *Config) (*Context, error) {
	_logger, _ := logger.InitLogger(config.LogDir, config.LogLevel)
	assetStore, err := getStore(config)
	if err != nil {
		return nil, fmt.Errorf("Could not initialize asset store: %w", err)
	}
	identifier, err := getFormatIdentifier(config)
	if err != nil {
		return nil, err
	}
	s3Client, err := getS3Client(config)
	if err != nil {
		return nil, fmt.Errorf("Could not initialize S3 client: %w", err)
	}
	context := &Context{
		Config:     config,
		Logger:     _logger,
		S3Client:   s3Client,
		Store:      assetStore,
		Transcoder: media.NewFFmpegTranscoder(config.StorageRoot, config.FFmpegBin, config.FFprobeBin, _logger),
	}
	// Leave interface fields nil rather than holding typed nils.
	if identifier != nil {
		context.FormatIdentifier = identifier
	}
	if config.NsqURL != "" {
		context.NSQClient = network.NewNSQClient(config.NsqURL)
	}
	return context, nil
}

func getStore(config *Config) (store.AssetStore, error) {
	var assetStore store.AssetStore
	switch config.StoreBackend {
	case constants.BackendRedis:
		assetStore = store.NewRedisStore(config.RedisURL, config.RedisPassword, config.RedisDefaultDB)
	case constants.BackendSQLite:
		sqliteStore, err := store.NewSQLiteStore(config.SQLitePath)
		if err != nil {
			return nil, err
		}
		assetStore = sqliteStore
	default:
		return nil, fmt.Errorf("unknown store backend '%s'", config.StoreBackend)
	}
	if config.AssetCacheSize > 0 {
		return store.NewCachedStore(assetStore, config.AssetCacheSize)
	}
	return assetStore, nil
}

func getFormatIdentifier(config *Config) (*media.SiegfriedIdentifier, error) {
	if config.SiegfriedSignature == "" {
		return nil, nil
	}
	return media.NewSiegfriedIdentifier(config.SiegfriedSignature)
}

func getS3Client(config *Config) (*minio.Client, error) {
	if config.S3Host == "" {
		return nil, nil
	}
	return minio.New(
		config.S3Host,
		&minio.Options{
			Creds:  credentials.NewStaticV4(config.S3Key, config.S3Secret, ""),
			Secure: config.S3UseSSL,
		})
}

// Close releases the store.
func (context *Context) Close() error {
	if context.Store != nil {
		return context.Store.Close()
	}
	return nil
}
