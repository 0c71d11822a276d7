package constants

import "time"

const (
	BackendRedis            = "redis"
	BackendSQLite           = "sqlite"
	DefaultExtension        = ".mp4"
	DefaultShareExpiryHours = 24
	MaxExtensionLength      = 8
	OpGet                   = "get"
	OpGrant                 = "grant"
	OpMerge                 = "merge"
	OpRedeem                = "redeem"
	OpTrim                  = "trim"
	OpUpload                = "upload"
	OutcomeNotFound         = "not_found"
	OutcomeProcessing       = "processing_error"
	OutcomeSuccess          = "success"
	OutcomeValidation       = "validation_error"
	RedisAssetHash          = "assets"
	RedisAssetSeq           = "assets:next_id"
	RedisGrantHash          = "share_grants"
	RedisGrantSeq           = "share_grants:next_id"
	ReplicationChannel      = "asset_replication_worker"
	ReplicationTopic        = "asset_replication_topic"
	SharePathPrefix         = "/video/share/"
	TokenSaltBytes          = 16
)

// Default validation bounds. These match the limits the service shipped
// with before bounds became configurable.
const (
	DefaultMinSizeBytes       int64   = 5 * 1024
	DefaultMaxSizeBytes       int64   = 25 * 1024 * 1024
	DefaultMinDurationSeconds float64 = 5
	DefaultMaxDurationSeconds float64 = 25
)

var (
	DefaultStoreTimeout     = 10 * time.Second
	DefaultTranscodeTimeout = 5 * time.Minute
)

// Operations lists every operation exposed by the lifecycle manager.
var Operations = []string{
	OpUpload,
	OpGet,
	OpTrim,
	OpMerge,
	OpGrant,
	OpRedeem,
}

var StoreBackends = []string{
	BackendRedis,
	BackendSQLite,
}
