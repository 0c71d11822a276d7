package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/op/go-logging"
	"github.com/reelvault/asset-services/constants"
	"github.com/reelvault/asset-services/util"
	"github.com/reelvault/asset-services/util/logger"
	"github.com/spf13/viper"
)

type Config struct {
	APIToken                string
	AssetCacheSize          int
	ConfigName              string
	DefaultShareExpiryHours int
	FFmpegBin               string
	FFprobeBin              string
	HTTPPort                int
	LogDir                  string
	LogLevel                logging.Level
	MaxDurationSeconds      float64
	MaxSizeBytes            int64
	MinDurationSeconds      float64
	MinSizeBytes            int64
	NsqLookupd              string
	NsqURL                  string
	PidFile                 string
	RedisDefaultDB          int
	RedisPassword           string
	RedisURL                string
	ReplicationBucket       string
	ReplicationChannel      string
	ReplicationTopic        string
	S3Host                  string
	S3Key                   string
	S3Secret                string
	S3UseSSL                bool
	ShareBaseURL            string
	SiegfriedSignature      string
	SQLitePath              string
	StorageRoot             string
	StoreBackend            string
	StoreTimeout            time.Duration
	TranscodeTimeout        time.Duration
}

// NewConfig returns a config built from the .env file named by
// ASSET_ENV in the directory ASSET_CONFIG_DIR. It panics if the
// config cannot be loaded or is invalid.
func NewConfig() *Config {
	configDir, envName := getEnvVars()
	config, err := LoadConfig(configDir, envName)
	if err != nil {
		panic(fmt.Errorf("Fatal error config file: %s \n", err))
	}
	return config
}

// LoadConfig loads .env.<envName> from configDir, expands paths,
// validates the settings and creates the storage and log directories.
func LoadConfig(configDir, envName string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(configDir)
	v.SetConfigName(".env." + envName)
	v.SetConfigType("env")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	logLevel, err := logger.ParseLevel(v.GetString("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}
	config := &Config{
		APIToken:                v.GetString("API_TOKEN"),
		AssetCacheSize:          v.GetInt("ASSET_CACHE_SIZE"),
		ConfigName:              envName,
		DefaultShareExpiryHours: v.GetInt("DEFAULT_SHARE_EXPIRY_HOURS"),
		FFmpegBin:               v.GetString("FFMPEG_BIN"),
		FFprobeBin:              v.GetString("FFPROBE_BIN"),
		HTTPPort:                v.GetInt("HTTP_PORT"),
		LogDir:                  v.GetString("LOG_DIR"),
		LogLevel:                logLevel,
		MaxDurationSeconds:      v.GetFloat64("MAX_DURATION_SECONDS"),
		MaxSizeBytes:            v.GetInt64("MAX_SIZE_BYTES"),
		MinDurationSeconds:      v.GetFloat64("MIN_DURATION_SECONDS"),
		MinSizeBytes:            v.GetInt64("MIN_SIZE_BYTES"),
		NsqLookupd:              v.GetString("NSQ_LOOKUPD"),
		NsqURL:                  v.GetString("NSQ_URL"),
		PidFile:                 v.GetString("PID_FILE"),
		RedisDefaultDB:          v.GetInt("REDIS_DEFAULT_DB"),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RedisURL:                v.GetString("REDIS_URL"),
		ReplicationBucket:       v.GetString("REPLICATION_BUCKET"),
		ReplicationChannel:      v.GetString("REPLICATION_CHANNEL"),
		ReplicationTopic:        v.GetString("REPLICATION_TOPIC"),
		S3Host:                  v.GetString("S3_HOST"),
		S3Key:                   v.GetString("S3_KEY"),
		S3Secret:                v.GetString("S3_SECRET"),
		S3UseSSL:                v.GetBool("S3_USE_SSL"),
		ShareBaseURL:            strings.TrimRight(v.GetString("SHARE_BASE_URL"), "/"),
		SiegfriedSignature:      v.GetString("SIEGFRIED_SIGNATURE"),
		SQLitePath:              v.GetString("SQLITE_PATH"),
		StorageRoot:             v.GetString("STORAGE_ROOT"),
		StoreBackend:            strings.ToLower(v.GetString("STORE_BACKEND")),
		StoreTimeout:            v.GetDuration("STORE_TIMEOUT"),
		TranscodeTimeout:        v.GetDuration("TRANSCODE_TIMEOUT"),
	}
	if err := config.expandPaths(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := config.makeDirs(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_TOKEN", "")
	v.SetDefault("ASSET_CACHE_SIZE", 256)
	v.SetDefault("DEFAULT_SHARE_EXPIRY_HOURS", constants.DefaultShareExpiryHours)
	v.SetDefault("FFMPEG_BIN", "ffmpeg")
	v.SetDefault("FFPROBE_BIN", "ffprobe")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("LOG_DIR", "~/asset-services/logs")
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("MAX_DURATION_SECONDS", constants.DefaultMaxDurationSeconds)
	v.SetDefault("MAX_SIZE_BYTES", constants.DefaultMaxSizeBytes)
	v.SetDefault("MIN_DURATION_SECONDS", constants.DefaultMinDurationSeconds)
	v.SetDefault("MIN_SIZE_BYTES", constants.DefaultMinSizeBytes)
	v.SetDefault("NSQ_LOOKUPD", "")
	v.SetDefault("NSQ_URL", "")
	v.SetDefault("PID_FILE", "")
	v.SetDefault("REDIS_DEFAULT_DB", 0)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("REPLICATION_BUCKET", "")
	v.SetDefault("REPLICATION_CHANNEL", constants.ReplicationChannel)
	v.SetDefault("REPLICATION_TOPIC", constants.ReplicationTopic)
	v.SetDefault("S3_HOST", "")
	v.SetDefault("S3_KEY", "")
	v.SetDefault("S3_SECRET", "")
	v.SetDefault("S3_USE_SSL", true)
	v.SetDefault("SHARE_BASE_URL", "http://localhost:8080")
	v.SetDefault("SIEGFRIED_SIGNATURE", "")
	v.SetDefault("SQLITE_PATH", "~/asset-services/assets.db")
	v.SetDefault("STORAGE_ROOT", "~/asset-services/uploads")
	v.SetDefault("STORE_BACKEND", constants.BackendSQLite)
	v.SetDefault("STORE_TIMEOUT", constants.DefaultStoreTimeout)
	v.SetDefault("TRANSCODE_TIMEOUT", constants.DefaultTranscodeTimeout)
}

func getEnvVars() (string, string) {
	configDir := getRequiredEnvVar("ASSET_CONFIG_DIR")
	envName := getRequiredEnvVar("ASSET_ENV")
	return configDir, envName
}

func getRequiredEnvVar(varName string) string {
	value := os.Getenv(varName)
	if value == "" {
		panic(fmt.Sprintf("Required env var %s not set", varName))
	}
	return value
}

// DefaultShareExpiry returns DefaultShareExpiryHours as a duration.
func (c *Config) DefaultShareExpiry() time.Duration {
	return time.Duration(c.DefaultShareExpiryHours) * time.Hour
}

// Validate returns an error describing the first bad setting.
func (c *Config) Validate() error {
	if c.MinSizeBytes <= 0 || c.MaxSizeBytes <= 0 {
		return fmt.Errorf("MIN_SIZE_BYTES and MAX_SIZE_BYTES must be positive")
	}
	if c.MinSizeBytes > c.MaxSizeBytes {
		return fmt.Errorf("MIN_SIZE_BYTES (%d) exceeds MAX_SIZE_BYTES (%d)", c.MinSizeBytes, c.MaxSizeBytes)
	}
	if c.MinDurationSeconds <= 0 || c.MaxDurationSeconds <= 0 {
		return fmt.Errorf("MIN_DURATION_SECONDS and MAX_DURATION_SECONDS must be positive")
	}
	if c.MinDurationSeconds > c.MaxDurationSeconds {
		return fmt.Errorf("MIN_DURATION_SECONDS (%.2f) exceeds MAX_DURATION_SECONDS (%.2f)",
			c.MinDurationSeconds, c.MaxDurationSeconds)
	}
	if c.DefaultShareExpiryHours < 0 {
		return fmt.Errorf("DEFAULT_SHARE_EXPIRY_HOURS cannot be negative")
	}
	if !util.StringListContains(constants.StoreBackends, c.StoreBackend) {
		return fmt.Errorf("STORE_BACKEND must be one of %v, not '%s'", constants.StoreBackends, c.StoreBackend)
	}
	if c.StorageRoot == "" {
		return fmt.Errorf("STORAGE_ROOT is required")
	}
	if c.StoreTimeout <= 0 || c.TranscodeTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT and TRANSCODE_TIMEOUT must be positive")
	}
	if c.AssetCacheSize < 0 {
		return fmt.Errorf("ASSET_CACHE_SIZE cannot be negative")
	}
	return nil
}

// Expand ~ to home dir in path settings.
func (c *Config) expandPaths() error {
	var err error
	paths := []*string{&c.LogDir, &c.PidFile, &c.SiegfriedSignature, &c.SQLitePath, &c.StorageRoot}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		if *p, err = util.ExpandTilde(*p); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) makeDirs() error {
	dirs := []string{c.StorageRoot}
	if c.LogDir != "" {
		dirs = append(dirs, c.LogDir)
	}
	if c.StoreBackend == constants.BackendSQLite && c.SQLitePath != "" {
		dirs = append(dirs, filepath.Dir(c.SQLitePath))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
