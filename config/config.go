// Package config loads mongo-dumper settings from flags and the environment and turns them into a
// validated, immutable [Job].
package config

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/schambon/mongo-dumper/errors"
)

// Config holds raw settings as read from flags and the environment.
type Config struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`

	Out string `mapstructure:"out"`

	ToURI  string `mapstructure:"to-uri"`
	ToDB   string `mapstructure:"to-db"`
	ToColl string `mapstructure:"to-coll"`
	Clear  bool   `mapstructure:"clear"`

	// File is the dump file read by the restore and inspect commands.
	File string `mapstructure:"file"`

	Log LogConfig `mapstructure:",squash"`

	MongoDB MongoDBConfig `mapstructure:",squash"`

	Copy CopyConfig `mapstructure:",squash"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level   string `mapstructure:"log-level"`
	JSON    bool   `mapstructure:"log-json"`
	NoColor bool   `mapstructure:"log-no-color"`
}

// MongoDBConfig holds MongoDB client configuration.
type MongoDBConfig struct {
	OperationTimeout time.Duration `mapstructure:"mongodb-operation-timeout"`
	Compressors      []string      `mapstructure:"mongodb-compressors"`
}

// CopyConfig holds copy tuning options.
type CopyConfig struct {
	BatchSize int `mapstructure:"batch-size" validate:"gte=1"`
	// FileBufferSize is a byte size string (e.g. "4MiB"). Empty means [DefaultFileBufferSize].
	FileBufferSize string `mapstructure:"file-buffer-size" validate:"bytesize,bytesizemin=4KiB,bytesizemax=1GiB"`
	// CursorBatchSize is the number of documents per getMore. 0 lets the server decide.
	CursorBatchSize int32 `mapstructure:"cursor-batch-size" validate:"gte=0"`
	// MetricsFile receives a Prometheus text exposition after the run.
	MetricsFile string `mapstructure:"metrics-file"`
}

// Load initializes Viper and returns the raw Config.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MONGO_DUMPER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cmd.PersistentFlags() != nil {
		_ = v.BindPFlags(cmd.PersistentFlags())
	}

	if cmd.InheritedFlags() != nil {
		_ = v.BindPFlags(cmd.InheritedFlags())
	}

	if cmd.Flags() != nil {
		_ = v.BindPFlags(cmd.Flags())
	}

	bindEnvVars(v)

	v.SetDefault("batch-size", DefaultBatchSize)
	v.SetDefault("file-buffer-size", DefaultFileBufferSize)
	v.SetDefault("mongodb-operation-timeout", DefaultMongoDBOperationTimeout)
	v.SetDefault("log-level", "info")

	var cfg Config

	err := v.Unmarshal(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	cfg.MongoDB.Compressors = filterCompressors(cfg.MongoDB.Compressors)

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("uri", "MONGO_DUMPER_URI")
	_ = v.BindEnv("to-uri", "MONGO_DUMPER_TO_URI")

	_ = v.BindEnv("log-level", "MONGO_DUMPER_LOG_LEVEL")
	_ = v.BindEnv("log-json", "MONGO_DUMPER_LOG_JSON")
	_ = v.BindEnv("log-no-color", "MONGO_DUMPER_LOG_NO_COLOR", "NO_COLOR")

	_ = v.BindEnv("mongodb-operation-timeout", "MONGO_DUMPER_MONGODB_OPERATION_TIMEOUT")
	_ = v.BindEnv("mongodb-compressors", "MONGO_DUMPER_MONGODB_COMPRESSORS")

	_ = v.BindEnv("batch-size", "MONGO_DUMPER_BATCH_SIZE")
	_ = v.BindEnv("file-buffer-size", "MONGO_DUMPER_FILE_BUFFER_SIZE")
	_ = v.BindEnv("cursor-batch-size", "MONGO_DUMPER_CURSOR_BATCH_SIZE")
	_ = v.BindEnv("metrics-file", "MONGO_DUMPER_METRICS_FILE")
}

//nolint:gochecknoglobals
var allowedCompressors = []string{"zstd", "zlib", "snappy"}

func filterCompressors(compressors []string) []string {
	if len(compressors) == 0 {
		return nil
	}

	filtered := make([]string, 0, len(allowedCompressors))

	for _, c := range compressors {
		c = strings.TrimSpace(c)
		if slices.Contains(allowedCompressors, c) && !slices.Contains(filtered, c) {
			filtered = append(filtered, c)
		}
	}

	return filtered
}

// ParseFileBufferSize parses a byte size string. Empty or "0" means [DefaultFileBufferSize].
func ParseFileBufferSize(value string) (int, error) {
	if value == "" || value == "0" {
		value = DefaultFileBufferSize
	}

	size, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid file buffer size: %s", value)
	}

	return int(min(size, math.MaxInt32)), nil //nolint:gosec
}
