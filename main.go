package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/schambon/mongo-dumper/config"
	"github.com/schambon/mongo-dumper/copier"
	"github.com/schambon/mongo-dumper/errors"
	"github.com/schambon/mongo-dumper/log"
	"github.com/schambon/mongo-dumper/metrics"
	"github.com/schambon/mongo-dumper/topo"
)

// contextKey is a type for context keys used in this package.
type contextKey string

// configContextKey is the context key for storing *config.Config.
const configContextKey contextKey = "config"

var (
	Version   = "v0.1.0" //nolint:gochecknoglobals
	Platform  = ""       //nolint:gochecknoglobals
	GitCommit = ""       //nolint:gochecknoglobals
	GitBranch = ""       //nolint:gochecknoglobals
	BuildTime = ""       //nolint:gochecknoglobals
)

//nolint:gochecknoglobals
var rootCmd = &cobra.Command{
	Use:   "mongo-dumper",
	Short: "Copy a MongoDB collection to a BSON file or to another collection",

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cmd)
		if err != nil {
			return errors.Wrap(err, "load config")
		}

		logLevel, err := zerolog.ParseLevel(cfg.Log.Level)
		if err != nil {
			return &config.UsageError{Reason: "invalid --log-level", Err: err}
		}

		lg := log.InitGlobals(logLevel, cfg.Log.JSON, cfg.Log.NoColor)
		ctx := lg.WithContext(cmd.Context())
		ctx = context.WithValue(ctx, configContextKey, cfg)
		cmd.SetContext(ctx)

		return nil
	},

	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := cmd.Context().Value(configContextKey).(*config.Config) //nolint:forcetypeassert

		job, err := config.NewJob(cfg)
		if err != nil {
			return err
		}

		return runJob(cmd.Context(), cfg, job, cmd.OutOrStdout())
	},
}

//nolint:gochecknoglobals
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Load a BSON dump file into a collection",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := cmd.Context().Value(configContextKey).(*config.Config) //nolint:forcetypeassert

		job, err := config.NewRestoreJob(cfg)
		if err != nil {
			return err
		}

		return runJob(cmd.Context(), cfg, job, cmd.OutOrStdout())
	},
}

//nolint:gochecknoglobals
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Count and validate the documents of a BSON dump file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := cmd.Context().Value(configContextKey).(*config.Config) //nolint:forcetypeassert

		if cfg.File == "" {
			return &config.UsageError{Reason: "required flag --file not set"}
		}

		return runInspect(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

//nolint:gochecknoglobals
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		info := fmt.Sprintf("Version:   %s\nPlatform:  %s\nGitCommit: "+
			"%s\nGitBranch: %s\nBuildTime: %s\nGoVersion: %s",
			Version,
			Platform,
			GitCommit,
			GitBranch,
			BuildTime,
			runtime.Version(),
		)

		cmd.Println(info)
	},
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output log in JSON format")
	rootCmd.PersistentFlags().Bool("log-no-color", false, "Disable log color")

	rootCmd.PersistentFlags().String("mongodb-operation-timeout", config.DefaultMongoDBOperationTimeout.String(),
		"Timeout for connecting to MongoDB (e.g., 30s, 5m)")
	rootCmd.PersistentFlags().StringSlice("mongodb-compressors", nil,
		"Wire compressors to offer (zstd, zlib, snappy)")

	rootCmd.PersistentFlags().Int("batch-size", config.DefaultBatchSize,
		"Documents written between two flushes (one progress dot per batch)")
	rootCmd.PersistentFlags().String("file-buffer-size", config.DefaultFileBufferSize,
		"Buffer size for dump files (e.g., 4MiB)")
	rootCmd.PersistentFlags().String("metrics-file", "",
		"Write Prometheus metrics to this file after the run")

	rootCmd.Flags().String("uri", "", "MongoDB connection string for the source")
	rootCmd.Flags().StringP("database", "d", "", "Source database")
	rootCmd.Flags().StringP("collection", "c", "", "Source collection")
	rootCmd.Flags().StringP("out", "o", "", "Write documents to this BSON file")
	rootCmd.Flags().String("to-uri", "", "MongoDB connection string for the destination")
	rootCmd.Flags().String("to-db", "", "Destination database (default: source database)")
	rootCmd.Flags().String("to-coll", "", "Destination collection (default: source collection)")
	rootCmd.Flags().Bool("clear", false, "Drop the destination collection before copying")
	rootCmd.Flags().Int32("cursor-batch-size", 0, "Documents per cursor batch (0 = server default)")

	restoreCmd.Flags().String("file", "", "BSON dump file to load")
	restoreCmd.Flags().String("to-uri", "", "MongoDB connection string for the destination")
	restoreCmd.Flags().String("to-db", "", "Destination database")
	restoreCmd.Flags().String("to-coll", "", "Destination collection")
	restoreCmd.Flags().Bool("clear", false, "Drop the destination collection before loading")

	inspectCmd.Flags().String("file", "", "BSON dump file to inspect")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &config.UsageError{Err: err}
	})

	rootCmd.AddCommand(
		versionCmd,
		restoreCmd,
		inspectCmd,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	cmd, err := rootCmd.ExecuteContextC(ctx)

	stop()

	if err != nil {
		var usageErr *config.UsageError
		if errors.As(err, &usageErr) {
			fmt.Fprintln(os.Stderr, "Error: "+err.Error())
			fmt.Fprint(os.Stderr, cmd.UsageString())
			os.Exit(1)
		}

		log.New("cli").Error(err, "Failed")
		os.Exit(1)
	}
}

// runJob copies the documents described by job and prints the progress dots and the summary.
func runJob(ctx context.Context, cfg *config.Config, job *config.Job, out io.Writer) error {
	reg := prometheus.NewRegistry()
	metrics.Init(reg)

	startedAt := time.Now()

	stats, err := copyDocuments(ctx, cfg, job, out)
	if stats.Ticks > 0 {
		fmt.Fprintln(out)
	}

	metrics.SetCopyResult(err == nil, time.Since(startedAt))

	if job.MetricsFile() != "" {
		merr := metrics.WriteTextfile(job.MetricsFile(), reg)
		if merr != nil {
			log.Ctx(ctx).Error(merr, "Write metrics")
		}
	}

	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Copied %d documents\n", stats.Count)

	return nil
}

func copyDocuments(
	ctx context.Context,
	cfg *config.Config,
	job *config.Job,
	out io.Writer,
) (copier.Stats, error) {
	var source, target *mongo.Client

	defer func() {
		err := topo.Disconnect(context.Background(), config.DisconnectTimeout, source, target)
		if err != nil {
			log.Ctx(ctx).Warn("Disconnect: " + err.Error())
		}
	}()

	var src copier.Source

	if job.InputFile() != "" {
		fileSrc, err := copier.OpenFileSource(job.InputFile(), job.FileBufferSize())
		if err != nil {
			return copier.Stats{}, errors.Wrap(err, "open input file")
		}

		src = fileSrc
	} else {
		var err error

		source, err = topo.Connect(ctx, job.SourceURI(), cfg)
		if err != nil {
			return copier.Stats{}, errors.Wrap(err, "connect to source")
		}

		logSourceInfo(ctx, source, job.Source())

		src, err = copier.OpenCollectionSource(ctx, source,
			job.Source().Database, job.Source().Collection,
			copier.SourceOptions{CursorBatchSize: job.CursorBatchSize()})
		if err != nil {
			return copier.Stats{}, errors.Wrap(err, "open source")
		}
	}

	defer func() {
		err := src.Close(context.Background())
		if err != nil {
			log.Ctx(ctx).Warn("Close source: " + err.Error())
		}
	}()

	var dst copier.Sink

	switch job.Destination() {
	case config.DestinationFile:
		sink, err := copier.NewFileSink(job.OutFile(), job.FileBufferSize())
		if err != nil {
			return copier.Stats{}, errors.Wrap(err, "open output file")
		}

		dst = sink
	case config.DestinationCollection:
		var err error

		target, err = topo.Connect(ctx, job.TargetURI(), cfg)
		if err != nil {
			return copier.Stats{}, errors.Wrap(err, "connect to destination")
		}

		ns := job.Target()
		coll := copier.NewMongoCollection(target.Database(ns.Database).Collection(ns.Collection))

		lg := log.Ctx(ctx).With(log.NS(ns.Database, ns.Collection))

		sink, err := copier.NewCollectionSink(lg.WithContext(ctx), coll, copier.CollectionSinkOptions{
			Clear:     job.Clear(),
			BatchSize: job.BatchSize(),
		})
		if err != nil {
			return copier.Stats{}, errors.Wrap(err, "open destination")
		}

		dst = sink
	}

	c := copier.New(copier.Options{
		BatchSize:  job.BatchSize(),
		OnProgress: copier.DotProgress(out),
	})

	return c.Run(ctx, src, dst) //nolint:wrapcheck
}

// logSourceInfo logs what is known about the source collection before reading it.
func logSourceInfo(ctx context.Context, m *mongo.Client, ns config.Namespace) {
	lg := log.Ctx(ctx).With(log.NS(ns.Database, ns.Collection))

	exists, err := topo.CollectionExists(ctx, m, ns.Database, ns.Collection)
	if err != nil {
		lg.Debug("Cannot list collections: " + err.Error())

		return
	}

	if !exists {
		lg.Warn("Source collection does not exist")

		return
	}

	count, err := topo.EstimatedDocumentCount(ctx, m, ns.Database, ns.Collection)
	if err != nil {
		lg.Debug("Cannot estimate document count: " + err.Error())

		return
	}

	metrics.SetEstimatedDocumentCount(count)
	lg.With(log.Count(count)).Info("Copying collection")
}

func runInspect(ctx context.Context, cfg *config.Config, out io.Writer) error {
	bufSize, err := config.ParseFileBufferSize(cfg.Copy.FileBufferSize)
	if err != nil {
		return &config.UsageError{Err: err}
	}

	src, err := copier.OpenFileSource(cfg.File, bufSize)
	if err != nil {
		return errors.Wrap(err, "open input file")
	}
	defer src.Close(ctx) //nolint:errcheck

	res, err := copier.Inspect(ctx, src)
	if err != nil {
		return errors.Wrapf(err, "inspect %s", cfg.File)
	}

	fmt.Fprintf(out, "Documents: %d\n", res.Count)
	fmt.Fprintf(out, "Size:      %s\n", humanize.IBytes(res.Bytes))

	if res.Count != 0 {
		fmt.Fprintf(out, "Min:       %s\n", humanize.IBytes(uint64(res.MinSize))) //nolint:gosec
		fmt.Fprintf(out, "Max:       %s\n", humanize.IBytes(uint64(res.MaxSize))) //nolint:gosec
		fmt.Fprintf(out, "Avg:       %s\n", humanize.IBytes(res.Bytes/uint64(res.Count))) //nolint:gosec
	}

	return nil
}
