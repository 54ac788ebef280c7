// Package topo connects to MongoDB deployments and answers simple catalog questions about them.
package topo

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/x/mongo/driver/connstring"
	"golang.org/x/sync/errgroup"

	"github.com/schambon/mongo-dumper/config"
	"github.com/schambon/mongo-dumper/errors"
	"github.com/schambon/mongo-dumper/log"
	"github.com/schambon/mongo-dumper/util"
)

// Connect creates a client for uri and pings the deployment. The ping is bounded by the configured
// operation timeout. On failure no client is returned.
func Connect(ctx context.Context, uri string, cfg *config.Config) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("invalid MongoDB URI")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetAppName(config.AppName).
		SetReadPreference(readpref.Primary())

	if len(cfg.MongoDB.Compressors) != 0 {
		opts.SetCompressors(cfg.MongoDB.Compressors)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}

	timeout := cfg.MongoDB.OperationTimeout
	if timeout <= 0 {
		timeout = config.DefaultMongoDBOperationTimeout
	}

	err = util.CtxWithTimeout(ctx, timeout, func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	})
	if err != nil {
		derr := util.CtxWithTimeout(context.Background(), config.DisconnectTimeout, client.Disconnect)
		if derr != nil {
			log.Ctx(ctx).Warn("Disconnect: " + derr.Error())
		}

		return nil, errors.Wrap(err, "ping")
	}

	log.Ctx(ctx).Debugf("Connected to %s", describeURI(uri))

	return client, nil
}

// Disconnect closes all clients in parallel, each bounded by timeout. Nil clients are skipped.
func Disconnect(ctx context.Context, timeout time.Duration, clients ...*mongo.Client) error {
	grp, grpCtx := errgroup.WithContext(ctx)

	for _, client := range clients {
		if client == nil {
			continue
		}

		grp.Go(func() error {
			return errors.Wrap(util.CtxWithTimeout(grpCtx, timeout, client.Disconnect), "disconnect")
		})
	}

	return grp.Wait() //nolint:wrapcheck
}

// describeURI returns the scheme and hosts of uri without credentials or options.
func describeURI(uri string) string {
	cs, err := connstring.Parse(uri)
	if err != nil {
		return "<invalid uri>"
	}

	return cs.Scheme + "://" + strings.Join(cs.Hosts, ",")
}
