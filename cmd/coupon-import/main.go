// Command coupon-import bulk loads coupon definitions from gzip-compressed
// NDJSON files into PostgreSQL.
//
// Every non-blank line of a *.ndjson.gz file holds one coupon in the same
// shape the API accepts on POST /coupons. Invalid lines are reported and
// skipped. Coupons are de-duplicated by name across all files and against
// coupons already stored; the first occurrence wins.
package main

import (
	"context"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"
)

type config struct {
	DataDir     string `default:"data" usage:"directory containing *.ndjson.gz coupon files" flag:"data-dir"`
	DatabaseURL string `usage:"PostgreSQL connection URL (COUPON_DATABASE_URL)" flag:"database-url"`
	DryRun      bool   `default:"false" usage:"parse and de-duplicate without writing" flag:"dry-run"`
}

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		var cfg config
		if err := aconfig.LoaderFor(&cfg, aconfig.Config{
			EnvPrefix: "COUPON",
			SkipFiles: true,
		}).Load(); err != nil {
			return errors.Wrap(err, "load config")
		}
		if cfg.DatabaseURL == "" {
			return errors.New("database URL is required: set --database-url or COUPON_DATABASE_URL")
		}
		return run(ctx, lg, cfg)
	})
}
