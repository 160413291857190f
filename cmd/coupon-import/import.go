package main

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/0pain01/Monk-coupon/internal/codec"
	"github.com/0pain01/Monk-coupon/internal/domain/coupon"
	"github.com/0pain01/Monk-coupon/internal/repository"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	maxLineBytes  = 1 << 20
	progressEvery = 100
)

// store is the subset of the coupon repository the importer writes through.
type store interface {
	FindAll(ctx context.Context) ([]coupon.Coupon, error)
	Create(ctx context.Context, c coupon.Coupon) (coupon.Coupon, error)
}

// record is a parsed coupon with its source position.
type record struct {
	file   string
	line   int
	coupon coupon.Coupon
}

// fileResult holds what a single file contributed.
type fileResult struct {
	records []record
	invalid int
}

func run(ctx context.Context, lg *zap.Logger, cfg config) error {
	files, err := filepath.Glob(filepath.Join(cfg.DataDir, "*.ndjson.gz"))
	if err != nil {
		return errors.Wrap(err, "list data files")
	}
	if len(files) == 0 {
		lg.Info("No data files found", zap.String("dir", cfg.DataDir))
		return nil
	}
	sort.Strings(files)

	lg.Info("Parsing coupon files", zap.Int("files", len(files)))
	results, err := parseFiles(ctx, lg, files)
	if err != nil {
		return errors.Wrap(err, "parse files")
	}

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return importCoupons(ctx, lg, repository.NewCouponRepository(pool), results, cfg.DryRun)
}

// parseFiles reads every file concurrently. Results keep the order of files.
func parseFiles(ctx context.Context, lg *zap.Logger, files []string) ([]fileResult, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			res, err := parseFile(ctx, lg, path)
			if err != nil {
				return errors.Wrapf(err, "parse %s", filepath.Base(path))
			}
			lg.Info("File parsed",
				zap.String("file", filepath.Base(path)),
				zap.Int("coupons", len(res.records)),
				zap.Int("invalid", res.invalid),
			)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func parseFile(ctx context.Context, lg *zap.Logger, path string) (fileResult, error) {
	var res fileResult
	lg = lg.With(zap.String("file", filepath.Base(path)))

	err := streamGzFile(ctx, path, func(n int, line []byte) {
		c, err := parseLine(line)
		switch {
		case err != nil:
			res.invalid++
			lg.Warn("Skipping invalid coupon", zap.Int("line", n), zap.Error(err))
		case c != nil:
			res.records = append(res.records, record{file: path, line: n, coupon: c})
		}
	})
	return res, err
}

// parseLine decodes and validates one coupon definition. Blank lines and
// lines starting with '#' yield a nil coupon and no error.
func parseLine(line []byte) (coupon.Coupon, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] == '#' {
		return nil, nil
	}
	c, err := codec.DecodeCoupon(line)
	if err != nil {
		return nil, err
	}
	if err := coupon.Validate(c); err != nil {
		return nil, err
	}
	c.Base().ID = 0
	return c, nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each line with
// its 1-based number.
func streamGzFile(ctx context.Context, path string, fn func(n int, line []byte)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	n := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		n++
		fn(n, scanner.Bytes())
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// nameSet tracks coupon names case-insensitively. The bloom filter answers
// most misses without touching the map.
type nameSet struct {
	filter *bloom.BloomFilter
	exact  map[string]struct{}
}

func newNameSet(capacity uint) *nameSet {
	return &nameSet{
		filter: bloom.NewWithEstimates(capacity, bloomFPR),
		exact:  make(map[string]struct{}),
	}
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Add records name and reports whether it was new.
func (s *nameSet) Add(name string) bool {
	key := normalizeName(name)
	if s.filter.TestString(key) {
		if _, ok := s.exact[key]; ok {
			return false
		}
	}
	s.filter.AddString(key)
	s.exact[key] = struct{}{}
	return true
}

// dedupe returns records whose names are not in seen, keeping the first
// occurrence across results in order.
func dedupe(lg *zap.Logger, seen *nameSet, results []fileResult) []record {
	var out []record
	for _, res := range results {
		for _, rec := range res.records {
			if !seen.Add(rec.coupon.Base().Name) {
				lg.Debug("Skipping duplicate coupon",
					zap.String("name", rec.coupon.Base().Name),
					zap.String("file", filepath.Base(rec.file)),
					zap.Int("line", rec.line),
				)
				continue
			}
			out = append(out, rec)
		}
	}
	return out
}

func importCoupons(ctx context.Context, lg *zap.Logger, s store, results []fileResult, dryRun bool) error {
	existing, err := s.FindAll(ctx)
	if err != nil {
		return errors.Wrap(err, "load existing coupons")
	}
	seen := newNameSet(bloomCapacity)
	for _, c := range existing {
		seen.Add(c.Base().Name)
	}

	var parsed, invalid int
	for _, res := range results {
		parsed += len(res.records)
		invalid += res.invalid
	}
	fresh := dedupe(lg, seen, results)
	lg.Info("Coupons ready",
		zap.Int("parsed", parsed),
		zap.Int("invalid", invalid),
		zap.Int("duplicates", parsed-len(fresh)),
		zap.Int("new", len(fresh)),
	)
	if dryRun {
		return nil
	}

	for i, rec := range fresh {
		if _, err := s.Create(ctx, rec.coupon); err != nil {
			return errors.Wrapf(err, "%s:%d", filepath.Base(rec.file), rec.line)
		}
		if (i+1)%progressEvery == 0 || i+1 == len(fresh) {
			lg.Info("Write progress", zap.Int("written", i+1), zap.Int("total", len(fresh)))
		}
	}
	return nil
}
