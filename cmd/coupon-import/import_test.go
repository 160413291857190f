package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/0pain01/Monk-coupon/internal/domain/coupon"
)

const (
	tenOff = `{"name":"TENOFF","type":"cart-wise","expires_at":"2030-01-01T00:00:00Z","active":true,"details":{"threshold":100,"discount":10}}`
	halfP9 = `{"id":42,"name":"HALF9","type":"product-wise","expires_at":"2030-01-01T00:00:00Z","active":true,"details":{"product_id":9,"discount":50}}`
	b2g1   = `{"name":"B2G1","type":"bxgy","expires_at":"2030-01-01T00:00:00Z","active":true,"details":{"repetition_limit":2,"buy_products":[{"product_id":1,"quantity":2}],"get_products":[{"product_id":2,"quantity":1}]}}`
)

type fakeStore struct {
	existing []coupon.Coupon
	created  []coupon.Coupon
	findErr  error
}

func (f *fakeStore) FindAll(context.Context) ([]coupon.Coupon, error) {
	return f.existing, f.findErr
}

func (f *fakeStore) Create(_ context.Context, c coupon.Coupon) (coupon.Coupon, error) {
	c.Base().ID = int64(len(f.created) + 1)
	f.created = append(f.created, c)
	return c, nil
}

func writeGz(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func names(records []record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.coupon.Base().Name)
	}
	return out
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantKind coupon.Kind
		wantNil  bool
		wantErr  bool
	}{
		{name: "cart-wise", line: tenOff, wantKind: coupon.KindCartWise},
		{name: "bxgy alias", line: b2g1, wantKind: coupon.KindBuyXGetY},
		{name: "blank", line: "   ", wantNil: true},
		{name: "comment", line: "# header", wantNil: true},
		{name: "malformed", line: `{"name":`, wantErr: true},
		{name: "unknown type", line: `{"name":"X","type":"bogus","expires_at":"2030-01-01T00:00:00Z"}`, wantErr: true},
		{
			name:    "fails validation",
			line:    `{"name":"X","type":"cart-wise","expires_at":"2030-01-01T00:00:00Z","details":{"threshold":100,"discount":150}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := parseLine([]byte(tt.line))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, c)
				return
			}
			require.NotNil(t, c)
			assert.Equal(t, tt.wantKind, c.Kind())
		})
	}
}

func TestParseLine_DropsID(t *testing.T) {
	c, err := parseLine([]byte(halfP9))
	require.NoError(t, err)
	assert.Zero(t, c.Base().ID)
}

func TestNameSet(t *testing.T) {
	s := newNameSet(100)

	assert.True(t, s.Add("TENOFF"))
	assert.False(t, s.Add("tenoff"))
	assert.False(t, s.Add("  TenOff "))
	assert.True(t, s.Add("TWENTYOFF"))
}

func TestParseFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeGz(t, dir, "a.ndjson.gz", tenOff, "", `{"broken`, halfP9),
		writeGz(t, dir, "b.ndjson.gz", "# coupons", b2g1),
	}

	results, err := parseFiles(context.Background(), zaptest.NewLogger(t), files)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, []string{"TENOFF", "HALF9"}, names(results[0].records))
	assert.Equal(t, 1, results[0].invalid)
	assert.Equal(t, 4, results[0].records[1].line)
	assert.Equal(t, []string{"B2G1"}, names(results[1].records))
	assert.Zero(t, results[1].invalid)
}

func TestParseFiles_MissingFile(t *testing.T) {
	_, err := parseFiles(context.Background(), zap.NewNop(), []string{filepath.Join(t.TempDir(), "nope.ndjson.gz")})
	require.Error(t, err)
}

func TestImportCoupons(t *testing.T) {
	parse := func(t *testing.T, lines ...string) fileResult {
		t.Helper()
		var res fileResult
		for i, l := range lines {
			c, err := parseLine([]byte(l))
			require.NoError(t, err)
			res.records = append(res.records, record{file: "x.ndjson.gz", line: i + 1, coupon: c})
		}
		return res
	}
	dupTenOff := strings.Replace(tenOff, `"TENOFF"`, `"tenoff"`, 1)

	t.Run("first occurrence wins", func(t *testing.T) {
		s := &fakeStore{}
		results := []fileResult{parse(t, tenOff, halfP9), parse(t, dupTenOff, b2g1)}

		require.NoError(t, importCoupons(context.Background(), zap.NewNop(), s, results, false))

		require.Len(t, s.created, 3)
		assert.Equal(t, []string{"TENOFF", "HALF9", "B2G1"},
			[]string{s.created[0].Base().Name, s.created[1].Base().Name, s.created[2].Base().Name})
	})

	t.Run("skips stored names", func(t *testing.T) {
		stored, err := parseLine([]byte(halfP9))
		require.NoError(t, err)
		s := &fakeStore{existing: []coupon.Coupon{stored}}

		require.NoError(t, importCoupons(context.Background(), zap.NewNop(), s, []fileResult{parse(t, tenOff, halfP9)}, false))

		require.Len(t, s.created, 1)
		assert.Equal(t, "TENOFF", s.created[0].Base().Name)
	})

	t.Run("dry run", func(t *testing.T) {
		s := &fakeStore{}
		require.NoError(t, importCoupons(context.Background(), zap.NewNop(), s, []fileResult{parse(t, tenOff)}, true))
		assert.Empty(t, s.created)
	})

	t.Run("lookup failure", func(t *testing.T) {
		s := &fakeStore{findErr: errors.New("db down")}
		err := importCoupons(context.Background(), zap.NewNop(), s, nil, false)
		require.ErrorContains(t, err, "load existing coupons")
	})
}
