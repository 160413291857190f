package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/0pain01/Monk-coupon/internal/domain/coupon"
)

const (
	couponColumns = `id, type, name, description, expires_at, active,
		threshold, discount_percent, product_id, repetition_limit`

	getCouponByIDSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY id`

	insertCouponSQL = `INSERT INTO coupons (type, name, description, expires_at, active,
		threshold, discount_percent, product_id, repetition_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	updateCouponSQL = `UPDATE coupons SET type = $2, name = $3, description = $4,
		expires_at = $5, active = $6, threshold = $7, discount_percent = $8,
		product_id = $9, repetition_limit = $10
		WHERE id = $1`

	deleteCouponSQL = `DELETE FROM coupons WHERE id = $1`

	listBuyProductsSQL = `SELECT coupon_id, product_id, quantity FROM coupon_buy_products
		WHERE coupon_id = ANY($1) ORDER BY coupon_id, position`

	listGetProductsSQL = `SELECT coupon_id, product_id, quantity FROM coupon_get_products
		WHERE coupon_id = ANY($1) ORDER BY coupon_id, position`

	deleteBuyProductsSQL = `DELETE FROM coupon_buy_products WHERE coupon_id = $1`
	deleteGetProductsSQL = `DELETE FROM coupon_get_products WHERE coupon_id = $1`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByID returns the coupon stored under id, or coupon.ErrCouponNotFound.
func (r *CouponRepository) FindByID(ctx context.Context, id int64) (coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting coupon %d: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrCouponNotFound
		}
		return nil, fmt.Errorf("getting coupon %d: %w", id, err)
	}

	if err := r.loadProducts(ctx, []coupon.Coupon{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// FindAll returns every stored coupon ordered by id.
func (r *CouponRepository) FindAll(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}

	all, err := pgx.CollectRows(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}

	if err := r.loadProducts(ctx, all); err != nil {
		return nil, err
	}
	return all, nil
}

// Create inserts c and its product lists in one transaction and returns it
// with the assigned id.
func (r *CouponRepository) Create(ctx context.Context, c coupon.Coupon) (coupon.Coupon, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := couponRowOf(c)
		if err := tx.QueryRow(ctx, insertCouponSQL,
			row.kind, row.name, row.description, row.expiresAt, row.active,
			row.threshold, row.discountPercent, row.productID, row.repetitionLimit,
		).Scan(&c.Base().ID); err != nil {
			return fmt.Errorf("inserting coupon: %w", err)
		}
		return insertProducts(ctx, tx, c)
	})
	if err != nil {
		return nil, fmt.Errorf("creating coupon %q: %w", c.Base().Name, err)
	}
	return c, nil
}

// Save overwrites the stored coupon with c, replacing its product lists.
func (r *CouponRepository) Save(ctx context.Context, c coupon.Coupon) (coupon.Coupon, error) {
	id := c.Base().ID
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := couponRowOf(c)
		tag, err := tx.Exec(ctx, updateCouponSQL, id,
			row.kind, row.name, row.description, row.expiresAt, row.active,
			row.threshold, row.discountPercent, row.productID, row.repetitionLimit,
		)
		if err != nil {
			return fmt.Errorf("updating coupon: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return coupon.ErrCouponNotFound
		}

		if _, err := tx.Exec(ctx, deleteBuyProductsSQL, id); err != nil {
			return fmt.Errorf("clearing buy products: %w", err)
		}
		if _, err := tx.Exec(ctx, deleteGetProductsSQL, id); err != nil {
			return fmt.Errorf("clearing get products: %w", err)
		}
		return insertProducts(ctx, tx, c)
	})
	if err != nil {
		if errors.Is(err, coupon.ErrCouponNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("saving coupon %d: %w", id, err)
	}
	return c, nil
}

// Delete removes the coupon stored under id. Product lists cascade.
func (r *CouponRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteCouponSQL, id)
	if err != nil {
		return fmt.Errorf("deleting coupon %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrCouponNotFound
	}
	return nil
}

// couponRow is the flat column representation of a coupon.
type couponRow struct {
	id              int64
	kind            string
	name            string
	description     string
	expiresAt       time.Time
	active          bool
	threshold       decimal.NullDecimal
	discountPercent *int32
	productID       *int64
	repetitionLimit *int32
}

func couponRowOf(c coupon.Coupon) couponRow {
	meta := c.Base()
	row := couponRow{
		id:          meta.ID,
		kind:        string(c.Kind()),
		name:        meta.Name,
		description: meta.Description,
		expiresAt:   meta.ExpiresAt,
		active:      meta.Active,
	}
	switch c := c.(type) {
	case *coupon.CartWise:
		pct := int32(c.DiscountPercent)
		row.threshold = decimal.NewNullDecimal(c.Threshold)
		row.discountPercent = &pct
	case *coupon.ProductWise:
		pct := int32(c.DiscountPercent)
		row.discountPercent = &pct
		row.productID = &c.ProductID
	case *coupon.BuyXGetY:
		limit := int32(c.RepetitionLimit)
		row.repetitionLimit = &limit
	}
	return row
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var r couponRow
	if err := row.Scan(
		&r.id, &r.kind, &r.name, &r.description, &r.expiresAt, &r.active,
		&r.threshold, &r.discountPercent, &r.productID, &r.repetitionLimit,
	); err != nil {
		return nil, err
	}

	meta := coupon.Meta{
		ID:          r.id,
		Name:        r.name,
		Description: r.description,
		ExpiresAt:   r.expiresAt,
		Active:      r.active,
	}
	switch coupon.Kind(r.kind) {
	case coupon.KindCartWise:
		return &coupon.CartWise{
			Meta:            meta,
			Threshold:       r.threshold.Decimal,
			DiscountPercent: int(deref(r.discountPercent)),
		}, nil
	case coupon.KindProductWise:
		return &coupon.ProductWise{
			Meta:            meta,
			ProductID:       deref(r.productID),
			DiscountPercent: int(deref(r.discountPercent)),
		}, nil
	case coupon.KindBuyXGetY:
		return &coupon.BuyXGetY{
			Meta:            meta,
			RepetitionLimit: int(deref(r.repetitionLimit)),
		}, nil
	default:
		return nil, &coupon.NoPolicyForKindError{Kind: coupon.Kind(r.kind)}
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

type productQuantity struct {
	couponID  int64
	productID int64
	quantity  int32
}

// loadProducts fills the buy and get lists of every BuyXGetY in list.
func (r *CouponRepository) loadProducts(ctx context.Context, list []coupon.Coupon) error {
	byID := make(map[int64]*coupon.BuyXGetY)
	ids := make([]int64, 0, len(list))
	for _, c := range list {
		if bx, ok := c.(*coupon.BuyXGetY); ok {
			byID[bx.ID] = bx
			ids = append(ids, bx.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	buy, err := r.listProducts(ctx, listBuyProductsSQL, ids)
	if err != nil {
		return fmt.Errorf("loading buy products: %w", err)
	}
	for _, p := range buy {
		bx := byID[p.couponID]
		bx.Buy = append(bx.Buy, coupon.BuyRequirement{ProductID: p.productID, Quantity: int(p.quantity)})
	}

	get, err := r.listProducts(ctx, listGetProductsSQL, ids)
	if err != nil {
		return fmt.Errorf("loading get products: %w", err)
	}
	for _, p := range get {
		bx := byID[p.couponID]
		bx.Get = append(bx.Get, coupon.FreeGrant{ProductID: p.productID, Quantity: int(p.quantity)})
	}
	return nil
}

func (r *CouponRepository) listProducts(ctx context.Context, query string, ids []int64) ([]productQuantity, error) {
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (productQuantity, error) {
		var p productQuantity
		err := row.Scan(&p.couponID, &p.productID, &p.quantity)
		return p, err
	})
}

func insertProducts(ctx context.Context, tx pgx.Tx, c coupon.Coupon) error {
	bx, ok := c.(*coupon.BuyXGetY)
	if !ok {
		return nil
	}

	columns := []string{"coupon_id", "position", "product_id", "quantity"}
	buyRows := make([][]any, len(bx.Buy))
	for i, b := range bx.Buy {
		buyRows[i] = []any{bx.ID, int32(i), b.ProductID, int32(b.Quantity)}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"coupon_buy_products"}, columns, pgx.CopyFromRows(buyRows)); err != nil {
		return fmt.Errorf("inserting buy products: %w", err)
	}

	getRows := make([][]any, len(bx.Get))
	for i, g := range bx.Get {
		getRows[i] = []any{bx.ID, int32(i), g.ProductID, int32(g.Quantity)}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"coupon_get_products"}, columns, pgx.CopyFromRows(getRows)); err != nil {
		return fmt.Errorf("inserting get products: %w", err)
	}
	return nil
}
