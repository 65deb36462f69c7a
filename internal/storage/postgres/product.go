package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campomarket/storefront/internal/domain/catalog"
)

var _ catalog.Repository = (*ProductRepository)(nil)

const productColumns = `id, name, price, category, unit, stock, min_order_qty,
	image_thumbnail, image_mobile, image_desktop`

// ProductRepository implements catalog.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository using the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns the full catalog ordered by id.
func (r *ProductRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	defer rows.Close()
	return scanProducts(rows)
}

// GetByID returns a single product, or catalog.ErrNotFound.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return &p, nil
}

// GetByIDs returns the products matching ids; missing ids are simply
// absent from the result.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products by ids")
	}
	defer rows.Close()
	return scanProducts(rows)
}

// Upsert inserts or replaces a product. Used by the catalog seeder.
func (r *ProductRepository) Upsert(ctx context.Context, p catalog.Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, name, price, category, unit, stock, min_order_qty,
			image_thumbnail, image_mobile, image_desktop)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			unit = EXCLUDED.unit,
			stock = EXCLUDED.stock,
			min_order_qty = EXCLUDED.min_order_qty,
			image_thumbnail = EXCLUDED.image_thumbnail,
			image_mobile = EXCLUDED.image_mobile,
			image_desktop = EXCLUDED.image_desktop`,
		p.ID, p.Name, p.Price, p.Category, p.Unit, p.Stock, p.MinOrderQty,
		p.Image.Thumbnail, p.Image.Mobile, p.Image.Desktop)
	if err != nil {
		return errors.Wrapf(err, "upsert product %q", p.ID)
	}
	return nil
}

func scanProducts(rows pgx.Rows) ([]catalog.Product, error) {
	var products []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Price, &p.Category, &p.Unit, &p.Stock, &p.MinOrderQty,
		&p.Image.Thumbnail, &p.Image.Mobile, &p.Image.Desktop,
	)
	return p, err
}
