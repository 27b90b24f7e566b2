package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avolkov/vitrine/pkg/models"
)

// Sentinel errors returned by the repository.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// ProductRepository provides CRUD access to catalog products.
type ProductRepository interface {
	// Get returns a single product by ID.
	Get(ctx context.Context, id int64) (*models.Product, error)

	// List returns the page of products selected by spec plus the total
	// number of matching rows.
	List(ctx context.Context, spec QuerySpec) ([]models.Product, int, error)

	// Create inserts a new product. The input must already be validated.
	Create(ctx context.Context, in models.CreateProductInput) (*models.Product, error)

	// Update applies a partial update and returns the updated product.
	Update(ctx context.Context, id int64, in models.UpdateProductInput) (*models.Product, error)

	// SetPhotoURL sets or clears the product's photo reference.
	SetPhotoURL(ctx context.Context, id int64, photoURL *string) (*models.Product, error)

	// Delete removes a product by ID.
	Delete(ctx context.Context, id int64) error
}

// Compile-time interface guard.
var _ ProductRepository = (*SQLiteProductRepository)(nil)

// SQLiteProductRepository implements ProductRepository using SQLite.
type SQLiteProductRepository struct {
	db *sql.DB
}

// NewSQLiteProductRepository creates a ProductRepository. The products table
// must already exist (created by Migrations).
func NewSQLiteProductRepository(db *sql.DB) *SQLiteProductRepository {
	return &SQLiteProductRepository{db: db}
}

// productColumns is the shared column list for product queries.
const productColumns = `id, name, description, price, discounted_price, sku,
	photo_url, created_at, updated_at`

func (r *SQLiteProductRepository) Get(ctx context.Context, id int64) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (r *SQLiteProductRepository) List(ctx context.Context, spec QuerySpec) ([]models.Product, int, error) {
	q := BuildQuery(spec)

	// Count total matching rows.
	var total int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM products WHERE "+q.Where, q.Args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	// Query with pagination and sorting.
	queryArgs := make([]any, 0, len(q.Args)+2)
	queryArgs = append(queryArgs, q.Args...)
	queryArgs = append(queryArgs, q.Limit, q.Offset)

	query := fmt.Sprintf(
		"SELECT %s FROM products WHERE %s ORDER BY %s LIMIT ? OFFSET ?",
		productColumns, q.Where, q.OrderBy,
	)

	rows, err := r.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}

	return products, total, nil
}

func (r *SQLiteProductRepository) Create(ctx context.Context, in models.CreateProductInput) (*models.Product, error) {
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO products (name, description, price, discounted_price, sku, photo_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NULL, ?, ?)`,
		in.Name, nullString(in.Description), in.Price, nullFloat(in.DiscountedPrice), in.SKU, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("sku %q: %w", in.SKU, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create product: last insert id: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *SQLiteProductRepository) Update(ctx context.Context, id int64, in models.UpdateProductInput) (*models.Product, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Apply(p)
	p.UpdatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
		UPDATE products SET
			name = ?, description = ?, price = ?, discounted_price = ?, sku = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, nullString(p.Description), p.Price, nullFloat(p.DiscountedPrice), p.SKU, p.UpdatedAt, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("sku %q: %w", p.SKU, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	return p, nil
}

func (r *SQLiteProductRepository) SetPhotoURL(ctx context.Context, id int64, photoURL *string) (*models.Product, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET photo_url = ?, updated_at = ? WHERE id = ?`,
		nullString(photoURL), now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set photo url %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *SQLiteProductRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanProduct scans one row using the productColumns order.
func scanProduct(scan func(...any) error) (*models.Product, error) {
	var p models.Product
	var desc, photo sql.NullString
	var discounted sql.NullFloat64
	err := scan(
		&p.ID, &p.Name, &desc, &p.Price, &discounted, &p.SKU,
		&photo, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		p.Description = &desc.String
	}
	if discounted.Valid {
		p.DiscountedPrice = &discounted.Float64
	}
	if photo.Valid {
		p.PhotoURL = &photo.String
	}
	return &p, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// isUniqueViolation detects the driver's UNIQUE constraint error. The
// modernc driver exposes no typed error for this, so the message is matched.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
