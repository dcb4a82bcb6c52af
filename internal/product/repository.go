package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const productSelect = `
	SELECT p.id, p.name, p.description, p.category, p.image_url,
	       COALESCE(AVG(r.rating), 0) AS average_rating,
	       COUNT(r.id) AS review_count,
	       p.created_at, p.updated_at
	FROM products p
	LEFT JOIN reviews r ON r.product_id = p.id
`

func scanProduct(scanner interface{ Scan(...any) error }) (Product, error) {
	var p Product
	err := scanner.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.ImageURL,
		&p.AverageRating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repository) FindByID(ctx context.Context, id string) (Product, error) {
	row := r.db.QueryRowContext(ctx, productSelect+`
		WHERE p.id = $1
		GROUP BY p.id
	`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, err
		}
		return Product{}, fmt.Errorf("query product by id: %w", err)
	}

	return p, nil
}

func (r *Repository) List(ctx context.Context, page, limit int) ([]Product, int, error) {
	return r.list(ctx, ``, nil, page, limit)
}

func (r *Repository) ListByCategory(ctx context.Context, category string, page, limit int) ([]Product, int, error) {
	return r.list(ctx, `WHERE p.category = $1`, []any{category}, page, limit)
}

// Search matches product names case-insensitively.
func (r *Repository) Search(ctx context.Context, query string, page, limit int) ([]Product, int, error) {
	return r.list(ctx, `WHERE p.name ILIKE '%' || $1 || '%'`, []any{query}, page, limit)
}

func (r *Repository) list(ctx context.Context, where string, args []any, page, limit int) ([]Product, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM products p ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * limit
	listArgs := append(append([]any{}, args...), limit, offset)
	query := fmt.Sprintf(`%s %s
		GROUP BY p.id
		ORDER BY p.created_at DESC
		LIMIT $%d OFFSET $%d
	`, productSelect, where, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}

	return products, total, nil
}

func (r *Repository) Create(ctx context.Context, input Input, imageURL *string) (Product, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Product{}, fmt.Errorf("generate product id: %w", err)
	}

	now := time.Now().UTC()
	p := Product{
		ID:          id.String(),
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		ImageURL:    imageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, category, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, p.ID, p.Name, p.Description, p.Category, p.ImageURL, now)
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}

	return p, nil
}

// Update applies non-empty input fields; a nil imageURL keeps the current
// image.
func (r *Repository) Update(ctx context.Context, id string, input Input, imageURL *string) (Product, error) {
	_, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = COALESCE(NULLIF($2, ''), name),
		    description = COALESCE(NULLIF($3, ''), description),
		    category = COALESCE(NULLIF($4, ''), category),
		    image_url = COALESCE($5, image_url),
		    updated_at = $6
		WHERE id = $1
	`, id, input.Name, input.Description, input.Category, imageURL, time.Now().UTC())
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}

	return r.FindByID(ctx, id)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
