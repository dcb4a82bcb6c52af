package review

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

const reviewSelect = `
	SELECT rv.id, rv.content, rv.rating,
	       u.id, u.name,
	       p.id, p.name,
	       rv.created_at, rv.updated_at
	FROM reviews rv
	JOIN users u ON u.id = rv.user_id
	JOIN products p ON p.id = rv.product_id
`

func scanReview(scanner interface{ Scan(...any) error }) (Review, error) {
	var rv Review
	err := scanner.Scan(&rv.ID, &rv.Content, &rv.Rating,
		&rv.User.ID, &rv.User.Name,
		&rv.Product.ID, &rv.Product.Name,
		&rv.CreatedAt, &rv.UpdatedAt)
	return rv, err
}

func (r *Repository) ProductExists(ctx context.Context, productID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product exists: %w", err)
	}

	return exists, nil
}

// HasUserReview reports whether the user already reviewed the product.
func (r *Repository) HasUserReview(ctx context.Context, userID, productID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM reviews WHERE user_id = $1 AND product_id = $2)
	`, userID, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check existing review: %w", err)
	}

	return exists, nil
}

func (r *Repository) Create(ctx context.Context, userID, productID, content string, rating int) (Review, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Review{}, fmt.Errorf("generate review id: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, user_id, product_id, content, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, id.String(), userID, productID, content, rating, now)
	if err != nil {
		return Review{}, fmt.Errorf("insert review: %w", err)
	}

	return r.FindByID(ctx, id.String())
}

func (r *Repository) FindByID(ctx context.Context, id string) (Review, error) {
	row := r.db.QueryRowContext(ctx, reviewSelect+` WHERE rv.id = $1`, id)

	rv, err := scanReview(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Review{}, err
		}
		return Review{}, fmt.Errorf("query review by id: %w", err)
	}

	return rv, nil
}

func (r *Repository) ListByProduct(ctx context.Context, productID string, page, limit int) ([]Review, int, error) {
	return r.list(ctx, `rv.product_id`, productID, page, limit)
}

func (r *Repository) ListByUser(ctx context.Context, userID string, page, limit int) ([]Review, int, error) {
	return r.list(ctx, `rv.user_id`, userID, page, limit)
}

func (r *Repository) list(ctx context.Context, column, value string, page, limit int) ([]Review, int, error) {
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM reviews rv WHERE %s = $1`, column)
	if err := r.db.QueryRowContext(ctx, countQuery, value).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	offset := (page - 1) * limit
	query := fmt.Sprintf(`%s
		WHERE %s = $1
		ORDER BY rv.created_at DESC
		LIMIT $2 OFFSET $3
	`, reviewSelect, column)

	rows, err := r.db.QueryContext(ctx, query, value, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reviews: %w", err)
	}

	return reviews, total, nil
}

// Update applies non-zero fields: empty content and zero rating keep the
// stored values.
func (r *Repository) Update(ctx context.Context, id, content string, rating int) (Review, error) {
	_, err := r.db.ExecContext(ctx, `
		UPDATE reviews
		SET content = COALESCE(NULLIF($2, ''), content),
		    rating = CASE WHEN $3 > 0 THEN $3 ELSE rating END,
		    updated_at = $4
		WHERE id = $1
	`, id, content, rating, time.Now().UTC())
	if err != nil {
		return Review{}, fmt.Errorf("update review: %w", err)
	}

	return r.FindByID(ctx, id)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
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
