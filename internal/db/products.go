package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/cityscope/cityscope/backend/directory-service/internal/models"
	"github.com/jackc/pgx/v5"
)

const productSelect = `
	SELECT p.id, p.name, c.name AS category, p.image_url
	FROM products p
	JOIN categories c ON c.id = p.category_id
`

// ListProducts returns all products with their category names, newest first.
func (db *Database) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := db.Pool.Query(ctx, productSelect+` ORDER BY p.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.ImageURL); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProduct returns one product by id.
func (db *Database) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := db.Pool.QueryRow(ctx, productSelect+` WHERE p.id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Category, &p.ImageURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("product id %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts a product referencing an existing category and
// returns the read representation.
func (db *Database) CreateProduct(ctx context.Context, name string, categoryID int64) (*models.Product, error) {
	var exists bool
	if err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, categoryID,
	).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("category id %d: %w", categoryID, ErrNotFound)
	}

	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO products (name, category_id) VALUES ($1, $2) RETURNING id`,
		name, categoryID,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return db.GetProduct(ctx, id)
}

// UpdateProduct updates the fields present in the payload and returns the
// read representation.
func (db *Database) UpdateProduct(ctx context.Context, id int64, payload models.ProductPayload) (*models.Product, error) {
	if _, err := db.GetProduct(ctx, id); err != nil {
		return nil, err
	}
	if payload.Category != nil {
		var exists bool
		if err := db.Pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, *payload.Category,
		).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("category id %d: %w", *payload.Category, ErrNotFound)
		}
		if _, err := db.Pool.Exec(ctx,
			`UPDATE products SET category_id = $2 WHERE id = $1`, id, *payload.Category,
		); err != nil {
			return nil, fmt.Errorf("failed to update product category: %w", err)
		}
	}
	if payload.Name != nil {
		if _, err := db.Pool.Exec(ctx,
			`UPDATE products SET name = $2 WHERE id = $1`, id, *payload.Name,
		); err != nil {
			return nil, fmt.Errorf("failed to update product name: %w", err)
		}
	}
	return db.GetProduct(ctx, id)
}

// DeleteProduct removes a product; its price rows cascade away.
func (db *Database) DeleteProduct(ctx context.Context, id int64) error {
	cmd, err := db.Pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("product id %d: %w", id, ErrNotFound)
	}
	return nil
}

// SetProductImage stores the uploaded image URL on the product.
func (db *Database) SetProductImage(ctx context.Context, id int64, imageURL string) error {
	cmd, err := db.Pool.Exec(ctx,
		`UPDATE products SET image_url = $2 WHERE id = $1`, id, imageURL)
	if err != nil {
		return fmt.Errorf("failed to save product image: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("product id %d: %w", id, ErrNotFound)
	}
	return nil
}
