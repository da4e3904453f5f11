package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/cityscope/cityscope/backend/directory-service/internal/models"
	"github.com/jackc/pgx/v5"
)

// Name-record tables share a shape, so the CRUD below is written once and
// parameterized with the table name. Only these fixed identifiers are ever
// interpolated into SQL.
const (
	TableCategories = "categories"
	TableDistricts  = "districts"
	TableNetworks   = "networks"
)

// ListNameRecords returns all rows of a name-record table, newest first.
func (db *Database) ListNameRecords(ctx context.Context, table string) ([]models.NameRecord, error) {
	query := fmt.Sprintf(`SELECT id, name FROM %s ORDER BY id DESC`, table)
	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.NameRecord, 0)
	for rows.Next() {
		var r models.NameRecord
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetNameRecord returns one row by id.
func (db *Database) GetNameRecord(ctx context.Context, table string, id int64) (*models.NameRecord, error) {
	var r models.NameRecord
	query := fmt.Sprintf(`SELECT id, name FROM %s WHERE id = $1`, table)
	err := db.Pool.QueryRow(ctx, query, id).Scan(&r.ID, &r.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s id %d: %w", table, id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateNameRecord inserts a new row and returns it.
func (db *Database) CreateNameRecord(ctx context.Context, table string, name string) (*models.NameRecord, error) {
	var r models.NameRecord
	query := fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) RETURNING id, name`, table)
	if err := db.Pool.QueryRow(ctx, query, name).Scan(&r.ID, &r.Name); err != nil {
		return nil, fmt.Errorf("failed to create %s row: %w", table, err)
	}
	return &r, nil
}

// UpdateNameRecord renames a row and returns the updated record.
func (db *Database) UpdateNameRecord(ctx context.Context, table string, id int64, name string) (*models.NameRecord, error) {
	var r models.NameRecord
	query := fmt.Sprintf(`UPDATE %s SET name = $2 WHERE id = $1 RETURNING id, name`, table)
	err := db.Pool.QueryRow(ctx, query, id, name).Scan(&r.ID, &r.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s id %d: %w", table, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update %s row: %w", table, err)
	}
	return &r, nil
}

// DeleteNameRecord deletes a row by id. Dependent rows (products of a
// category, join rows of a district) go with it through the cascade FKs.
func (db *Database) DeleteNameRecord(ctx context.Context, table string, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table)
	cmd, err := db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s row: %w", table, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%s id %d: %w", table, id, ErrNotFound)
	}
	return nil
}
