package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cityscope/cityscope/backend/directory-service/internal/models"
	"github.com/jackc/pgx/v5"
)

// GetOrganization returns the nested read representation of one aggregate.
func (db *Database) GetOrganization(ctx context.Context, id int64) (*models.Organization, error) {
	var org models.Organization
	err := db.Pool.QueryRow(ctx, `
		SELECT o.id, o.name, o.description, n.name AS network
		FROM organizations o
		JOIN networks n ON n.id = o.network_id
		WHERE o.id = $1
	`, id).Scan(&org.ID, &org.Name, &org.Description, &org.Network)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("organization id %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := db.loadAssociations(ctx, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// loadAssociations fills the district and product lists and the derived
// counts. Counts come from counting join rows, never from a stored field.
func (db *Database) loadAssociations(ctx context.Context, org *models.Organization) error {
	rows, err := db.Pool.Query(ctx, `
		SELECT d.id, d.name
		FROM organization_districts od
		JOIN districts d ON d.id = od.district_id
		WHERE od.organization_id = $1
		ORDER BY od.id
	`, org.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	org.Districts = make([]models.NameRecord, 0)
	for rows.Next() {
		var d models.NameRecord
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return err
		}
		org.Districts = append(org.Districts, d)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	prows, err := db.Pool.Query(ctx, `
		SELECT p.id, p.name, c.name AS category, po.price
		FROM product_organizations po
		JOIN products p ON p.id = po.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE po.organization_id = $1
		ORDER BY po.id
	`, org.ID)
	if err != nil {
		return err
	}
	defer prows.Close()
	org.Products = make([]models.OrganizationProduct, 0)
	for prows.Next() {
		var p models.OrganizationProduct
		if err := prows.Scan(&p.ID, &p.Name, &p.Category, &p.Price); err != nil {
			return err
		}
		org.Products = append(org.Products, p)
	}
	if err := prows.Err(); err != nil {
		return err
	}

	if err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM product_organizations WHERE organization_id = $1`, org.ID,
	).Scan(&org.CountProducts); err != nil {
		return err
	}
	return db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM organization_districts WHERE organization_id = $1`, org.ID,
	).Scan(&org.CountDistricts)
}

// ListOrganizations returns every aggregate, newest first.
func (db *Database) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	return db.listByQuery(ctx, `SELECT id FROM organizations ORDER BY id DESC`)
}

// ListOrganizationsByDistrict returns the aggregates associated with a
// district, optionally narrowed by a case-insensitive product-name prefix
// and by one or more category names (matching any product the organization
// carries).
func (db *Database) ListOrganizationsByDistrict(ctx context.Context, districtID int64, search string, categories []string) ([]models.Organization, error) {
	query := `
		SELECT DISTINCT o.id
		FROM organizations o
		JOIN organization_districts od
		  ON od.organization_id = o.id AND od.district_id = $1
	`
	args := []interface{}{districtID}
	argIndex := 2

	if search != "" {
		query += fmt.Sprintf(`
		AND EXISTS (
			SELECT 1 FROM product_organizations po
			JOIN products p ON p.id = po.product_id
			WHERE po.organization_id = o.id AND p.name ILIKE $%d
		)`, argIndex)
		args = append(args, escapeLike(search)+"%")
		argIndex++
	}

	if len(categories) > 0 {
		query += fmt.Sprintf(`
		AND EXISTS (
			SELECT 1 FROM product_organizations po
			JOIN products p ON p.id = po.product_id
			JOIN categories c ON c.id = p.category_id
			WHERE po.organization_id = o.id AND c.name = ANY($%d)
		)`, argIndex)
		args = append(args, categories)
		argIndex++
	}

	query += ` ORDER BY o.id DESC`
	return db.listByQuery(ctx, query, args...)
}

// listByQuery runs an id-producing query and hydrates each aggregate.
func (db *Database) listByQuery(ctx context.Context, query string, args ...interface{}) ([]models.Organization, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	orgs := make([]models.Organization, 0, len(ids))
	for _, id := range ids {
		org, err := db.GetOrganization(ctx, id)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, *org)
	}
	return orgs, nil
}

// CreateOrganization creates the organization row and its initial join rows
// in one transaction, then returns the re-fetched nested representation.
func (db *Database) CreateOrganization(ctx context.Context, payload models.OrganizationPayload) (*models.Organization, error) {
	districts := payload.DistrictSet()
	var products []models.ProductPricePayload
	if payload.Products != nil {
		products = *payload.Products
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := checkReferences(ctx, tx, *payload.Network, districts, products); err != nil {
		return nil, err
	}

	description := ""
	if payload.Description != nil {
		description = *payload.Description
	}

	var orgID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO organizations (name, description, network_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`, *payload.Name, description, *payload.Network).Scan(&orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	if err := insertJoinRows(ctx, tx, orgID, districts, products); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return db.GetOrganization(ctx, orgID)
}

// UpdateOrganization applies a full-replace update: a submitted district or
// product list discards the previous set entirely, scalar fields change only
// when present. Everything happens in one transaction so a concurrent reader
// never observes the aggregate between delete and re-insert.
func (db *Database) UpdateOrganization(ctx context.Context, id int64, payload models.OrganizationPayload) (*models.Organization, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("organization id %d: %w", id, ErrNotFound)
	}

	if payload.Network != nil {
		if err := checkExists(ctx, tx, "networks", *payload.Network); err != nil {
			return nil, err
		}
	}

	if payload.Products != nil {
		products := *payload.Products
		if err := checkReferences(ctx, tx, 0, nil, products); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM product_organizations WHERE organization_id = $1`, id,
		); err != nil {
			return nil, fmt.Errorf("failed to clear product associations: %w", err)
		}
		if err := insertJoinRows(ctx, tx, id, nil, products); err != nil {
			return nil, err
		}
	}

	if payload.Districts != nil {
		districts := payload.DistrictSet()
		if err := checkReferences(ctx, tx, 0, districts, nil); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM organization_districts WHERE organization_id = $1`, id,
		); err != nil {
			return nil, fmt.Errorf("failed to clear district associations: %w", err)
		}
		if err := insertJoinRows(ctx, tx, id, districts, nil); err != nil {
			return nil, err
		}
	}

	if payload.Name != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE organizations SET name = $2 WHERE id = $1`, id, *payload.Name,
		); err != nil {
			return nil, fmt.Errorf("failed to update organization name: %w", err)
		}
	}
	if payload.Description != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE organizations SET description = $2 WHERE id = $1`, id, *payload.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to update organization description: %w", err)
		}
	}
	if payload.Network != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE organizations SET network_id = $2 WHERE id = $1`, id, *payload.Network,
		); err != nil {
			return nil, fmt.Errorf("failed to update organization network: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return db.GetOrganization(ctx, id)
}

// DeleteOrganization removes the aggregate; its join rows cascade away.
func (db *Database) DeleteOrganization(ctx context.Context, id int64) error {
	cmd, err := db.Pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("organization id %d: %w", id, ErrNotFound)
	}
	return nil
}

// checkReferences verifies every referenced row exists before any insert.
// networkID 0 means the network reference is not part of this write.
func checkReferences(ctx context.Context, tx pgx.Tx, networkID int64, districts []int64, products []models.ProductPricePayload) error {
	if networkID != 0 {
		if err := checkExists(ctx, tx, "networks", networkID); err != nil {
			return err
		}
	}
	if len(districts) > 0 {
		if err := checkAllExist(ctx, tx, "districts", districts); err != nil {
			return err
		}
	}
	if len(products) > 0 {
		ids := make([]int64, 0, len(products))
		for _, p := range products {
			ids = append(ids, *p.ID)
		}
		if err := checkAllExist(ctx, tx, "products", ids); err != nil {
			return err
		}
	}
	return nil
}

func checkExists(ctx context.Context, tx pgx.Tx, table string, id int64) error {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table)
	if err := tx.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s id %d: %w", table, id, ErrNotFound)
	}
	return nil
}

func checkAllExist(ctx context.Context, tx pgx.Tx, table string, ids []int64) error {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE id = ANY($1)`, table)
	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		if !found[id] {
			return fmt.Errorf("%s id %d: %w", table, id, ErrNotFound)
		}
	}
	return nil
}

// insertJoinRows bulk-inserts the submitted association sets.
func insertJoinRows(ctx context.Context, tx pgx.Tx, orgID int64, districts []int64, products []models.ProductPricePayload) error {
	for _, districtID := range districts {
		if _, err := tx.Exec(ctx,
			`INSERT INTO organization_districts (district_id, organization_id) VALUES ($1, $2)`,
			districtID, orgID,
		); err != nil {
			return fmt.Errorf("failed to insert district association: %w", err)
		}
	}
	for _, p := range products {
		if _, err := tx.Exec(ctx,
			`INSERT INTO product_organizations (product_id, organization_id, price) VALUES ($1, $2, $3)`,
			*p.ID, orgID, *p.Price,
		); err != nil {
			return fmt.Errorf("failed to insert product association: %w", err)
		}
	}
	return nil
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search input.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
