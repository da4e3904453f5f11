package db

import (
	"context"
	"fmt"
)

// Schema statements are idempotent so the service can run them on every
// start. Every foreign key cascades: deleting a category removes its
// products, deleting either side of a join removes the join rows.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id   BIGSERIAL PRIMARY KEY,
		name VARCHAR(150) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS districts (
		id   BIGSERIAL PRIMARY KEY,
		name VARCHAR(150) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS networks (
		id   BIGSERIAL PRIMARY KEY,
		name VARCHAR(150) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          BIGSERIAL PRIMARY KEY,
		name        VARCHAR(150) NOT NULL,
		category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		image_url   TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS organizations (
		id          BIGSERIAL PRIMARY KEY,
		name        VARCHAR(150) NOT NULL,
		description VARCHAR(1000) NOT NULL DEFAULT '',
		network_id  BIGINT NOT NULL REFERENCES networks(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS organization_districts (
		id              BIGSERIAL PRIMARY KEY,
		district_id     BIGINT NOT NULL REFERENCES districts(id) ON DELETE CASCADE,
		organization_id BIGINT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS product_organizations (
		id              BIGSERIAL PRIMARY KEY,
		product_id      BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		organization_id BIGINT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		price           BIGINT NOT NULL CHECK (price >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_organization_districts_org
		ON organization_districts(organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_organization_districts_district
		ON organization_districts(district_id)`,
	`CREATE INDEX IF NOT EXISTS idx_product_organizations_org
		ON product_organizations(organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category
		ON products(category_id)`,
}

// EnsureSchema creates the directory tables if they do not exist yet.
func (db *Database) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
