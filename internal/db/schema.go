package db

import (
	"context"
	"fmt"
)

// schema is applied on startup. Every statement is idempotent so the
// service can migrate on boot without tracking versions.
//
// The partial unique index on claims is the storage-level backstop for
// the "one active claim per (item, user)" invariant: the repository
// checks inside a transaction, but two racing transactions can both pass
// the check, and the index makes the loser fail instead of committing a
// duplicate.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id uuid PRIMARY KEY,
		external_id text NOT NULL UNIQUE,
		email text NOT NULL,
		display_name text NOT NULL,
		picture_url text NOT NULL DEFAULT '',
		is_admin boolean NOT NULL DEFAULT false,
		show_gone_items boolean NOT NULL DEFAULT false,
		email_notifications boolean NOT NULL DEFAULT true,
		new_listing_notifications boolean NOT NULL DEFAULT false,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS items (
		id uuid PRIMARY KEY,
		owner_id uuid NOT NULL REFERENCES users(id),
		title text NOT NULL,
		description text NOT NULL,
		price_cents bigint NOT NULL DEFAULT 0,
		contact_email text NOT NULL,
		image_key text NOT NULL DEFAULT '',
		extra_images text[] NOT NULL DEFAULT '{}',
		gone boolean NOT NULL DEFAULT false,
		gone_at timestamptz,
		gone_by uuid,
		relisted_at timestamptz,
		relisted_by uuid,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS claims (
		id bigserial PRIMARY KEY,
		item_id uuid NOT NULL REFERENCES items(id),
		user_id uuid NOT NULL REFERENCES users(id),
		user_name text NOT NULL,
		user_email text NOT NULL,
		status text NOT NULL DEFAULT 'active',
		claimed_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_claims_one_active
		ON claims (item_id, user_id) WHERE status = 'active'`,
	`CREATE INDEX IF NOT EXISTS idx_claims_item_order
		ON claims (item_id, claimed_at, id) WHERE status = 'active'`,

	`CREATE TABLE IF NOT EXISTS communities (
		id bigserial PRIMARY KEY,
		short_name text NOT NULL UNIQUE,
		full_name text NOT NULL,
		description text NOT NULL DEFAULT '',
		owner_id uuid NOT NULL,
		private boolean NOT NULL DEFAULT false,
		webhook_url text NOT NULL DEFAULT '',
		created_at timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS item_communities (
		item_id uuid NOT NULL REFERENCES items(id),
		community_id bigint NOT NULL REFERENCES communities(id),
		PRIMARY KEY (item_id, community_id)
	)`,

	`CREATE TABLE IF NOT EXISTS user_communities (
		user_id uuid NOT NULL REFERENCES users(id),
		community_id bigint NOT NULL REFERENCES communities(id),
		PRIMARY KEY (user_id, community_id)
	)`,

	// Items posted with no explicit community list land here.
	`INSERT INTO communities (short_name, full_name, owner_id)
		VALUES ('general', 'General', '00000000-0000-0000-0000-000000000000')
		ON CONFLICT (short_name) DO NOTHING`,
}

// Migrate applies the schema statements in order.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
