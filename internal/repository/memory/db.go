// Package memory implements the repository interfaces over in-process
// maps. It exists for tests and local development: the marketplace
// service is exercised against it without a running Postgres, the same
// way it runs against the pgx stores.
package memory

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shevett/claimit/internal/models"
)

// DB is the shared state behind the memory stores. One mutex guards
// everything; the cross-entity checks in the claim ledger (owner lookup
// plus duplicate check plus insert) hold it for their whole span, which
// is the in-process equivalent of the single-transaction rule.
type DB struct {
	mu sync.Mutex

	users           map[uuid.UUID]models.User
	usersByExternal map[string]uuid.UUID

	items map[uuid.UUID]models.Item

	claims      []models.Claim
	nextClaimID int64

	communities     map[int64]models.Community
	nextCommunityID int64

	itemCommunities map[uuid.UUID]map[int64]bool
	userCommunities map[uuid.UUID]map[int64]bool
}

// NewDB returns an empty database seeded with the default "general"
// community, matching what the schema migration creates.
func NewDB() *DB {
	db := &DB{
		users:           make(map[uuid.UUID]models.User),
		usersByExternal: make(map[string]uuid.UUID),
		items:           make(map[uuid.UUID]models.Item),
		nextClaimID:     1,
		communities:     make(map[int64]models.Community),
		nextCommunityID: 1,
		itemCommunities: make(map[uuid.UUID]map[int64]bool),
		userCommunities: make(map[uuid.UUID]map[int64]bool),
	}
	db.communities[1] = models.Community{
		ID:        1,
		ShortName: "general",
		FullName:  "General",
	}
	db.nextCommunityID = 2
	return db
}

func copyItem(it models.Item) models.Item {
	out := it
	out.ExtraImages = append([]string(nil), it.ExtraImages...)
	return out
}
