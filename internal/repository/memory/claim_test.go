package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shevett/claimit/internal/models"
)

func TestListActiveBreaksTimestampTiesByID(t *testing.T) {
	db := NewDB()
	itemID := uuid.New()
	db.items[itemID] = models.Item{ID: itemID, OwnerID: uuid.New()}

	// Three claims landing in the same instant, appended out of id
	// order. The id decides.
	at := time.Now()
	for _, id := range []int64{3, 1, 2} {
		db.claims = append(db.claims, models.Claim{
			ID:        id,
			ItemID:    itemID,
			UserID:    uuid.New(),
			Status:    models.ClaimStatusActive,
			ClaimedAt: at,
		})
	}

	claims, err := NewClaimStore(db).ListActive(context.Background(), itemID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(claims) != 3 {
		t.Fatalf("expected 3 claims, got %d", len(claims))
	}
	for i, claim := range claims {
		if claim.ID != int64(i+1) {
			t.Errorf("position %d holds claim id %d", i+1, claim.ID)
		}
	}
}

func TestListActiveByUserOrdersAcrossItems(t *testing.T) {
	db := NewDB()
	userID := uuid.New()
	first, second := uuid.New(), uuid.New()
	db.items[first] = models.Item{ID: first, OwnerID: uuid.New()}
	db.items[second] = models.Item{ID: second, OwnerID: uuid.New()}

	at := time.Now()
	db.claims = append(db.claims,
		models.Claim{ID: 2, ItemID: second, UserID: userID, Status: models.ClaimStatusActive, ClaimedAt: at},
		models.Claim{ID: 1, ItemID: first, UserID: userID, Status: models.ClaimStatusActive, ClaimedAt: at},
	)

	claims, err := NewClaimStore(db).ListActiveByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(claims) != 2 || claims[0].ID != 1 || claims[1].ID != 2 {
		t.Errorf("expected oldest claim first by id tie-break, got %+v", claims)
	}
}
