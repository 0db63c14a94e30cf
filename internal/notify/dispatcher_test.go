package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shevett/claimit/internal/models"
	"github.com/shevett/claimit/internal/repository/memory"
	"go.uber.org/zap"
)

type sentEmail struct {
	to      string
	subject string
}

// fakeTransport records deliveries; FailAll makes every send error.
type fakeTransport struct {
	mu       sync.Mutex
	emails   []sentEmail
	webhooks []string
	FailAll  bool
}

func (f *fakeTransport) SendEmail(ctx context.Context, to, subject, htmlBody, textBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll {
		return errors.New("smtp down")
	}
	f.emails = append(f.emails, sentEmail{to: to, subject: subject})
	return nil
}

func (f *fakeTransport) SendWebhook(ctx context.Context, url string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll {
		return errors.New("endpoint down")
	}
	f.webhooks = append(f.webhooks, url)
	return nil
}

func (f *fakeTransport) sent() ([]sentEmail, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentEmail(nil), f.emails...), append([]string(nil), f.webhooks...)
}

func setupUsers(t *testing.T) (*memory.DB, *memory.UserStore, *models.User, *models.User) {
	t.Helper()
	db := memory.NewDB()
	users := memory.NewUserStore(db)

	poster, err := users.UpsertByExternalID(context.Background(), "ext-p", "poster@example.com", "Poster", "")
	if err != nil {
		t.Fatalf("creating poster: %v", err)
	}
	neighbor, err := users.UpsertByExternalID(context.Background(), "ext-n", "neighbor@example.com", "Neighbor", "")
	if err != nil {
		t.Fatalf("creating neighbor: %v", err)
	}
	return db, users, poster, neighbor
}

func TestItemPostedNotifiesSubscribersAndWebhooks(t *testing.T) {
	db, users, poster, neighbor := setupUsers(t)

	// Both users belong to the seeded community and want new-listing mail.
	communities := memory.NewCommunityStore(db)
	ctx := context.Background()
	for _, u := range []*models.User{poster, neighbor} {
		if err := communities.Join(ctx, u.ID, 1); err != nil {
			t.Fatalf("join: %v", err)
		}
		prefs := u.Prefs
		prefs.NewListingNotifications = true
		if err := users.UpdatePrefs(ctx, u.ID, prefs); err != nil {
			t.Fatalf("prefs: %v", err)
		}
	}

	transport := &fakeTransport{}
	d := NewDispatcher(users, transport, zap.NewNop())

	item := models.Item{ID: uuid.New(), OwnerID: poster.ID, Title: "toaster"}
	d.ItemPosted(item, *poster, []models.Community{
		{ID: 1, ShortName: "general", WebhookURL: "https://hooks.example.com/general"},
	})
	d.Wait()

	emails, webhooks := transport.sent()
	if len(emails) != 1 || emails[0].to != neighbor.Email {
		t.Errorf("expected one email to the neighbor, got %+v", emails)
	}
	if len(webhooks) != 1 || webhooks[0] != "https://hooks.example.com/general" {
		t.Errorf("expected one webhook delivery, got %+v", webhooks)
	}
}

func TestItemClaimedHonorsOwnerPreference(t *testing.T) {
	_, users, owner, claimant := setupUsers(t)
	ctx := context.Background()

	transport := &fakeTransport{}
	d := NewDispatcher(users, transport, zap.NewNop())

	item := models.Item{ID: uuid.New(), OwnerID: owner.ID, Title: "blender"}
	claim := models.Claim{UserID: claimant.ID, UserName: claimant.DisplayName, UserEmail: claimant.Email}

	d.ItemClaimed(item, claim)
	d.Wait()
	emails, _ := transport.sent()
	if len(emails) != 1 || emails[0].to != owner.Email {
		t.Fatalf("expected one email to the owner, got %+v", emails)
	}

	// Opting out silences claim mail.
	prefs := owner.Prefs
	prefs.EmailNotifications = false
	if err := users.UpdatePrefs(ctx, owner.ID, prefs); err != nil {
		t.Fatalf("prefs: %v", err)
	}
	d.ItemClaimed(item, claim)
	d.Wait()
	emails, _ = transport.sent()
	if len(emails) != 1 {
		t.Errorf("expected no further mail after opt-out, got %d", len(emails))
	}
}

func TestDeliveryFailuresAreSwallowed(t *testing.T) {
	_, users, owner, claimant := setupUsers(t)

	transport := &fakeTransport{FailAll: true}
	d := NewDispatcher(users, transport, zap.NewNop())

	item := models.Item{ID: uuid.New(), OwnerID: owner.ID, Title: "fan"}
	d.ItemClaimed(item, models.Claim{UserID: claimant.ID, UserName: claimant.DisplayName, UserEmail: claimant.Email})
	d.ItemPosted(item, *owner, []models.Community{{ID: 1, WebhookURL: "https://hooks.example.com/x"}})

	// Wait returning at all is the assertion: no panic, no retry loop.
	d.Wait()
}
