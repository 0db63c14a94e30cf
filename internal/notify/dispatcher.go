// Package notify fans lifecycle events out to email and community
// webhooks. Delivery is best-effort and at-most-once: every event is
// handled on its own goroutine after the triggering transaction has
// committed, and failures are logged and swallowed, never propagated
// back to the lifecycle operation.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shevett/claimit/internal/models"
	"github.com/shevett/claimit/internal/repository"
	"go.uber.org/zap"
)

const deliveryTimeout = 30 * time.Second

type Dispatcher struct {
	users     repository.UserRepository
	transport Transport
	logger    *zap.Logger
	wg        sync.WaitGroup
}

func NewDispatcher(users repository.UserRepository, transport Transport, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		users:     users,
		transport: transport,
		logger:    logger,
	}
}

// ItemPosted notifies opted-in members of the item's communities
// (excluding the poster) and POSTs to each community webhook.
func (d *Dispatcher) ItemPosted(item models.Item, poster models.User, communities []models.Community) {
	d.spawn(func(ctx context.Context) {
		communityIDs := make([]int64, 0, len(communities))
		for _, community := range communities {
			communityIDs = append(communityIDs, community.ID)
		}

		subscribers, err := d.users.ListNewListingSubscribers(ctx, communityIDs)
		if err != nil {
			d.logger.Warn("listing subscribers failed",
				zap.String("item_id", item.ID.String()), zap.Error(err))
			subscribers = nil
		}

		subject := fmt.Sprintf("New listing: %s", item.Title)
		text := fmt.Sprintf("%s posted %q.\n\n%s", poster.DisplayName, item.Title, item.Description)
		for _, subscriber := range subscribers {
			if subscriber.ID == poster.ID {
				continue
			}
			if err := d.transport.SendEmail(ctx, subscriber.Email, subject, "", text); err != nil {
				d.logger.Warn("new listing email failed",
					zap.String("to", subscriber.Email), zap.Error(err))
			}
		}

		payload, err := json.Marshal(map[string]any{
			"event":  "item_posted",
			"item":   item,
			"poster": poster.DisplayName,
		})
		if err != nil {
			d.logger.Warn("webhook payload failed", zap.Error(err))
			return
		}
		for _, community := range communities {
			if community.WebhookURL == "" {
				continue
			}
			if err := d.transport.SendWebhook(ctx, community.WebhookURL, payload); err != nil {
				d.logger.Warn("community webhook failed",
					zap.String("community", community.ShortName), zap.Error(err))
			}
		}
	})
}

// ItemClaimed notifies the item's owner of a new claim, honoring the
// owner's email preference. The ledger already guarantees the claimant
// is not the owner.
func (d *Dispatcher) ItemClaimed(item models.Item, claim models.Claim) {
	d.spawn(func(ctx context.Context) {
		owner, err := d.users.GetByID(ctx, item.OwnerID)
		if err != nil {
			d.logger.Warn("owner lookup failed",
				zap.String("item_id", item.ID.String()), zap.Error(err))
			return
		}
		if owner == nil || !owner.Prefs.EmailNotifications {
			return
		}

		subject := fmt.Sprintf("Someone claimed %q", item.Title)
		text := fmt.Sprintf("%s (%s) claimed %q.", claim.UserName, claim.UserEmail, item.Title)
		if err := d.transport.SendEmail(ctx, owner.Email, subject, "", text); err != nil {
			d.logger.Warn("claim email failed",
				zap.String("to", owner.Email), zap.Error(err))
		}
	})
}

// spawn runs fn on its own goroutine with a fresh context: the
// triggering request's context may already be done by the time delivery
// runs, and a cancelled request must not cancel a committed event.
func (d *Dispatcher) spawn(fn func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until in-flight deliveries finish. Used by tests and
// graceful shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
