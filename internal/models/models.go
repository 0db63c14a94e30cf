package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account backed by an external identity provider. We never
// store credentials; ExternalID is the provider's stable subject and
// Email/DisplayName are snapshots refreshed on each login.
type User struct {
	ID          uuid.UUID `json:"id"`
	ExternalID  string    `json:"external_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	PictureURL  string    `json:"picture_url,omitempty"`
	IsAdmin     bool      `json:"is_admin"`
	Prefs       UserPrefs `json:"prefs"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserPrefs are per-user toggles read by listing queries and the
// notification dispatcher.
type UserPrefs struct {
	ShowGoneItems           bool `json:"show_gone_items"`
	EmailNotifications      bool `json:"email_notifications"`
	NewListingNotifications bool `json:"new_listing_notifications"`
}

// Item is a posted listing. PriceCents of zero means free. An item is
// never hard-deleted by lifecycle transitions; Gone marks it unavailable
// while preserving its claim history, and a later relist records who
// brought it back.
type Item struct {
	ID           uuid.UUID  `json:"id"`
	OwnerID      uuid.UUID  `json:"owner_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	PriceCents   int64      `json:"price_cents"`
	ContactEmail string     `json:"contact_email"`
	ImageKey     string     `json:"image_key,omitempty"`
	ExtraImages  []string   `json:"extra_images,omitempty"`
	Gone         bool       `json:"gone"`
	GoneAt       *time.Time `json:"gone_at,omitempty"`
	GoneBy       *uuid.UUID `json:"gone_by,omitempty"`
	RelistedAt   *time.Time `json:"relisted_at,omitempty"`
	RelistedBy   *uuid.UUID `json:"relisted_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ClaimStatus is the lifecycle state of a claim row. Rows are never
// deleted; withdrawal flips the status so the history stays auditable.
type ClaimStatus string

const (
	ClaimStatusActive  ClaimStatus = "active"
	ClaimStatusRemoved ClaimStatus = "removed"
)

// Claim is one user's place in an item's waitlist.
//
// ID is a bigserial. Waitlist order is (claimed_at ASC, id ASC): the id
// breaks timestamp ties with insertion order, so the ordering is total
// even when two claims land in the same microsecond. Position and
// "primary" are always derived from that ordering, never stored.
//
// UserName and UserEmail are snapshots taken at claim time, so the owner
// can still reach a claimant whose profile changed afterwards.
type Claim struct {
	ID        int64       `json:"id"`
	ItemID    uuid.UUID   `json:"item_id"`
	UserID    uuid.UUID   `json:"user_id"`
	UserName  string      `json:"user_name"`
	UserEmail string      `json:"user_email"`
	Status    ClaimStatus `json:"status"`
	ClaimedAt time.Time   `json:"claimed_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Community is a neighborhood group scoping item visibility and
// notifications. Private communities hide their items from non-members.
// WebhookURL, when set, receives a JSON payload for each new listing.
type Community struct {
	ID          int64     `json:"id"`
	ShortName   string    `json:"short_name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description,omitempty"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Private     bool      `json:"private"`
	WebhookURL  string    `json:"webhook_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ItemView is the read model for listing pages: the item plus everything
// derived from its active claims. ViewerPosition is the requesting user's
// 1-based waitlist position, zero when they hold no active claim.
type ItemView struct {
	Item             Item   `json:"item"`
	PrimaryClaim     *Claim `json:"primary_claim,omitempty"`
	ActiveClaimCount int    `json:"active_claim_count"`
	ViewerPosition   int    `json:"viewer_position,omitempty"`
}
