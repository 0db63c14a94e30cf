package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrAuthFailed is returned when the provider rejects the code.
var ErrAuthFailed = errors.New("authentication failed")

// Profile is the verified identity the provider hands back after a
// successful OAuth code exchange.
type Profile struct {
	ExternalID    string
	Email         string
	Name          string
	PictureURL    string
	EmailVerified bool
	Locale        string
}

// IdentityProvider is the external OAuth collaborator. The service
// never sees credentials; it trades the redirect code for a verified
// profile and builds its own session from there.
type IdentityProvider interface {
	ExchangeCode(ctx context.Context, code string) (*Profile, error)
}

// DevProvider accepts codes of the form "dev:<external-id>:<email>:<name>"
// and echoes them back as a verified profile. It stands in for a real
// OAuth deployment in development and integration tests; production
// wiring substitutes a real provider behind the same interface.
type DevProvider struct{}

func NewDevProvider() *DevProvider {
	return &DevProvider{}
}

func (p *DevProvider) ExchangeCode(ctx context.Context, code string) (*Profile, error) {
	parts := strings.SplitN(code, ":", 4)
	if len(parts) != 4 || parts[0] != "dev" {
		return nil, fmt.Errorf("%w: unrecognized code", ErrAuthFailed)
	}
	return &Profile{
		ExternalID:    parts[1],
		Email:         parts[2],
		Name:          parts[3],
		EmailVerified: true,
	}, nil
}
