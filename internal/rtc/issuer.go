// Package rtc issues short-lived, role-scoped channel access tokens for
// real-time communication join requests.
package rtc

import (
	"errors"
	"fmt"
	"time"
)

// Role granted to issued tokens. Every join request publishes.
const RolePublisher = "publisher"

var (
	// ErrChannelRequired is returned when the channel name is missing.
	// No signing is attempted.
	ErrChannelRequired = errors.New("channel name is required")

	// ErrTokenGeneration is returned when signing fails for any reason,
	// including missing app credentials.
	ErrTokenGeneration = errors.New("could not generate token")
)

// TokenBuilder constructs the signed channel token. The token wire format is
// the RTC provider's protocol; the issuer only decides the inputs.
type TokenBuilder interface {
	BuildToken(appID, appSecret, channel string, uid uint32, role string, expiresAt time.Time) (string, error)
}

// Issuer builds scoped, expiring channel tokens from request parameters.
type Issuer struct {
	appID     string
	appSecret string
	builder   TokenBuilder
	now       func() time.Time
}

// NewIssuer creates an issuer. A nil builder defaults to the JWT builder.
func NewIssuer(appID, appSecret string, builder TokenBuilder) *Issuer {
	if builder == nil {
		builder = JWTBuilder{}
	}
	return &Issuer{
		appID:     appID,
		appSecret: appSecret,
		builder:   builder,
		now:       time.Now,
	}
}

// IssueToken returns a publisher token for the channel, expiring
// expireSeconds from now. uid 0 means anonymous.
func (i *Issuer) IssueToken(channel string, uid uint32, expireSeconds uint32) (string, error) {
	if channel == "" {
		return "", ErrChannelRequired
	}
	if i.appID == "" || i.appSecret == "" {
		return "", fmt.Errorf("%w: app credentials not configured", ErrTokenGeneration)
	}

	expiresAt := i.now().Add(time.Duration(expireSeconds) * time.Second)
	token, err := i.builder.BuildToken(i.appID, i.appSecret, channel, uid, RolePublisher, expiresAt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return token, nil
}
