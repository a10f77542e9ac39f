package broker

import (
	"context"

	"github.com/rs/zerolog"
)

// TokenValidator checks an in-band handshake token. Implemented by the
// auth service; the broker never inspects tokens itself.
type TokenValidator interface {
	ValidateToken(token string) error
}

// UserResolver maps a valid token to a user identity. A nil identity
// with a nil error means the user could not be resolved.
type UserResolver interface {
	ResolveUser(ctx context.Context, token string) (*Identity, error)
}

// Gate drives the per-client auth state machine: unauthenticated until
// a valid auth frame arrives, authenticated from then on until
// disconnection. A failed handshake never closes the connection.
type Gate struct {
	validator TokenValidator
	resolver  UserResolver
	log       *zerolog.Logger
}

// NewGate builds a gate over the external token capabilities.
func NewGate(validator TokenValidator, resolver UserResolver, logger *zerolog.Logger) *Gate {
	return &Gate{validator: validator, resolver: resolver, log: logger}
}

// AuthOutcome is the result of one handshake attempt.
type AuthOutcome struct {
	OK       bool
	Identity *Identity
	Code     string
	Message  string
}

// HandleAuthFrame validates the token, resolves the identity and marks
// the client authenticated on success. On failure the client stays
// unauthenticated and may retry.
func (g *Gate) HandleAuthFrame(ctx context.Context, c *Client, token string) AuthOutcome {
	if err := g.validator.ValidateToken(token); err != nil {
		g.log.Debug().Err(err).Str("client_id", c.ID).Msg("token rejected")
		return AuthOutcome{Code: ErrCodeAuthFailed, Message: "Invalid token"}
	}

	identity, err := g.resolver.ResolveUser(ctx, token)
	if err != nil || identity == nil {
		if err != nil {
			g.log.Warn().Err(err).Str("client_id", c.ID).Msg("resolve user failed")
		}
		return AuthOutcome{Code: ErrCodeAuthFailed, Message: "User resolution failed"}
	}

	c.SetIdentity(identity)
	g.log.Info().Str("client_id", c.ID).Str("user", identity.Username).Msg("client authenticated")
	return AuthOutcome{OK: true, Identity: identity}
}

// RequireAuthenticated is the guard consulted before dispatching any
// non-auth frame when the broker requires authentication.
func (g *Gate) RequireAuthenticated(c *Client) bool {
	return c.Authenticated()
}
