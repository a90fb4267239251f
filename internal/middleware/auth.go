package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/shopcredit/internal/auth"
	"github.com/mmynk/shopcredit/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// PartyIDKey is the context key for the authenticated party ID.
	PartyIDKey contextKey = "party_id"
	// EmailKey is the context key for the authenticated party's email.
	EmailKey contextKey = "email"
	// RoleKey is the context key for the authenticated party's role.
	RoleKey contextKey = "role"
)

// GetPartyID extracts the party ID from the context.
// Returns empty string if not found.
func GetPartyID(ctx context.Context) string {
	partyID, _ := ctx.Value(PartyIDKey).(string)
	return partyID
}

// GetEmail extracts the party email from the context.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// GetRole extracts the party role from the context.
// Returns empty role if unauthenticated.
func GetRole(ctx context.Context) models.Role {
	role, _ := ctx.Value(RoleKey).(models.Role)
	return role
}

// WithClaims stores the session identity in ctx.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, PartyIDKey, claims.PartyID)
	ctx = context.WithValue(ctx, EmailKey, claims.Email)
	return context.WithValue(ctx, RoleKey, claims.Role)
}

// RequireAuth returns an interceptor that rejects requests without a valid
// bearer token and adds the party identity to the context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			tokenString, ok := bearerToken(authHeader)
			if !ok {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithClaims(ctx, claims), req)
		}
	}
}

// OptionalAuth returns an interceptor that adds the party identity when a
// valid token is present and lets anonymous requests through.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if tokenString, ok := bearerToken(req.Header().Get("Authorization")); ok {
				// Invalid tokens are treated as anonymous.
				if claims, err := jwtManager.Validate(tokenString); err == nil {
					ctx = WithClaims(ctx, claims)
				}
			}
			return next(ctx, req)
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
