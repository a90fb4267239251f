package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/shopcredit/internal/models"
	"github.com/mmynk/shopcredit/internal/storage/sqlite"
)

func newAuthenticator(t *testing.T) *PasswordAuthenticator {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewPasswordAuthenticator(store)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	a := newAuthenticator(t)
	ctx := context.Background()

	party, err := a.Register(ctx, "  Ravi@Example.com ", "Ravi Stores", "s3cret-pass", models.RoleShopOwner)
	require.NoError(t, err)
	require.Equal(t, "ravi@example.com", party.Email)
	require.Equal(t, models.RoleShopOwner, party.Role)
	require.NotEqual(t, "s3cret-pass", party.PasswordHash)

	got, err := a.Authenticate(ctx, "RAVI@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.Equal(t, party.ID, got.ID)

	_, err = a.Authenticate(ctx, "ravi@example.com", "wrong-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Authenticate(ctx, "nobody@example.com", "s3cret-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	a := newAuthenticator(t)
	ctx := context.Background()

	_, err := a.Register(ctx, "w@example.com", "W", "short", models.RoleWholesaler)
	require.ErrorIs(t, err, ErrWeakPassword)

	_, err = a.Register(ctx, "not-an-email", "W", "long-enough", models.RoleWholesaler)
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, err = a.Register(ctx, "w@example.com", "W", "long-enough", models.Role("banker"))
	require.ErrorIs(t, err, ErrInvalidRole)

	_, err = a.Register(ctx, "w@example.com", "W", "long-enough", models.RoleWholesaler)
	require.NoError(t, err)
	_, err = a.Register(ctx, "W@example.com", "W2", "long-enough", models.RoleShopOwner)
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	party := models.NewParty("w@example.com", "W", "hash", models.RoleWholesaler)

	token, err := m.Generate(party)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	require.Equal(t, party.ID, claims.PartyID)
	require.Equal(t, models.RoleWholesaler, claims.Role)
	require.Equal(t, "w@example.com", claims.Email)
}

func TestJWTRejects(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	party := models.NewParty("w@example.com", "W", "hash", models.RoleWholesaler)

	other := NewJWTManager("other-secret", time.Hour)
	token, err := other.Generate(party)
	require.NoError(t, err)
	_, err = m.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := NewJWTManager("test-secret", -time.Minute)
	token, err = expired.Generate(party)
	require.NoError(t, err)
	_, err = m.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{PartyID: party.ID, Role: party.Role})
	token, err = unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Validate("garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
}
