package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/shopcredit/internal/models"
	"github.com/mmynk/shopcredit/pkg/api/authv1"
)

func TestRegisterAndLogin(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, connect.NewRequest(&authv1.RegisterRequest{
		Email:       "Shop@Example.com",
		DisplayName: "Corner Shop",
		Password:    "password123",
		Role:        "shop_owner",
	}))
	require.NoError(t, err)
	require.NotEmpty(t, reg.Msg.Token)
	require.Equal(t, "shop@example.com", reg.Msg.Party.Email)
	require.Equal(t, "shop_owner", reg.Msg.Party.Role)
	require.Positive(t, reg.Msg.ExpiresAt)

	claims, err := env.jwt.Validate(reg.Msg.Token)
	require.NoError(t, err)
	require.Equal(t, models.RoleShopOwner, claims.Role)

	login, err := env.auth.Login(ctx, connect.NewRequest(&authv1.LoginRequest{
		Email:    "shop@example.com",
		Password: "password123",
	}))
	require.NoError(t, err)
	require.Equal(t, reg.Msg.Party.Id, login.Msg.Party.Id)

	_, err = env.auth.Login(ctx, connect.NewRequest(&authv1.LoginRequest{Email: "shop@example.com", Password: "wrong-password"}))
	requireCode(t, connect.CodeUnauthenticated, err)
}

func TestRegisterRejects(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	env.register(t, "taken@example.com", models.RoleWholesaler)

	tests := []struct {
		name string
		req  *authv1.RegisterRequest
		code connect.Code
	}{
		{"admin role", &authv1.RegisterRequest{Email: "a@example.com", DisplayName: "A", Password: "password123", Role: "admin"}, connect.CodeInvalidArgument},
		{"unknown role", &authv1.RegisterRequest{Email: "a@example.com", DisplayName: "A", Password: "password123", Role: "banker"}, connect.CodeInvalidArgument},
		{"weak password", &authv1.RegisterRequest{Email: "a@example.com", DisplayName: "A", Password: "short", Role: "wholesaler"}, connect.CodeInvalidArgument},
		{"missing name", &authv1.RegisterRequest{Email: "a@example.com", Password: "password123", Role: "wholesaler"}, connect.CodeInvalidArgument},
		{"duplicate", &authv1.RegisterRequest{Email: "taken@example.com", DisplayName: "T", Password: "password123", Role: "shop_owner"}, connect.CodeAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, connect.NewRequest(tt.req))
			requireCode(t, tt.code, err)
		})
	}
}

func TestSetCreditLimitRequiresAuth(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.auth.SetCreditLimit(context.Background(), connect.NewRequest(&authv1.SetCreditLimitRequest{PartyId: "x", CreditLimit: "10"}))
	requireCode(t, connect.CodeUnauthenticated, err)

	admin := env.admin(t)
	_, err = env.auth.SetCreditLimit(context.Background(), as(admin, &authv1.SetCreditLimitRequest{PartyId: "missing", CreditLimit: "10"}))
	requireCode(t, connect.CodeNotFound, err)

	_, err = env.auth.SetCreditLimit(context.Background(), as(admin, &authv1.SetCreditLimitRequest{PartyId: "missing", CreditLimit: "-5"}))
	requireCode(t, connect.CodeInvalidArgument, err)
}
