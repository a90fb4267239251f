package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/shopcredit/internal/auth"
	"github.com/mmynk/shopcredit/internal/ledger"
	"github.com/mmynk/shopcredit/internal/middleware"
	"github.com/mmynk/shopcredit/internal/models"
	"github.com/mmynk/shopcredit/internal/risk"
	"github.com/mmynk/shopcredit/internal/storage"
	"github.com/mmynk/shopcredit/internal/storage/sqlite"
	"github.com/mmynk/shopcredit/pkg/api/authv1"
	pb "github.com/mmynk/shopcredit/pkg/api/ledgerv1"
)

var today = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	ledger pb.LedgerServiceClient
	auth   authv1.AuthServiceClient
	store  storage.Store
	jwt    *auth.JWTManager
}

// setupTestServer serves both services over httptest with a temp SQLite database.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "shopcredit-service-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	engine := ledger.New(store,
		ledger.WithCreditLimits(risk.NewStoredLimits(store)),
		ledger.WithClock(func() time.Time { return today }),
	)

	ledgerPath, ledgerHandler := pb.NewLedgerServiceHandler(NewLedgerService(engine),
		connect.WithInterceptors(middleware.RequireAuth(jwtManager)))
	authPath, authHandler := authv1.NewAuthServiceHandler(
		NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, slog.Default()),
		connect.WithInterceptors(middleware.OptionalAuth(jwtManager)))

	mux := http.NewServeMux()
	mux.Handle(ledgerPath, ledgerHandler)
	mux.Handle(authPath, authHandler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		ledger: pb.NewLedgerServiceClient(http.DefaultClient, server.URL),
		auth:   authv1.NewAuthServiceClient(http.DefaultClient, server.URL),
		store:  store,
		jwt:    jwtManager,
	}
}

type session struct {
	id    string
	token string
}

func (env *testEnv) register(t *testing.T, email string, role models.Role) session {
	t.Helper()
	resp, err := env.auth.Register(context.Background(), connect.NewRequest(&authv1.RegisterRequest{
		Email:       email,
		DisplayName: email,
		Password:    "password123",
		Role:        string(role),
	}))
	require.NoError(t, err)
	return session{id: resp.Msg.Party.Id, token: resp.Msg.Token}
}

func (env *testEnv) admin(t *testing.T) session {
	t.Helper()
	party := models.NewParty("admin@example.com", "Admin", "unused", models.RoleAdmin)
	require.NoError(t, env.store.CreateParty(context.Background(), party))
	token, err := env.jwt.Generate(party)
	require.NoError(t, err)
	return session{id: party.ID, token: token}
}

func as[T any](s session, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if s.token != "" {
		req.Header().Set("Authorization", "Bearer "+s.token)
	}
	return req
}

func requireCode(t *testing.T, want connect.Code, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, connect.CodeOf(err), "error: %v", err)
}

func TestCreditOrderLifecycle(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	wholesaler := env.register(t, "wholesale@example.com", models.RoleWholesaler)
	shop := env.register(t, "shop@example.com", models.RoleShopOwner)

	created, err := env.ledger.CreateOrder(ctx, as(wholesaler, &pb.CreateOrderRequest{
		ShopOwnerId:      shop.id,
		Principal:        "1000",
		InstallmentCount: 3,
		Notes:            "rice and pulses",
	}))
	require.NoError(t, err)
	order := created.Msg.Order
	require.Equal(t, "ORD-20240101-0001", order.OrderNumber)
	require.Equal(t, wholesaler.id, order.WholesalerId)
	require.Equal(t, "active", order.Status)
	require.Equal(t, "1000.00", order.Outstanding)
	require.Len(t, order.Installments, 3)

	var amounts, dues []string
	for _, inst := range order.Installments {
		amounts = append(amounts, inst.AmountDue)
		dues = append(dues, inst.DueDate)
	}
	require.Equal(t, []string{"333.33", "333.33", "333.34"}, amounts)
	require.Equal(t, []string{"2024-01-31", "2024-03-01", "2024-03-31"}, dues)

	paid, err := env.ledger.RecordPayment(ctx, as(shop, &pb.RecordPaymentRequest{
		OrderId:   order.Id,
		Amount:    "500",
		Reference: "UPI-123",
	}))
	require.NoError(t, err)
	require.Equal(t, "500.00", paid.Msg.Outstanding)
	require.Len(t, paid.Msg.Payment.Allocations, 2)
	require.Equal(t, "333.33", paid.Msg.Payment.Allocations[0].Amount)
	require.Equal(t, "166.67", paid.Msg.Payment.Allocations[1].Amount)
	require.Equal(t, "paid", paid.Msg.Order.Installments[0].Status)

	_, err = env.ledger.RecordPayment(ctx, as(shop, &pb.RecordPaymentRequest{OrderId: order.Id, Amount: "500.01"}))
	requireCode(t, connect.CodeFailedPrecondition, err)

	balance, err := env.ledger.GetOutstandingBalance(ctx, as(wholesaler, &pb.GetOutstandingBalanceRequest{OrderId: order.Id}))
	require.NoError(t, err)
	require.Equal(t, "500.00", balance.Msg.Outstanding)

	paid, err = env.ledger.RecordPayment(ctx, as(wholesaler, &pb.RecordPaymentRequest{OrderId: order.Id, Amount: "500.00"}))
	require.NoError(t, err)
	require.Equal(t, "completed", paid.Msg.Order.Status)
	require.Equal(t, "0.00", paid.Msg.Outstanding)

	payments, err := env.ledger.ListPayments(ctx, as(shop, &pb.ListPaymentsRequest{OrderId: order.Id}))
	require.NoError(t, err)
	require.Len(t, payments.Msg.Payments, 2)
	require.Equal(t, "UPI-123", payments.Msg.Payments[0].Reference)

	entries, err := env.ledger.ListLedgerEntries(ctx, as(shop, &pb.ListLedgerEntriesRequest{}))
	require.NoError(t, err)
	require.Len(t, entries.Msg.Entries, 3)
	require.Equal(t, "credit", entries.Msg.Entries[0].Kind)
	require.Equal(t, "1000.00", entries.Msg.Entries[0].BalanceAfter)
	require.Equal(t, "500.00", entries.Msg.Entries[1].BalanceAfter)
	require.Equal(t, "0.00", entries.Msg.Entries[2].BalanceAfter)

	_, err = env.ledger.RecordPayment(ctx, as(shop, &pb.RecordPaymentRequest{OrderId: order.Id, Amount: "1"}))
	requireCode(t, connect.CodeFailedPrecondition, err)
}

func TestDelinquencyAndOverrides(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	wholesaler := env.register(t, "wholesale@example.com", models.RoleWholesaler)
	shop := env.register(t, "shop@example.com", models.RoleShopOwner)

	created, err := env.ledger.CreateOrder(ctx, as(wholesaler, &pb.CreateOrderRequest{
		ShopOwnerId:      shop.id,
		Principal:        "300",
		InstallmentCount: 3,
	}))
	require.NoError(t, err)
	orderID := created.Msg.Order.Id

	_, err = env.ledger.EvaluateDelinquency(ctx, as(shop, &pb.EvaluateDelinquencyRequest{OrderId: orderID}))
	requireCode(t, connect.CodePermissionDenied, err)

	_, err = env.ledger.EvaluateDelinquency(ctx, as(wholesaler, &pb.EvaluateDelinquencyRequest{OrderId: orderID, AsOf: "03/02/2024"}))
	requireCode(t, connect.CodeInvalidArgument, err)

	outcome, err := env.ledger.EvaluateDelinquency(ctx, as(wholesaler, &pb.EvaluateDelinquencyRequest{OrderId: orderID, AsOf: "2024-02-01"}))
	require.NoError(t, err)
	require.Equal(t, []int{1}, outcome.Msg.NewlyOverdue)
	require.False(t, outcome.Msg.Defaulted)
	require.Equal(t, "overdue", outcome.Msg.Order.Installments[0].Status)

	waived, err := env.ledger.WaiveInstallment(ctx, as(wholesaler, &pb.WaiveInstallmentRequest{OrderId: orderID, Sequence: 1, Reason: "damaged goods"}))
	require.NoError(t, err)
	require.Equal(t, "waived", waived.Msg.Order.Installments[0].Status)
	require.Equal(t, "200.00", waived.Msg.Order.Outstanding)

	_, err = env.ledger.WaiveInstallment(ctx, as(wholesaler, &pb.WaiveInstallmentRequest{OrderId: orderID, Sequence: 1}))
	requireCode(t, connect.CodeFailedPrecondition, err)

	_, err = env.ledger.CancelOrder(ctx, as(shop, &pb.CancelOrderRequest{OrderId: orderID}))
	requireCode(t, connect.CodePermissionDenied, err)

	cancelled, err := env.ledger.CancelOrder(ctx, as(wholesaler, &pb.CancelOrderRequest{OrderId: orderID, Reason: "returned"}))
	require.NoError(t, err)
	require.Equal(t, "cancelled", cancelled.Msg.Order.Status)

	_, err = env.ledger.CancelOrder(ctx, as(wholesaler, &pb.CancelOrderRequest{OrderId: orderID}))
	requireCode(t, connect.CodeFailedPrecondition, err)

	exposure, err := env.ledger.GetExposure(ctx, as(shop, &pb.GetExposureRequest{}))
	require.NoError(t, err)
	require.Equal(t, "0.00", exposure.Msg.Exposure)
	require.False(t, exposure.Msg.HasLimit)
}

func TestLedgerAuthorization(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	wholesaler := env.register(t, "wholesale@example.com", models.RoleWholesaler)
	shop := env.register(t, "shop@example.com", models.RoleShopOwner)
	otherShop := env.register(t, "other@example.com", models.RoleShopOwner)

	_, err := env.ledger.CreateOrder(ctx, connect.NewRequest(&pb.CreateOrderRequest{ShopOwnerId: shop.id, Principal: "10"}))
	requireCode(t, connect.CodeUnauthenticated, err)

	_, err = env.ledger.CreateOrder(ctx, as(shop, &pb.CreateOrderRequest{ShopOwnerId: otherShop.id, Principal: "10"}))
	requireCode(t, connect.CodePermissionDenied, err)

	_, err = env.ledger.CreateOrder(ctx, as(wholesaler, &pb.CreateOrderRequest{WholesalerId: "someone-else", ShopOwnerId: shop.id, Principal: "10"}))
	requireCode(t, connect.CodePermissionDenied, err)

	created, err := env.ledger.CreateOrder(ctx, as(wholesaler, &pb.CreateOrderRequest{ShopOwnerId: shop.id, Principal: "10"}))
	require.NoError(t, err)
	require.Len(t, created.Msg.Order.Installments, 1)

	_, err = env.ledger.GetOrder(ctx, as(otherShop, &pb.GetOrderRequest{OrderId: created.Msg.Order.Id}))
	requireCode(t, connect.CodePermissionDenied, err)

	_, err = env.ledger.RecordPayment(ctx, as(otherShop, &pb.RecordPaymentRequest{OrderId: created.Msg.Order.Id, Amount: "1"}))
	requireCode(t, connect.CodePermissionDenied, err)

	_, err = env.ledger.ListLedgerEntries(ctx, as(otherShop, &pb.ListLedgerEntriesRequest{ShopOwnerId: shop.id}))
	requireCode(t, connect.CodePermissionDenied, err)

	// Shop owners only ever see their own orders, whatever the filter says.
	list, err := env.ledger.ListOrders(ctx, as(otherShop, &pb.ListOrdersRequest{ShopOwnerId: shop.id}))
	require.NoError(t, err)
	require.Empty(t, list.Msg.Orders)

	list, err = env.ledger.ListOrders(ctx, as(shop, &pb.ListOrdersRequest{Status: "active"}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Orders, 1)

	_, err = env.ledger.ListOrders(ctx, as(shop, &pb.ListOrdersRequest{Status: "paused"}))
	requireCode(t, connect.CodeInvalidArgument, err)

	admin := env.admin(t)
	got, err := env.ledger.GetOrder(ctx, as(admin, &pb.GetOrderRequest{OrderId: created.Msg.Order.Id}))
	require.NoError(t, err)
	require.Equal(t, created.Msg.Order.OrderNumber, got.Msg.Order.OrderNumber)

	_, err = env.ledger.CreateOrder(ctx, as(admin, &pb.CreateOrderRequest{ShopOwnerId: shop.id, Principal: "10"}))
	requireCode(t, connect.CodeInvalidArgument, err)
}

func TestLedgerValidationErrors(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	wholesaler := env.register(t, "wholesale@example.com", models.RoleWholesaler)
	shop := env.register(t, "shop@example.com", models.RoleShopOwner)

	tests := []struct {
		name string
		req  *pb.CreateOrderRequest
	}{
		{"not a number", &pb.CreateOrderRequest{ShopOwnerId: shop.id, Principal: "abc"}},
		{"too precise", &pb.CreateOrderRequest{ShopOwnerId: shop.id, Principal: "10.001"}},
		{"zero", &pb.CreateOrderRequest{ShopOwnerId: shop.id, Principal: "0"}},
		{"negative count", &pb.CreateOrderRequest{ShopOwnerId: shop.id, Principal: "10", InstallmentCount: -1}},
		{"bad date", &pb.CreateOrderRequest{ShopOwnerId: shop.id, Principal: "10", OrderDate: "yesterday"}},
		{"missing shop owner", &pb.CreateOrderRequest{Principal: "10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ledger.CreateOrder(ctx, as(wholesaler, tt.req))
			requireCode(t, connect.CodeInvalidArgument, err)
		})
	}

	_, err := env.ledger.GetOrder(ctx, as(wholesaler, &pb.GetOrderRequest{OrderId: "nonexistent-id"}))
	requireCode(t, connect.CodeNotFound, err)

	_, err = env.ledger.GetOrder(ctx, as(wholesaler, &pb.GetOrderRequest{}))
	requireCode(t, connect.CodeInvalidArgument, err)
}

func TestCreditLimitEnforced(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	wholesaler := env.register(t, "wholesale@example.com", models.RoleWholesaler)
	shop := env.register(t, "shop@example.com", models.RoleShopOwner)
	admin := env.admin(t)

	_, err := env.auth.SetCreditLimit(ctx, as(wholesaler, &authv1.SetCreditLimitRequest{PartyId: shop.id, CreditLimit: "1000"}))
	requireCode(t, connect.CodePermissionDenied, err)

	_, err = env.auth.SetCreditLimit(ctx, as(admin, &authv1.SetCreditLimitRequest{PartyId: wholesaler.id, CreditLimit: "1000"}))
	requireCode(t, connect.CodeFailedPrecondition, err)

	set, err := env.auth.SetCreditLimit(ctx, as(admin, &authv1.SetCreditLimitRequest{PartyId: shop.id, CreditLimit: "1000"}))
	require.NoError(t, err)
	require.Equal(t, "1000.00", set.Msg.Party.CreditLimit)

	_, err = env.ledger.CreateOrder(ctx, as(wholesaler, &pb.CreateOrderRequest{ShopOwnerId: shop.id, Principal: "800"}))
	require.NoError(t, err)

	_, err = env.ledger.CreateOrder(ctx, as(wholesaler, &pb.CreateOrderRequest{ShopOwnerId: shop.id, Principal: "300"}))
	requireCode(t, connect.CodeFailedPrecondition, err)

	exposure, err := env.ledger.GetExposure(ctx, as(wholesaler, &pb.GetExposureRequest{ShopOwnerId: shop.id}))
	require.NoError(t, err)
	require.Equal(t, "800.00", exposure.Msg.Exposure)
	require.True(t, exposure.Msg.HasLimit)
	require.Equal(t, "1000.00", exposure.Msg.CreditLimit)
	require.Equal(t, "200.00", exposure.Msg.Available)
}
