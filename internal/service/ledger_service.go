package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/shopcredit/internal/ledger"
	"github.com/mmynk/shopcredit/internal/models"
	pb "github.com/mmynk/shopcredit/pkg/api/ledgerv1"
)

// LedgerService implements the Connect LedgerService on top of the engine.
// Every call requires an authenticated party.
type LedgerService struct {
	engine *ledger.Engine
}

var _ pb.LedgerServiceHandler = (*LedgerService)(nil)

// NewLedgerService creates a LedgerService backed by engine.
func NewLedgerService(engine *ledger.Engine) *LedgerService {
	return &LedgerService{engine: engine}
}

func (s *LedgerService) CreateOrder(ctx context.Context, req *connect.Request[pb.CreateOrderRequest]) (*connect.Response[pb.CreateOrderResponse], error) {
	c, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}

	wholesalerID := req.Msg.WholesalerId
	switch c.role {
	case models.RoleWholesaler:
		if wholesalerID != "" && wholesalerID != c.id {
			return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("wholesalers may only extend their own credit"))
		}
		wholesalerID = c.id
	case models.RoleAdmin:
		if wholesalerID == "" {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("wholesaler_id required"))
		}
	default:
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("only wholesalers may create credit orders"))
	}

	principal, err := parseMoney("principal", req.Msg.Principal)
	if err != nil {
		return nil, err
	}
	var orderDate time.Time
	if req.Msg.OrderDate != "" {
		if orderDate, err = parseDate("order_date", req.Msg.OrderDate); err != nil {
			return nil, err
		}
	}

	order, err := s.engine.CreateOrder(ctx, ledger.CreateOrderParams{
		WholesalerID:     wholesalerID,
		ShopOwnerID:      req.Msg.ShopOwnerId,
		Principal:        principal,
		InstallmentCount: req.Msg.InstallmentCount,
		OrderDate:        orderDate,
		Notes:            req.Msg.Notes,
	})
	if err != nil {
		return nil, ledgerError("CreateOrder", err)
	}

	return connect.NewResponse(&pb.CreateOrderResponse{Order: orderToProto(order)}), nil
}

func (s *LedgerService) RecordPayment(ctx context.Context, req *connect.Request[pb.RecordPaymentRequest]) (*connect.Response[pb.RecordPaymentResponse], error) {
	c, order, err := s.authorizedOrder(ctx, req.Msg.OrderId, caller.canView, errNotParty)
	if err != nil {
		return nil, err
	}

	amount, err := parseMoney("amount", req.Msg.Amount)
	if err != nil {
		return nil, err
	}
	var receivedAt time.Time
	if req.Msg.ReceivedAt != 0 {
		receivedAt = time.Unix(req.Msg.ReceivedAt, 0).UTC()
	}

	result, err := s.engine.RecordPayment(ctx, ledger.RecordPaymentParams{
		OrderID:    order.ID,
		Amount:     amount,
		ReceivedAt: receivedAt,
		Reference:  req.Msg.Reference,
	})
	if err != nil {
		return nil, ledgerError("RecordPayment", err)
	}

	slog.Info("Payment accepted",
		"order_id", order.ID,
		"recorded_by", c.id,
		"amount", amount.StringFixed(moneyPlaces),
	)
	return connect.NewResponse(&pb.RecordPaymentResponse{
		Order:       orderToProto(result.Order),
		Payment:     paymentToProto(result.Payment),
		Outstanding: result.Outstanding.StringFixed(moneyPlaces),
	}), nil
}

func (s *LedgerService) GetOrder(ctx context.Context, req *connect.Request[pb.GetOrderRequest]) (*connect.Response[pb.GetOrderResponse], error) {
	_, order, err := s.authorizedOrder(ctx, req.Msg.OrderId, caller.canView, errNotParty)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&pb.GetOrderResponse{Order: orderToProto(order)}), nil
}

// ListOrders returns orders visible to the caller. Shop owners and
// wholesalers are pinned to their own side of the order.
func (s *LedgerService) ListOrders(ctx context.Context, req *connect.Request[pb.ListOrdersRequest]) (*connect.Response[pb.ListOrdersResponse], error) {
	c, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}

	filter := ledger.OrderFilter{
		ShopOwnerID:  req.Msg.ShopOwnerId,
		WholesalerID: req.Msg.WholesalerId,
		Status:       models.OrderStatus(req.Msg.Status),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown status %q", req.Msg.Status))
	}
	switch c.role {
	case models.RoleShopOwner:
		filter.ShopOwnerID = c.id
	case models.RoleWholesaler:
		filter.WholesalerID = c.id
	}

	orders, err := s.engine.ListOrders(ctx, filter)
	if err != nil {
		return nil, ledgerError("ListOrders", err)
	}
	return connect.NewResponse(&pb.ListOrdersResponse{Orders: ordersToProto(orders)}), nil
}

func (s *LedgerService) GetOutstandingBalance(ctx context.Context, req *connect.Request[pb.GetOutstandingBalanceRequest]) (*connect.Response[pb.GetOutstandingBalanceResponse], error) {
	if _, _, err := s.authorizedOrder(ctx, req.Msg.OrderId, caller.canView, errNotParty); err != nil {
		return nil, err
	}

	outstanding, err := s.engine.OutstandingBalance(ctx, req.Msg.OrderId)
	if err != nil {
		return nil, ledgerError("GetOutstandingBalance", err)
	}
	return connect.NewResponse(&pb.GetOutstandingBalanceResponse{
		OrderId:     req.Msg.OrderId,
		Outstanding: outstanding.StringFixed(moneyPlaces),
	}), nil
}

func (s *LedgerService) EvaluateDelinquency(ctx context.Context, req *connect.Request[pb.EvaluateDelinquencyRequest]) (*connect.Response[pb.EvaluateDelinquencyResponse], error) {
	_, order, err := s.authorizedOrder(ctx, req.Msg.OrderId, caller.canManage, errNotLender)
	if err != nil {
		return nil, err
	}
	var asOf time.Time
	if req.Msg.AsOf != "" {
		if asOf, err = parseDate("as_of", req.Msg.AsOf); err != nil {
			return nil, err
		}
	}

	outcome, err := s.engine.EvaluateDelinquency(ctx, order.ID, asOf)
	if err != nil {
		return nil, ledgerError("EvaluateDelinquency", err)
	}

	newlyOverdue := outcome.NewlyOverdue
	if newlyOverdue == nil {
		newlyOverdue = []int{}
	}
	return connect.NewResponse(&pb.EvaluateDelinquencyResponse{
		Order:        orderToProto(outcome.Order),
		NewlyOverdue: newlyOverdue,
		Overdue:      outcome.Overdue,
		Defaulted:    outcome.Defaulted,
	}), nil
}

func (s *LedgerService) CancelOrder(ctx context.Context, req *connect.Request[pb.CancelOrderRequest]) (*connect.Response[pb.CancelOrderResponse], error) {
	_, order, err := s.authorizedOrder(ctx, req.Msg.OrderId, caller.canManage, errNotLender)
	if err != nil {
		return nil, err
	}

	cancelled, err := s.engine.CancelOrder(ctx, order.ID, req.Msg.Reason)
	if err != nil {
		return nil, ledgerError("CancelOrder", err)
	}
	return connect.NewResponse(&pb.CancelOrderResponse{Order: orderToProto(cancelled)}), nil
}

func (s *LedgerService) WaiveInstallment(ctx context.Context, req *connect.Request[pb.WaiveInstallmentRequest]) (*connect.Response[pb.WaiveInstallmentResponse], error) {
	_, order, err := s.authorizedOrder(ctx, req.Msg.OrderId, caller.canManage, errNotLender)
	if err != nil {
		return nil, err
	}

	updated, err := s.engine.WaiveInstallment(ctx, order.ID, req.Msg.Sequence, req.Msg.Reason)
	if err != nil {
		return nil, ledgerError("WaiveInstallment", err)
	}
	return connect.NewResponse(&pb.WaiveInstallmentResponse{Order: orderToProto(updated)}), nil
}

func (s *LedgerService) ListPayments(ctx context.Context, req *connect.Request[pb.ListPaymentsRequest]) (*connect.Response[pb.ListPaymentsResponse], error) {
	if _, _, err := s.authorizedOrder(ctx, req.Msg.OrderId, caller.canView, errNotParty); err != nil {
		return nil, err
	}

	payments, err := s.engine.ListPayments(ctx, req.Msg.OrderId)
	if err != nil {
		return nil, ledgerError("ListPayments", err)
	}
	out := make([]*pb.Payment, 0, len(payments))
	for _, p := range payments {
		out = append(out, paymentToProto(p))
	}
	return connect.NewResponse(&pb.ListPaymentsResponse{Payments: out}), nil
}

func (s *LedgerService) ListLedgerEntries(ctx context.Context, req *connect.Request[pb.ListLedgerEntriesRequest]) (*connect.Response[pb.ListLedgerEntriesResponse], error) {
	shopOwnerID, err := s.authorizedShopOwner(ctx, req.Msg.ShopOwnerId)
	if err != nil {
		return nil, err
	}

	entries, err := s.engine.ListLedgerEntries(ctx, shopOwnerID)
	if err != nil {
		return nil, ledgerError("ListLedgerEntries", err)
	}
	out := make([]*pb.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryToProto(e))
	}
	return connect.NewResponse(&pb.ListLedgerEntriesResponse{Entries: out}), nil
}

func (s *LedgerService) GetExposure(ctx context.Context, req *connect.Request[pb.GetExposureRequest]) (*connect.Response[pb.GetExposureResponse], error) {
	shopOwnerID, err := s.authorizedShopOwner(ctx, req.Msg.ShopOwnerId)
	if err != nil {
		return nil, err
	}

	summary, err := s.engine.CreditSummary(ctx, shopOwnerID)
	if err != nil {
		return nil, ledgerError("GetExposure", err)
	}
	resp := &pb.GetExposureResponse{
		ShopOwnerId: summary.ShopOwnerID,
		Exposure:    summary.Exposure.StringFixed(moneyPlaces),
		HasLimit:    summary.HasLimit,
	}
	if summary.HasLimit {
		resp.CreditLimit = summary.Limit.StringFixed(moneyPlaces)
		resp.Available = summary.Available.StringFixed(moneyPlaces)
	}
	return connect.NewResponse(resp), nil
}

// authorizedOrder loads the order and checks allowed for the caller.
func (s *LedgerService) authorizedOrder(ctx context.Context, orderID string, allowed func(caller, *models.CreditOrder) bool, denied error) (caller, *models.CreditOrder, error) {
	c, err := callerFrom(ctx)
	if err != nil {
		return caller{}, nil, err
	}
	if orderID == "" {
		return caller{}, nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("order_id required"))
	}

	order, err := s.engine.GetOrder(ctx, orderID)
	if err != nil {
		return caller{}, nil, ledgerError("GetOrder", err)
	}
	if !allowed(c, order) {
		return caller{}, nil, connect.NewError(connect.CodePermissionDenied, denied)
	}
	return c, order, nil
}

// authorizedShopOwner resolves the shop owner a ledger read is about.
// Shop owners default to themselves.
func (s *LedgerService) authorizedShopOwner(ctx context.Context, shopOwnerID string) (string, error) {
	c, err := callerFrom(ctx)
	if err != nil {
		return "", err
	}
	if shopOwnerID == "" && c.role == models.RoleShopOwner {
		shopOwnerID = c.id
	}
	if shopOwnerID == "" {
		return "", connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("shop_owner_id required"))
	}
	if !c.canViewShopOwner(shopOwnerID) {
		return "", connect.NewError(connect.CodePermissionDenied, errNotOwnLedger)
	}
	return shopOwnerID, nil
}

func parseMoney(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%s: invalid amount %q", field, s))
	}
	return d, nil
}

func parseDate(field, s string) (time.Time, error) {
	t, err := models.ParseDay(s)
	if err != nil {
		return time.Time{}, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%s: expected YYYY-MM-DD, got %q", field, s))
	}
	return t, nil
}
