package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/shopcredit/internal/ledger"
	"github.com/mmynk/shopcredit/internal/middleware"
	"github.com/mmynk/shopcredit/internal/models"
)

var (
	errAuthRequired = errors.New("authentication required")
	errNotParty     = errors.New("you must be a party to this order")
	errNotLender    = errors.New("only the order's wholesaler or an admin may do this")
	errNotOwnLedger = errors.New("shop owners may only view their own ledger")
)

// ledgerError maps engine errors to Connect codes.
func ledgerError(op string, err error) *connect.Error {
	var code connect.Code
	switch {
	case errors.Is(err, ledger.ErrInvalidOrder), errors.Is(err, ledger.ErrInvalidPayment):
		code = connect.CodeInvalidArgument
	case errors.Is(err, ledger.ErrOverpayment),
		errors.Is(err, ledger.ErrOrderClosed),
		errors.Is(err, ledger.ErrCreditLimitExceeded),
		errors.Is(err, ledger.ErrInvalidTransition):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, ledger.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, ledger.ErrConcurrencyConflict):
		code = connect.CodeAborted
	default:
		slog.Error(op+" failed", "error", err)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
	return connect.NewError(code, err)
}

// caller is the authenticated party making a request.
type caller struct {
	id   string
	role models.Role
}

func callerFrom(ctx context.Context) (caller, error) {
	c := caller{id: middleware.GetPartyID(ctx), role: middleware.GetRole(ctx)}
	if c.id == "" {
		return caller{}, connect.NewError(connect.CodeUnauthenticated, errAuthRequired)
	}
	return c, nil
}

func (c caller) isAdmin() bool {
	return c.role == models.RoleAdmin
}

// canView reports whether c may read or pay into the order.
func (c caller) canView(order *models.CreditOrder) bool {
	return c.isAdmin() || c.id == order.WholesalerID || c.id == order.ShopOwnerID
}

// canManage reports whether c may evaluate, cancel or waive on the order.
func (c caller) canManage(order *models.CreditOrder) bool {
	return c.isAdmin() || c.id == order.WholesalerID
}

// canViewShopOwner reports whether c may read a shop owner's ledger and exposure.
func (c caller) canViewShopOwner(shopOwnerID string) bool {
	return c.role != models.RoleShopOwner || c.id == shopOwnerID
}
