package service

import (
	"github.com/mmynk/shopcredit/internal/calculator"
	"github.com/mmynk/shopcredit/internal/models"
	"github.com/mmynk/shopcredit/pkg/api/authv1"
	pb "github.com/mmynk/shopcredit/pkg/api/ledgerv1"
)

// moneyPlaces is the number of fraction digits money is rendered with.
const moneyPlaces = 2

func orderToProto(order *models.CreditOrder) *pb.Order {
	insts := make([]*pb.Installment, 0, len(order.Installments))
	for _, inst := range order.Installments {
		insts = append(insts, &pb.Installment{
			Sequence:   inst.Sequence,
			DueDate:    inst.DueDate.Format(models.DateLayout),
			AmountDue:  inst.AmountDue.StringFixed(moneyPlaces),
			AmountPaid: inst.AmountPaid.StringFixed(moneyPlaces),
			Status:     string(inst.Status),
			PaidAt:     inst.PaidAt,
			Late:       inst.Late,
		})
	}
	return &pb.Order{
		Id:               order.ID,
		OrderNumber:      order.OrderNumber,
		WholesalerId:     order.WholesalerID,
		ShopOwnerId:      order.ShopOwnerID,
		Principal:        order.Principal.StringFixed(moneyPlaces),
		OrderDate:        order.OrderDate.Format(models.DateLayout),
		InstallmentCount: order.InstallmentCount,
		IntervalDays:     order.IntervalDays,
		Status:           string(order.Status),
		Notes:            order.Notes,
		Outstanding:      calculator.Outstanding(order.Installments).StringFixed(moneyPlaces),
		Version:          order.Version,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
		Installments:     insts,
	}
}

func ordersToProto(orders []*models.CreditOrder) []*pb.Order {
	out := make([]*pb.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderToProto(o))
	}
	return out
}

func paymentToProto(p *models.Payment) *pb.Payment {
	allocs := make([]*pb.Allocation, 0, len(p.Allocations))
	for _, a := range p.Allocations {
		allocs = append(allocs, &pb.Allocation{
			Sequence: a.Sequence,
			Amount:   a.Amount.StringFixed(moneyPlaces),
		})
	}
	return &pb.Payment{
		Id:          p.ID,
		OrderId:     p.OrderID,
		Amount:      p.Amount.StringFixed(moneyPlaces),
		ReceivedAt:  p.ReceivedAt,
		Reference:   p.Reference,
		Allocations: allocs,
	}
}

func entryToProto(e *models.LedgerEntry) *pb.LedgerEntry {
	return &pb.LedgerEntry{
		Id:           e.ID,
		ShopOwnerId:  e.ShopOwnerID,
		OrderId:      e.OrderID,
		Sequence:     e.Sequence,
		Kind:         string(e.Kind),
		Amount:       e.Amount.StringFixed(moneyPlaces),
		BalanceAfter: e.BalanceAfter.StringFixed(moneyPlaces),
		Description:  e.Description,
		CreatedAt:    e.CreatedAt,
	}
}

func partyToProto(p *models.Party) *authv1.Party {
	out := &authv1.Party{
		Id:          p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
	}
	if p.CreditLimit.IsPositive() {
		out.CreditLimit = p.CreditLimit.StringFixed(moneyPlaces)
	}
	return out
}
