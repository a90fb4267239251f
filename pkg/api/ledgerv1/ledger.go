// Package ledgerv1 defines the shopcredit.ledger.v1 wire messages.
// Money is carried as decimal strings with two fraction digits and calendar
// dates as YYYY-MM-DD.
package ledgerv1

type Installment struct {
	Sequence   int    `json:"sequence"`
	DueDate    string `json:"dueDate"`
	AmountDue  string `json:"amountDue"`
	AmountPaid string `json:"amountPaid"`
	Status     string `json:"status"`
	PaidAt     int64  `json:"paidAt,omitempty"`
	Late       bool   `json:"late,omitempty"`
}

type Order struct {
	Id               string         `json:"id"`
	OrderNumber      string         `json:"orderNumber"`
	WholesalerId     string         `json:"wholesalerId"`
	ShopOwnerId      string         `json:"shopOwnerId"`
	Principal        string         `json:"principal"`
	OrderDate        string         `json:"orderDate"`
	InstallmentCount int            `json:"installmentCount"`
	IntervalDays     int            `json:"intervalDays"`
	Status           string         `json:"status"`
	Notes            string         `json:"notes,omitempty"`
	Outstanding      string         `json:"outstanding"`
	Version          int64          `json:"version"`
	CreatedAt        int64          `json:"createdAt"`
	UpdatedAt        int64          `json:"updatedAt"`
	Installments     []*Installment `json:"installments"`
}

type Allocation struct {
	Sequence int    `json:"sequence"`
	Amount   string `json:"amount"`
}

type Payment struct {
	Id          string        `json:"id"`
	OrderId     string        `json:"orderId"`
	Amount      string        `json:"amount"`
	ReceivedAt  int64         `json:"receivedAt"`
	Reference   string        `json:"reference,omitempty"`
	Allocations []*Allocation `json:"allocations"`
}

type LedgerEntry struct {
	Id           string `json:"id"`
	ShopOwnerId  string `json:"shopOwnerId"`
	OrderId      string `json:"orderId"`
	Sequence     int    `json:"sequence,omitempty"`
	Kind         string `json:"kind"`
	Amount       string `json:"amount"`
	BalanceAfter string `json:"balanceAfter"`
	Description  string `json:"description"`
	CreatedAt    int64  `json:"createdAt"`
}

type CreateOrderRequest struct {
	// WholesalerId is taken from the session unless the caller is an admin.
	WholesalerId     string `json:"wholesalerId,omitempty"`
	ShopOwnerId      string `json:"shopOwnerId"`
	Principal        string `json:"principal"`
	InstallmentCount int    `json:"installmentCount,omitempty"`
	OrderDate        string `json:"orderDate,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

type CreateOrderResponse struct {
	Order *Order `json:"order"`
}

type RecordPaymentRequest struct {
	OrderId string `json:"orderId"`
	Amount  string `json:"amount"`
	// ReceivedAt is a unix timestamp; zero means now.
	ReceivedAt int64  `json:"receivedAt,omitempty"`
	Reference  string `json:"reference,omitempty"`
}

type RecordPaymentResponse struct {
	Order       *Order   `json:"order"`
	Payment     *Payment `json:"payment"`
	Outstanding string   `json:"outstanding"`
}

type GetOrderRequest struct {
	OrderId string `json:"orderId"`
}

type GetOrderResponse struct {
	Order *Order `json:"order"`
}

type ListOrdersRequest struct {
	ShopOwnerId  string `json:"shopOwnerId,omitempty"`
	WholesalerId string `json:"wholesalerId,omitempty"`
	Status       string `json:"status,omitempty"`
}

type ListOrdersResponse struct {
	Orders []*Order `json:"orders"`
}

type GetOutstandingBalanceRequest struct {
	OrderId string `json:"orderId"`
}

type GetOutstandingBalanceResponse struct {
	OrderId     string `json:"orderId"`
	Outstanding string `json:"outstanding"`
}

type EvaluateDelinquencyRequest struct {
	OrderId string `json:"orderId"`
	// AsOf defaults to today.
	AsOf string `json:"asOf,omitempty"`
}

type EvaluateDelinquencyResponse struct {
	Order        *Order `json:"order"`
	NewlyOverdue []int  `json:"newlyOverdue"`
	Overdue      int    `json:"overdue"`
	Defaulted    bool   `json:"defaulted"`
}

type CancelOrderRequest struct {
	OrderId string `json:"orderId"`
	Reason  string `json:"reason,omitempty"`
}

type CancelOrderResponse struct {
	Order *Order `json:"order"`
}

type WaiveInstallmentRequest struct {
	OrderId  string `json:"orderId"`
	Sequence int    `json:"sequence"`
	Reason   string `json:"reason,omitempty"`
}

type WaiveInstallmentResponse struct {
	Order *Order `json:"order"`
}

type ListPaymentsRequest struct {
	OrderId string `json:"orderId"`
}

type ListPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}

type ListLedgerEntriesRequest struct {
	ShopOwnerId string `json:"shopOwnerId"`
}

type ListLedgerEntriesResponse struct {
	Entries []*LedgerEntry `json:"entries"`
}

type GetExposureRequest struct {
	ShopOwnerId string `json:"shopOwnerId"`
}

type GetExposureResponse struct {
	ShopOwnerId string `json:"shopOwnerId"`
	Exposure    string `json:"exposure"`
	HasLimit    bool   `json:"hasLimit"`
	CreditLimit string `json:"creditLimit,omitempty"`
	Available   string `json:"available,omitempty"`
}
