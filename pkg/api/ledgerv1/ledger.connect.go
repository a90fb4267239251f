package ledgerv1

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/shopcredit/pkg/api"
)

// LedgerServiceName is the fully-qualified name of the LedgerService service.
const LedgerServiceName = "shopcredit.ledger.v1.LedgerService"

// Fully-qualified procedure names, used as HTTP routes.
const (
	LedgerServiceCreateOrderProcedure           = "/shopcredit.ledger.v1.LedgerService/CreateOrder"
	LedgerServiceRecordPaymentProcedure         = "/shopcredit.ledger.v1.LedgerService/RecordPayment"
	LedgerServiceGetOrderProcedure              = "/shopcredit.ledger.v1.LedgerService/GetOrder"
	LedgerServiceListOrdersProcedure            = "/shopcredit.ledger.v1.LedgerService/ListOrders"
	LedgerServiceGetOutstandingBalanceProcedure = "/shopcredit.ledger.v1.LedgerService/GetOutstandingBalance"
	LedgerServiceEvaluateDelinquencyProcedure   = "/shopcredit.ledger.v1.LedgerService/EvaluateDelinquency"
	LedgerServiceCancelOrderProcedure           = "/shopcredit.ledger.v1.LedgerService/CancelOrder"
	LedgerServiceWaiveInstallmentProcedure      = "/shopcredit.ledger.v1.LedgerService/WaiveInstallment"
	LedgerServiceListPaymentsProcedure          = "/shopcredit.ledger.v1.LedgerService/ListPayments"
	LedgerServiceListLedgerEntriesProcedure     = "/shopcredit.ledger.v1.LedgerService/ListLedgerEntries"
	LedgerServiceGetExposureProcedure           = "/shopcredit.ledger.v1.LedgerService/GetExposure"
)

// LedgerServiceHandler is implemented by the server.
type LedgerServiceHandler interface {
	CreateOrder(context.Context, *connect.Request[CreateOrderRequest]) (*connect.Response[CreateOrderResponse], error)
	RecordPayment(context.Context, *connect.Request[RecordPaymentRequest]) (*connect.Response[RecordPaymentResponse], error)
	GetOrder(context.Context, *connect.Request[GetOrderRequest]) (*connect.Response[GetOrderResponse], error)
	ListOrders(context.Context, *connect.Request[ListOrdersRequest]) (*connect.Response[ListOrdersResponse], error)
	GetOutstandingBalance(context.Context, *connect.Request[GetOutstandingBalanceRequest]) (*connect.Response[GetOutstandingBalanceResponse], error)
	EvaluateDelinquency(context.Context, *connect.Request[EvaluateDelinquencyRequest]) (*connect.Response[EvaluateDelinquencyResponse], error)
	CancelOrder(context.Context, *connect.Request[CancelOrderRequest]) (*connect.Response[CancelOrderResponse], error)
	WaiveInstallment(context.Context, *connect.Request[WaiveInstallmentRequest]) (*connect.Response[WaiveInstallmentResponse], error)
	ListPayments(context.Context, *connect.Request[ListPaymentsRequest]) (*connect.Response[ListPaymentsResponse], error)
	ListLedgerEntries(context.Context, *connect.Request[ListLedgerEntriesRequest]) (*connect.Response[ListLedgerEntriesResponse], error)
	GetExposure(context.Context, *connect.Request[GetExposureRequest]) (*connect.Response[GetExposureResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{api.WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(LedgerServiceCreateOrderProcedure, connect.NewUnaryHandler(LedgerServiceCreateOrderProcedure, svc.CreateOrder, opts...))
	mux.Handle(LedgerServiceRecordPaymentProcedure, connect.NewUnaryHandler(LedgerServiceRecordPaymentProcedure, svc.RecordPayment, opts...))
	mux.Handle(LedgerServiceGetOrderProcedure, connect.NewUnaryHandler(LedgerServiceGetOrderProcedure, svc.GetOrder, opts...))
	mux.Handle(LedgerServiceListOrdersProcedure, connect.NewUnaryHandler(LedgerServiceListOrdersProcedure, svc.ListOrders, opts...))
	mux.Handle(LedgerServiceGetOutstandingBalanceProcedure, connect.NewUnaryHandler(LedgerServiceGetOutstandingBalanceProcedure, svc.GetOutstandingBalance, opts...))
	mux.Handle(LedgerServiceEvaluateDelinquencyProcedure, connect.NewUnaryHandler(LedgerServiceEvaluateDelinquencyProcedure, svc.EvaluateDelinquency, opts...))
	mux.Handle(LedgerServiceCancelOrderProcedure, connect.NewUnaryHandler(LedgerServiceCancelOrderProcedure, svc.CancelOrder, opts...))
	mux.Handle(LedgerServiceWaiveInstallmentProcedure, connect.NewUnaryHandler(LedgerServiceWaiveInstallmentProcedure, svc.WaiveInstallment, opts...))
	mux.Handle(LedgerServiceListPaymentsProcedure, connect.NewUnaryHandler(LedgerServiceListPaymentsProcedure, svc.ListPayments, opts...))
	mux.Handle(LedgerServiceListLedgerEntriesProcedure, connect.NewUnaryHandler(LedgerServiceListLedgerEntriesProcedure, svc.ListLedgerEntries, opts...))
	mux.Handle(LedgerServiceGetExposureProcedure, connect.NewUnaryHandler(LedgerServiceGetExposureProcedure, svc.GetExposure, opts...))
	return "/" + LedgerServiceName + "/", mux
}

// LedgerServiceClient is a client for the LedgerService service.
type LedgerServiceClient interface {
	CreateOrder(context.Context, *connect.Request[CreateOrderRequest]) (*connect.Response[CreateOrderResponse], error)
	RecordPayment(context.Context, *connect.Request[RecordPaymentRequest]) (*connect.Response[RecordPaymentResponse], error)
	GetOrder(context.Context, *connect.Request[GetOrderRequest]) (*connect.Response[GetOrderResponse], error)
	ListOrders(context.Context, *connect.Request[ListOrdersRequest]) (*connect.Response[ListOrdersResponse], error)
	GetOutstandingBalance(context.Context, *connect.Request[GetOutstandingBalanceRequest]) (*connect.Response[GetOutstandingBalanceResponse], error)
	EvaluateDelinquency(context.Context, *connect.Request[EvaluateDelinquencyRequest]) (*connect.Response[EvaluateDelinquencyResponse], error)
	CancelOrder(context.Context, *connect.Request[CancelOrderRequest]) (*connect.Response[CancelOrderResponse], error)
	WaiveInstallment(context.Context, *connect.Request[WaiveInstallmentRequest]) (*connect.Response[WaiveInstallmentResponse], error)
	ListPayments(context.Context, *connect.Request[ListPaymentsRequest]) (*connect.Response[ListPaymentsResponse], error)
	ListLedgerEntries(context.Context, *connect.Request[ListLedgerEntriesRequest]) (*connect.Response[ListLedgerEntriesResponse], error)
	GetExposure(context.Context, *connect.Request[GetExposureRequest]) (*connect.Response[GetExposureResponse], error)
}

// NewLedgerServiceClient constructs a client for the LedgerService service
// at baseURL, speaking the Connect protocol with JSON payloads.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{api.WithJSON()}, opts...)
	return &ledgerServiceClient{
		createOrder:           connect.NewClient[CreateOrderRequest, CreateOrderResponse](httpClient, baseURL+LedgerServiceCreateOrderProcedure, opts...),
		recordPayment:         connect.NewClient[RecordPaymentRequest, RecordPaymentResponse](httpClient, baseURL+LedgerServiceRecordPaymentProcedure, opts...),
		getOrder:              connect.NewClient[GetOrderRequest, GetOrderResponse](httpClient, baseURL+LedgerServiceGetOrderProcedure, opts...),
		listOrders:            connect.NewClient[ListOrdersRequest, ListOrdersResponse](httpClient, baseURL+LedgerServiceListOrdersProcedure, opts...),
		getOutstandingBalance: connect.NewClient[GetOutstandingBalanceRequest, GetOutstandingBalanceResponse](httpClient, baseURL+LedgerServiceGetOutstandingBalanceProcedure, opts...),
		evaluateDelinquency:   connect.NewClient[EvaluateDelinquencyRequest, EvaluateDelinquencyResponse](httpClient, baseURL+LedgerServiceEvaluateDelinquencyProcedure, opts...),
		cancelOrder:           connect.NewClient[CancelOrderRequest, CancelOrderResponse](httpClient, baseURL+LedgerServiceCancelOrderProcedure, opts...),
		waiveInstallment:      connect.NewClient[WaiveInstallmentRequest, WaiveInstallmentResponse](httpClient, baseURL+LedgerServiceWaiveInstallmentProcedure, opts...),
		listPayments:          connect.NewClient[ListPaymentsRequest, ListPaymentsResponse](httpClient, baseURL+LedgerServiceListPaymentsProcedure, opts...),
		listLedgerEntries:     connect.NewClient[ListLedgerEntriesRequest, ListLedgerEntriesResponse](httpClient, baseURL+LedgerServiceListLedgerEntriesProcedure, opts...),
		getExposure:           connect.NewClient[GetExposureRequest, GetExposureResponse](httpClient, baseURL+LedgerServiceGetExposureProcedure, opts...),
	}
}

type ledgerServiceClient struct {
	createOrder           *connect.Client[CreateOrderRequest, CreateOrderResponse]
	recordPayment         *connect.Client[RecordPaymentRequest, RecordPaymentResponse]
	getOrder              *connect.Client[GetOrderRequest, GetOrderResponse]
	listOrders            *connect.Client[ListOrdersRequest, ListOrdersResponse]
	getOutstandingBalance *connect.Client[GetOutstandingBalanceRequest, GetOutstandingBalanceResponse]
	evaluateDelinquency   *connect.Client[EvaluateDelinquencyRequest, EvaluateDelinquencyResponse]
	cancelOrder           *connect.Client[CancelOrderRequest, CancelOrderResponse]
	waiveInstallment      *connect.Client[WaiveInstallmentRequest, WaiveInstallmentResponse]
	listPayments          *connect.Client[ListPaymentsRequest, ListPaymentsResponse]
	listLedgerEntries     *connect.Client[ListLedgerEntriesRequest, ListLedgerEntriesResponse]
	getExposure           *connect.Client[GetExposureRequest, GetExposureResponse]
}

func (c *ledgerServiceClient) CreateOrder(ctx context.Context, req *connect.Request[CreateOrderRequest]) (*connect.Response[CreateOrderResponse], error) {
	return c.createOrder.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) RecordPayment(ctx context.Context, req *connect.Request[RecordPaymentRequest]) (*connect.Response[RecordPaymentResponse], error) {
	return c.recordPayment.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetOrder(ctx context.Context, req *connect.Request[GetOrderRequest]) (*connect.Response[GetOrderResponse], error) {
	return c.getOrder.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListOrders(ctx context.Context, req *connect.Request[ListOrdersRequest]) (*connect.Response[ListOrdersResponse], error) {
	return c.listOrders.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetOutstandingBalance(ctx context.Context, req *connect.Request[GetOutstandingBalanceRequest]) (*connect.Response[GetOutstandingBalanceResponse], error) {
	return c.getOutstandingBalance.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) EvaluateDelinquency(ctx context.Context, req *connect.Request[EvaluateDelinquencyRequest]) (*connect.Response[EvaluateDelinquencyResponse], error) {
	return c.evaluateDelinquency.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) CancelOrder(ctx context.Context, req *connect.Request[CancelOrderRequest]) (*connect.Response[CancelOrderResponse], error) {
	return c.cancelOrder.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) WaiveInstallment(ctx context.Context, req *connect.Request[WaiveInstallmentRequest]) (*connect.Response[WaiveInstallmentResponse], error) {
	return c.waiveInstallment.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListPayments(ctx context.Context, req *connect.Request[ListPaymentsRequest]) (*connect.Response[ListPaymentsResponse], error) {
	return c.listPayments.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListLedgerEntries(ctx context.Context, req *connect.Request[ListLedgerEntriesRequest]) (*connect.Response[ListLedgerEntriesResponse], error) {
	return c.listLedgerEntries.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetExposure(ctx context.Context, req *connect.Request[GetExposureRequest]) (*connect.Response[GetExposureResponse], error) {
	return c.getExposure.CallUnary(ctx, req)
}
