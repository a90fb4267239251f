package authv1

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/shopcredit/pkg/api"
)

// AuthServiceName is the fully-qualified name of the AuthService service.
const AuthServiceName = "shopcredit.auth.v1.AuthService"

const (
	AuthServiceRegisterProcedure       = "/shopcredit.auth.v1.AuthService/Register"
	AuthServiceLoginProcedure          = "/shopcredit.auth.v1.AuthService/Login"
	AuthServiceSetCreditLimitProcedure = "/shopcredit.auth.v1.AuthService/SetCreditLimit"
)

// AuthServiceHandler is implemented by the server.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	SetCreditLimit(context.Context, *connect.Request[SetCreditLimitRequest]) (*connect.Response[SetCreditLimitResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{api.WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(AuthServiceRegisterProcedure, connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...))
	mux.Handle(AuthServiceLoginProcedure, connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...))
	mux.Handle(AuthServiceSetCreditLimitProcedure, connect.NewUnaryHandler(AuthServiceSetCreditLimitProcedure, svc.SetCreditLimit, opts...))
	return "/" + AuthServiceName + "/", mux
}

// AuthServiceClient is a client for the AuthService service.
type AuthServiceClient interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	SetCreditLimit(context.Context, *connect.Request[SetCreditLimitRequest]) (*connect.Response[SetCreditLimitResponse], error)
}

func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{api.WithJSON()}, opts...)
	return &authServiceClient{
		register:       connect.NewClient[RegisterRequest, RegisterResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		login:          connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
		setCreditLimit: connect.NewClient[SetCreditLimitRequest, SetCreditLimitResponse](httpClient, baseURL+AuthServiceSetCreditLimitProcedure, opts...),
	}
}

type authServiceClient struct {
	register       *connect.Client[RegisterRequest, RegisterResponse]
	login          *connect.Client[LoginRequest, LoginResponse]
	setCreditLimit *connect.Client[SetCreditLimitRequest, SetCreditLimitResponse]
}

func (c *authServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *authServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *authServiceClient) SetCreditLimit(ctx context.Context, req *connect.Request[SetCreditLimitRequest]) (*connect.Response[SetCreditLimitResponse], error) {
	return c.setCreditLimit.CallUnary(ctx, req)
}
