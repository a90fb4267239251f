package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/shopcredit/internal/auth"
	"github.com/mmynk/shopcredit/internal/middleware"
	"github.com/mmynk/shopcredit/internal/models"
	"github.com/mmynk/shopcredit/internal/storage"
	"github.com/mmynk/shopcredit/pkg/api/authv1"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	parties       storage.PartyStore
	logger        *slog.Logger
}

var _ authv1.AuthServiceHandler = (*AuthService)(nil)

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, parties storage.PartyStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		parties:       parties,
		logger:        logger,
	}
}

// Register creates a wholesaler or shop owner account. Admins are provisioned
// from configuration only.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[authv1.RegisterRequest]) (*connect.Response[authv1.RegisterResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email, "role", req.Msg.Role)

	if req.Msg.Email == "" || req.Msg.DisplayName == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("email and display_name are required"))
	}
	role := models.Role(req.Msg.Role)
	if role != models.RoleWholesaler && role != models.RoleShopOwner {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %q", auth.ErrInvalidRole, req.Msg.Role))
	}

	party, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password, role)
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Msg.Email, "error", err)
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrInvalidRole):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, expiresAt, err := s.issue(party)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Party registered", "party_id", party.ID, "role", party.Role)
	return connect.NewResponse(&authv1.RegisterResponse{
		Party:     partyToProto(party),
		Token:     token,
		ExpiresAt: expiresAt,
	}), nil
}

// Login authenticates a party and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[authv1.LoginRequest]) (*connect.Response[authv1.LoginResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	party, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	token, expiresAt, err := s.issue(party)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Party logged in", "party_id", party.ID)
	return connect.NewResponse(&authv1.LoginResponse{
		Party:     partyToProto(party),
		Token:     token,
		ExpiresAt: expiresAt,
	}), nil
}

// SetCreditLimit sets the stored credit limit of a shop owner. Admin only.
func (s *AuthService) SetCreditLimit(ctx context.Context, req *connect.Request[authv1.SetCreditLimitRequest]) (*connect.Response[authv1.SetCreditLimitResponse], error) {
	if middleware.GetPartyID(ctx) == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errAuthRequired)
	}
	if middleware.GetRole(ctx) != models.RoleAdmin {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("admin role required"))
	}

	limit, err := parseMoney("credit_limit", req.Msg.CreditLimit)
	if err != nil {
		return nil, err
	}
	if limit.IsNegative() {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("credit_limit must not be negative"))
	}

	party, err := s.parties.GetPartyByID(ctx, req.Msg.PartyId)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if party.Role != models.RoleShopOwner {
		return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("credit limits apply to shop owners only"))
	}

	if err := s.parties.SetCreditLimit(ctx, party.ID, limit); err != nil {
		s.logger.Error("SetCreditLimit failed", "party_id", party.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	party.CreditLimit = limit

	s.logger.Info("Credit limit set",
		"party_id", party.ID,
		"limit", limit.StringFixed(moneyPlaces),
		"by", middleware.GetPartyID(ctx),
	)
	return connect.NewResponse(&authv1.SetCreditLimitResponse{Party: partyToProto(party)}), nil
}

func (s *AuthService) issue(party *models.Party) (string, int64, error) {
	token, err := s.jwtManager.Generate(party)
	if err != nil {
		s.logger.Error("Failed to generate token", "party_id", party.ID, "error", err)
		return "", 0, connect.NewError(connect.CodeInternal, err)
	}
	return token, time.Now().Add(s.jwtManager.TokenDuration()).Unix(), nil
}
