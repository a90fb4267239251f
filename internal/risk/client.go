// Package risk resolves shop owner credit limits, from the external
// risk-scoring service or from the limits stored on party profiles.
package risk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/mmynk/shopcredit/internal/ledger"
)

// ErrNoAssessment is returned when the risk service has not scored a shop owner.
var ErrNoAssessment = errors.New("no risk assessment")

// Assessment is the risk service's answer for one shop owner.
type Assessment struct {
	ShopOwnerID  string          `json:"shop_owner_id"`
	CreditLimit  decimal.Decimal `json:"credit_limit"`
	RiskCategory string          `json:"risk_category"`
}

const creditLimitPath = "/api/v1/credit-limits/{shopOwnerID}"

// Client queries the risk-scoring service. When the service has no answer or
// cannot be reached it defers to fallback.
type Client struct {
	http     *resty.Client
	fallback ledger.CreditLimitProvider
}

var _ ledger.CreditLimitProvider = (*Client)(nil)

// NewClient creates a client for the service at baseURL. fallback may be nil.
func NewClient(baseURL string, timeout time.Duration, fallback ledger.CreditLimitProvider) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(100 * time.Millisecond).
		SetHeader("Accept", "application/json")
	return &Client{http: httpClient, fallback: fallback}
}

// Assess fetches the current assessment of a shop owner.
func (c *Client) Assess(ctx context.Context, shopOwnerID string) (*Assessment, error) {
	var assessment Assessment
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("shopOwnerID", shopOwnerID).
		SetResult(&assessment).
		Get(creditLimitPath)
	if err != nil {
		return nil, fmt.Errorf("risk service request: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		if assessment.CreditLimit.IsNegative() {
			return nil, fmt.Errorf("risk service returned negative limit %s", assessment.CreditLimit)
		}
		return &assessment, nil
	case http.StatusNotFound:
		return nil, ErrNoAssessment
	default:
		return nil, fmt.Errorf("risk service status: %d", resp.StatusCode())
	}
}

// CreditLimit implements ledger.CreditLimitProvider.
func (c *Client) CreditLimit(ctx context.Context, shopOwnerID string) (decimal.Decimal, bool, error) {
	assessment, err := c.Assess(ctx, shopOwnerID)
	if err == nil {
		return assessment.CreditLimit, true, nil
	}
	if !errors.Is(err, ErrNoAssessment) {
		slog.Warn("Risk service unavailable, using stored credit limit",
			"shop_owner_id", shopOwnerID,
			"error", err,
		)
	}

	if c.fallback == nil {
		return decimal.Zero, false, nil
	}
	return c.fallback.CreditLimit(ctx, shopOwnerID)
}
