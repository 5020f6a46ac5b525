package kalshi

// markets.go — market data, balance and order endpoints.
//
// Implements ports.ExecutionVenue.

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mihirargulkar/polymaster/internal/domain"
)

type apiMarket struct {
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Result string `json:"result"`
}

type marketsResponse struct {
	Markets []apiMarket `json:"markets"`
	Cursor  string      `json:"cursor"`
}

type marketResponse struct {
	Market apiMarket `json:"market"`
}

type balanceResponse struct {
	Balance        int64 `json:"balance"`
	PortfolioValue int64 `json:"portfolio_value"`
}

type createOrderRequest struct {
	Ticker        string `json:"ticker"`
	Action        string `json:"action"`
	Type          string `json:"type"`
	Side          string `json:"side"`
	Count         int    `json:"count"`
	ClientOrderID string `json:"client_order_id"`
	YesPrice      *int   `json:"yes_price,omitempty"`
	NoPrice       *int   `json:"no_price,omitempty"`
}

type createOrderResponse struct {
	Order struct {
		OrderID string `json:"order_id"`
	} `json:"order"`
}

// GetMarkets returns up to limit markets with the given status.
func (c *Client) GetMarkets(ctx context.Context, status string, limit int) ([]domain.CatalogEntry, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp marketsResponse
	if err := c.do(ctx, http.MethodGet, "/markets", q, nil, &resp); err != nil {
		return nil, fmt.Errorf("kalshi.GetMarkets: %w", err)
	}

	entries := make([]domain.CatalogEntry, 0, len(resp.Markets))
	for _, m := range resp.Markets {
		entries = append(entries, domain.CatalogEntry{
			Ticker: m.Ticker,
			Title:  m.Title,
			Status: m.Status,
		})
	}
	return entries, nil
}

// GetMarket returns the detail of a single market by ticker.
func (c *Client) GetMarket(ctx context.Context, ticker string) (domain.VenueMarket, error) {
	var resp marketResponse
	if err := c.do(ctx, http.MethodGet, "/markets/"+ticker, nil, nil, &resp); err != nil {
		return domain.VenueMarket{}, fmt.Errorf("kalshi.GetMarket %s: %w", ticker, err)
	}
	return domain.VenueMarket{
		Ticker: resp.Market.Ticker,
		Title:  resp.Market.Title,
		Status: resp.Market.Status,
		Result: resp.Market.Result,
	}, nil
}

// GetBalance returns the real account balance and open position value, both
// in cents.
func (c *Client) GetBalance(ctx context.Context) (domain.AccountBalance, error) {
	var resp balanceResponse
	if err := c.do(ctx, http.MethodGet, "/portfolio/balance", nil, nil, &resp); err != nil {
		return domain.AccountBalance{}, fmt.Errorf("kalshi.GetBalance: %w", err)
	}
	return domain.AccountBalance{
		BalanceCents:  resp.Balance,
		PositionCents: resp.PortfolioValue,
	}, nil
}

// CreateOrder submits a limit buy order. The price field depends on the side:
// yes_price for yes, no_price for no, both in cents.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (string, error) {
	body := createOrderRequest{
		Ticker:        req.Ticker,
		Action:        "buy",
		Type:          "limit",
		Side:          "no",
		Count:         req.Count,
		ClientOrderID: req.ClientOrderID,
	}
	price := req.PriceCents
	if strings.EqualFold(req.Side, "yes") {
		body.Side = "yes"
		body.YesPrice = &price
	} else {
		body.NoPrice = &price
	}

	var resp createOrderResponse
	if err := c.do(ctx, http.MethodPost, "/portfolio/orders", nil, body, &resp); err != nil {
		return "", fmt.Errorf("kalshi.CreateOrder %s: %w", req.Ticker, err)
	}
	return resp.Order.OrderID, nil
}
