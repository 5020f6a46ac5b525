package gamma

// client.go — cliente del endpoint público de datos de Polymarket (Gamma).
//
// Implementa ports.DataVenue. Solo lectura, sin autenticación. Los fallos
// de red o payloads ilegibles devuelven SettlementUnknown sin error: en un
// sistema de polling la ausencia de outcome es lo esperado.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/mihirargulkar/polymaster/internal/domain"
)

const (
	defaultBase = "https://gamma-api.polymarket.com"

	// Gamma /markets: 300/10s documentado → 18/s al 60%.
	requestsPerSec = 18

	requestTimeout = 5 * time.Second
)

// Client es el HTTP client de Gamma con rate limiting.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewClient crea un Client. Si base está vacío usa el URL de producción.
func NewClient(base string) *Client {
	if base == "" {
		base = defaultBase
	}
	return &Client{
		http:    &http.Client{Timeout: requestTimeout},
		base:    base,
		limiter: rate.NewLimiter(requestsPerSec, 5),
	}
}

// gammaMarket es el subconjunto de la respuesta de /markets/{id} que
// interesa para settlement. outcomes y outcomePrices pueden llegar como
// arrays o como strings JSON-encoded — Gamma hace ambas cosas.
type gammaMarket struct {
	Closed bool `json:"closed"`
	Tokens []struct {
		Outcome string `json:"outcome"`
		Winner  bool   `json:"winner"`
	} `json:"tokens"`
	Outcomes      json.RawMessage `json:"outcomes"`
	OutcomePrices json.RawMessage `json:"outcomePrices"`
}

// GetSettlement consulta el estado de resolución de un mercado. Tres
// estrategias de extracción en orden: flags winner por token, precio
// settled == 1 en outcomePrices, y el sentinel VOID si el mercado está
// cerrado pero sin lado distinguible.
func (c *Client) GetSettlement(ctx context.Context, marketID string) (domain.Settlement, error) {
	var m gammaMarket
	if err := c.get(ctx, fmt.Sprintf("%s/markets/%s", c.base, marketID), &m); err != nil {
		slog.Debug("gamma: fetch failed", "market", marketID, "err", err)
		return domain.Settlement{Kind: domain.SettlementUnknown}, nil
	}

	if !m.Closed {
		return domain.Settlement{Kind: domain.SettlementUnknown}, nil
	}

	// (1) flags winner explícitos por token
	for _, tok := range m.Tokens {
		if tok.Winner {
			return domain.Settlement{Kind: domain.SettlementSide, Side: tok.Outcome}, nil
		}
	}

	// (2) el lado cuyo precio settled es exactamente 1
	if side, ok := winnerFromPrices(m.Outcomes, m.OutcomePrices); ok {
		return domain.Settlement{Kind: domain.SettlementSide, Side: side}, nil
	}

	// (3) cerrado sin lado distinguible: evidencia de settlement igualmente
	return domain.Settlement{Kind: domain.SettlementVoid}, nil
}

// winnerFromPrices busca el outcome cuyo precio final es "1".
func winnerFromPrices(outcomesRaw, pricesRaw json.RawMessage) (string, bool) {
	outcomes, ok := decodeStringArray(outcomesRaw)
	if !ok {
		return "", false
	}
	prices, ok := decodeStringArray(pricesRaw)
	if !ok {
		return "", false
	}
	for i, price := range prices {
		if price == "1" && i < len(outcomes) {
			return outcomes[i], true
		}
	}
	return "", false
}

// decodeStringArray acepta ["Yes","No"], "[\"Yes\",\"No\"]" y también
// elementos numéricos ([0, 1]); todo se normaliza a string.
func decodeStringArray(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var arr []any
	if err := json.Unmarshal(raw, &arr); err != nil {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, false
		}
		if err := json.Unmarshal([]byte(encoded), &arr); err != nil {
			return nil, false
		}
	}

	out := make([]string, len(arr))
	for i, v := range arr {
		switch t := v.(type) {
		case string:
			out[i] = t
		case float64:
			out[i] = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			return nil, false
		}
	}
	return out, true
}

// get hace un GET con rate limiting. Sin retries: el resolver vuelve a
// intentar en el próximo ciclo.
func (c *Client) get(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
