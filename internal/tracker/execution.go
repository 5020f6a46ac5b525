package tracker

// execution.go — gate de ejecución real.
//
// Convierte alerts recién staked en órdenes reales sobre el venue de
// ejecución. El live_trade_id es el fence de idempotencia: sin él
// persistido no hubo orden, y una vez persistido nunca se reintenta.
// Un fallo de orden no corrompe la simulación — el replay recomputa todo
// desde cero y el alert se reintenta el próximo ciclo mientras siga
// dentro de la ventana de frescura.

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mihirargulkar/polymaster/internal/domain"
)

// executeLive evalúa cada alert staked en esta pasada y emite órdenes
// reales para los que califican. Devuelve el número de órdenes colocadas.
func (t *Tracker) executeLive(ctx context.Context, staked []domain.Alert) int {
	if !t.cfg.LiveTrading {
		return 0
	}

	now := t.now()
	placed := 0

	for _, a := range staked {
		// Fence: ya hubo orden real para este alert
		if a.LiveOrderID != "" {
			continue
		}
		// La ejecución real es sensible al tiempo; alerts viejos no se tradean
		if a.Age(now) >= t.cfg.RecencyWindow {
			continue
		}

		ticker, side := t.targetFor(ctx, a)
		if ticker == "" {
			continue
		}

		side = strings.ToLower(side)
		if side == "" {
			side = "yes"
		}

		req := domain.OrderRequest{
			Ticker:        ticker,
			Side:          side,
			Count:         domain.OrderCount(t.cfg.BetSize, a.Price),
			PriceCents:    domain.ClampPriceCents(a.Price),
			ClientOrderID: uuid.New().String(),
		}

		slog.Info("live trade signal", "ticker", ticker, "side", side, "alert", a.ID)

		orderID, err := t.venue.CreateOrder(ctx, req)
		if err != nil {
			// Abandonado este ciclo; sin order id persistido se reintenta
			slog.Warn("order failed", "ticker", ticker, "alert", a.ID, "err", err)
			continue
		}

		ok, err := t.store.SetLiveOrderID(ctx, a.ID, orderID)
		if err != nil {
			slog.Warn("persist order id failed", "alert", a.ID, "order", orderID, "err", err)
			continue
		}
		if !ok {
			slog.Warn("order id already set, fence held", "alert", a.ID, "order", orderID)
			continue
		}

		slog.Info("order placed",
			"ticker", ticker,
			"side", strings.ToUpper(side),
			"price_cents", req.PriceCents,
			"count", req.Count,
			"order", orderID,
		)
		placed++
	}

	return placed
}

// targetFor resuelve ticker y lado en el venue de ejecución. Alerts del
// propio venue usan su id/lado directamente; los cross-venue pasan por el
// matcher, y sin match confiable no hay orden este ciclo.
func (t *Tracker) targetFor(ctx context.Context, a domain.Alert) (ticker, side string) {
	switch a.Venue {
	case domain.VenueKalshi:
		return a.MarketID, a.Side

	case domain.VenuePolymarket:
		if t.matcher == nil {
			return "", ""
		}
		candidates := t.matcher.FindCandidates(ctx, a.MarketTitle)
		if match := t.matcher.Match(ctx, a.MarketTitle, a.Side, candidates); match != nil {
			slog.Info("matcher: cross-venue match",
				"title", a.MarketTitle,
				"ticker", match.Ticker,
				"side", match.Side,
				"confidence", match.Confidence,
			)
			return match.Ticker, match.Side
		}
	}
	return "", ""
}
