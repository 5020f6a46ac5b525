package tracker

// resolver.go — reconciliación de settlements contra los venues.
//
// Componente de polling: la ausencia de outcome es lo esperado, así que
// los fallos individuales se absorben y se reintentan el próximo ciclo.
// Nunca propaga errores al caller.

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mihirargulkar/polymaster/internal/domain"
	"github.com/mihirargulkar/polymaster/internal/ports"
)

// resolveOutcomes consulta los venues por cada alert pendiente de
// resolución y persiste los outcomes encontrados en un solo batch.
// Devuelve el número de settlements nuevos.
func (t *Tracker) resolveOutcomes(ctx context.Context) int {
	alerts, err := t.store.GetAlertsNeedingResolution(ctx)
	if err != nil {
		slog.Warn("resolver: load pending alerts failed", "err", err)
		return 0
	}
	if len(alerts) == 0 {
		return 0
	}

	var updates []ports.SettlementUpdate
	for _, a := range alerts {
		s := t.resolve(ctx, a.Venue, a.MarketID)
		if s.Kind == domain.SettlementUnknown {
			continue
		}
		updates = append(updates, ports.SettlementUpdate{AlertID: a.ID, Settlement: s})
	}

	if len(updates) == 0 {
		return 0
	}
	if err := t.store.ApplySettlements(ctx, updates); err != nil {
		slog.Warn("resolver: apply settlements failed", "err", err)
		return 0
	}

	slog.Info("resolver: found new outcomes", "count", len(updates))
	return len(updates)
}

// resolve consulta el venue correspondiente por un mercado concreto.
func (t *Tracker) resolve(ctx context.Context, venue domain.Venue, marketID string) domain.Settlement {
	switch venue {
	case domain.VenueKalshi:
		m, err := t.venue.GetMarket(ctx, marketID)
		if err != nil {
			slog.Debug("resolver: kalshi fetch failed", "market", marketID, "err", err)
			return domain.Settlement{Kind: domain.SettlementUnknown}
		}
		if m.Status == "settled" && m.Result != "" {
			return domain.Settlement{
				Kind: domain.SettlementSide,
				Side: strings.ToUpper(m.Result),
			}
		}
		return domain.Settlement{Kind: domain.SettlementUnknown}

	case domain.VenuePolymarket:
		s, err := t.data.GetSettlement(ctx, marketID)
		if err != nil {
			slog.Debug("resolver: gamma fetch failed", "market", marketID, "err", err)
			return domain.Settlement{Kind: domain.SettlementUnknown}
		}
		return s
	}

	return domain.Settlement{Kind: domain.SettlementUnknown}
}
