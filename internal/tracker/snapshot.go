package tracker

// snapshot.go — registro de equity por ciclo.
//
// Prefiere el balance real de la cuenta; si no está disponible cae al
// equity simulado (bankroll + stakes activos). Cada ciclo añade una fila
// inmutable a la serie; las filas previas nunca se tocan.

import (
	"context"
	"log/slog"

	"github.com/mihirargulkar/polymaster/internal/domain"
)

// recordSnapshot persiste un snapshot de equity y devuelve (snapshot,
// esRealBalance).
func (t *Tracker) recordSnapshot(ctx context.Context, bankroll float64) (domain.PortfolioSnapshot, bool) {
	now := t.now()

	var snap domain.PortfolioSnapshot
	real := false

	if bal, err := t.venue.GetBalance(ctx); err == nil {
		snap = domain.PortfolioSnapshot{
			Timestamp:     now,
			BalanceCents:  bal.BalanceCents,
			PositionCents: bal.PositionCents,
			EquityCents:   bal.Equity(),
		}
		real = true
	} else {
		slog.Debug("snapshot: real balance unavailable, using shadow equity", "err", err)

		active, err := t.store.SumActiveStakes(ctx)
		if err != nil {
			slog.Warn("snapshot: sum active stakes failed", "err", err)
			active = 0
		}
		snap = domain.ShadowSnapshot(now, bankroll, active)
	}

	if err := t.snapshots.SaveSnapshot(ctx, snap); err != nil {
		slog.Warn("snapshot: save failed", "err", err)
	}
	return snap, real
}
