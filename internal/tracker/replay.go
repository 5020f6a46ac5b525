package tracker

// replay.go — el algoritmo central: replay determinista del shadow ledger.
//
// Cada ciclo recomputa TODO el portfolio simulado desde cero, en una sola
// pasada fold sobre el historial de alerts en orden de captura. El bankroll
// se arrastra a través del fold: el gate de elegibilidad de cada alert
// depende de los stakes de los anteriores, así que la pasada es
// estrictamente secuencial por diseño (el capital es un recurso ordenado).
//
// Idempotente: mismo historial + mismo seed ⇒ mismos campos derivados y
// mismo bankroll final.

import (
	"context"
	"fmt"

	"github.com/mihirargulkar/polymaster/internal/domain"
	"github.com/mihirargulkar/polymaster/internal/ports"
)

// replayResult es el producto de una pasada completa de replay.
type replayResult struct {
	Bankroll float64             // bankroll final tras aplicar todo el historial
	Updates  []ports.ReplayUpdate // campos derivados de cada alert
	Staked   []domain.Alert       // alerts staked en esta pasada (input del gate)
}

// replay carga el historial completo, ejecuta el fold y persiste los campos
// derivados en un batch atómico.
func (t *Tracker) replay(ctx context.Context) (replayResult, error) {
	alerts, err := t.store.GetAllAlerts(ctx)
	if err != nil {
		return replayResult{}, fmt.Errorf("load alerts: %w", err)
	}

	result := replayLedger(alerts, t.cfg)

	if err := t.store.ApplyReplayUpdates(ctx, result.Updates); err != nil {
		return replayResult{}, fmt.Errorf("apply updates: %w", err)
	}
	return result, nil
}

// replayLedger es el fold puro: sin I/O, determinista.
func replayLedger(alerts []domain.Alert, cfg Config) replayResult {
	bankroll := cfg.StartingBankroll
	result := replayResult{Bankroll: bankroll}

	for _, a := range alerts {
		if !eligible(a, bankroll, cfg) {
			result.Updates = append(result.Updates, ports.ReplayUpdate{AlertID: a.ID})
			continue
		}

		// Capital comprometido en la entrada
		stake := cfg.BetSize
		bankroll -= stake
		shares := stake / a.Price

		update := ports.ReplayUpdate{AlertID: a.ID, StakedAmount: stake}

		switch domain.ScoreOutcome(a.Side, a.SettledOutcome) {
		case domain.OutcomeVoid:
			// Resuelto sin lado conocido: breakeven, stake devuelto
			bankroll += stake
		case domain.OutcomeWin:
			payout := shares * 1.00
			bankroll += payout
			update.PnL = payout - stake
		case domain.OutcomeLoss:
			update.PnL = -stake
		default:
			// Aún sin settle: posición activa, PnL pendiente en 0
			update.Active = true
		}

		// Para el gate de ejecución: el alert tal como quedó en esta pasada
		a.StakedAmount = update.StakedAmount
		a.Active = update.Active
		a.PnL = update.PnL
		result.Staked = append(result.Staked, a)
		result.Updates = append(result.Updates, update)
	}

	result.Bankroll = bankroll
	return result
}

// eligible aplica el gate de staking: precio dentro del techo, ventana de
// expiración de horizonte corto, y reserva mínima de bankroll.
func eligible(a domain.Alert, bankroll float64, cfg Config) bool {
	if a.Price <= 0 || a.Price >= cfg.MaxPrice {
		return false
	}
	if !domain.ExpiryEligible(a.MarketContext, a.MarketTitle, a.CapturedAt) {
		return false
	}
	if bankroll-cfg.BetSize < cfg.MinReserve {
		return false
	}
	return true
}
