package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mihirargulkar/polymaster/internal/matcher"
	"github.com/mihirargulkar/polymaster/internal/ports"
)

// Config contiene la política de staking y el ciclo del tracker.
type Config struct {
	Interval         time.Duration
	StartingBankroll float64
	BetSize          float64
	MinReserve       float64
	MaxPrice         float64
	LiveTrading      bool
	RecencyWindow    time.Duration
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		Interval:         30 * time.Second,
		StartingBankroll: 67.22,
		BetSize:          5.0,
		MinReserve:       10.0,
		MaxPrice:         0.97,
		RecencyWindow:    15 * time.Minute,
	}
}

// Tracker es el orquestador del ciclo: resolver → replay → ejecución →
// snapshot, estrictamente en secuencia. Un solo loop; dos ciclos nunca
// se solapan.
type Tracker struct {
	cfg       Config
	store     ports.AlertStore
	snapshots ports.SnapshotStore
	venue     ports.ExecutionVenue
	data      ports.DataVenue
	matcher   *matcher.Matcher
	notifier  ports.Notifier
	now       func() time.Time
}

// New crea un Tracker con todas las dependencias inyectadas.
func New(
	cfg Config,
	store ports.AlertStore,
	snapshots ports.SnapshotStore,
	venue ports.ExecutionVenue,
	data ports.DataVenue,
	m *matcher.Matcher,
	notifier ports.Notifier,
) *Tracker {
	return &Tracker{
		cfg:       cfg,
		store:     store,
		snapshots: snapshots,
		venue:     venue,
		data:      data,
		matcher:   m,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Run ejecuta el loop de ciclos hasta que el contexto se cancele. Ningún
// fallo de ciclo es fatal: se loguea y se espera al siguiente tick.
func (t *Tracker) Run(ctx context.Context) error {
	slog.Info("tracker starting",
		"interval", t.cfg.Interval,
		"bankroll", t.cfg.StartingBankroll,
		"bet_size", t.cfg.BetSize,
		"live_trading", t.cfg.LiveTrading,
	)

	t.safeCycle(ctx)

	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("tracker stopped")
			return nil
		case <-ticker.C:
			t.safeCycle(ctx)
		}
	}
}

// safeCycle ejecuta un ciclo absorbiendo errores y panics.
func (t *Tracker) safeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("cycle panic", "panic", r)
		}
	}()
	if _, err := t.RunCycle(ctx); err != nil {
		slog.Error("cycle failed", "err", err)
	}
}

// RunCycle ejecuta exactamente un ciclo y devuelve su reporte.
// Orden garantizado: el replay siempre ve los settlements recién
// resueltos, y la ejecución siempre ve las decisiones de staking frescas.
func (t *Tracker) RunCycle(ctx context.Context) (ports.CycleReport, error) {
	start := t.now()

	// 1. Resolver outcomes pendientes (nunca falla hacia arriba)
	settled := t.resolveOutcomes(ctx)

	// 2. Replay completo del historial
	result, err := t.replay(ctx)
	if err != nil {
		return ports.CycleReport{}, fmt.Errorf("tracker.RunCycle: replay: %w", err)
	}

	// 3. Gate de ejecución real sobre lo staked en esta pasada
	placed := t.executeLive(ctx, result.Staked)

	// 4. Snapshot de equity (real si hay balance, shadow si no)
	snap, real := t.recordSnapshot(ctx, result.Bankroll)

	report := ports.CycleReport{
		NewSettlements: settled,
		StakedAlerts:   len(result.Staked),
		OrdersPlaced:   placed,
		Bankroll:       result.Bankroll,
		Snapshot:       snap,
		RealBalance:    real,
	}

	if t.notifier != nil {
		if err := t.notifier.Notify(ctx, report); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	slog.Info("cycle complete",
		"settled", settled,
		"staked", report.StakedAlerts,
		"orders", placed,
		"equity_cents", snap.EquityCents,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return report, nil
}
