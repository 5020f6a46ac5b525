package ports

import (
	"context"
	"time"

	"github.com/mihirargulkar/polymaster/internal/domain"
)

// SettlementUpdate es un outcome resuelto listo para persistir.
type SettlementUpdate struct {
	AlertID    int64
	Settlement domain.Settlement
}

// ReplayUpdate son los campos derivados de un alert tras una pasada de replay.
type ReplayUpdate struct {
	AlertID      int64
	StakedAmount float64
	Active       bool
	PnL          float64
}

// AlertStore persiste los alerts. La tabla alerts es compartida con el
// watcher; este engine solo escribe settlement, campos derivados y el
// live_trade_id.
type AlertStore interface {
	// GetAlertsNeedingResolution devuelve los alerts en OPEN o
	// PENDING_OUTCOME con market_id conocido.
	GetAlertsNeedingResolution(ctx context.Context) ([]domain.Alert, error)

	// ApplySettlements persiste un batch de outcomes en una sola transacción.
	ApplySettlements(ctx context.Context, updates []SettlementUpdate) error

	// GetAllAlerts devuelve el historial completo ordenado por id ascendente
	// (orden de captura), el input del replay.
	GetAllAlerts(ctx context.Context) ([]domain.Alert, error)

	// ApplyReplayUpdates reemplaza los campos derivados de todos los alerts
	// en una sola transacción. Idempotente: mismo input, mismo resultado.
	ApplyReplayUpdates(ctx context.Context, updates []ReplayUpdate) error

	// SetLiveOrderID graba el order id de la orden real, solo si el alert
	// aún no tiene uno. Devuelve false si el fence ya estaba cerrado.
	SetLiveOrderID(ctx context.Context, alertID int64, orderID string) (bool, error)

	// SumActiveStakes devuelve la suma de stakes de alerts activos.
	SumActiveStakes(ctx context.Context) (float64, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}

// SnapshotStore persiste la serie temporal de equity. Append-only: las filas
// nunca se mutan ni se borran.
type SnapshotStore interface {
	// SaveSnapshot añade un snapshot inmutable a la serie.
	SaveSnapshot(ctx context.Context, snap domain.PortfolioSnapshot) error

	// GetRecentSnapshots devuelve los últimos n snapshots, más reciente primero.
	GetRecentSnapshots(ctx context.Context, n int) ([]domain.PortfolioSnapshot, error)

	// GetSnapshotsSince devuelve los snapshots desde el instante dado.
	GetSnapshotsSince(ctx context.Context, since time.Time) ([]domain.PortfolioSnapshot, error)
}
