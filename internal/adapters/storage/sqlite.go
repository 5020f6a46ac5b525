package storage

// sqlite.go — almacenamiento compartido con el watcher de alerts.
//
// Estrategia:
//   - `alerts`: tabla del watcher. Este engine solo escribe settlement
//     (settled_outcome/status), los campos derivados del replay y el
//     live_trade_id. Todo update multi-fila va en una sola transacción
//     para evitar visibilidad parcial entre componentes.
//   - `portfolio_snapshots`: serie temporal append-only de equity. Nunca
//     se muta ni se borra.
//   - Migración: DBs anteriores al schema v2 no tienen las columnas de
//     ejecución; se añaden con ALTER TABLE idempotente al arrancar.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mihirargulkar/polymaster/internal/domain"
	"github.com/mihirargulkar/polymaster/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode=WAL;
PRAGMA synchronous=NORMAL;
PRAGMA busy_timeout=5000;

-- Tabla del watcher; el engine la crea solo si falta (DB nueva)
CREATE TABLE IF NOT EXISTS alerts (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    platform          TEXT NOT NULL,
    market_title      TEXT,
    market_id         TEXT,
    outcome           TEXT,
    price             REAL,
    timestamp         TEXT NOT NULL,
    market_context    TEXT,
    live_trade_id     TEXT,
    status            TEXT DEFAULT 'OPEN',
    settled_outcome   TEXT,
    pnl_value         REAL,
    shadow_bet_amount REAL,
    shadow_active     INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_alerts_status   ON alerts(status);
CREATE INDEX IF NOT EXISTS idx_alerts_platform ON alerts(platform);

-- Serie temporal de equity, append-only
CREATE TABLE IF NOT EXISTS portfolio_snapshots (
    id                    INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp             TEXT    NOT NULL,
    balance_cents         INTEGER NOT NULL DEFAULT 0,
    portfolio_value_cents INTEGER NOT NULL DEFAULT 0,
    total_equity_cents    INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON portfolio_snapshots(timestamp DESC);
`

// Columnas de ejecución añadidas en el schema v2 del watcher. DBs viejas
// no las tienen; el ALTER falla con "duplicate column" si ya existen y
// ese error se ignora.
var migrationColumns = []string{
	"live_trade_id TEXT",
	"status TEXT DEFAULT 'OPEN'",
	"settled_outcome TEXT",
	"pnl_value REAL",
	"shadow_bet_amount REAL",
	"shadow_active INTEGER DEFAULT 0",
}

// SQLiteStorage implementa ports.AlertStore y ports.SnapshotStore usando
// SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada, aplica
// el schema y migra columnas faltantes.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.migrateExecutionColumns(context.Background())
	return s, nil
}

// migrateExecutionColumns añade las columnas de ejecución si faltan.
// El error "duplicate column" de DBs ya migradas se ignora.
func (s *SQLiteStorage) migrateExecutionColumns(ctx context.Context) {
	for _, col := range migrationColumns {
		_, _ = s.db.ExecContext(ctx, "ALTER TABLE alerts ADD COLUMN "+col)
	}
}

const alertColumns = `id, platform, market_id, outcome, price, status,
	settled_outcome, market_context, timestamp, market_title, live_trade_id,
	shadow_bet_amount, shadow_active, pnl_value`

// GetAlertsNeedingResolution devuelve los alerts en OPEN o PENDING_OUTCOME
// con market_id conocido.
func (s *SQLiteStorage) GetAlertsNeedingResolution(ctx context.Context) ([]domain.Alert, error) {
	return s.queryAlerts(ctx, `
		WHERE (status = 'OPEN' OR (status = 'SETTLED' AND settled_outcome IS NULL))
		AND market_id IS NOT NULL AND market_id != ''`)
}

// GetAllAlerts devuelve el historial completo en orden de captura.
func (s *SQLiteStorage) GetAllAlerts(ctx context.Context) ([]domain.Alert, error) {
	return s.queryAlerts(ctx, "")
}

func (s *SQLiteStorage) queryAlerts(ctx context.Context, where string) ([]domain.Alert, error) {
	q := "SELECT " + alertColumns + " FROM alerts " + where + " ORDER BY id ASC"
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("storage.queryAlerts: query: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.queryAlerts: scan: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func scanAlert(rows *sql.Rows) (domain.Alert, error) {
	var (
		a                       domain.Alert
		platform, ts            string
		marketID, side, settled sql.NullString
		mktCtx, title, liveID   sql.NullString
		status                  sql.NullString
		price, staked, pnl      sql.NullFloat64
		active                  sql.NullInt64
	)
	if err := rows.Scan(&a.ID, &platform, &marketID, &side, &price, &status,
		&settled, &mktCtx, &ts, &title, &liveID, &staked, &active, &pnl); err != nil {
		return domain.Alert{}, err
	}

	a.Venue = domain.ParseVenue(platform)
	a.MarketID = marketID.String
	a.Side = side.String
	a.Price = price.Float64
	a.Status = status.String
	if a.Status == "" {
		a.Status = domain.StatusOpen
	}
	a.SettledOutcome = settled.String
	a.MarketContext = mktCtx.String
	a.MarketTitle = title.String
	a.CapturedAt = parseTimestamp(ts)
	a.LiveOrderID = liveID.String
	a.StakedAmount = staked.Float64
	a.Active = active.Int64 == 1
	a.PnL = pnl.Float64
	return a, nil
}

// parseTimestamp tolera los formatos que escribe el watcher.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ApplySettlements persiste un batch de outcomes en una sola transacción.
func (s *SQLiteStorage) ApplySettlements(ctx context.Context, updates []ports.SettlementUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.ApplySettlements: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE alerts SET settled_outcome = ?, status = 'SETTLED' WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("storage.ApplySettlements: prepare: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.Settlement.StoredOutcome(), u.AlertID); err != nil {
			return fmt.Errorf("storage.ApplySettlements: alert %d: %w", u.AlertID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.ApplySettlements: commit: %w", err)
	}
	return nil
}

// ApplyReplayUpdates reemplaza los campos derivados de todos los alerts en
// una sola transacción. Reemplazo incondicional: rerun con el mismo input
// produce exactamente el mismo estado.
func (s *SQLiteStorage) ApplyReplayUpdates(ctx context.Context, updates []ports.ReplayUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.ApplyReplayUpdates: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE alerts SET shadow_bet_amount = ?, shadow_active = ?, pnl_value = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("storage.ApplyReplayUpdates: prepare: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		active := 0
		if u.Active {
			active = 1
		}
		if _, err := stmt.ExecContext(ctx, u.StakedAmount, active, u.PnL, u.AlertID); err != nil {
			return fmt.Errorf("storage.ApplyReplayUpdates: alert %d: %w", u.AlertID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.ApplyReplayUpdates: commit: %w", err)
	}
	return nil
}

// SetLiveOrderID graba el order id solo si el alert no tiene uno — el fence
// de idempotencia contra órdenes duplicadas. Devuelve false si ya estaba.
func (s *SQLiteStorage) SetLiveOrderID(ctx context.Context, alertID int64, orderID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE alerts SET live_trade_id = ?
		WHERE id = ? AND (live_trade_id IS NULL OR live_trade_id = '')`,
		orderID, alertID)
	if err != nil {
		return false, fmt.Errorf("storage.SetLiveOrderID: alert %d: %w", alertID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage.SetLiveOrderID: rows affected: %w", err)
	}
	return n > 0, nil
}

// SumActiveStakes devuelve la suma de stakes de alerts activos.
func (s *SQLiteStorage) SumActiveStakes(ctx context.Context) (float64, error) {
	var sum sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(shadow_bet_amount) FROM alerts WHERE shadow_active = 1`).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("storage.SumActiveStakes: %w", err)
	}
	return sum.Float64, nil
}

// SaveSnapshot añade un snapshot inmutable a la serie.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snap domain.PortfolioSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO portfolio_snapshots (timestamp, balance_cents, portfolio_value_cents, total_equity_cents)
		VALUES (?, ?, ?, ?)`,
		snap.Timestamp.UTC().Format(time.RFC3339),
		snap.BalanceCents, snap.PositionCents, snap.EquityCents)
	if err != nil {
		return fmt.Errorf("storage.SaveSnapshot: %w", err)
	}
	return nil
}

// GetRecentSnapshots devuelve los últimos n snapshots, más reciente primero.
func (s *SQLiteStorage) GetRecentSnapshots(ctx context.Context, n int) ([]domain.PortfolioSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, balance_cents, portfolio_value_cents, total_equity_cents
		FROM portfolio_snapshots ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("storage.GetRecentSnapshots: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

// GetSnapshotsSince devuelve los snapshots desde el instante dado,
// en orden cronológico.
func (s *SQLiteStorage) GetSnapshotsSince(ctx context.Context, since time.Time) ([]domain.PortfolioSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, balance_cents, portfolio_value_cents, total_equity_cents
		FROM portfolio_snapshots WHERE timestamp >= ? ORDER BY id ASC`,
		since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("storage.GetSnapshotsSince: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

func scanSnapshots(rows *sql.Rows) ([]domain.PortfolioSnapshot, error) {
	var snaps []domain.PortfolioSnapshot
	for rows.Next() {
		var snap domain.PortfolioSnapshot
		var ts string
		if err := rows.Scan(&ts, &snap.BalanceCents, &snap.PositionCents, &snap.EquityCents); err != nil {
			return nil, fmt.Errorf("storage.scanSnapshots: %w", err)
		}
		snap.Timestamp = parseTimestamp(ts)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
