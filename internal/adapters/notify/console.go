package notify

// console.go — presentación del estado del tracker en consola.
//
// Modo compacto: una línea por ciclo. Modo tabla: snapshots recientes y
// posiciones activas, el equivalente a los comandos status/positions del
// watcher original.

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"github.com/olekukonko/tablewriter"

	"github.com/mihirargulkar/polymaster/internal/domain"
	"github.com/mihirargulkar/polymaster/internal/ports"
)

const (
	tableSnapshots = 10
	maxTitleWidth  = 40
)

// Console implementa ports.Notifier.
type Console struct {
	out       io.Writer
	store     ports.AlertStore
	snapshots ports.SnapshotStore
	table     bool
}

// NewConsole crea un notificador que escribe a stdout. store y snapshots
// solo se consultan en modo tabla.
func NewConsole(store ports.AlertStore, snapshots ports.SnapshotStore, table bool) *Console {
	return &Console{out: os.Stdout, store: store, snapshots: snapshots, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, store ports.AlertStore, snapshots ports.SnapshotStore, table bool) *Console {
	return &Console{out: w, store: store, snapshots: snapshots, table: table}
}

// Notify imprime el reporte del ciclo en el modo configurado.
func (c *Console) Notify(ctx context.Context, report ports.CycleReport) error {
	c.printCompact(report)
	if c.table {
		c.printSnapshots(ctx)
		c.printPositions(ctx)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(report ports.CycleReport) {
	source := "shadow"
	if report.RealBalance {
		source = "real"
	}
	fmt.Fprintf(c.out, "[%s] settled:%d staked:%d orders:%d | equity %s (%s, cash %s + pos %s)\n",
		time.Now().Format("15:04:05"),
		report.NewSettlements,
		report.StakedAlerts,
		report.OrdersPlaced,
		usd(report.Snapshot.EquityCents),
		source,
		usd(report.Snapshot.BalanceCents),
		usd(report.Snapshot.PositionCents),
	)
}

// printSnapshots imprime la tabla de snapshots recientes.
func (c *Console) printSnapshots(ctx context.Context) {
	snaps, err := c.snapshots.GetRecentSnapshots(ctx, tableSnapshots)
	if err != nil || len(snaps) == 0 {
		return
	}

	fmt.Fprintf(c.out, "\n=== EQUITY (last %d snapshots) ===\n", len(snaps))
	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Cash", "Positions", "Equity")
	for _, s := range snaps {
		table.Append(
			s.Timestamp.Format("01-02 15:04:05"),
			usd(s.BalanceCents),
			usd(s.PositionCents),
			usd(s.EquityCents),
		)
	}
	table.Render()
}

// printPositions imprime la tabla de alerts actualmente staked.
func (c *Console) printPositions(ctx context.Context) {
	alerts, err := c.store.GetAllAlerts(ctx)
	if err != nil {
		return
	}

	var active []domain.Alert
	for _, a := range alerts {
		if a.Active {
			active = append(active, a)
		}
	}
	if len(active) == 0 {
		fmt.Fprintln(c.out, "\n  no active shadow positions")
		return
	}

	fmt.Fprintf(c.out, "\n=== ACTIVE POSITIONS (%d) ===\n", len(active))
	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Venue", "Market", "Side", "Price", "Stake", "Live")
	for _, a := range active {
		live := ""
		if a.LiveOrderID != "" {
			live = "*"
		}
		table.Append(
			fmt.Sprintf("%d", a.ID),
			string(a.Venue),
			truncate(a.MarketTitle, maxTitleWidth),
			a.Side,
			fmt.Sprintf("%.2f", a.Price),
			fmt.Sprintf("$%.2f", a.StakedAmount),
			live,
		)
	}
	table.Render()
}

// usd formatea centavos como string USD.
func usd(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

// truncate recorta por runas para no partir caracteres multibyte.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
