package ports

import (
	"context"

	"github.com/mihirargulkar/polymaster/internal/domain"
)

// CycleReport resume un ciclo del tracker para el operador.
type CycleReport struct {
	NewSettlements int
	StakedAlerts   int
	OrdersPlaced   int
	Bankroll       float64
	Snapshot       domain.PortfolioSnapshot
	RealBalance    bool // true si el snapshot viene del balance real
}

// Notifier presenta el estado del tracker al operador.
type Notifier interface {
	// Notify reporta el resultado de un ciclo. En la implementación de
	// consola imprime una línea compacta o una tabla según configuración.
	Notify(ctx context.Context, report CycleReport) error
}
