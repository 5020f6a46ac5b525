package ports

import (
	"context"

	"github.com/mihirargulkar/polymaster/internal/domain"
)

// ExecutionVenue es el cliente autenticado del venue de ejecución (Kalshi).
type ExecutionVenue interface {
	// GetMarkets devuelve mercados filtrados por status, hasta limit.
	// Usado para refrescar el catálogo del matcher.
	GetMarkets(ctx context.Context, status string, limit int) ([]domain.CatalogEntry, error)

	// GetMarket devuelve el detalle de un mercado por ticker.
	GetMarket(ctx context.Context, ticker string) (domain.VenueMarket, error)

	// GetBalance devuelve el balance real de la cuenta en centavos.
	GetBalance(ctx context.Context) (domain.AccountBalance, error)

	// CreateOrder envía una orden límite de compra. Ante HTTP 429 reintenta
	// con backoff acotado; cualquier otro fallo se devuelve tal cual.
	CreateOrder(ctx context.Context, req domain.OrderRequest) (orderID string, err error)
}

// DataVenue es el endpoint público de datos del venue secundario (Gamma).
type DataVenue interface {
	// GetSettlement consulta el estado de resolución de un mercado.
	// Fallos de red o datos ilegibles devuelven SettlementUnknown sin error.
	GetSettlement(ctx context.Context, marketID string) (domain.Settlement, error)
}

// Oracle es el endpoint de text-completion usado como árbitro de matching.
type Oracle interface {
	// Complete envía un prompt y devuelve el texto de respuesta crudo,
	// que el matcher interpreta como JSON estricto.
	Complete(ctx context.Context, prompt string) (string, error)
}
