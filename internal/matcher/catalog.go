package matcher

// catalog.go — cache en memoria del catálogo de mercados abiertos del venue
// de ejecución. Refresh lazy con TTL; el catálogo nunca se persiste.

import (
	"context"
	"log/slog"
	"time"

	"github.com/mihirargulkar/polymaster/internal/domain"
	"github.com/mihirargulkar/polymaster/internal/ports"
)

const catalogPageSize = 2000

// Catalog es la cache del catálogo, con TTL y política de refresh como
// estado del objeto, no como globals.
type Catalog struct {
	venue     ports.ExecutionVenue
	ttl       time.Duration
	entries   []domain.CatalogEntry
	refreshed time.Time
	now       func() time.Time // inyectable en tests
}

// NewCatalog crea un Catalog vacío; el primer Entries() dispara el fetch.
func NewCatalog(venue ports.ExecutionVenue, ttl time.Duration) *Catalog {
	return &Catalog{
		venue: venue,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Entries devuelve el catálogo, refrescándolo si está vacío o vencido.
// Si el refresh falla se devuelve el catálogo viejo (posiblemente vacío):
// el matching degrada a "sin candidatos", no a error.
func (c *Catalog) Entries(ctx context.Context) []domain.CatalogEntry {
	if c.stale() {
		c.refresh(ctx)
	}
	return c.entries
}

func (c *Catalog) stale() bool {
	return len(c.entries) == 0 || c.now().Sub(c.refreshed) > c.ttl
}

// refresh reemplaza la cache completa y sella el instante de refresh.
func (c *Catalog) refresh(ctx context.Context) {
	entries, err := c.venue.GetMarkets(ctx, "open", catalogPageSize)
	if err != nil {
		slog.Warn("matcher: catalog refresh failed", "err", err)
		return
	}
	c.entries = entries
	c.refreshed = c.now()
	slog.Info("matcher: catalog refreshed", "markets", len(entries))
}
