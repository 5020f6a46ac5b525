package domain

// CatalogEntry es un mercado abierto del venue de ejecución, cacheado en
// memoria para el matching por nombre. Nunca se persiste.
type CatalogEntry struct {
	Ticker string
	Title  string
	Status string
}

// VenueMarket es el detalle de un mercado del venue de ejecución.
type VenueMarket struct {
	Ticker string
	Title  string
	Status string // "open" | "closed" | "settled" | ...
	Result string // lado ganador cuando status == "settled"
}

// OrderRequest son los parámetros de una orden límite de compra.
type OrderRequest struct {
	Ticker        string
	Side          string // "yes" | "no"
	Count         int
	PriceCents    int    // clamped a [1, 99] por el gate
	ClientOrderID string // token de idempotencia, fresco por intento
}

// ClampPriceCents convierte un precio fraccional a centavos dentro de [1, 99].
func ClampPriceCents(price float64) int {
	cents := int(price * 100)
	if cents < 1 {
		return 1
	}
	if cents > 99 {
		return 99
	}
	return cents
}

// OrderCount deriva la cantidad de contratos: max(1, floor(bet/price)).
func OrderCount(betSize, price float64) int {
	if price <= 0 {
		return 1
	}
	count := int(betSize / price)
	if count < 1 {
		return 1
	}
	return count
}
