package domain

import (
	"strings"
	"time"
)

// Venue identifica la plataforma de origen de un alert.
type Venue string

const (
	// VenueKalshi es el venue de ejecución (órdenes reales).
	VenueKalshi Venue = "kalshi"
	// VenuePolymarket es el venue secundario (solo datos públicos).
	VenuePolymarket Venue = "polymarket"
)

// ParseVenue normaliza el valor libre de la columna platform.
func ParseVenue(s string) Venue {
	return Venue(strings.ToLower(strings.TrimSpace(s)))
}

// Estados persistidos en la columna status.
const (
	StatusOpen    = "OPEN"
	StatusSettled = "SETTLED"
)

// SettledVoid es el sentinel "resuelto, lado desconocido" del venue secundario.
// Cuenta como evidencia de settlement aunque no haya resultado direccional.
const SettledVoid = "RESOLVED"

// Lifecycle es el estado de vida explícito de un alert. PendingOutcome
// (status SETTLED pero sin settled_outcome) existe porque el watcher puede
// marcar un mercado como cerrado antes de conocerse el lado ganador.
type Lifecycle int

const (
	LifecycleOpen Lifecycle = iota
	LifecyclePendingOutcome
	LifecycleSettled
)

// String implementa fmt.Stringer para logs.
func (l Lifecycle) String() string {
	switch l {
	case LifecycleOpen:
		return "OPEN"
	case LifecyclePendingOutcome:
		return "PENDING_OUTCOME"
	case LifecycleSettled:
		return "SETTLED"
	}
	return "UNKNOWN"
}

// Alert es un evento de mercado capturado por el watcher — la unidad de la
// simulación. La tabla alerts es la única fuente de verdad; los campos
// derivados los escribe exclusivamente el replay en cada ciclo.
type Alert struct {
	ID       int64
	Venue    Venue
	MarketID string // identificador del mercado en su venue; "" hasta resolverse

	Side  string  // lado predicho ("YES"/"NO" o token arbitrario)
	Price float64 // probabilidad implícita en el momento de captura, [0,1]

	Status         string // OPEN | SETTLED
	SettledOutcome string // lado ganador, SettledVoid, o "" si aún no se conoce

	MarketContext string // JSON libre del venue; puede traer expiration_date
	MarketTitle   string
	CapturedAt    time.Time

	// Campos derivados, recomputados completos en cada pasada del replay.
	StakedAmount float64
	Active       bool
	PnL          float64

	// LiveOrderID es el fence de idempotencia: una vez asignado nunca se
	// sobreescribe, y bloquea una segunda orden real para este alert.
	LiveOrderID string
}

// Lifecycle deriva el estado de vida explícito desde status/settled_outcome.
func (a Alert) Lifecycle() Lifecycle {
	if a.Status != StatusSettled {
		return LifecycleOpen
	}
	if a.SettledOutcome == "" {
		return LifecyclePendingOutcome
	}
	return LifecycleSettled
}

// NeedsResolution indica si el resolver debe consultar el venue por este alert.
func (a Alert) NeedsResolution() bool {
	return a.MarketID != "" && a.Lifecycle() != LifecycleSettled
}

// Age devuelve la antigüedad del alert respecto a now.
func (a Alert) Age(now time.Time) time.Duration {
	return now.Sub(a.CapturedAt)
}
