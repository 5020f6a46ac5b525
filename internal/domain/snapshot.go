package domain

import (
	"math"
	"time"
)

// PortfolioSnapshot es un registro inmutable de equity en un instante.
// Append-only: nunca se muta ni se borra. Montos en centavos.
type PortfolioSnapshot struct {
	Timestamp     time.Time
	BalanceCents  int64 // cash disponible
	PositionCents int64 // valor de posiciones abiertas
	EquityCents   int64 // balance + posiciones
}

// ShadowSnapshot construye un snapshot desde el estado simulado cuando el
// balance real no está disponible.
func ShadowSnapshot(ts time.Time, bankroll, activeStakes float64) PortfolioSnapshot {
	return PortfolioSnapshot{
		Timestamp:     ts,
		BalanceCents:  toCents(bankroll),
		PositionCents: toCents(activeStakes),
		EquityCents:   toCents(bankroll + activeStakes),
	}
}

// toCents redondea simétricamente, también para montos negativos.
func toCents(usd float64) int64 {
	return int64(math.Round(usd * 100))
}

// AccountBalance es el balance real reportado por el venue de ejecución.
type AccountBalance struct {
	BalanceCents  int64
	PositionCents int64
}

// Equity devuelve el equity total de la cuenta en centavos.
func (b AccountBalance) Equity() int64 {
	return b.BalanceCents + b.PositionCents
}
