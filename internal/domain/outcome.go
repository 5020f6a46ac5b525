package domain

import "strings"

// SettlementKind clasifica la evidencia de resolución que reporta un venue.
type SettlementKind int

const (
	// SettlementUnknown: el mercado sigue abierto o el fetch falló.
	// En un sistema de polling la ausencia de outcome no es un error.
	SettlementUnknown SettlementKind = iota
	// SettlementSide: el venue reporta un lado ganador concreto.
	SettlementSide
	// SettlementVoid: el venue marca el mercado cerrado pero sin lado
	// distinguible. Sigue siendo evidencia de settlement.
	SettlementVoid
)

// Settlement es el resultado normalizado de consultar un mercado.
type Settlement struct {
	Kind SettlementKind
	Side string // solo con SettlementSide, ya en mayúsculas
}

// StoredOutcome devuelve el valor que se persiste en settled_outcome.
func (s Settlement) StoredOutcome() string {
	switch s.Kind {
	case SettlementSide:
		return strings.ToUpper(s.Side)
	case SettlementVoid:
		return SettledVoid
	}
	return ""
}

// Outcome es el resultado de un alert settled relativo a su predicción.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeWin
	OutcomeLoss
	// OutcomeVoid: settlement sin lado conocido. El replay lo puntúa como
	// breakeven (stake devuelto, PnL 0) — decisión de política de la
	// simulación, no garantía de la plataforma.
	OutcomeVoid
)

// String implementa fmt.Stringer para logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "WIN"
	case OutcomeLoss:
		return "LOSS"
	case OutcomeVoid:
		return "VOID"
	}
	return "UNKNOWN"
}

// ScoreOutcome compara el outcome persistido de un alert settled con su lado
// predicho. Devuelve OutcomeUnknown si el alert aún no tiene outcome.
func ScoreOutcome(predictedSide, settledOutcome string) Outcome {
	if settledOutcome == "" {
		return OutcomeUnknown
	}
	if settledOutcome == SettledVoid {
		return OutcomeVoid
	}
	if strings.EqualFold(predictedSide, settledOutcome) {
		return OutcomeWin
	}
	return OutcomeLoss
}

// MatchResult es un match confirmado entre un título del venue secundario y
// un mercado del venue de ejecución. nil significa "sin match".
type MatchResult struct {
	Ticker     string
	Side       string
	Confidence float64
}
