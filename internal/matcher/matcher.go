package matcher

// matcher.go — identidad de mercados cross-venue.
//
// Un alert de Polymarket no trae ticker de Kalshi; el matcher propone
// candidatos por overlap de keywords sobre el catálogo cacheado y deja la
// decisión final a un oráculo de text-completion restringido a JSON
// estricto. Cualquier fallo del oráculo se trata como "sin match".

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/mihirargulkar/polymaster/internal/domain"
	"github.com/mihirargulkar/polymaster/internal/ports"
)

const maxCandidates = 5

// stopwords excluidas de la tokenización del título.
var stopwords = map[string]bool{
	"price": true, "will": true, "market": true, "outcome": true,
	"2024": true, "2025": true, "2026": true,
}

// Matcher resuelve la identidad de un mercado del venue secundario en el
// venue de ejecución.
type Matcher struct {
	catalog       *Catalog
	oracle        ports.Oracle
	minConfidence float64
}

// New crea un Matcher. minConfidence es el umbral estricto del oráculo
// (se acepta solo confidence > minConfidence).
func New(catalog *Catalog, oracle ports.Oracle, minConfidence float64) *Matcher {
	return &Matcher{
		catalog:       catalog,
		oracle:        oracle,
		minConfidence: minConfidence,
	}
}

// FindCandidates devuelve hasta 5 mercados del catálogo que comparten
// keywords con el título, ordenados por overlap descendente (orden de
// catálogo como desempate, estable).
func (m *Matcher) FindCandidates(ctx context.Context, title string) []domain.CatalogEntry {
	tokens := tokenize(title)
	if len(tokens) == 0 {
		return nil
	}

	type scored struct {
		entry   domain.CatalogEntry
		overlap int
	}
	var candidates []scored

	for _, entry := range m.catalog.Entries(ctx) {
		n := overlapCount(tokens, entry.Title)
		if n >= 2 || (n == 1 && len(tokens) == 1) {
			candidates = append(candidates, scored{entry: entry, overlap: n})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].overlap > candidates[j].overlap
	})

	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	out := make([]domain.CatalogEntry, len(candidates))
	for i, c := range candidates {
		out[i] = c.entry
	}
	return out
}

// oracleVerdict es el JSON estricto que debe devolver el oráculo.
type oracleVerdict struct {
	Match      bool    `json:"match"`
	Ticker     string  `json:"ticker"`
	Side       string  `json:"side"`
	Confidence float64 `json:"confidence"`
}

// Match arbitra entre los candidatos con el oráculo. Devuelve nil ante
// cualquier fallo de transporte, JSON malformado, match=false o confianza
// insuficiente. Sin candidatos no se invoca el oráculo (control de coste).
func (m *Matcher) Match(ctx context.Context, title, outcome string, candidates []domain.CatalogEntry) *domain.MatchResult {
	if len(candidates) == 0 {
		return nil
	}

	raw, err := m.oracle.Complete(ctx, buildPrompt(title, outcome, candidates))
	if err != nil {
		slog.Warn("matcher: oracle error", "err", err)
		return nil
	}

	var v oracleVerdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		slog.Warn("matcher: oracle returned malformed JSON", "err", err)
		return nil
	}

	// Umbral estricto: 0.80 exacto se rechaza.
	if !v.Match || v.Confidence <= m.minConfidence {
		return nil
	}

	return &domain.MatchResult{
		Ticker:     v.Ticker,
		Side:       v.Side,
		Confidence: v.Confidence,
	}
}

// buildPrompt enumera los candidatos (índice, ticker, título) junto al
// título/outcome de origen.
func buildPrompt(title, outcome string, candidates []domain.CatalogEntry) string {
	var sb strings.Builder
	sb.WriteString("Task: Match the Polymarket event to the equivalent Kalshi market.\n\n")
	fmt.Fprintf(&sb, "Polymarket Alert: %q (Outcome: %s)\n\n", title, outcome)
	sb.WriteString("Candidate Kalshi Markets:\n")
	for i, c := range candidates {
		fmt.Fprintf(&sb, "%d. Ticker: %s | Title: %s\n", i+1, c.Ticker, c.Title)
	}
	sb.WriteString(`
Output JSON ONLY:
{
    "match": true/false,
    "ticker": "Ticker symbol of the match",
    "side": "yes/no (which side of the Kalshi market maps to the Polymarket outcome)",
    "confidence": 0.0 to 1.0
}
`)
	return sb.String()
}

// tokenize extrae keywords del título: palabras de más de 3 caracteres
// que no estén en la stoplist.
func tokenize(title string) []string {
	var tokens []string
	for _, w := range strings.Fields(strings.ToLower(title)) {
		if len(w) > 3 && !stopwords[w] {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// overlapCount cuenta cuántos tokens aparecen en el título del candidato.
func overlapCount(tokens []string, candidateTitle string) int {
	lower := strings.ToLower(candidateTitle)
	n := 0
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			n++
		}
	}
	return n
}
