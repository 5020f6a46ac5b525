package domain

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"
)

// referenceYear ancla las fechas derivadas del título. Los títulos tipo
// "Will X happen by March 5?" no llevan año; se asume el año de referencia
// de la estrategia.
const referenceYear = 2026

// titleDateRe captura "nombre de mes + número de día" en el título.
var titleDateRe = regexp.MustCompile(
	`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December|` +
		`Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\.?\s+(\d{1,2})\b`)

var monthByName = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// forwardTerms son señales de resolución lejana. Si el título no da fecha
// concreta pero menciona uno de estos términos, el alert se descarta.
var forwardTerms = []string{
	"march", "april", "may", "june", "july", "august",
	"september", "october", "november", "december",
	"2026", "2027", "end of year",
}

// marketContext es el subconjunto del JSON de contexto que nos interesa.
type marketContext struct {
	ExpirationDate string `json:"expiration_date"`
}

// ParseExpiration deriva el instante de expiración de un alert con fallback
// de dos niveles: (a) expiration_date explícito en el JSON de contexto,
// (b) "mes + día" en el título anclado a referenceYear. JSON o fechas
// malformadas se tratan como "sin expiración", nunca como error.
func ParseExpiration(ctxJSON, title string, loc *time.Location) (time.Time, bool) {
	if ctxJSON != "" {
		var ctx marketContext
		if err := json.Unmarshal([]byte(ctxJSON), &ctx); err == nil && ctx.ExpirationDate != "" {
			if t, err := time.Parse(time.RFC3339, ctx.ExpirationDate); err == nil {
				return t, true
			}
		}
	}

	if title != "" {
		clean := strings.Join(strings.Fields(title), " ")
		if m := titleDateRe.FindStringSubmatch(clean); m != nil {
			month := monthByName[strings.ToLower(m[1])]
			day, err := strconv.Atoi(m[2])
			if err == nil && day >= 1 && day <= 31 {
				return time.Date(referenceYear, month, day, 0, 0, 0, 0, loc), true
			}
		}
	}

	return time.Time{}, false
}

// MentionsFarFuture detecta términos de resolución lejana en el título.
func MentionsFarFuture(title string) bool {
	lower := strings.ToLower(title)
	for _, term := range forwardTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// ExpiryEligible aplica la ventana de horizonte corto de la estrategia:
// solo alerts cuyo mercado resuelve el mismo día o el siguiente. La
// diferencia se mide en días de calendario, no en horas.
func ExpiryEligible(ctxJSON, title string, capturedAt time.Time) bool {
	exp, ok := ParseExpiration(ctxJSON, title, capturedAt.Location())
	if !ok {
		// Sin fecha: el escaneo de términos lejanos descalifica.
		return !MentionsFarFuture(title)
	}
	delta := civil.DateOf(exp).DaysSince(civil.DateOf(capturedAt))
	return delta >= 0 && delta <= 1
}
