package matcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihirargulkar/polymaster/internal/domain"
)

// --- mocks ---

type stubVenue struct {
	markets []domain.CatalogEntry
	err     error
	calls   int
}

func (s *stubVenue) GetMarkets(_ context.Context, _ string, _ int) ([]domain.CatalogEntry, error) {
	s.calls++
	return s.markets, s.err
}

func (s *stubVenue) GetMarket(_ context.Context, _ string) (domain.VenueMarket, error) {
	return domain.VenueMarket{}, nil
}

func (s *stubVenue) GetBalance(_ context.Context) (domain.AccountBalance, error) {
	return domain.AccountBalance{}, nil
}

func (s *stubVenue) CreateOrder(_ context.Context, _ domain.OrderRequest) (string, error) {
	return "", nil
}

type stubOracle struct {
	response string
	err      error
	calls    int
}

func (s *stubOracle) Complete(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.response, s.err
}

// --- helpers ---

func catalogOf(entries ...domain.CatalogEntry) *Catalog {
	c := NewCatalog(&stubVenue{markets: entries}, time.Hour)
	return c
}

var testEntries = []domain.CatalogEntry{
	{Ticker: "KXBTC-1", Title: "Bitcoin price above 100000 today"},
	{Ticker: "KXETH-1", Title: "Ethereum above 5000 today"},
	{Ticker: "KXNFL-1", Title: "Chiefs beat the Eagles tonight"},
}

// --- tests ---

func TestFindCandidates_RequiresOverlap(t *testing.T) {
	m := New(catalogOf(testEntries...), &stubOracle{}, 0.8)

	got := m.FindCandidates(context.Background(), "Will Bitcoin trade above 100000?")

	require.Len(t, got, 1)
	assert.Equal(t, "KXBTC-1", got[0].Ticker)
}

func TestFindCandidates_SingleTokenException(t *testing.T) {
	m := New(catalogOf(testEntries...), &stubOracle{}, 0.8)

	// Un solo token útil ("ethereum"): basta un overlap de 1
	got := m.FindCandidates(context.Background(), "Ethereum")

	require.Len(t, got, 1)
	assert.Equal(t, "KXETH-1", got[0].Ticker)
}

func TestFindCandidates_SingleOverlapRejectedWithMultipleTokens(t *testing.T) {
	m := New(catalogOf(testEntries...), &stubOracle{}, 0.8)

	// "chiefs" solapa pero "winning" no: overlap 1 con 2 tokens no alcanza
	got := m.FindCandidates(context.Background(), "Chiefs winning streak")

	assert.Empty(t, got)
}

func TestFindCandidates_StopwordsOnlyTitle(t *testing.T) {
	venue := &stubVenue{markets: testEntries}
	m := New(NewCatalog(venue, time.Hour), &stubOracle{}, 0.8)

	got := m.FindCandidates(context.Background(), "Will price market outcome 2025")

	assert.Empty(t, got)
	assert.Zero(t, venue.calls) // sin tokens no se toca el catálogo
}

func TestFindCandidates_TopFiveByOverlap(t *testing.T) {
	entries := make([]domain.CatalogEntry, 0, 8)
	for _, tk := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		entries = append(entries, domain.CatalogEntry{
			Ticker: tk, Title: "bitcoin above threshold today",
		})
	}
	// El de mayor overlap va primero aunque esté al final del catálogo
	entries = append(entries, domain.CatalogEntry{
		Ticker: "BEST", Title: "bitcoin price above 100000 threshold today",
	})
	m := New(catalogOf(entries...), &stubOracle{}, 0.8)

	got := m.FindCandidates(context.Background(), "bitcoin above 100000 threshold")

	require.Len(t, got, maxCandidates)
	assert.Equal(t, "BEST", got[0].Ticker)
	// Desempate estable: orden de catálogo
	assert.Equal(t, "A", got[1].Ticker)
}

func TestMatch_NoCandidatesSkipsOracle(t *testing.T) {
	oracle := &stubOracle{}
	m := New(catalogOf(), oracle, 0.8)

	assert.Nil(t, m.Match(context.Background(), "anything", "Yes", nil))
	assert.Zero(t, oracle.calls)
}

func TestMatch_ConfidenceThresholdIsStrict(t *testing.T) {
	candidates := testEntries[:1]

	// Exactamente en el umbral: rechazado
	oracle := &stubOracle{response: `{"match":true,"ticker":"KXBTC-1","side":"yes","confidence":0.80}`}
	m := New(catalogOf(), oracle, 0.8)
	assert.Nil(t, m.Match(context.Background(), "bitcoin", "Yes", candidates))

	// Apenas por encima: aceptado
	oracle.response = `{"match":true,"ticker":"KXBTC-1","side":"yes","confidence":0.81}`
	got := m.Match(context.Background(), "bitcoin", "Yes", candidates)
	require.NotNil(t, got)
	assert.Equal(t, "KXBTC-1", got.Ticker)
	assert.Equal(t, "yes", got.Side)
	assert.InDelta(t, 0.81, got.Confidence, 1e-9)
}

func TestMatch_OracleDeclines(t *testing.T) {
	oracle := &stubOracle{response: `{"match":false,"confidence":0.95}`}
	m := New(catalogOf(), oracle, 0.8)

	assert.Nil(t, m.Match(context.Background(), "bitcoin", "Yes", testEntries[:1]))
}

func TestMatch_OracleFailuresAreNoMatch(t *testing.T) {
	candidates := testEntries[:1]

	oracle := &stubOracle{err: errors.New("connection refused")}
	m := New(catalogOf(), oracle, 0.8)
	assert.Nil(t, m.Match(context.Background(), "bitcoin", "Yes", candidates))

	oracle = &stubOracle{response: "I think the answer is KXBTC-1"}
	m = New(catalogOf(), oracle, 0.8)
	assert.Nil(t, m.Match(context.Background(), "bitcoin", "Yes", candidates))
}

func TestCatalog_RefreshOnceWithinTTL(t *testing.T) {
	venue := &stubVenue{markets: testEntries}
	now := time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)
	c := NewCatalog(venue, time.Hour)
	c.now = func() time.Time { return now }

	first := c.Entries(context.Background())
	second := c.Entries(context.Background())

	assert.Len(t, first, 3)
	assert.Len(t, second, 3)
	assert.Equal(t, 1, venue.calls)
}

func TestCatalog_RefreshAfterExpiry(t *testing.T) {
	venue := &stubVenue{markets: testEntries}
	now := time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)
	c := NewCatalog(venue, time.Hour)
	c.now = func() time.Time { return now }

	c.Entries(context.Background())
	now = now.Add(61 * time.Minute)
	c.Entries(context.Background())

	assert.Equal(t, 2, venue.calls)
}

func TestCatalog_FailedRefreshKeepsOldEntries(t *testing.T) {
	venue := &stubVenue{markets: testEntries}
	now := time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)
	c := NewCatalog(venue, time.Hour)
	c.now = func() time.Time { return now }

	c.Entries(context.Background())

	venue.err = errors.New("gateway timeout")
	now = now.Add(2 * time.Hour)
	got := c.Entries(context.Background())

	// Catálogo viejo antes que nada
	assert.Len(t, got, 3)
}
