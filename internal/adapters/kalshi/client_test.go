package kalshi

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihirargulkar/polymaster/internal/domain"
)

func writeTestKey(t *testing.T) (string, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.pem")
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path, key
}

func TestNewClient_MissingKeyIsError(t *testing.T) {
	_, err := NewClient("", "key-id", "/nonexistent/key.pem")
	require.Error(t, err)
}

func TestNewClient_RejectsNonPEM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a pem"), 0o600))

	_, err := NewClient("", "key-id", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no PEM block")
}

func TestAuthHeaders_SignatureVerifies(t *testing.T) {
	path, key := writeTestKey(t)
	c, err := NewClient("https://api.example.com/trade-api/v2", "key-id", path)
	require.NoError(t, err)

	headers, err := c.authHeaders(http.MethodGet, "/markets")
	require.NoError(t, err)

	assert.Equal(t, "key-id", headers["KALSHI-ACCESS-KEY"])
	ts := headers["KALSHI-ACCESS-TIMESTAMP"]
	require.NotEmpty(t, ts)

	sig, err := base64.StdEncoding.DecodeString(headers["KALSHI-ACCESS-SIGNATURE"])
	require.NoError(t, err)

	// El mensaje firmado incluye el path prefix del base URL; el body no
	msg := ts + "GET" + "/trade-api/v2" + "/markets"
	digest := sha256.Sum256([]byte(msg))
	err = rsa.VerifyPSS(&key.PublicKey, crypto.SHA256, digest[:], sig, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	assert.NoError(t, err)
}

func TestClient_GetMarketDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets/KXTEST", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("KALSHI-ACCESS-SIGNATURE"))
		_, _ = w.Write([]byte(`{"market": {"ticker": "KXTEST", "title": "Test", "status": "settled", "result": "yes"}}`))
	}))
	defer srv.Close()

	path, _ := writeTestKey(t)
	c, err := NewClient(srv.URL, "key-id", path)
	require.NoError(t, err)

	m, err := c.GetMarket(context.Background(), "KXTEST")
	require.NoError(t, err)
	assert.Equal(t, "settled", m.Status)
	assert.Equal(t, "yes", m.Result)
}

func TestClient_CreateOrderBody(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"order": {"order_id": "ord-123"}}`))
	}))
	defer srv.Close()

	path, _ := writeTestKey(t)
	c, err := NewClient(srv.URL, "key-id", path)
	require.NoError(t, err)

	orderID, err := c.CreateOrder(context.Background(), domain.OrderRequest{
		Ticker:        "KXTEST",
		Side:          "yes",
		Count:         10,
		PriceCents:    46,
		ClientOrderID: "token-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-123", orderID)

	assert.Equal(t, "KXTEST", body["ticker"])
	assert.Equal(t, "buy", body["action"])
	assert.Equal(t, "limit", body["type"])
	assert.Equal(t, float64(46), body["yes_price"])
	_, hasNoPrice := body["no_price"]
	assert.False(t, hasNoPrice)
}

func TestClient_RetriesOn429ThenSucceeds(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"balance": 6722, "portfolio_value": 0}`))
	}))
	defer srv.Close()

	path, _ := writeTestKey(t)
	c, err := NewClient(srv.URL, "key-id", path)
	require.NoError(t, err)

	start := time.Now()
	bal, err := c.GetBalance(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, requests)
	assert.Equal(t, int64(6722), bal.BalanceCents)
	// Backoff lineal: 2s tras el primer 429, 4s tras el segundo
	assert.GreaterOrEqual(t, time.Since(start), 6*time.Second)
}

func TestClient_RateLimitedAfterMaxAttempts(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	path, _ := writeTestKey(t)
	c, err := NewClient(srv.URL, "key-id", path)
	require.NoError(t, err)

	_, err = c.GetBalance(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited after 3 attempts")
	assert.Equal(t, 3, requests)
}

func TestClient_HTTPErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "insufficient_balance"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	path, _ := writeTestKey(t)
	c, err := NewClient(srv.URL, "key-id", path)
	require.NoError(t, err)

	_, err = c.GetBalance(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "status 400"))
}
