package kalshi

// client.go — Kalshi trade API authenticated client.
//
// Every request carries an RSA-PSS signature over timestamp+method+path.
// The body is excluded from the signature (Kalshi API v2 scheme). Headers
// are regenerated on every attempt so the timestamp stays fresh.

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBase = "https://api.elections.kalshi.com/trade-api/v2"

	// 3 attempts total on 429, linear backoff: 2s, 4s.
	maxAttempts   = 3
	baseRetryWait = 2 * time.Second

	requestTimeout = 10 * time.Second

	// Conservative client-side limit; Kalshi enforces per-key quotas.
	requestsPerSec = 10
)

// Client is the authenticated Kalshi HTTP client.
type Client struct {
	http     *http.Client
	base     string
	basePath string // path prefix included in the signed message
	keyID    string
	key      *rsa.PrivateKey
	limiter  *rate.Limiter
}

// NewClient creates a Client signing with the RSA key at privateKeyPath.
// A key that cannot be loaded is a configuration error — callers treat it
// as fatal at startup.
func NewClient(base, keyID, privateKeyPath string) (*Client, error) {
	if base == "" {
		base = defaultBase
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("kalshi.NewClient: parse base %q: %w", base, err)
	}

	key, err := loadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("kalshi.NewClient: %w", err)
	}

	return &Client{
		http:     &http.Client{Timeout: requestTimeout},
		base:     strings.TrimRight(base, "/"),
		basePath: strings.TrimRight(u.Path, "/"),
		keyID:    keyID,
		key:      key,
		limiter:  rate.NewLimiter(requestsPerSec, 5),
	}, nil
}

// loadPrivateKey reads an RSA private key in PEM form (PKCS#1 or PKCS#8).
func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key %q: %w", path, err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("private key %q: no PEM block found", path)
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("private key %q: parse: %w", path, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key %q: not an RSA key", path)
	}
	return key, nil
}

// authHeaders signs timestamp+METHOD+path with RSA-PSS (SHA-256, salt length
// equal to the digest length, as Kalshi v2 requires).
func (c *Client) authHeaders(method, path string) (map[string]string, error) {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	msg := ts + strings.ToUpper(method) + c.basePath + path

	digest := sha256.Sum256([]byte(msg))
	sig, err := rsa.SignPSS(rand.Reader, c.key, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	return map[string]string{
		"KALSHI-ACCESS-KEY":       c.keyID,
		"KALSHI-ACCESS-SIGNATURE": base64.StdEncoding.EncodeToString(sig),
		"KALSHI-ACCESS-TIMESTAMP": ts,
	}, nil
}

// do executes a signed request. 429 responses are retried in place with
// linearly increasing backoff; any other failure is returned to the caller.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, reqBody, out any) error {
	var bodyBytes []byte
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyBytes = b
	}

	fullURL := c.base + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		headers, err := c.authHeaders(method, path)
		if err != nil {
			return err
		}

		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("request %s %s: %w", method, path, err)
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt == maxAttempts {
				return fmt.Errorf("rate limited after %d attempts: %s %s", maxAttempts, method, path)
			}
			c.sleep(ctx, attempt)
			continue
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("status %d: %s %s: %s", resp.StatusCode, method, path, respBody)
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}
	return fmt.Errorf("exhausted %d attempts: %s %s", maxAttempts, method, path)
}

// sleep waits attempt*2s (2s, 4s), respecting the context.
func (c *Client) sleep(ctx context.Context, attempt int) {
	select {
	case <-time.After(time.Duration(attempt) * baseRetryWait):
	case <-ctx.Done():
	}
}
