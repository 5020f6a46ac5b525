package ollama

// client.go — cliente del endpoint local de text-completion (Ollama).
//
// Implementa ports.Oracle. El oráculo se usa solo como árbitro de matching;
// cualquier fallo de transporte o timeout lo absorbe el matcher como
// "sin match", nunca se propaga como error de ciclo.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBase    = "http://localhost:11434"
	generatePath   = "/api/generate"
	requestTimeout = 10 * time.Second
)

// Client es el HTTP client de Ollama.
type Client struct {
	http  *http.Client
	base  string
	model string
}

// NewClient crea un Client para el modelo dado.
func NewClient(base, model string) *Client {
	if base == "" {
		base = defaultBase
	}
	return &Client{
		http:  &http.Client{Timeout: requestTimeout},
		base:  base,
		model: model,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Complete envía el prompt con format=json y devuelve el texto de respuesta
// crudo. El caller lo interpreta como JSON estricto.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return "", fmt.Errorf("ollama.Complete: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+generatePath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama.Complete: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama.Complete: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama.Complete: status %d: %s", resp.StatusCode, b)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ollama.Complete: decode: %w", err)
	}
	return out.Response, nil
}
