package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultOllamaURL = "http://localhost:11434"

// Prompting the model to return only the rewritten text keeps stray
// "Here is your revised sentence:" prefixes out of the injected output.
const systemPrompt = "You are a dictation assistant. Rewrite the user's text " +
	"to be clearer and grammatically correct while keeping its meaning. " +
	"Reply with the rewritten text only, nothing else."

type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllama(model string) *Ollama {
	baseURL := os.Getenv("OLLAMA_URL")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func (o *Ollama) Rewrite(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  o.model,
		Prompt: text,
		System: systemPrompt,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama unreachable at %s: %w", o.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("ollama error %d: %s", resp.StatusCode, string(data))
	}

	var gResp generateResponse
	if err := json.Unmarshal(data, &gResp); err != nil {
		return "", fmt.Errorf("ollama response parse error: %w", err)
	}
	if gResp.Error != "" {
		return "", fmt.Errorf("ollama: %s", gResp.Error)
	}

	return strings.TrimSpace(gResp.Response), nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Models lists the model names the Ollama daemon has pulled.
func (o *Ollama) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama unreachable at %s: %w", o.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("ollama error %d: %s", resp.StatusCode, string(data))
	}

	var tResp tagsResponse
	if err := json.Unmarshal(data, &tResp); err != nil {
		return nil, fmt.Errorf("ollama response parse error: %w", err)
	}
	names := make([]string, 0, len(tResp.Models))
	for _, m := range tResp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
