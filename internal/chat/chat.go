// chat содержит клиента для локального LLM-сервиса (Ollama-совместимый API).
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client — контракт генерации ответа ассистента по собранному промпту.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type OllamaClient struct {
	baseURL string
	model   string
	http    *http.Client
}

var _ Client = (*OllamaClient)(nil)

// NewOllamaClient создаёт клиента для эндпоинта /api/generate.
func NewOllamaClient(baseURL, model string, timeout time.Duration) *OllamaClient {
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate выполняет нестриминговый запрос генерации и возвращает очищенный текст.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	const op = "chat.Generate"

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("%s: marshal request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}

	if out.Response == "" {
		return "No response from AI", nil
	}

	return CleanText(out.Response), nil
}

var textCleaner = strings.NewReplacer(
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
	"**", "",
	"###", "",
	"##", "",
	"#", "",
	"-", "",
	"*", "",
)

// CleanText убирает markdown-разметку и переводы строк из ответа модели.
func CleanText(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	return strings.TrimSpace(textCleaner.Replace(text))
}
