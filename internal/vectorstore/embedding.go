// ABOUTME: Embedding providers plugged into the chromem collection
// ABOUTME: OpenAI via go-openai, plus an Ollama-compatible local endpoint
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/philippgille/chromem-go"
	openai "github.com/sashabaranov/go-openai"
)

// NewEmbedding selects an embedding function by provider name. The provider
// strings match the configuration surface ("openai", "ollama").
func NewEmbedding(provider, model, apiKey, baseURL string) (chromem.EmbeddingFunc, error) {
	switch provider {
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai embedding provider")
		}
		return NewOpenAIEmbedding(apiKey, model), nil
	case "ollama":
		return NewOllamaEmbedding(baseURL, model), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

// NewOpenAIEmbedding embeds text through the OpenAI embeddings API.
func NewOpenAIEmbedding(apiKey, model string) chromem.EmbeddingFunc {
	client := openai.NewClient(apiKey)

	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: openai.EmbeddingModel(model),
		})
		if err != nil {
			return nil, fmt.Errorf("create embedding: %w", err)
		}
		if len(resp.Data) == 0 {
			return nil, fmt.Errorf("no embedding returned")
		}
		return resp.Data[0].Embedding, nil
	}
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaEmbedding embeds text through an Ollama-compatible /api/embed
// endpoint, for fully local operation.
func NewOllamaEmbedding(baseURL, model string) chromem.EmbeddingFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, text string) ([]float32, error) {
		body, err := json.Marshal(ollamaEmbedRequest{Model: model, Input: text})
		if err != nil {
			return nil, fmt.Errorf("marshal embed request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create embed request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("embed request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read embed response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("embed error (%d): %s", resp.StatusCode, string(respBody))
		}

		var embedResp ollamaEmbedResponse
		if err := json.Unmarshal(respBody, &embedResp); err != nil {
			return nil, fmt.Errorf("decode embed response: %w", err)
		}
		if len(embedResp.Embeddings) == 0 {
			return nil, fmt.Errorf("no embeddings returned")
		}
		return embedResp.Embeddings[0], nil
	}
}
