package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient talks to the Gemini API. Calls run under a bounded timeout so
// a stalled oracle cannot block a session indefinitely.
type GeminiClient struct {
	model   *genai.GenerativeModel
	timeout time.Duration
}

func NewGeminiClient(apiKey, modelName string, timeout time.Duration) (*GeminiClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	return &GeminiClient{model: model, timeout: timeout}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, systemInstruction string, messages []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	parts := make([]genai.Part, 0, len(messages)+1)
	parts = append(parts, genai.Text(systemInstruction))
	for _, m := range messages {
		parts = append(parts, genai.Text(m))
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return sb.String(), nil
}
