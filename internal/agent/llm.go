package agent

import (
	"context"
	"strings"

	"mockview/internal/domain"
	"mockview/internal/usecase"
)

// chatWithCost runs one chat completion and prices it. When the
// provider reports no usage (some backends omit it), token counts are
// estimated from the text so the cost breakdown never silently drops a
// call.
func chatWithCost(ctx context.Context, provider domain.LLMProvider, llm domain.LLMSettings, system, user string) (string, float64, error) {
	req := domain.ChatRequest{
		Model: llm.Model,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: system},
			{Role: domain.RoleUser, Content: user},
		},
		MaxTokens:   llm.MaxTokens,
		Temperature: llm.Temperature,
	}

	resp, err := provider.Chat(ctx, req)
	if err != nil {
		return "", 0, err
	}

	content := strings.TrimSpace(resp.Content)
	usage := resp.Usage
	if usage.TotalTokens == 0 {
		usage.PromptTokens = usecase.EstimateTokens(system + user)
		usage.CompletionTokens = usecase.EstimateTokens(content)
	}
	cost := usecase.TextCost(llm.Provider, llm.Model, usage.PromptTokens, usage.CompletionTokens)
	return content, cost, nil
}
