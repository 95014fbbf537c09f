package llm

import (
	"context"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"mockview/internal/domain"
)

// fallbackEncoding is used for models tiktoken has no mapping for.
const fallbackEncoding = "cl100k_base"

// TiktokenCounter implements domain.TokenCounter with real BPE token
// counts. Encoders are cached per model since building one is expensive.
type TiktokenCounter struct {
	mu       sync.Mutex
	encoders map[string]*tiktoken.Tiktoken
}

// NewTiktokenCounter creates a token counter.
func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{encoders: make(map[string]*tiktoken.Tiktoken)}
}

// Count returns the number of tokens in text for the given model.
func (c *TiktokenCounter) Count(model, text string) (int, error) {
	enc, err := c.encoderFor(model)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

func (c *TiktokenCounter) encoderFor(model string) (*tiktoken.Tiktoken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if enc, ok := c.encoders[model]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, err
		}
	}
	c.encoders[model] = enc
	return enc, nil
}

var _ domain.TokenCounter = (*TiktokenCounter)(nil)

// MeteredProvider fills in token usage when the backend omits it, so the
// cost tracker always sees real counts instead of the length/4 estimate.
// Wrap the raw provider before the circuit breaker so fast-failed calls
// skip the tokenizer entirely.
type MeteredProvider struct {
	inner   domain.LLMProvider
	counter domain.TokenCounter
}

// NewMeteredProvider wraps inner with usage accounting.
func NewMeteredProvider(inner domain.LLMProvider, counter domain.TokenCounter) *MeteredProvider {
	return &MeteredProvider{inner: inner, counter: counter}
}

// Chat implements domain.LLMProvider.
func (p *MeteredProvider) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	resp, err := p.inner.Chat(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.Usage.TotalTokens == 0 {
		prompt := 0
		for _, m := range req.Messages {
			if n, err := p.counter.Count(req.Model, m.Content); err == nil {
				prompt += n
			}
		}
		completion, _ := p.counter.Count(req.Model, resp.Content)
		resp.Usage = domain.Usage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		}
	}
	return resp, nil
}

// Name implements domain.LLMProvider.
func (p *MeteredProvider) Name() string { return p.inner.Name() }

var _ domain.LLMProvider = (*MeteredProvider)(nil)
