// Package tokencount estimates token usage for providers that do not report it.
package tokencount

import (
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

const (
	fallbackEncoding = "cl100k_base"
	// every chat message is wrapped in role and separator tokens
	tokensPerMessage = 4
	// replies are primed with the assistant header
	replyPrimer = 3
)

type Counter struct {
	mu        sync.RWMutex
	encodings map[string]*tiktoken.Tiktoken
}

func NewCounter() *Counter {
	return &Counter{encodings: make(map[string]*tiktoken.Tiktoken)}
}

var defaultCounter = NewCounter()

// Chat estimates the tokens consumed by a chat exchange of the given message contents and completion.
func Chat(model string, messages []string, completion string) int {
	return defaultCounter.Chat(model, messages, completion)
}

func (c *Counter) Chat(model string, messages []string, completion string) int {
	enc, err := c.encoding(model)
	if err != nil {
		return roughEstimate(messages, completion)
	}

	total := replyPrimer
	for _, m := range messages {
		total += tokensPerMessage + len(enc.Encode(m, nil, nil))
	}
	total += len(enc.Encode(completion, nil, nil))

	return total
}

func (c *Counter) encoding(model string) (*tiktoken.Tiktoken, error) {
	key := normalizeModel(model)

	c.mu.RLock()
	enc, ok := c.encodings[key]
	c.mu.RUnlock()
	if ok {
		return enc, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if enc, ok := c.encodings[key]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(key)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, err
		}
	}

	c.encodings[key] = enc
	return enc, nil
}

func normalizeModel(model string) string {
	model = strings.ToLower(strings.TrimSpace(model))
	if idx := strings.LastIndex(model, "/"); idx != -1 {
		model = model[idx+1:]
	}

	switch {
	case strings.Contains(model, "gpt-3.5"):
		return "gpt-3.5-turbo"
	default:
		// gemini and unknown models are approximated with the gpt-4 encoding
		return "gpt-4"
	}
}

// roughEstimate assumes about four characters per token.
func roughEstimate(messages []string, completion string) int {
	chars := len(completion)
	for _, m := range messages {
		chars += len(m)
	}
	return chars / 4
}
