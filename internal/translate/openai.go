package translate

import "context"

type OpenAIClient struct{}

func (c *OpenAIClient) Name() string { return "openai" }

func (c *OpenAIClient) Translate(ctx context.Context, req Request) (string, error) {
	return chatTranslate(ctx, "https://api.openai.com/v1/chat/completions", c.Name(), "gpt-3.5-turbo", req.Key, req)
}
