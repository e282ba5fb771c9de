package translate

import "context"

// builtinDeepSeekKey is the shipped fallback credential; DeepSeek requests
// never fail with a missing credential.
const builtinDeepSeekKey = "sk-8742be0819d04a2e8b9d7e6e9e1a9d5c"

type DeepSeekClient struct{}

func (c *DeepSeekClient) Name() string { return "deepseek" }

func (c *DeepSeekClient) Translate(ctx context.Context, req Request) (string, error) {
	key := req.Key
	if key == "" {
		key = builtinDeepSeekKey
	}
	return chatTranslate(ctx, "https://api.deepseek.com/v1/chat/completions", c.Name(), "deepseek-chat", key, req)
}
