package llm

import "github.com/sandevgo/coeus/internal/core"

const openRouterReferer = "https://github.com/sandevgo/coeus"

func NewOpenRouter(apiKey, model string) *OpenAICompatible {
	return NewOpenAICompatible(OpenAICompatibleConfig{
		BaseURL:    "https://openrouter.ai/api",
		APIKey:     apiKey,
		Model:      model,
		AuthHeader: "Authorization",
		AuthPrefix: "Bearer ",
		ExtraHeaders: map[string]string{
			"HTTP-Referer": openRouterReferer,
			"X-Title":      core.CoeusName,
		},
	})
}
