package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"
)

// IChatClient wraps an OpenAI-compatible chat completion endpoint that is
// asked to return a single JSON object.
type IChatClient interface {
	CreateJSONCompletion(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

type chatService struct {
	client      *openai.Client
	model       string
	temperature float32
}

const (
	defaultBaseURL = "https://api.deepseek.com"
	defaultModel   = "deepseek-chat"

	// DeepSeek recommends a higher sampling temperature for creative writing.
	defaultTemperature = 1.3
)

// Configured reports whether an API key is available in the environment.
func Configured() bool {
	return os.Getenv("DEEPSEEK_API_KEY") != ""
}

func NewChatClient() IChatClient {
	apiKey := os.Getenv("DEEPSEEK_API_KEY")

	baseURL := os.Getenv("DEEPSEEK_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := os.Getenv("DEEPSEEK_CHAT_MODEL")
	if model == "" {
		model = defaultModel
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &chatService{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: defaultTemperature,
	}
}

func (c *chatService) CreateJSONCompletion(
	ctx context.Context,
	systemPrompt string,
	userPrompt string,
) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: userPrompt,
		},
	}

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: c.temperature,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)

	if err != nil {
		return "", fmt.Errorf("chat API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from chat API")
	}

	return resp.Choices[0].Message.Content, nil
}
