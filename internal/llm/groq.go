package llm

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Groq uses Groq's OpenAI compatible chat completions endpoint. Transport
// errors and 5xx/429 responses are retried by the HTTP client.
type Groq struct {
	client *openai.Client
	model  string
	opts   Options
}

func NewGroq(apiKey, baseURL, model string, opts Options) *Groq {
	httpClient := retryablehttp.NewClient()
	httpClient.Logger = nil
	httpClient.RetryMax = 3
	httpClient.RetryWaitMin = 2 * time.Second

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient.StandardClient()),
		option.WithMaxRetries(0),
	)

	return &Groq{client: &client, model: model, opts: opts}
}

func (g *Groq) Name() string {
	return "groq:" + g.model
}

func (g *Groq) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemInstruction),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(g.opts.Temperature),
		MaxTokens:   openai.Int(int64(g.opts.MaxTokens)),
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("groq returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
