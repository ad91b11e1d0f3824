package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

const systemInstruction = "You are a legal document analysis AI specialized in extracting structured information from legal documents. You must output your response as a valid JSON array."

// Vertex talks to Gemini through Vertex AI using application default
// credentials.
type Vertex struct {
	model *genai.GenerativeModel
	name  string
}

func NewVertex(ctx context.Context, projectID, region, model string, opts Options) (*Vertex, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertex: projectID and region cannot be empty")
	}

	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	m := client.GenerativeModel(model)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}
	m.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(float32(opts.Temperature)),
		MaxOutputTokens:  genai.Ptr(int32(opts.MaxTokens)),
	}

	return &Vertex{model: m, name: model}, nil
}

func (v *Vertex) Name() string {
	return "vertex:" + v.name
}

func (v *Vertex) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := v.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("vertex returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("vertex returned no text parts")
	}

	return sb.String(), nil
}
