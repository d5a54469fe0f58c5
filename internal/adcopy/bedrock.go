package adcopy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/ignite/adpilot/internal/config"
)

// bedrockInvoker is the slice of the Bedrock runtime client we use.
type bedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockGenerator generates ad copy through AWS Bedrock. All traffic
// stays inside AWS.
type BedrockGenerator struct {
	client  bedrockInvoker
	modelID string
}

// NewBedrockGenerator creates the Bedrock backend using the default AWS
// credential chain.
func NewBedrockGenerator(ctx context.Context, cfg config.AdCopyConfig) (*BedrockGenerator, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &BedrockGenerator{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		modelID: cfg.BedrockModelID,
	}, nil
}

type bedrockMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func buildBedrockRequest(prompt string) bedrockRequest {
	return bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        2048,
		System:           systemPrompt,
		Messages:         []bedrockMessage{{Role: "user", Content: prompt}},
		Temperature:      0.8,
	}
}

// Generate renders the prompt, invokes the model, and parses the ranked
// variants out of the response.
func (g *BedrockGenerator) Generate(ctx context.Context, req Request) ([]Variant, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	prompt, err := renderPrompt(req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(buildBedrockRequest(prompt))
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	out, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("invoking model: %w", err)
	}

	var parsed bedrockResponse
	if err := json.Unmarshal(out.Body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return nil, fmt.Errorf("model returned no content")
	}
	return parseVariants(parsed.Content[0].Text)
}
