// Package adcopy generates ranked ad text variants for a campaign using
// a hosted language model. Two backends are supported: the OpenAI chat
// API and AWS Bedrock. Prompts are Liquid templates so marketing can
// tune them without a rebuild.
package adcopy

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/osteele/liquid"

	"github.com/ignite/adpilot/internal/config"
	"github.com/ignite/adpilot/internal/domain"
)

// Request describes the campaign the copy is for.
type Request struct {
	CampaignName string          `json:"campaign_name"`
	Platform     domain.Platform `json:"platform"`
	Product      string          `json:"product"`
	Audience     string          `json:"audience"`
	Tone         string          `json:"tone"`
	VariantCount int             `json:"variant_count"`
}

// Variant is one generated ad, scored by the model's own estimate of
// click-worthiness. Scores rank variants relative to each other; they
// are not calibrated probabilities.
type Variant struct {
	Headline       string  `json:"headline"`
	Description    string  `json:"description"`
	CallToAction   string  `json:"call_to_action"`
	PredictedScore float64 `json:"predicted_score"`
}

// Generator produces ranked ad variants.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]Variant, error)
}

// New selects the configured backend.
func New(ctx context.Context, cfg config.AdCopyConfig) (Generator, error) {
	switch cfg.Backend {
	case "openai":
		return NewOpenAIGenerator(cfg), nil
	case "bedrock":
		return NewBedrockGenerator(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown ad copy backend %q", cfg.Backend)
	}
}

const systemPrompt = "You are an advertising copywriter. Respond only with a JSON array; no prose, no code fences."

const promptTemplate = `Write {{ count }} ad copy variants for the campaign "{{ campaign }}" on {{ platform }}.
Product: {{ product }}
{% if audience != "" %}Target audience: {{ audience }}
{% endif %}{% if tone != "" %}Tone: {{ tone }}
{% endif %}Return a JSON array where each element has "headline" (max 30 chars), "description" (max 90 chars), "call_to_action", and "predicted_score" (0-1, your estimate of relative click-through performance).`

var promptEngine = liquid.NewEngine()

func renderPrompt(req Request) (string, error) {
	count := req.VariantCount
	if count <= 0 {
		count = 3
	}
	out, err := promptEngine.ParseAndRenderString(promptTemplate, liquid.Bindings{
		"count":    count,
		"campaign": req.CampaignName,
		"platform": string(req.Platform),
		"product":  req.Product,
		"audience": req.Audience,
		"tone":     req.Tone,
	})
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return out, nil
}

func validateRequest(req Request) error {
	if req.CampaignName == "" {
		return fmt.Errorf("campaign name required")
	}
	if req.Product == "" {
		return fmt.Errorf("product required")
	}
	return nil
}

// parseVariants decodes the model's JSON, tolerating stray code fences,
// and returns the variants ranked best first.
func parseVariants(text string) ([]Variant, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	var variants []Variant
	if err := json.Unmarshal([]byte(text), &variants); err != nil {
		return nil, fmt.Errorf("parsing model output: %w", err)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("model returned no variants")
	}
	for i, v := range variants {
		if v.Headline == "" {
			return nil, fmt.Errorf("variant %d has no headline", i)
		}
	}
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].PredictedScore > variants[j].PredictedScore
	})
	return variants, nil
}
