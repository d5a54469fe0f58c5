package adcopy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/adpilot/internal/config"
	"github.com/ignite/adpilot/internal/domain"
)

func TestRenderPromptIncludesOptionalFields(t *testing.T) {
	prompt, err := renderPrompt(Request{
		CampaignName: "Summer Sale",
		Platform:     domain.PlatformGoogleAds,
		Product:      "beach sandals",
		Audience:     "coastal shoppers",
		Tone:         "playful",
		VariantCount: 5,
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "5 ad copy variants")
	assert.Contains(t, prompt, `"Summer Sale"`)
	assert.Contains(t, prompt, "google_ads")
	assert.Contains(t, prompt, "coastal shoppers")
	assert.Contains(t, prompt, "playful")
}

func TestRenderPromptOmitsEmptyFields(t *testing.T) {
	prompt, err := renderPrompt(Request{
		CampaignName: "Summer Sale",
		Platform:     domain.PlatformMetaAds,
		Product:      "beach sandals",
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "3 ad copy variants", "variant count defaults to 3")
	assert.NotContains(t, prompt, "Target audience")
	assert.NotContains(t, prompt, "Tone:")
}

func TestParseVariantsRanksByScore(t *testing.T) {
	variants, err := parseVariants("```json\n" + `[
		{"headline":"Weak","description":"d","call_to_action":"Shop","predicted_score":0.3},
		{"headline":"Strong","description":"d","call_to_action":"Shop","predicted_score":0.9}
	]` + "\n```")
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, "Strong", variants[0].Headline, "best variant first")
}

func TestParseVariantsRejectsGarbage(t *testing.T) {
	_, err := parseVariants("sorry, I cannot help with that")
	assert.Error(t, err)

	_, err = parseVariants("[]")
	assert.Error(t, err)

	_, err = parseVariants(`[{"description":"no headline"}]`)
	assert.Error(t, err)
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "beach sandals")

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"role": "assistant",
					"content": `[{"headline":"Sun-Ready Sandals","description":"Walk the shore in comfort.","call_to_action":"Shop Now","predicted_score":0.82}]`,
				},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	g := NewOpenAIGenerator(config.AdCopyConfig{OpenAIKey: "sk-test", OpenAIModel: "gpt-4o", TimeoutSeconds: 5})
	g.baseURL = srv.URL

	variants, err := g.Generate(context.Background(), Request{
		CampaignName: "Summer Sale",
		Platform:     domain.PlatformGoogleAds,
		Product:      "beach sandals",
	})
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, "Sun-Ready Sandals", variants[0].Headline)
	assert.InDelta(t, 0.82, variants[0].PredictedScore, 1e-9)
}

func TestOpenAIGenerateSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "rate limit"}})
	}))
	t.Cleanup(srv.Close)

	g := NewOpenAIGenerator(config.AdCopyConfig{OpenAIKey: "sk-test", OpenAIModel: "gpt-4o", TimeoutSeconds: 5})
	g.baseURL = srv.URL

	_, err := g.Generate(context.Background(), Request{CampaignName: "x", Product: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

type fakeInvoker struct {
	gotBody []byte
	respond string
}

func (f *fakeInvoker) InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.gotBody = in.Body
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.respond)}, nil
}

func TestBedrockGenerate(t *testing.T) {
	fake := &fakeInvoker{respond: `{
		"content":[{"type":"text","text":"[{\"headline\":\"Sun-Ready Sandals\",\"description\":\"d\",\"call_to_action\":\"Shop\",\"predicted_score\":0.7}]"}],
		"stop_reason":"end_turn"
	}`}
	g := &BedrockGenerator{client: fake, modelID: "anthropic.claude-3-sonnet-20240229-v1:0"}

	variants, err := g.Generate(context.Background(), Request{
		CampaignName: "Summer Sale",
		Platform:     domain.PlatformMetaAds,
		Product:      "beach sandals",
	})
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, "Sun-Ready Sandals", variants[0].Headline)

	var sent bedrockRequest
	require.NoError(t, json.Unmarshal(fake.gotBody, &sent))
	assert.Equal(t, "bedrock-2023-05-31", sent.AnthropicVersion)
	require.Len(t, sent.Messages, 1)
	assert.Contains(t, sent.Messages[0].Content, "beach sandals")
}

func TestNewSelectsBackend(t *testing.T) {
	g, err := New(context.Background(), config.AdCopyConfig{Backend: "openai", OpenAIModel: "gpt-4o"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGenerator{}, g)

	_, err = New(context.Background(), config.AdCopyConfig{Backend: "carrier_pigeon"})
	assert.Error(t, err)
}
