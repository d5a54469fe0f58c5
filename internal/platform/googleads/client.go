package googleads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/ignite/adpilot/internal/config"
	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/platform"
)

// Client is a thin HTTP client for the Google Ads REST API. Token refresh
// happens through the injected oauth2 token source; a refresh failure
// surfaces as AuthenticationError so callers never retry it.
type Client struct {
	baseURL        string
	customerID     string
	developerToken string
	httpClient     *http.Client
	tokens         oauth2.TokenSource
}

// NewClient creates a Google Ads API client from configuration.
func NewClient(cfg config.GoogleAdsConfig) *Client {
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
	}
	ts := oc.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		customerID:     cfg.CustomerID,
		developerToken: cfg.DeveloperToken,
		httpClient:     &http.Client{Timeout: cfg.Timeout()},
		tokens:         ts,
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return nil, &platform.AuthenticationError{Platform: domain.PlatformGoogleAds, Reason: err.Error()}
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	tok.SetAuthHeader(req)
	req.Header.Set("developer-token", c.developerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &platform.TransientError{Platform: domain.PlatformGoogleAds, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &platform.TransientError{Platform: domain.PlatformGoogleAds, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, platform.ErrorFromResponse(domain.PlatformGoogleAds, resp.StatusCode, resp.Header.Get("Retry-After"), data)
	}
	return data, nil
}

// searchPerformance runs a metrics query for the given campaigns.
func (c *Client) searchPerformance(ctx context.Context, campaignIDs []string, window domain.DateRange) (*searchResponse, error) {
	query := fmt.Sprintf(
		"SELECT campaign.id, campaign.name, metrics.impressions, metrics.clicks, metrics.conversions, metrics.cost_micros, metrics.conversions_value "+
			"FROM campaign WHERE campaign.id IN (%s) AND segments.date >= '%s' AND segments.date < '%s'",
		strings.Join(campaignIDs, ","),
		window.Start.Format(dateFormat),
		window.End.Format(dateFormat),
	)

	data, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/customers/%s/googleAds:search", c.customerID), searchRequest{Query: query})
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	return &resp, nil
}

// listCampaignIDs returns all campaign ids under the customer account.
func (c *Client) listCampaignIDs(ctx context.Context) ([]string, error) {
	data, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/customers/%s/googleAds:search", c.customerID),
		searchRequest{Query: "SELECT campaign.id FROM campaign"})
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing campaign list: %w", err)
	}
	ids := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		ids = append(ids, r.Campaign.ID)
	}
	return ids, nil
}

// mutateBudget sets the campaign budget to an absolute amount in micros.
func (c *Client) mutateBudget(ctx context.Context, campaignID string, amountMicros int64) (*searchResult, error) {
	data, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/customers/%s/campaignBudgets:mutate", c.customerID),
		mutateBudgetRequest{CampaignID: campaignID, AmountMicros: amountMicros})
	if err != nil {
		return nil, err
	}

	var resp mutateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing mutate response: %w", err)
	}
	return &resp.Result, nil
}

// mutateStatus sets the campaign status (ENABLED or PAUSED).
func (c *Client) mutateStatus(ctx context.Context, campaignID, status string) (*searchResult, error) {
	data, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/customers/%s/campaigns:mutate", c.customerID),
		mutateStatusRequest{CampaignID: campaignID, Status: status})
	if err != nil {
		return nil, err
	}

	var resp mutateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing mutate response: %w", err)
	}
	return &resp.Result, nil
}

// audienceInsights fetches the raw audience payload for a campaign.
func (c *Client) audienceInsights(ctx context.Context, campaignID string) (json.RawMessage, error) {
	data, err := c.doRequest(ctx, http.MethodGet,
		fmt.Sprintf("/customers/%s/campaigns/%s/audienceInsights", c.customerID, campaignID), nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
