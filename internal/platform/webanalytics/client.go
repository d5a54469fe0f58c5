package webanalytics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ignite/adpilot/internal/config"
	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/platform"
)

const dateFormat = "2006-01-02"

// Raw report types. The analytics platform keys rows by the campaign tag
// carried in UTM parameters and reports engagement, not spend.
type reportResponse struct {
	Rows []reportRow `json:"rows"`
}

type reportRow struct {
	CampaignID  string  `json:"campaign_id"`
	Campaign    string  `json:"campaign"`
	Sessions    int64   `json:"sessions"`
	Pageviews   int64   `json:"pageviews"`
	Goals       int64   `json:"goal_completions"`
	GoalValue   float64 `json:"goal_value"`
	BounceRate  float64 `json:"bounce_rate"`
	AvgDuration float64 `json:"avg_session_duration"`
}

type campaignTagList struct {
	Campaigns []struct {
		ID string `json:"id"`
	} `json:"campaigns"`
}

// Client is a thin HTTP client for the web analytics reporting API.
type Client struct {
	baseURL    string
	apiKey     string
	propertyID string
	httpClient *http.Client
}

// NewClient creates an analytics reporting client from configuration.
func NewClient(cfg config.WebAnalyticsConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		propertyID: cfg.PropertyID,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &platform.TransientError{Platform: domain.PlatformWebAnalytics, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &platform.TransientError{Platform: domain.PlatformWebAnalytics, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, platform.ErrorFromResponse(domain.PlatformWebAnalytics, resp.StatusCode, resp.Header.Get("Retry-After"), data)
	}
	return data, nil
}

// fetchReport pulls the campaign engagement report for the window.
func (c *Client) fetchReport(ctx context.Context, campaignIDs []string, window domain.DateRange) (*reportResponse, error) {
	params := url.Values{}
	params.Set("start_date", window.Start.Format(dateFormat))
	params.Set("end_date", window.End.Format(dateFormat))
	params.Set("campaigns", strings.Join(campaignIDs, ","))

	data, err := c.doRequest(ctx, "/properties/"+c.propertyID+"/reports/campaigns", params)
	if err != nil {
		return nil, err
	}

	var resp reportResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return &resp, nil
}

// listCampaignTags returns the campaign ids the property has seen in UTM
// parameters.
func (c *Client) listCampaignTags(ctx context.Context) ([]string, error) {
	data, err := c.doRequest(ctx, "/properties/"+c.propertyID+"/campaigns", nil)
	if err != nil {
		return nil, err
	}

	var resp campaignTagList
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing campaign tags: %w", err)
	}
	ids := make([]string, 0, len(resp.Campaigns))
	for _, c := range resp.Campaigns {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// audienceReport fetches the raw demographics report for a campaign tag.
func (c *Client) audienceReport(ctx context.Context, campaignID string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("campaign", campaignID)
	params.Set("dimensions", "age,gender,device")

	data, err := c.doRequest(ctx, "/properties/"+c.propertyID+"/reports/audience", params)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
