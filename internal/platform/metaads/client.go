package metaads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ignite/adpilot/internal/config"
	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/platform"
)

// Client is a thin HTTP client for the paid-social Graph API. The access
// token rides as a query parameter on every request, which is why request
// URLs must never be logged verbatim.
type Client struct {
	baseURL     string
	accessToken string
	adAccountID string
	httpClient  *http.Client
}

// NewClient creates a Graph API client from configuration.
func NewClient(cfg config.MetaAdsConfig) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		adAccountID: cfg.AdAccountID,
		httpClient:  &http.Client{Timeout: cfg.Timeout()},
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.accessToken)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &platform.TransientError{Platform: domain.PlatformMetaAds, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &platform.TransientError{Platform: domain.PlatformMetaAds, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, platform.ErrorFromResponse(domain.PlatformMetaAds, resp.StatusCode, resp.Header.Get("Retry-After"), data)
	}
	return data, nil
}

// fetchInsights queries campaign-level insights for the window.
func (c *Client) fetchInsights(ctx context.Context, campaignIDs []string, window domain.DateRange) (*insightsResponse, error) {
	params := url.Values{}
	params.Set("level", "campaign")
	params.Set("fields", "campaign_id,campaign_name,impressions,clicks,spend,actions,action_values")
	params.Set("time_range", fmt.Sprintf(`{"since":"%s","until":"%s"}`,
		window.Start.Format(dateFormat), window.End.Format(dateFormat)))
	params.Set("filtering", fmt.Sprintf(`[{"field":"campaign.id","operator":"IN","value":[%s]}]`,
		quoteJoin(campaignIDs)))

	data, err := c.doRequest(ctx, http.MethodGet, "/act_"+c.adAccountID+"/insights", params)
	if err != nil {
		return nil, err
	}

	var resp insightsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing insights response: %w", err)
	}
	return &resp, nil
}

// listCampaigns returns all campaigns under the ad account.
func (c *Client) listCampaigns(ctx context.Context) ([]campaignNode, error) {
	params := url.Values{}
	params.Set("fields", "id,name,status,daily_budget,start_time")

	data, err := c.doRequest(ctx, http.MethodGet, "/act_"+c.adAccountID+"/campaigns", params)
	if err != nil {
		return nil, err
	}

	var resp campaignList
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing campaign list: %w", err)
	}
	return resp.Data, nil
}

// updateCampaign posts field updates to a campaign node and reads the
// node back, since the mutation response carries only a success flag.
func (c *Client) updateCampaign(ctx context.Context, campaignID string, fields url.Values) (*campaignNode, error) {
	if _, err := c.doRequest(ctx, http.MethodPost, "/"+campaignID, fields); err != nil {
		return nil, err
	}
	return c.getCampaign(ctx, campaignID)
}

func (c *Client) getCampaign(ctx context.Context, campaignID string) (*campaignNode, error) {
	params := url.Values{}
	params.Set("fields", "id,name,status,daily_budget,start_time")

	data, err := c.doRequest(ctx, http.MethodGet, "/"+campaignID, params)
	if err != nil {
		return nil, err
	}

	var node campaignNode
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing campaign: %w", err)
	}
	return &node, nil
}

// audienceInsights fetches the raw delivery breakdown for a campaign.
func (c *Client) audienceInsights(ctx context.Context, campaignID string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("breakdowns", "age,gender")
	params.Set("level", "campaign")

	data, err := c.doRequest(ctx, http.MethodGet, "/"+campaignID+"/insights", params)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func quoteJoin(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = strconv.Quote(id)
	}
	return strings.Join(quoted, ",")
}
