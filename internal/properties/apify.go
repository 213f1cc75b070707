package properties

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wolfman30/realty-crm/pkg/logging"
)

const (
	defaultApifyBaseURL = "https://api.apify.com"
	apifyHTTPTimeout    = 2 * time.Minute
)

// ApifyClient runs scraping actors synchronously and returns their dataset items.
type ApifyClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *logging.Logger
}

// NewApifyClient constructs an Apify REST client.
func NewApifyClient(baseURL, token string, logger *logging.Logger) *ApifyClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultApifyBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ApifyClient{
		httpClient: &http.Client{Timeout: apifyHTTPTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(token),
		logger:     logger,
	}
}

// ActorInput is the input document shared by the listing-site actors.
type ActorInput struct {
	URLs             []string   `json:"urls"`
	MaxItemsPerURL   int        `json:"max_items_per_url"`
	MaxRetriesPerURL int        `json:"max_retries_per_url"`
	Proxy            ProxyInput `json:"proxy"`
}

// ProxyInput configures Apify proxy usage for a run.
type ProxyInput struct {
	UseApifyProxy     bool     `json:"useApifyProxy"`
	ApifyProxyGroups  []string `json:"apifyProxyGroups,omitempty"`
	ApifyProxyCountry string   `json:"apifyProxyCountry,omitempty"`
}

// RunSync starts the actor, waits for it to finish and returns the default dataset.
func (c *ApifyClient) RunSync(ctx context.Context, actorID string, input ActorInput) ([]RawItem, error) {
	if c.token == "" {
		return nil, ErrApifyNotConfigured
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal actor input: %w", err)
	}

	// Apify addresses "user/actor" names with a tilde in the path.
	actorPath := url.PathEscape(strings.ReplaceAll(actorID, "/", "~"))
	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?format=json", c.baseURL, actorPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(body)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("apify actor run failed", "actor", actorID, "status", resp.StatusCode, "body", msg)
		return nil, fmt.Errorf("apify actor %s returned %d: %s", actorID, resp.StatusCode, msg)
	}

	var items []RawItem
	if len(body) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode dataset items: %w", err)
	}
	return items, nil
}
