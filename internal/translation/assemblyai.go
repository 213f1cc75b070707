package translation

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wolfman30/realty-crm/pkg/logging"
)

const (
	defaultAssemblyAIBaseURL = "https://api.assemblyai.com"
	defaultPollInterval      = 3 * time.Second
	defaultMaxWait           = 2 * time.Minute
)

// Transcriber turns a hosted audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL, language string) (string, error)
}

// AssemblyAIClient submits transcripts and polls until they settle.
type AssemblyAIClient struct {
	api          apiClient
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	maxWait      time.Duration
}

func NewAssemblyAIClient(baseURL, apiKey string, pollInterval, maxWait time.Duration, logger *logging.Logger) *AssemblyAIClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultAssemblyAIBaseURL
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}
	if logger == nil {
		logger = logging.Default()
	}
	apiKey = strings.TrimSpace(apiKey)
	return &AssemblyAIClient{
		api: apiClient{
			name:       "assemblyai",
			httpClient: &http.Client{Timeout: 30 * time.Second},
			headers:    map[string]string{"Authorization": apiKey},
			logger:     logger,
		},
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		pollInterval: pollInterval,
		maxWait:      maxWait,
	}
}

type transcript struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

func (c *AssemblyAIClient) Transcribe(ctx context.Context, audioURL, language string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}
	if language == "" {
		language = "en"
	}
	var submitted transcript
	req := map[string]string{"audio_url": audioURL, "language_code": language}
	if err := c.api.doJSON(ctx, http.MethodPost, c.baseURL+"/v2/transcript", req, &submitted); err != nil {
		return "", fmt.Errorf("assemblyai: submit: %w", err)
	}
	if submitted.ID == "" {
		return "", fmt.Errorf("assemblyai: submit returned no transcript id")
	}

	ctx, cancel := context.WithTimeout(ctx, c.maxWait)
	defer cancel()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	endpoint := c.baseURL + "/v2/transcript/" + url.PathEscape(submitted.ID)
	for {
		var t transcript
		if err := c.api.doJSON(ctx, http.MethodGet, endpoint, nil, &t); err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("%w: %s", ErrTranscriptionTimeout, submitted.ID)
			}
			return "", fmt.Errorf("assemblyai: poll: %w", err)
		}
		switch t.Status {
		case "completed":
			return t.Text, nil
		case "error", "failed":
			return "", fmt.Errorf("%w: %s", ErrTranscriptionFailed, t.Error)
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %s", ErrTranscriptionTimeout, submitted.ID)
		case <-ticker.C:
		}
	}
}
