package translation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wolfman30/realty-crm/pkg/logging"
)

const (
	defaultMyMemoryBaseURL = "https://api.mymemory.translated.net"
	defaultTimeout         = 10 * time.Second
)

// Translator converts text between languages.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// MyMemoryClient calls the free MyMemory translation API.
type MyMemoryClient struct {
	api     apiClient
	baseURL string
	email   string
}

func NewMyMemoryClient(baseURL, contactEmail string, timeout time.Duration, logger *logging.Logger) *MyMemoryClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultMyMemoryBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MyMemoryClient{
		api:     apiClient{name: "mymemory", httpClient: &http.Client{Timeout: timeout}, logger: logger},
		baseURL: strings.TrimRight(baseURL, "/"),
		email:   strings.TrimSpace(contactEmail),
	}
}

func (c *MyMemoryClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", source+"|"+target)
	if c.email != "" {
		q.Set("de", c.email)
	}
	var resp struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
		ResponseStatus any `json:"responseStatus"`
	}
	if err := c.api.doJSON(ctx, http.MethodGet, c.baseURL+"/get?"+q.Encode(), nil, &resp); err != nil {
		return "", fmt.Errorf("mymemory: %w", err)
	}
	if resp.ResponseData.TranslatedText == "" {
		return "", fmt.Errorf("mymemory: empty translation (status %v)", resp.ResponseStatus)
	}
	return resp.ResponseData.TranslatedText, nil
}

// LibreTranslateClient posts to a LibreTranslate instance.
type LibreTranslateClient struct {
	api      apiClient
	endpoint string
}

func NewLibreTranslateClient(endpoint string, timeout time.Duration, logger *logging.Logger) *LibreTranslateClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LibreTranslateClient{
		api:      apiClient{name: "libretranslate", httpClient: &http.Client{Timeout: timeout}, logger: logger},
		endpoint: strings.TrimSpace(endpoint),
	}
}

func (c *LibreTranslateClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	if c.endpoint == "" {
		return "", ErrNotConfigured
	}
	if source == "" {
		source = "en"
	}
	req := map[string]string{"q": text, "source": source, "target": target}
	var resp struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := c.api.doJSON(ctx, http.MethodPost, c.endpoint, req, &resp); err != nil {
		return "", fmt.Errorf("libretranslate: %w", err)
	}
	if resp.TranslatedText == "" {
		return "", errors.New("libretranslate: empty translation")
	}
	return resp.TranslatedText, nil
}

// Fallback tries each translator in order and returns the first success.
type Fallback struct {
	translators []Translator
	logger      *logging.Logger
}

func NewFallback(logger *logging.Logger, translators ...Translator) *Fallback {
	if logger == nil {
		logger = logging.Default()
	}
	var active []Translator
	for _, t := range translators {
		if t != nil {
			active = append(active, t)
		}
	}
	return &Fallback{translators: active, logger: logger}
}

func (f *Fallback) Translate(ctx context.Context, text, source, target string) (string, error) {
	var errs []error
	for i, t := range f.translators {
		out, err := t.Translate(ctx, text, source, target)
		if err == nil {
			return out, nil
		}
		f.logger.Warn("translator failed", "index", i, "source", source, "target", target, "error", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", ErrAllTranslatorsFailed
	}
	return "", fmt.Errorf("%w: %w", ErrAllTranslatorsFailed, errors.Join(errs...))
}
