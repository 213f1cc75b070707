package assistant

import (
	"context"

	"github.com/wolfman30/realty-crm/pkg/logging"
)

// FallbackClient retries a failed primary completion on the fallback provider.
type FallbackClient struct {
	primary  LLMClient
	fallback LLMClient
	logger   *logging.Logger
}

// NewFallbackClient wraps primary. A nil fallback means primary only.
func NewFallbackClient(primary, fallback LLMClient, logger *logging.Logger) *FallbackClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackClient{primary: primary, fallback: fallback, logger: logger}
}

func (c *FallbackClient) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}
	c.logger.Warn("primary LLM failed, attempting fallback", "error", err, "fallback_available", c.fallback != nil)
	if c.fallback == nil {
		return Response{}, err
	}
	resp, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback LLM also failed", "primary_error", err, "fallback_error", fallbackErr)
		return Response{}, fallbackErr
	}
	return resp, nil
}
