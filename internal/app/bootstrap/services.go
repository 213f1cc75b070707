package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/realty-crm/internal/assistant"
	appconfig "github.com/wolfman30/realty-crm/internal/config"
	"github.com/wolfman30/realty-crm/internal/events"
	"github.com/wolfman30/realty-crm/internal/observability/metrics"
	"github.com/wolfman30/realty-crm/internal/properties"
	"github.com/wolfman30/realty-crm/internal/translation"
	"github.com/wolfman30/realty-crm/pkg/logging"
)

// BuildPropertyCache returns the in-process LRU, tiered over Redis when the
// shared cache is enabled and a client is available.
func BuildPropertyCache(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) properties.Cache {
	if logger == nil {
		logger = logging.Default()
	}
	local := properties.NewLRUCache(cfg.PropertyCacheSize, cfg.PropertyCacheTTL)
	if !cfg.PropertyCacheRedis {
		return local
	}
	if redisClient == nil {
		logger.Warn("property redis cache requested but redis unavailable; using local cache only")
		return local
	}
	logger.Info("property search cache tiered over redis", "ttl", cfg.PropertyCacheTTL)
	return properties.NewTieredCache(local, properties.NewRedisCache(redisClient, cfg.PropertyCacheTTL, logger))
}

// BuildPropertyService wires the Apify-backed providers behind the cache.
func BuildPropertyService(cfg *appconfig.Config, cache properties.Cache, m *metrics.PropertyMetrics, logger *logging.Logger) (*properties.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.ApifyAPIToken) == "" {
		logger.Warn("APIFY_API_TOKEN not set; property searches will fail")
	}
	apify := properties.NewApifyClient(cfg.ApifyBaseURL, cfg.ApifyAPIToken, logger)
	providers := []properties.Provider{
		properties.NewMagicBricksProvider(apify, cfg.MagicBricksActorID),
		properties.NewHousingProvider(apify, cfg.HousingActorID),
	}
	aggregator := properties.NewAggregator(providers, logger,
		properties.WithProviderTimeout(cfg.PropertyProviderTimeout),
		properties.WithAggregatorMetrics(m),
		properties.WithNormalizer(properties.NewNormalizer(cfg.PropertyCurrencySymbol)),
	)
	return properties.NewService(cache, aggregator, properties.ParseDedupMode(cfg.PropertyDedupMode), m, logger), nil
}

// BuildTranslationHandler wires MyMemory with an optional LibreTranslate
// fallback, plus AssemblyAI when a key is configured.
func BuildTranslationHandler(cfg *appconfig.Config, logger *logging.Logger) *translation.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	translators := []translation.Translator{
		translation.NewMyMemoryClient(cfg.MyMemoryBaseURL, cfg.MyMemoryContactEmail, cfg.TranslateTimeout, logger),
	}
	if strings.TrimSpace(cfg.LibreTranslateURL) != "" {
		translators = append(translators, translation.NewLibreTranslateClient(cfg.LibreTranslateURL, cfg.TranslateTimeout, logger))
	}

	var transcriber translation.Transcriber
	if strings.TrimSpace(cfg.AssemblyAIAPIKey) != "" {
		transcriber = translation.NewAssemblyAIClient(cfg.AssemblyAIBaseURL, cfg.AssemblyAIAPIKey,
			cfg.TranscribePollInterval, cfg.TranscribeMaxWait, logger)
	} else {
		logger.Warn("ASSEMBLYAI_API_KEY not set; audio translation disabled")
	}
	return translation.NewHandler(translation.NewFallback(logger, translators...), transcriber, logger)
}

// BuildChatService wires Gemini as the primary model with Bedrock as fallback.
// It returns nil when neither provider is configured. The returned closer
// releases the Gemini client.
func BuildChatService(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (*assistant.ChatService, func(), error) {
	noop := func() {}
	if cfg == nil {
		return nil, noop, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var bedrock assistant.LLMClient
	if strings.TrimSpace(cfg.BedrockModelID) != "" && awsCfg != nil {
		bedrock = assistant.NewBedrockClient(bedrockruntime.NewFromConfig(*awsCfg), cfg.BedrockModelID)
	}

	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		if bedrock == nil {
			logger.Warn("no assistant model configured; chatbot disabled")
			return nil, noop, nil
		}
		logger.Info("assistant using bedrock", "model", cfg.BedrockModelID)
		return assistant.NewChatService(bedrock, logger), noop, nil
	}

	gemini, err := assistant.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		return nil, noop, fmt.Errorf("bootstrap: %w", err)
	}
	closer := func() { _ = gemini.Close() }
	if bedrock == nil {
		logger.Info("assistant using gemini", "model", cfg.GeminiModelID)
		return assistant.NewChatService(gemini, logger), closer, nil
	}
	logger.Info("assistant using gemini with bedrock fallback", "model", cfg.GeminiModelID, "fallback_model", cfg.BedrockModelID)
	return assistant.NewChatService(assistant.NewFallbackClient(gemini, bedrock, logger), logger), closer, nil
}

// BuildActivityPublisher returns an SQS publisher when a queue is configured
// and a logging publisher otherwise.
func BuildActivityPublisher(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) events.Publisher {
	if cfg == nil || strings.TrimSpace(cfg.ActivityQueueURL) == "" || awsCfg == nil {
		return events.NewLogPublisher(logger)
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger.Info("client activity events published to sqs", "queue_url", cfg.ActivityQueueURL)
	return events.NewSQSPublisher(sqs.NewFromConfig(*awsCfg), cfg.ActivityQueueURL)
}
