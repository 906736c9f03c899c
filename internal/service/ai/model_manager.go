package ai

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kapu/creator-insight-go/internal/constants"
	"github.com/kapu/creator-insight-go/internal/util"
	"github.com/kapu/creator-insight-go/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var (
	statusCodeRegex = regexp.MustCompile(`\b(5\d{2})\b`)
	geminiCodeRegex = regexp.MustCompile(`"code":(\d{3})`)
	openaiCodeRegex = regexp.MustCompile(`^(\d{3})\s`)
)

// ModelManager routes generation requests to the primary provider and, when
// enabled, to the fallback provider. Service failures feed a circuit breaker.
type ModelManager struct {
	primary        Provider
	fallback       Provider
	logger         *zap.Logger
	circuitBreaker *util.CircuitBreaker
}

type ModelManagerConfig struct {
	GeminiAPIKey       string
	OpenAIAPIKey       string
	DefaultGeminiModel string
	DefaultOpenAIModel string
	EnableFallback     bool
}

func NewModelManager(ctx context.Context, cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
	geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	defaultGemini := cfg.DefaultGeminiModel
	if defaultGemini == "" {
		defaultGemini = "gemini-2.5-flash"
	}

	defaultOpenAI := cfg.DefaultOpenAIModel
	if defaultOpenAI == "" {
		defaultOpenAI = "gpt-5-mini"
	}

	var fallback Provider
	if cfg.EnableFallback {
		if openaiProvider := NewOpenAIProvider(cfg.OpenAIAPIKey, defaultOpenAI, logger); openaiProvider != nil {
			logger.Info("OpenAI fallback enabled", zap.String("model", defaultOpenAI))
			fallback = openaiProvider
		} else {
			logger.Info("OpenAI fallback disabled (no API key)")
		}
	}

	return NewModelManagerWithProviders(NewGeminiProvider(geminiClient, defaultGemini, logger), fallback, logger), nil
}

// NewModelManagerWithProviders builds a manager over arbitrary providers.
// fallback may be nil.
func NewModelManagerWithProviders(primary, fallback Provider, logger *zap.Logger) *ModelManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	mm := &ModelManager{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
	mm.circuitBreaker = util.NewCircuitBreaker(
		constants.CircuitBreakerConfig.FailureThreshold,
		constants.CircuitBreakerConfig.ResetTimeout,
		constants.CircuitBreakerConfig.HealthCheckInterval,
		mm.healthCheckPing,
		logger,
	)
	return mm
}

// Generate sends req to the primary provider, then to the fallback. The
// returned error is typed: RATE_LIMITED for quota exhaustion, UPSTREAM_ERROR
// otherwise.
func (mm *ModelManager) Generate(ctx context.Context, req Request) (*Response, error) {
	if !mm.circuitBreaker.CanExecute() {
		status := mm.circuitBreaker.GetStatus()
		fields := []zap.Field{
			zap.String("stage", req.Stage),
			zap.String("state", status.State.String()),
			zap.Int("failure_count", status.FailureCount),
		}
		if status.NextRetryTime != nil {
			fields = append(fields, zap.Time("next_retry", *status.NextRetryTime))
		}
		mm.logger.Error("AI service unavailable (Circuit OPEN)", fields...)
		return nil, errors.NewUpstreamError(req.Stage, fmt.Errorf("generative service circuit open"))
	}

	primaryResult, primaryErr := mm.invokeProvider(ctx, mm.primary, req)
	if primaryErr == nil {
		mm.circuitBreaker.RecordSuccess()
		return &Response{
			Text: primaryResult.Text,
			Metadata: GenerateMetadata{
				Provider: mm.primary.Name(),
				Model:    primaryResult.Model,
			},
		}, nil
	}

	// Caller gave up; neither provider is at fault.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if mm.fallback != nil {
		mm.logger.Warn("Primary provider failed, trying fallback",
			zap.String("stage", req.Stage),
			zap.Error(primaryErr),
		)
		fallbackResult, fallbackErr := mm.invokeProvider(ctx, mm.fallback, req)
		if fallbackErr == nil {
			mm.circuitBreaker.RecordSuccess()
			return &Response{
				Text: fallbackResult.Text,
				Metadata: GenerateMetadata{
					Provider:     mm.fallback.Name(),
					Model:        fallbackResult.Model,
					UsedFallback: true,
				},
			}, nil
		}

		mm.recordFailure(primaryErr)
		mm.recordFailure(fallbackErr)
		return nil, mm.classify(req.Stage, fallbackErr)
	}

	mm.recordFailure(primaryErr)
	return nil, mm.classify(req.Stage, primaryErr)
}

// GenerateJSON runs Generate in JSON mode and decodes the reply into an
// untyped object.
func (mm *ModelManager) GenerateJSON(ctx context.Context, req Request) (map[string]any, *GenerateMetadata, error) {
	req.JSON = true
	resp, err := mm.Generate(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	obj, err := DecodeJSONObject(resp.Text)
	if err != nil {
		mm.logger.Error("Failed to decode JSON response",
			zap.String("stage", req.Stage),
			zap.String("provider", resp.Metadata.Provider),
			zap.String("response_preview", util.TruncateString(resp.Text, 200)),
			zap.Error(err),
		)
		return nil, nil, errors.NewUpstreamError(req.Stage, fmt.Errorf("invalid JSON from %s: %w", resp.Metadata.Provider, err))
	}
	return obj, &resp.Metadata, nil
}

func (mm *ModelManager) invokeProvider(ctx context.Context, provider Provider, req Request) (ProviderResult, error) {
	if provider == nil {
		return ProviderResult{}, fmt.Errorf("model provider is not configured")
	}
	return provider.Generate(ctx, req)
}

func (mm *ModelManager) classify(stage string, err error) error {
	if isRateLimitError(err) {
		return errors.NewRateLimitedError("generative service quota exhausted", constants.CircuitBreakerConfig.RateLimitTimeout).WithCause(err)
	}
	return errors.NewUpstreamError(stage, err)
}

func (mm *ModelManager) recordFailure(err error) {
	if !isServiceFailure(err) {
		return
	}

	timeout := constants.CircuitBreakerConfig.ResetTimeout
	if isRateLimitError(err) {
		timeout = constants.CircuitBreakerConfig.RateLimitTimeout
	}

	mm.circuitBreaker.RecordFailure(timeout)
}

func (mm *ModelManager) healthCheckPing() bool {
	mm.logger.Info("Health Check: Testing AI services...")

	ctx, cancel := context.WithTimeout(context.Background(), constants.CircuitBreakerConfig.HealthCheckTimeout)
	defer cancel()

	primaryOK := mm.primary != nil && mm.primary.Ping(ctx)
	fallbackOK := mm.fallback != nil && mm.fallback.Ping(ctx)
	isHealthy := primaryOK || fallbackOK

	mm.logger.Info("Health Check: Result",
		zap.Bool("primary", primaryOK),
		zap.Bool("fallback", fallbackOK),
		zap.Bool("healthy", isHealthy),
	)

	return isHealthy
}

func (mm *ModelManager) GetCircuitStatus() util.CircuitBreakerStatus {
	return mm.circuitBreaker.GetStatus()
}

func (mm *ModelManager) ResetCircuit() {
	mm.circuitBreaker.Reset()
}

func isServiceFailure(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	if strings.Contains(msg, "timeout") || strings.Contains(msg, "ETIMEDOUT") {
		return true
	}
	if isRateLimitError(err) {
		return true
	}
	if statusCodeRegex.MatchString(msg) {
		return true
	}
	if code, ok := providerStatusCode(msg); ok {
		return code >= 500 && code < 600
	}
	return false
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	if strings.Contains(msg, "429") || strings.Contains(msg, "Rate limit") || strings.Contains(msg, "quota") {
		return true
	}
	if code, ok := providerStatusCode(msg); ok {
		return code == 429
	}
	return false
}

func providerStatusCode(msg string) (int, bool) {
	for _, re := range []*regexp.Regexp{geminiCodeRegex, openaiCodeRegex} {
		if matches := re.FindStringSubmatch(msg); len(matches) > 1 {
			if code, err := strconv.Atoi(matches[1]); err == nil {
				return code, true
			}
		}
	}
	return 0, false
}
