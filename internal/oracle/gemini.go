package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"thrift/internal/observability"
)

const (
	// DefaultBaseURL is the default Gemini API endpoint
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultModel is the model used when none is configured.
	DefaultModel = "gemini-2.5-flash"

	maxResponseBytes = 1 << 20
)

// GeminiConfig configures a GeminiRanker.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// RatePerMinute caps outbound calls; zero disables throttling.
	RatePerMinute int
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

// GeminiRanker ranks candidates with the Gemini generateContent API using a
// structured JSON response schema.
type GeminiRanker struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewGeminiRanker creates a ranker. An empty APIKey yields a disabled ranker.
func NewGeminiRanker(cfg GeminiConfig) *GeminiRanker {
	r := &GeminiRanker{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  cfg.HTTPClient,
		logger:  cfg.Logger,
	}
	if r.baseURL == "" {
		r.baseURL = DefaultBaseURL
	}
	if r.model == "" {
		r.model = DefaultModel
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: 30 * time.Second}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if cfg.RatePerMinute > 0 {
		r.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RatePerMinute)
	}
	if r.apiKey == "" {
		r.logger.Warn("GEMINI_API_KEY not set, recommendations are disabled")
	}
	return r
}

// Enabled reports whether a credential is configured.
func (r *GeminiRanker) Enabled() bool {
	return r.apiKey != ""
}

// Rank sends interests and candidates to Gemini and returns the model's JSON text.
func (r *GeminiRanker) Rank(ctx context.Context, interests string, candidates []Candidate) (json.RawMessage, error) {
	if !r.Enabled() {
		observability.OracleRequests.WithLabelValues(observability.OutcomeDisabled).Inc()
		return nil, ErrUnavailable
	}

	span, ctx := observability.NewClientSpan(ctx, "oracle.rank",
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", r.model),
		attribute.Int("oracle.candidates", len(candidates)),
	)
	defer span.End()

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			observability.OracleRequests.WithLabelValues(observability.OutcomeThrottled).Inc()
			span.SetError(err)
			return nil, fmt.Errorf("oracle throttled: %w", err)
		}
	}

	body, err := r.buildRequest(interests, candidates)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	start := time.Now()
	text, err := r.send(ctx, body)
	observability.OracleLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := observability.OutcomeTransport
		if errors.Is(err, ErrMalformedResponse) {
			outcome = observability.OutcomeMalformed
		}
		observability.OracleRequests.WithLabelValues(outcome).Inc()
		span.SetError(err)
		return nil, err
	}

	observability.OracleRequests.WithLabelValues(observability.OutcomeOK).Inc()
	span.AddAttributes(attribute.Int("oracle.response_bytes", len(text)))
	return json.RawMessage(text), nil
}

func (r *GeminiRanker) buildRequest(interests string, candidates []Candidate) ([]byte, error) {
	prompt, err := BuildPrompt(interests, candidates)
	if err != nil {
		return nil, err
	}
	req := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   rankingSchema(),
		},
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return data, nil
}

func (r *GeminiRanker) send(ctx context.Context, body []byte) (string, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		r.baseURL, url.PathEscape(r.model), url.QueryEscape(r.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", redactKey(err, r.apiKey))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed geminiResponse
	parseErr := json.Unmarshal(payload, &parsed)

	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if parseErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		r.logger.WarnContext(ctx, "gemini request failed",
			slog.Int("status_code", resp.StatusCode),
			slog.String("phase", "api_response"),
		)
		return "", fmt.Errorf("gemini returned %d: %s", resp.StatusCode, msg)
	}
	if parseErr != nil {
		return "", fmt.Errorf("%w: undecodable envelope: %v", ErrMalformedResponse, parseErr)
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("%w: empty candidate text", ErrMalformedResponse)
	}
	return text.String(), nil
}

// redactKey strips the API key from transport errors, which embed the request URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s %s: %w", uerr.Op, "<redacted>", uerr.Err)
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "<redacted>"))
}
