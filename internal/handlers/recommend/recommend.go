// Package recommend relays quota-gated recommendation prompts to the
// completion upstream and streams the generated text back to the caller.
package recommend

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"cinesage-api/internal/database"
	"cinesage-api/internal/metrics"
	"cinesage-api/internal/ratelimit"
	"cinesage-api/internal/setup"
	"cinesage-api/internal/shared"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type RecommendManager struct {
	limiter  *ratelimit.Limiter
	apiKey   string
	endpoint string
	client   *http.Client
	log      *zap.SugaredLogger
}

func NewRecommendManager(store database.QuotaStore, apiKey string, log *zap.SugaredLogger) (*RecommendManager, error) {
	if apiKey == "" {
		return nil, errors.New("missing completion api key")
	}

	tr := &http.Transport{
		Dial: (&net.Dialer{
			Timeout: shared.DefaultDialTimeout,
		}).Dial,
		TLSHandshakeTimeout: shared.DefaultDialTimeout,
		DisableKeepAlives:   false,
	}

	return &RecommendManager{
		limiter:  ratelimit.NewLimiter(store, shared.DailyRequestQuota, log),
		apiKey:   apiKey,
		endpoint: shared.CompletionEndpoint,
		client:   &http.Client{Transport: tr, Timeout: shared.DefaultHTTPTimeout},
		log:      log,
	}, nil
}

type RecommendationRequest struct {
	Searched string `json:"searched"`
}

// GetRecommendation admits the request against the daily quota, then
// relays the prompt through the completion upstream. Denial short-circuits
// before any upstream call is made.
func (rm *RecommendManager) GetRecommendation(cc echo.Context) error {
	c := cc.(*setup.Context)

	clientID := shared.ClientIP(c)
	c.Log = c.Log.With("client_ip", clientID)

	allowed, err := rm.limiter.Allow(c.Request().Context(), clientID)
	if err != nil {
		c.Log.Errorw("Quota check failed", "error", err)
		metrics.ErrorCount.WithLabelValues(c.Path(), "quota_store").Inc()
		return c.String(shared.ErrInternalServerError.StatusCode, shared.ErrInternalServerError.Err.Error())
	}
	if !allowed {
		c.Log.Infow("Request rate limited")
		metrics.RateLimitedCount.WithLabelValues(c.Path()).Inc()
		return c.String(shared.ErrRateLimited.StatusCode, shared.ErrRateLimited.Err.Error())
	}

	var req RecommendationRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		c.Log.Warnw("Failed to decode request body", "error", err)
		return c.String(shared.ErrInvalidRequest.StatusCode, shared.ErrInvalidRequest.Err.Error())
	}

	payload := shared.CompletionBody{
		Model: shared.CompletionModel,
		Messages: []shared.ChatMessage{
			{Role: "user", Content: req.Searched},
		},
		Temperature:      shared.DefaultTemperature,
		TopP:             shared.DefaultTopP,
		FrequencyPenalty: 0.0,
		PresencePenalty:  0.0,
		MaxTokens:        shared.DefaultMaxTokens,
		Stream:           true,
		N:                1,
	}

	return rm.streamCompletion(c, payload, time.Now())
}
