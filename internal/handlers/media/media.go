// Package media looks up title metadata against the OMDB API
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"cinesage-api/internal/metrics"
	"cinesage-api/internal/setup"
	"cinesage-api/internal/shared"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type MediaManager struct {
	apiKey   string
	endpoint string
	// nil redis disables caching; lookups always fall through to OMDB.
	redis  *redis.Client
	client *http.Client
	log    *zap.SugaredLogger
}

func NewMediaManager(apiKey string, redisClient *redis.Client, log *zap.SugaredLogger) (*MediaManager, error) {
	if apiKey == "" {
		return nil, errors.New("missing media api key")
	}
	return &MediaManager{
		apiKey:   apiKey,
		endpoint: shared.MediaEndpoint,
		redis:    redisClient,
		client:   &http.Client{Timeout: shared.MediaFetchTimeout},
		log:      log,
	}, nil
}

type MediaDetailsRequest struct {
	Title string `json:"title"`
}

// GetMediaDetails forwards the title lookup to OMDB and returns the
// upstream JSON verbatim, with a redis read-through cache in front.
// Cache failures degrade to an origin fetch, never to a request failure.
func (mm *MediaManager) GetMediaDetails(cc echo.Context) error {
	c := cc.(*setup.Context)

	var req MediaDetailsRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		c.Log.Warnw("Failed to decode request body", "error", err)
		return c.String(shared.ErrInvalidRequest.StatusCode, shared.ErrInvalidRequest.Err.Error())
	}

	cacheKey := fmt.Sprintf("v1:media:title:%s", strings.ToLower(strings.TrimSpace(req.Title)))
	if mm.redis != nil {
		cached, err := mm.redis.Get(c.Request().Context(), cacheKey).Result()
		if err == nil {
			return c.JSONBlob(http.StatusOK, []byte(cached))
		}
		if err != redis.Nil {
			c.Log.Warnw("Media cache read failed", "error", err)
		}
	}

	q := url.Values{}
	q.Set("apikey", mm.apiKey)
	q.Set("t", req.Title)
	lookupURL := mm.endpoint + "?" + q.Encode()

	r, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, lookupURL, nil)
	if err != nil {
		c.Log.Errorw("Failed building media request", "error", err)
		return c.String(shared.ErrInternalServerError.StatusCode, shared.ErrInternalServerError.Err.Error())
	}

	res, err := mm.client.Do(r)
	if err != nil {
		c.Log.Errorw("Media lookup failed", "error", err)
		metrics.ErrorCount.WithLabelValues(c.Path(), "upstream_request").Inc()
		return c.String(shared.ErrUpstreamFailed.StatusCode, shared.ErrUpstreamFailed.Err.Error())
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		c.Log.Errorw("Failed reading media response", "error", err)
		metrics.ErrorCount.WithLabelValues(c.Path(), "upstream_read").Inc()
		return c.String(shared.ErrUpstreamFailed.StatusCode, shared.ErrUpstreamFailed.Err.Error())
	}

	if res.StatusCode != http.StatusOK {
		c.Log.Warnw("Media lookup returned non-200", "status_code", res.StatusCode, "body", string(body))
	}

	if mm.redis != nil && res.StatusCode == http.StatusOK {
		go func() {
			if err := mm.redis.Set(context.Background(), cacheKey, body, shared.MediaCacheTTL).Err(); err != nil {
				mm.log.Warnw("Media cache write failed", "error", err)
			}
		}()
	}

	return c.JSONBlob(http.StatusOK, body)
}
