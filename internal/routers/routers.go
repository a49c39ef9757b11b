// Package routers registers the service's route groups
package routers

import (
	"cinesage-api/internal/database"
	"cinesage-api/internal/handlers/media"
	"cinesage-api/internal/handlers/recommend"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func RegisterRecommendRoutes(
	e *echo.Group,
	store database.QuotaStore,
	completionAPIKey string,
	log *zap.SugaredLogger,
) error {
	rm, err := recommend.NewRecommendManager(store, completionAPIKey, log)
	if err != nil {
		return err
	}

	e.POST("/api/getRecommendation", rm.GetRecommendation)
	return nil
}

func RegisterMediaRoutes(
	e *echo.Group,
	mediaAPIKey string,
	redisClient *redis.Client,
	log *zap.SugaredLogger,
) error {
	mm, err := media.NewMediaManager(mediaAPIKey, redisClient, log)
	if err != nil {
		return err
	}

	e.POST("/api/getMediaDetails", mm.GetMediaDetails)
	return nil
}
