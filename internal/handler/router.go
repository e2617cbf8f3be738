package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterDeps ルーターに登録するハンドラー群
// HomeZonesとMetricsはnilなら登録しない
type RouterDeps struct {
	Trip      *TripHandler
	Search    *SearchHandler
	HomeZones *HomeZoneHandler
	Health    *HealthHandler
	Metrics   http.Handler
	Logger    *zap.Logger
}

// NewRouter ミドルウェアとルートを設定したginエンジンを作成
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))

	root := &router.RouterGroup
	deps.Health.RegisterRoutes(root)
	deps.Trip.RegisterRoutes(root)
	deps.Search.RegisterRoutes(root)
	if deps.HomeZones != nil {
		deps.HomeZones.RegisterRoutes(root)
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}
	return router
}
