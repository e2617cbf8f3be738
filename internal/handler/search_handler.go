package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"TripCompare-App/internal/usecase"
)

// statusClientClosedRequest クライアントが応答前に切断した
const statusClientClosedRequest = 499

// SearchHandler 地点検索APIのハンドラー
type SearchHandler struct {
	tripUseCase usecase.TripUseCase
	logger      *zap.Logger
}

// NewSearchHandler 新しいSearchHandlerを作成
func NewSearchHandler(tripUseCase usecase.TripUseCase, logger *zap.Logger) *SearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHandler{tripUseCase: tripUseCase, logger: logger}
}

// RegisterRoutes 検索ルートを登録
func (h *SearchHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/search/autocomplete", h.Autocomplete)
}

// Autocomplete 入力途中の文字列から候補地点を返す
// クライアントが切断するとプロバイダーへのリクエストもキャンセルされる
// GET /search/autocomplete?q=...
func (h *SearchHandler) Autocomplete(c *gin.Context) {
	results, err := h.tripUseCase.SearchPlaces(c.Request.Context(), c.Query("q"))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			h.logger.Debug("検索がキャンセルされました", zap.String("q", c.Query("q")))
			c.AbortWithStatus(statusClientClosedRequest)
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "検索に失敗しました",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
