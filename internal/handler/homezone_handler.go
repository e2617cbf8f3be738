package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"TripCompare-App/internal/domain/model"
	"TripCompare-App/internal/domain/service"
)

// HomeZoneHandler ホームゾーンAPIのハンドラー
type HomeZoneHandler struct {
	homeZones service.HomeZoneService
}

// NewHomeZoneHandler 新しいHomeZoneHandlerを作成
func NewHomeZoneHandler(homeZones service.HomeZoneService) *HomeZoneHandler {
	return &HomeZoneHandler{homeZones: homeZones}
}

// RegisterRoutes ホームゾーンのルートを登録
func (h *HomeZoneHandler) RegisterRoutes(r *gin.RouterGroup) {
	zones := r.Group("/homezones")
	{
		zones.GET("", h.ListHomeZones)
		zones.GET("/contains", h.FindContaining)
	}
}

// ListHomeZones GET /homezones
func (h *HomeZoneHandler) ListHomeZones(c *gin.Context) {
	zones, err := h.homeZones.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "ホームゾーンを読み込めませんでした",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"homezones": zones})
}

// FindContaining GET /homezones/contains?lat=...&lng=...
func (h *HomeZoneHandler) FindContaining(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "latとlngを正しい範囲の数値で指定してください",
		})
		return
	}

	zone, err := h.homeZones.FindContaining(c.Request.Context(), model.LatLng{Lat: lat, Lng: lng})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "ホームゾーンを読み込めませんでした",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"homezone": zone})
}
