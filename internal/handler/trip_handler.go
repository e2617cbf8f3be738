package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"TripCompare-App/internal/domain/helper"
	"TripCompare-App/internal/domain/model"
	"TripCompare-App/internal/usecase"
)

// departureParam 経路計算の出発時刻（RFC3339）。トリップのキーには含まれない
const departureParam = "departure"

// TripHandler トリップAPIのハンドラー
type TripHandler struct {
	tripUseCase usecase.TripUseCase
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewTripHandler 新しいTripHandlerを作成
func NewTripHandler(tripUseCase usecase.TripUseCase, logger *zap.Logger) *TripHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TripHandler{
		tripUseCase: tripUseCase,
		validate:    validator.New(),
		logger:      logger,
	}
}

// RegisterRoutes トリップ関連のルートを登録
func (h *TripHandler) RegisterRoutes(r *gin.RouterGroup) {
	trips := r.Group("/trips")
	{
		trips.GET("", h.GetTrip)
		trips.POST("/share", h.ShareTrip)
		trips.GET("/route", h.GetTripRoute)
	}
}

// GetTrip URLクエリからトリップを復元する
// GET /trips
func (h *TripHandler) GetTrip(c *gin.Context) {
	c.JSON(http.StatusOK, h.tripUseCase.ResolveTrip(c.Request.URL.Query()))
}

// ShareTrip 共有URLを作成する
// POST /trips/share
func (h *TripHandler) ShareTrip(c *gin.Context) {
	var req model.TripParameters
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "リクエストの形式が正しくありません",
			"details": err.Error(),
		})
		return
	}

	if err := h.validateShareRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "バリデーションエラー",
			"details": err.Error(),
		})
		return
	}

	link, err := h.tripUseCase.ShareTrip(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "共有URLの作成に失敗しました",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, link)
}

// GetTripRoute トリップの経路を計算する
// GET /trips/route
func (h *TripHandler) GetTripRoute(c *gin.Context) {
	query := c.Request.URL.Query()

	params, err := helper.ValidateTripParams(helper.QueryToMap(query))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "トリップのパラメータが正しくありません",
			"details": err.Error(),
		})
		return
	}

	var departure time.Time
	if raw := query.Get(departureParam); raw != "" {
		departure, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "departureはRFC3339形式で指定してください",
				"details": err.Error(),
			})
			return
		}
	}

	plan, err := h.tripUseCase.PlanRoute(c.Request.Context(), *params, departure)
	if err != nil {
		if errors.Is(err, usecase.ErrTripNotRoutable) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "出発地と目的地を指定してください",
				"details": err.Error(),
			})
			return
		}
		h.logger.Error("経路計算に失敗", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "経路を取得できませんでした。時間をおいて再度お試しください",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, plan)
}

// validateShareRequest 負の値と未定義の車両タイプを拒否する
func (h *TripHandler) validateShareRequest(req *model.TripParameters) error {
	if err := h.validate.Struct(req); err != nil {
		return err
	}
	if req.VehicleType != nil && !req.VehicleType.IsValid() {
		return errors.New("vehicle_type: 未定義の車両タイプです")
	}
	return nil
}
