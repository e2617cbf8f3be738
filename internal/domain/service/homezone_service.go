package service

import (
	"context"
	"fmt"

	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"

	"TripCompare-App/internal/domain/helper"
	"TripCompare-App/internal/domain/model"
	"TripCompare-App/internal/domain/repository"
)

// HomeZoneService は座標がホームゾーン内かを判定する
type HomeZoneService interface {
	// FindContaining は座標を含むホームゾーンを返す。どこにも含まれなければnil
	FindContaining(ctx context.Context, point model.LatLng) (*model.HomeZone, error)

	// List は読み込み済みのホームゾーン一覧を返す
	List(ctx context.Context) ([]model.HomeZone, error)
}

type homeZoneServiceImpl struct {
	zones  *helper.LazyLoader[[]model.HomeZone]
	logger *zap.Logger
}

// NewHomeZoneService 新しいHomeZoneServiceを作成（データセットは初回利用時に1度だけ読み込む）
func NewHomeZoneService(repo repository.HomeZonesRepository, logger *zap.Logger) HomeZoneService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &homeZoneServiceImpl{logger: logger}
	s.zones = helper.NewLazyLoader(func(ctx context.Context) ([]model.HomeZone, error) {
		zones, err := repo.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info("ホームゾーンを読み込みました", zap.Int("count", len(zones)))
		return zones, nil
	})
	return s
}

func (s *homeZoneServiceImpl) FindContaining(ctx context.Context, point model.LatLng) (*model.HomeZone, error) {
	zones, err := s.zones.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("ホームゾーンの取得に失敗: %w", err)
	}

	p := point.ToOrbPoint()
	for i := range zones {
		if planar.MultiPolygonContains(zones[i].Boundary, p) {
			zone := zones[i]
			return &zone, nil
		}
	}
	return nil, nil
}

func (s *homeZoneServiceImpl) List(ctx context.Context) ([]model.HomeZone, error) {
	zones, err := s.zones.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("ホームゾーンの取得に失敗: %w", err)
	}
	return append([]model.HomeZone(nil), zones...), nil
}
