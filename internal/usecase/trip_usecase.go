package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb/geo"
	"go.uber.org/zap"

	"TripCompare-App/internal/domain/helper"
	"TripCompare-App/internal/domain/model"
	"TripCompare-App/internal/domain/repository"
	"TripCompare-App/internal/domain/service"
	"TripCompare-App/internal/metrics"
)

// ErrTripNotRoutable 出発地・目的地の座標が揃っていない
var ErrTripNotRoutable = errors.New("trip has no origin or destination")

// TripUseCase はトリップのURL表現・経路計算・地点検索をまとめる
type TripUseCase interface {
	// ResolveTrip はURLクエリからトリップを復元する。不正・未設定ならConfigured=false
	ResolveTrip(query url.Values) *model.TripView

	// ShareTrip は指定された項目だけを含む共有URLを作成する
	ShareTrip(params model.TripParameters) (*model.ShareLink, error)

	// PlanRoute はトリップの経路を計算する（キャッシュ優先）
	PlanRoute(ctx context.Context, params model.TripParameters, departure time.Time) (*model.TripRoutePlan, error)

	// SearchPlaces は地点候補を検索する。ctxのキャンセルでプロバイダーのリクエストもキャンセルされる
	SearchPlaces(ctx context.Context, query string) ([]model.PlaceCandidate, error)
}

type tripUseCaseImpl struct {
	codec         *helper.TripParamsCodec
	geo           service.GeoRequestService
	homeZones     service.HomeZoneService
	routeCache    repository.RouteCacheRepository
	publicBaseURL string
	logger        *zap.Logger
	metrics       *metrics.Collector
	now           func() time.Time
}

// NewTripUseCase 新しいTripUseCaseを作成
// homeZones・routeCacheはnilでもよい（その機能を使わない）
func NewTripUseCase(
	codec *helper.TripParamsCodec,
	geoService service.GeoRequestService,
	homeZones service.HomeZoneService,
	routeCache repository.RouteCacheRepository,
	publicBaseURL string,
	logger *zap.Logger,
	m *metrics.Collector,
) TripUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &tripUseCaseImpl{
		codec:         codec,
		geo:           geoService,
		homeZones:     homeZones,
		routeCache:    routeCache,
		publicBaseURL: publicBaseURL,
		logger:        logger,
		metrics:       m,
		now:           time.Now,
	}
}

func (u *tripUseCaseImpl) ResolveTrip(query url.Values) *model.TripView {
	params := u.codec.DecodeQuery(query)
	if params == nil {
		return &model.TripView{Configured: false}
	}
	return &model.TripView{
		Configured:     true,
		Params:         params,
		CanonicalQuery: u.codec.Encode(*params).Encode(),
	}
}

func (u *tripUseCaseImpl) ShareTrip(params model.TripParameters) (*model.ShareLink, error) {
	query := u.codec.Encode(params).Encode()

	base, err := url.Parse(u.publicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("共有URLのベースが不正です: %w", err)
	}
	if base.Path == "" {
		base.Path = "/"
	}
	base.RawQuery = query
	return &model.ShareLink{Query: query, URL: base.String()}, nil
}

func (u *tripUseCaseImpl) PlanRoute(ctx context.Context, params model.TripParameters, departure time.Time) (*model.TripRoutePlan, error) {
	origin, okOrigin := params.Origin()
	destination, okDestination := params.Destination()
	if !okOrigin || !okDestination {
		return nil, ErrTripNotRoutable
	}
	if departure.IsZero() {
		departure = u.now()
	}

	plan := &model.TripRoutePlan{Params: params.Clone()}
	key := model.NewRouteRequest(origin, destination, departure).CacheKey()

	directions := u.cachedDirections(ctx, key)
	if directions != nil {
		plan.Cached = true
	} else {
		result, err := u.geo.ComputeRoute(ctx, origin, destination, departure)
		if err != nil {
			return nil, fmt.Errorf("経路計算に失敗: %w", err)
		}
		directions = result.Directions
		u.saveDirections(ctx, key, directions)
	}

	plan.Directions = directions.Raw
	if len(plan.Directions) == 0 {
		raw, err := json.Marshal(directions)
		if err != nil {
			return nil, fmt.Errorf("経路データの変換に失敗: %w", err)
		}
		plan.Directions = raw
	}
	plan.Summary = summarize(directions, origin, destination, departure)

	if u.homeZones != nil {
		var err error
		if plan.OriginHomeZone, err = u.homeZones.FindContaining(ctx, origin); err != nil {
			u.logger.Warn("ホームゾーン判定に失敗", zap.Error(err))
		}
		if plan.DestinationHomeZone, err = u.homeZones.FindContaining(ctx, destination); err != nil {
			u.logger.Warn("ホームゾーン判定に失敗", zap.Error(err))
		}
	}
	return plan, nil
}

func (u *tripUseCaseImpl) SearchPlaces(ctx context.Context, query string) ([]model.PlaceCandidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.PlaceCandidate{}, nil
	}
	return u.geo.Autocomplete(ctx, query)
}

// cachedDirections キャッシュの失敗は経路計算を止めない
func (u *tripUseCaseImpl) cachedDirections(ctx context.Context, key string) *model.DirectionsResponse {
	if u.routeCache == nil {
		return nil
	}
	directions, err := u.routeCache.Get(ctx, key)
	switch {
	case err != nil:
		u.metrics.IncRouteCache("error")
		u.logger.Warn("ルートキャッシュの取得に失敗", zap.String("key", key), zap.Error(err))
		return nil
	case directions == nil:
		u.metrics.IncRouteCache("miss")
		return nil
	default:
		u.metrics.IncRouteCache("hit")
		return directions
	}
}

func (u *tripUseCaseImpl) saveDirections(ctx context.Context, key string, directions *model.DirectionsResponse) {
	if u.routeCache == nil {
		return
	}
	if err := u.routeCache.Save(ctx, key, directions); err != nil {
		u.logger.Warn("ルートキャッシュの保存に失敗", zap.String("key", key), zap.Error(err))
	}
}

// summarize 先頭のルートから距離とETAを求める
func summarize(directions *model.DirectionsResponse, origin, destination model.LatLng, departure time.Time) *model.RouteSummary {
	summary := &model.RouteSummary{
		StraightLineMeters: geo.Distance(origin.ToOrbPoint(), destination.ToOrbPoint()),
	}
	if len(directions.Routes) == 0 {
		return summary
	}
	first := directions.Routes[0]
	summary.DistanceMeters = first.DistanceMeters
	summary.DurationSeconds = first.DurationSeconds
	summary.ETA = departure.Add(time.Duration(first.DurationSeconds) * time.Second)
	return summary
}
