package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"TripCompare-App/internal/domain/model"
	"TripCompare-App/internal/metrics"
)

// 検索のバイアス座標（バンクーバー中心部）と対象国の既定値
var (
	DefaultSearchBias      = model.LatLng{Lat: 49.28091630159075, Lng: -123.11395918331695}
	DefaultSearchCountries = []string{"us", "ca"}
)

const (
	operationRoute        = "route"
	operationAutocomplete = "autocomplete"
)

// SearchOptions オートコンプリートの固定オプション
type SearchOptions struct {
	BiasCoordinate model.LatLng
	Countries      []string
}

// GeoRequestService は地図プロバイダーへの経路計算・検索リクエストを扱う
type GeoRequestService interface {
	// ComputeRoute は自動車での経路を計算する。呼び出し側から途中でキャンセルはできない
	ComputeRoute(ctx context.Context, origin, destination model.LatLng, departure time.Time) (*model.RouteResult, error)

	// Autocomplete はフリーテキストで候補地点を検索する。ctxのキャンセルで進行中のリクエストをキャンセルする
	Autocomplete(ctx context.Context, query string) ([]model.PlaceCandidate, error)
}

type geoRequestServiceImpl struct {
	loadClient MapsClientLoader
	search     SearchOptions
	logger     *zap.Logger
	metrics    *metrics.Collector
}

// NewGeoRequestService 新しいGeoRequestServiceを作成
func NewGeoRequestService(loadClient MapsClientLoader, search SearchOptions, logger *zap.Logger, m *metrics.Collector) GeoRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if search.BiasCoordinate == (model.LatLng{}) {
		search.BiasCoordinate = DefaultSearchBias
	}
	if len(search.Countries) == 0 {
		search.Countries = DefaultSearchCountries
	}
	return &geoRequestServiceImpl{
		loadClient: loadClient,
		search:     search,
		logger:     logger,
		metrics:    m,
	}
}

func (s *geoRequestServiceImpl) ComputeRoute(ctx context.Context, origin, destination model.LatLng, departure time.Time) (*model.RouteResult, error) {
	// セッションの初期化中も呼び出し側のキャンセルで中断しない
	providerCtx := context.WithoutCancel(ctx)
	client, err := s.loadClient(providerCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
	}

	req := model.NewRouteRequest(origin, destination, departure)

	call := singleSettlement[model.DirectionsResponse, *model.RouteResult]{
		operation: operationRoute,
		issue: func(done func(error, *model.DirectionsResponse)) model.RequestID {
			client.Route(providerCtx, req, done)
			return ""
		},
		extract: func(data *model.DirectionsResponse) (*model.RouteResult, bool) {
			return &model.RouteResult{Directions: data}, true
		},
		logger:  s.logger,
		metrics: s.metrics,
	}
	return call.await(ctx)
}

func (s *geoRequestServiceImpl) Autocomplete(ctx context.Context, query string) ([]model.PlaceCandidate, error) {
	client, err := s.loadClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
	}

	req := model.SearchRequest{
		Query:                   query,
		BiasCoordinate:          s.search.BiasCoordinate,
		LimitToCountries:        s.search.Countries,
		IncludePointsOfInterest: true,
		IncludeAddresses:        true,
	}
	// キャンセルはCancel(requestID)経由のみで行い、プロバイダーの確定結果を待つ
	providerCtx := context.WithoutCancel(ctx)

	call := singleSettlement[model.AutocompleteResponse, []model.PlaceCandidate]{
		operation: operationAutocomplete,
		issue: func(done func(error, *model.AutocompleteResponse)) model.RequestID {
			return client.Autocomplete(providerCtx, req, done)
		},
		extract: func(response *model.AutocompleteResponse) ([]model.PlaceCandidate, bool) {
			// resultsが無いのは「0件」であって「データなし」ではない
			if response.Results == nil {
				return []model.PlaceCandidate{}, true
			}
			return response.Results, true
		},
		cancel:  client.Cancel,
		logger:  s.logger,
		metrics: s.metrics,
	}
	return call.await(ctx)
}
