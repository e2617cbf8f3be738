package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// TransportAutomobile ルート計算で使う移動手段（固定）
const TransportAutomobile = "Automobile"

// RouteRequest 経路計算リクエスト
type RouteRequest struct {
	Origin        LatLng    `json:"origin"`
	Destination   LatLng    `json:"destination"`
	TransportType string    `json:"transport_type"`
	DepartureDate time.Time `json:"departure_date"`
}

// NewRouteRequest 自動車固定のリクエストを作成
func NewRouteRequest(origin, destination LatLng, departure time.Time) RouteRequest {
	return RouteRequest{
		Origin:        origin,
		Destination:   destination,
		TransportType: TransportAutomobile,
		DepartureDate: departure,
	}
}

// CacheKey キャッシュ用のキー（座標は小数5桁、出発時刻は15分単位）
func (r RouteRequest) CacheKey() string {
	bucket := r.DepartureDate.UTC().Truncate(15 * time.Minute).Unix()
	return fmt.Sprintf("%.5f,%.5f_%.5f,%.5f_%s_%d",
		r.Origin.Lat, r.Origin.Lng, r.Destination.Lat, r.Destination.Lng, r.TransportType, bucket)
}

// DirectionsResponse 経路プロバイダーのレスポンス
// 中身の解釈は呼び出し側に任せ、Rawに受信したままのJSONを保持する。
type DirectionsResponse struct {
	Routes []DirectionsRoute `json:"routes"`
	Raw    json.RawMessage   `json:"-"`
}

// DirectionsRoute プロバイダーが返すルート候補
type DirectionsRoute struct {
	Name            string `json:"name"`
	DistanceMeters  int    `json:"distanceMeters"`
	DurationSeconds int    `json:"durationSeconds"`
	TransportType   string `json:"transportType"`
	HasTolls        bool   `json:"hasTolls"`
}

// RouteResult 経路計算の結果
type RouteResult struct {
	Directions *DirectionsResponse
}

// RouteSummary 距離とETAの要約
type RouteSummary struct {
	DistanceMeters     int       `json:"distance_meters"`
	DurationSeconds    int       `json:"duration_seconds"`
	ETA                time.Time `json:"eta"`
	StraightLineMeters float64   `json:"straight_line_meters"`
}

// TripRoutePlan トリップに対する経路計算の結果
type TripRoutePlan struct {
	Params              TripParameters  `json:"params"`
	Summary             *RouteSummary   `json:"summary,omitempty"`
	OriginHomeZone      *HomeZone       `json:"origin_home_zone,omitempty"`
	DestinationHomeZone *HomeZone       `json:"destination_home_zone,omitempty"`
	Directions          json.RawMessage `json:"directions"`
	Cached              bool            `json:"cached"`
}
