package service

import (
	"context"

	"TripCompare-App/internal/domain/model"
)

// DirectionsProvider は外部の経路プロバイダーのコールバック契約
// コールバックは (error, nil) / (nil, data) / (nil, nil) のいずれかで呼ばれる。
type DirectionsProvider interface {
	Route(ctx context.Context, req model.RouteRequest, callback func(err error, data *model.DirectionsResponse))
}

// SearchProvider は外部の検索プロバイダーのコールバック契約
// Autocomplete はキャンセルに使うリクエストIDを返す。
type SearchProvider interface {
	Autocomplete(ctx context.Context, req model.SearchRequest, callback func(err error, response *model.AutocompleteResponse)) model.RequestID
	Cancel(id model.RequestID)
}

// MapsClient 初期化済みの地図プロバイダーセッション
type MapsClient interface {
	DirectionsProvider
	SearchProvider
}

// MapsClientLoader 初期化済みのセッションを返す（1度だけ初期化される）
type MapsClientLoader func(ctx context.Context) (MapsClient, error)
