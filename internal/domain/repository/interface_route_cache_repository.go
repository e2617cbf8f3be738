package repository

import (
	"context"

	"TripCompare-App/internal/domain/model"
)

// RouteCacheRepository は経路プロバイダーのレスポンスを一時的に保存する
// 見つからない・期限切れの場合は (nil, nil) を返す。
type RouteCacheRepository interface {
	Get(ctx context.Context, key string) (*model.DirectionsResponse, error)
	Save(ctx context.Context, key string, directions *model.DirectionsResponse) error
}
