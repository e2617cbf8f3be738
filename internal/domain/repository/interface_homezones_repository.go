package repository

import (
	"context"

	"TripCompare-App/internal/domain/model"
)

// HomeZonesRepository はホームゾーンのデータセット（読み取り専用）
type HomeZonesRepository interface {
	GetAll(ctx context.Context) ([]model.HomeZone, error)
}
