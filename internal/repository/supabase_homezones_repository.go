package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"TripCompare-App/internal/domain/model"
	"TripCompare-App/internal/domain/repository"
	"TripCompare-App/internal/infrastructure/database"
)

const homeZonesTable = "homezones"

type SupabaseHomeZonesRepository struct {
	client *database.SupabaseClient
}

func NewSupabaseHomeZonesRepository(client *database.SupabaseClient) repository.HomeZonesRepository {
	return &SupabaseHomeZonesRepository{
		client: client,
	}
}

// homeZoneRow homezonesテーブルの行（boundaryはPostGISのGeoJSON表現）
type homeZoneRow struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Boundary json.RawMessage `json:"boundary"`
}

func (r *SupabaseHomeZonesRepository) GetAll(ctx context.Context) ([]model.HomeZone, error) {
	data, count, err := r.client.GetClient().From(homeZonesTable).Select("id,name,boundary", "exact", false).Execute()
	if err != nil {
		return nil, fmt.Errorf("ホームゾーンの取得失敗: %w", err)
	}
	_ = count

	var rows []homeZoneRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("ホームゾーンのJSONアンマーシャル失敗: %w", err)
	}

	return rowsToHomeZones(rows)
}

func rowsToHomeZones(rows []homeZoneRow) ([]model.HomeZone, error) {
	zones := make([]model.HomeZone, 0, len(rows))
	for _, row := range rows {
		boundary, err := ParseBoundary(row.Boundary)
		if err != nil {
			return nil, fmt.Errorf("ホームゾーン %s: %w", row.ID, err)
		}
		zones = append(zones, model.HomeZone{
			ID:       row.ID,
			Name:     row.Name,
			Boundary: boundary,
		})
	}
	return zones, nil
}
