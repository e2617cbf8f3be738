package repository

import (
	"context"
	"fmt"

	"TripCompare-App/internal/domain/model"
	"TripCompare-App/internal/domain/repository"
	"TripCompare-App/internal/infrastructure/database"
)

type PostgresHomeZonesRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresHomeZonesRepository(client *database.PostgreSQLClient) repository.HomeZonesRepository {
	return &PostgresHomeZonesRepository{
		client: client,
	}
}

func (r *PostgresHomeZonesRepository) GetAll(ctx context.Context) ([]model.HomeZone, error) {
	query := `
		SELECT id::text, name, ST_AsGeoJSON(boundary)
		FROM homezones
		ORDER BY name`

	rows, err := r.client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ホームゾーンの取得失敗: %w", err)
	}
	defer rows.Close()

	return scanHomeZoneRows(rows)
}

// rowScanner *sql.Rowsのうち読み取りに使う部分
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanHomeZoneRows id, name, GeoJSON境界 の3列を読み取る
func scanHomeZoneRows(rows rowScanner) ([]model.HomeZone, error) {
	var result []homeZoneRow
	for rows.Next() {
		var row homeZoneRow
		var boundary string
		if err := rows.Scan(&row.ID, &row.Name, &boundary); err != nil {
			return nil, fmt.Errorf("ホームゾーンの読み取り失敗: %w", err)
		}
		row.Boundary = []byte(boundary)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ホームゾーンの読み取り失敗: %w", err)
	}

	return rowsToHomeZones(result)
}
