package repository

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ParseBoundary GeoJSONのジオメトリ（Polygon / MultiPolygon）をorb.MultiPolygonに変換
func ParseBoundary(raw []byte) (orb.MultiPolygon, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("境界データが空です")
	}

	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("GeoJSONのパースに失敗: %w", err)
	}

	switch geom := g.Geometry().(type) {
	case orb.Polygon:
		return orb.MultiPolygon{geom}, nil
	case orb.MultiPolygon:
		return geom, nil
	default:
		return nil, fmt.Errorf("対応していないジオメトリ型です: %s", g.Type)
	}
}
