package model

import "github.com/paulmach/orb"

// HomeZone 駐車可能なホームゾーン（ジオフェンス）
type HomeZone struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Boundary orb.MultiPolygon `json:"-"`
}

// ShareLink 共有用URL
type ShareLink struct {
	Query string `json:"query"`
	URL   string `json:"url"`
}
