package model

import "github.com/paulmach/orb"

// LatLng 緯度経度を表す基本的な型（経路検索などで使用）
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ToOrbPoint orb.Point（[経度, 緯度]）に変換
func (l LatLng) ToOrbPoint() orb.Point {
	return orb.Point{l.Lng, l.Lat}
}

// ToLocation Location型に変換
func (l LatLng) ToLocation() *Location {
	return &Location{Latitude: l.Lat, Longitude: l.Lng}
}

// Location 地図プロバイダーのレスポンスで使われる位置情報
type Location struct {
	Latitude  float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

// ToLatLng LatLng型に変換
func (l *Location) ToLatLng() LatLng {
	if l == nil {
		return LatLng{}
	}
	return LatLng{Lat: l.Latitude, Lng: l.Longitude}
}
