package model

import "encoding/json"

// RequestID キャンセルに使うプロバイダー側のリクエスト識別子
type RequestID string

// SearchRequest オートコンプリート検索のリクエスト
type SearchRequest struct {
	Query                   string
	BiasCoordinate          LatLng
	LimitToCountries        []string
	IncludePointsOfInterest bool
	IncludeAddresses        bool
}

// AutocompleteResponse プロバイダーのオートコンプリートレスポンス
type AutocompleteResponse struct {
	Results []PlaceCandidate `json:"results"`
}

// PlaceCandidate 候補地点（中身は解釈しない）
type PlaceCandidate struct {
	CompletionURL     string          `json:"completionUrl,omitempty"`
	DisplayLines      []string        `json:"displayLines,omitempty"`
	Location          *Location       `json:"location,omitempty"`
	StructuredAddress json.RawMessage `json:"structuredAddress,omitempty"`
}
