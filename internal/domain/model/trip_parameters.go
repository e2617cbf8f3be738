package model

// VehicleType 車両タイプ
type VehicleType string

const (
	VehicleDailyDrive    VehicleType = "daily_drive"
	VehicleLargeLoadable VehicleType = "large_loadable"
	VehicleOversized     VehicleType = "oversized"
)

// IsValid 定義済みの車両タイプかどうか
func (v VehicleType) IsValid() bool {
	switch v {
	case VehicleDailyDrive, VehicleLargeLoadable, VehicleOversized:
		return true
	}
	return false
}

// デフォルト値
const (
	DefaultStayDuration           = 0.0
	DefaultParkingWalkingDistance = 50.0
	DefaultBCAAMember             = false
	DefaultElectricVehicle        = false
	DefaultRoundTrip              = false
)

// TripParameters は比較リクエストを表すトリップ条件
// nilのフィールドは「指定なし」を意味する。
// 値は直接書き換えず、With で新しいレコードを作ること。
type TripParameters struct {
	OriginLat              *float64     `json:"origin_lat,omitempty"`
	OriginLng              *float64     `json:"origin_lng,omitempty"`
	DestLat                *float64     `json:"dest_lat,omitempty"`
	DestLng                *float64     `json:"dest_lng,omitempty"`
	StayDuration           *float64     `json:"stay_duration,omitempty" validate:"omitempty,gte=0"`
	ParkingWalkingDistance *float64     `json:"parking_walking_distance,omitempty" validate:"omitempty,gte=0"`
	BCAAMember             *bool        `json:"bcaa_member,omitempty"`
	ElectricVehicle        *bool        `json:"electric_vehicle,omitempty"`
	RoundTrip              *bool        `json:"round_trip,omitempty"`
	VehicleType            *VehicleType `json:"vehicle_type,omitempty"`
}

// DefaultTripParameters 既定値だけを持つレコードを返す（座標と車両タイプは未指定）
func DefaultTripParameters() TripParameters {
	return TripParameters{
		StayDuration:           Ptr(DefaultStayDuration),
		ParkingWalkingDistance: Ptr(DefaultParkingWalkingDistance),
		BCAAMember:             Ptr(DefaultBCAAMember),
		ElectricVehicle:        Ptr(DefaultElectricVehicle),
		RoundTrip:              Ptr(DefaultRoundTrip),
	}
}

// With overridesで指定されたフィールドを上書きした新しいレコードを返す
func (p TripParameters) With(overrides TripParameters) TripParameters {
	out := p.Clone()
	if overrides.OriginLat != nil {
		out.OriginLat = Ptr(*overrides.OriginLat)
	}
	if overrides.OriginLng != nil {
		out.OriginLng = Ptr(*overrides.OriginLng)
	}
	if overrides.DestLat != nil {
		out.DestLat = Ptr(*overrides.DestLat)
	}
	if overrides.DestLng != nil {
		out.DestLng = Ptr(*overrides.DestLng)
	}
	if overrides.StayDuration != nil {
		out.StayDuration = Ptr(*overrides.StayDuration)
	}
	if overrides.ParkingWalkingDistance != nil {
		out.ParkingWalkingDistance = Ptr(*overrides.ParkingWalkingDistance)
	}
	if overrides.BCAAMember != nil {
		out.BCAAMember = Ptr(*overrides.BCAAMember)
	}
	if overrides.ElectricVehicle != nil {
		out.ElectricVehicle = Ptr(*overrides.ElectricVehicle)
	}
	if overrides.RoundTrip != nil {
		out.RoundTrip = Ptr(*overrides.RoundTrip)
	}
	if overrides.VehicleType != nil {
		out.VehicleType = Ptr(*overrides.VehicleType)
	}
	return out
}

// Clone ポインタの参照先までコピーする
func (p TripParameters) Clone() TripParameters {
	return TripParameters{
		OriginLat:              clonePtr(p.OriginLat),
		OriginLng:              clonePtr(p.OriginLng),
		DestLat:                clonePtr(p.DestLat),
		DestLng:                clonePtr(p.DestLng),
		StayDuration:           clonePtr(p.StayDuration),
		ParkingWalkingDistance: clonePtr(p.ParkingWalkingDistance),
		BCAAMember:             clonePtr(p.BCAAMember),
		ElectricVehicle:        clonePtr(p.ElectricVehicle),
		RoundTrip:              clonePtr(p.RoundTrip),
		VehicleType:            clonePtr(p.VehicleType),
	}
}

// IsRoutable 出発地・目的地の4つの座標がすべて揃っているか
func (p TripParameters) IsRoutable() bool {
	return p.OriginLat != nil && p.OriginLng != nil && p.DestLat != nil && p.DestLng != nil
}

// Origin 出発地の座標
func (p TripParameters) Origin() (LatLng, bool) {
	if p.OriginLat == nil || p.OriginLng == nil {
		return LatLng{}, false
	}
	return LatLng{Lat: *p.OriginLat, Lng: *p.OriginLng}, true
}

// Destination 目的地の座標
func (p TripParameters) Destination() (LatLng, bool) {
	if p.DestLat == nil || p.DestLng == nil {
		return LatLng{}, false
	}
	return LatLng{Lat: *p.DestLat, Lng: *p.DestLng}, true
}

// Ptr 値のポインタを返す
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// TripView URLから復元したトリップ（未設定の場合はConfigured=false）
type TripView struct {
	Configured     bool            `json:"configured"`
	Params         *TripParameters `json:"params,omitempty"`
	CanonicalQuery string          `json:"canonical_query,omitempty"`
}
