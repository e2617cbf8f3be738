package helper

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"TripCompare-App/internal/domain/model"
	"TripCompare-App/internal/metrics"
)

// URLクエリのキー
const (
	KeyOriginLat              = "origin_lat"
	KeyOriginLng              = "origin_lng"
	KeyDestLat                = "dest_lat"
	KeyDestLng                = "dest_lng"
	KeyStayDuration           = "stay_duration"
	KeyParkingWalkingDistance = "parking_walking_distance"
	KeyBCAAMember             = "bcaa_member"
	KeyElectricVehicle        = "electric_vehicle"
	KeyRoundTrip              = "round_trip"
	KeyVehicleType            = "vehicle_type"
)

// TripParamKeys エンコード時のキー順（固定）
var TripParamKeys = []string{
	KeyOriginLat,
	KeyOriginLng,
	KeyDestLat,
	KeyDestLng,
	KeyStayDuration,
	KeyParkingWalkingDistance,
	KeyBCAAMember,
	KeyElectricVehicle,
	KeyRoundTrip,
	KeyVehicleType,
}

// ErrIncompleteTrip 出発地・目的地の座標が揃っていない
var ErrIncompleteTrip = errors.New("出発地と目的地の座標がすべて必要です")

// ParamError 型変換に失敗したパラメータ
type ParamError struct {
	Key   string
	Value string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

var (
	errNotNumber   = errors.New("数値ではありません")
	errNotFinite   = errors.New("有限の数値ではありません")
	errNegative    = errors.New("0以上の数値を指定してください")
	errVehicleType = errors.New("vehicle_typeはdaily_drive, large_loadable, oversizedのいずれかです")
)

// ValidateTripParams はクエリの生の値を検証・型変換し、既定値とマージしたレコードを返す
// 副作用のない純粋関数。型変換に失敗した場合は*ParamError、座標が欠けている場合はErrIncompleteTripを返す。
func ValidateTripParams(raw map[string]string) (*model.TripParameters, error) {
	var parsed model.TripParameters

	numbers := []struct {
		key         string
		dst         **float64
		nonNegative bool
	}{
		{KeyOriginLat, &parsed.OriginLat, false},
		{KeyOriginLng, &parsed.OriginLng, false},
		{KeyDestLat, &parsed.DestLat, false},
		{KeyDestLng, &parsed.DestLng, false},
		{KeyStayDuration, &parsed.StayDuration, true},
		{KeyParkingWalkingDistance, &parsed.ParkingWalkingDistance, true},
	}
	for _, n := range numbers {
		v, ok := lookup(raw, n.key)
		if !ok {
			continue
		}
		f, err := coerceNumber(v)
		if err == nil && n.nonNegative && f < 0 {
			err = errNegative
		}
		if err != nil {
			return nil, &ParamError{Key: n.key, Value: v, Err: err}
		}
		*n.dst = model.Ptr(f)
	}

	// 真偽値は "true" と "1" のみtrue。それ以外（未指定を含む）はfalse
	parsed.BCAAMember = model.Ptr(coerceBool(raw[KeyBCAAMember]))
	parsed.ElectricVehicle = model.Ptr(coerceBool(raw[KeyElectricVehicle]))
	parsed.RoundTrip = model.Ptr(coerceBool(raw[KeyRoundTrip]))

	if v, ok := lookup(raw, KeyVehicleType); ok {
		vt := model.VehicleType(v)
		if !vt.IsValid() {
			return nil, &ParamError{Key: KeyVehicleType, Value: v, Err: errVehicleType}
		}
		parsed.VehicleType = &vt
	}

	if !parsed.IsRoutable() {
		return nil, ErrIncompleteTrip
	}

	merged := model.DefaultTripParameters().With(parsed)
	return &merged, nil
}

// lookup 空文字は未指定として扱う
func lookup(raw map[string]string, key string) (string, bool) {
	v, ok := raw[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

var (
	decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	radixLiteral   = regexp.MustCompile(`^0([xX][0-9a-fA-F]+|[oO][0-7]+|[bB][01]+)$`)
)

// coerceNumber 文字列を寛容に数値へ変換する（前後の空白、指数表記、0x/0o/0b 表記を許容）
func coerceNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch {
	case decimalLiteral.MatchString(s):
		f, err := strconv.ParseFloat(s, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, errNotNumber
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, errNotFinite
		}
		return f, nil
	case radixLiteral.MatchString(s):
		base := map[byte]int{'x': 16, 'X': 16, 'o': 8, 'O': 8, 'b': 2, 'B': 2}[s[1]]
		u, err := strconv.ParseUint(s[2:], base, 64)
		if err != nil {
			return 0, errNotFinite
		}
		return float64(u), nil
	}
	return 0, errNotNumber
}

func coerceBool(s string) bool {
	return s == "true" || s == "1"
}

// QueryParam エンコード結果の1組
type QueryParam struct {
	Key   string
	Value string
}

// QueryParams 順序付きのクエリパラメータ
type QueryParams []QueryParam

// Encode キー順を保ったままクエリ文字列にする（url.Values.Encode はキーをソートしてしまう）
func (q QueryParams) Encode() string {
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// ToMap デコード入力と同じ形式に変換
func (q QueryParams) ToMap() map[string]string {
	m := make(map[string]string, len(q))
	for _, p := range q {
		m[p.Key] = p.Value
	}
	return m
}

// EncodeTripParams は指定済みかつ既定値と異なるフィールドだけを固定順で出力する
// 座標は既定値を持たないため、指定されていれば常に出力する。
func EncodeTripParams(p model.TripParameters) QueryParams {
	var out QueryParams
	add := func(key, value string) {
		out = append(out, QueryParam{Key: key, Value: value})
	}

	if p.OriginLat != nil {
		add(KeyOriginLat, formatNumber(*p.OriginLat))
	}
	if p.OriginLng != nil {
		add(KeyOriginLng, formatNumber(*p.OriginLng))
	}
	if p.DestLat != nil {
		add(KeyDestLat, formatNumber(*p.DestLat))
	}
	if p.DestLng != nil {
		add(KeyDestLng, formatNumber(*p.DestLng))
	}
	if p.StayDuration != nil && *p.StayDuration != model.DefaultStayDuration {
		add(KeyStayDuration, formatNumber(*p.StayDuration))
	}
	if p.ParkingWalkingDistance != nil && *p.ParkingWalkingDistance != model.DefaultParkingWalkingDistance {
		add(KeyParkingWalkingDistance, formatNumber(*p.ParkingWalkingDistance))
	}
	if p.BCAAMember != nil && *p.BCAAMember != model.DefaultBCAAMember {
		add(KeyBCAAMember, formatBool(*p.BCAAMember))
	}
	if p.ElectricVehicle != nil && *p.ElectricVehicle != model.DefaultElectricVehicle {
		add(KeyElectricVehicle, formatBool(*p.ElectricVehicle))
	}
	if p.RoundTrip != nil && *p.RoundTrip != model.DefaultRoundTrip {
		add(KeyRoundTrip, formatBool(*p.RoundTrip))
	}
	if p.VehicleType != nil {
		add(KeyVehicleType, string(*p.VehicleType))
	}
	return out
}

// formatNumber ロケールに依存しない最短表現（指数表記なし）
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// QueryToMap url.Valuesを平坦なmapに変換する（同じキーが複数ある場合は最後の値）
func QueryToMap(values url.Values) map[string]string {
	m := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			m[k] = vs[len(vs)-1]
		}
	}
	return m
}

// TripParamsCodec はログとメトリクス付きでデコードを行う
type TripParamsCodec struct {
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewTripParamsCodec 新しいTripParamsCodecを作成
func NewTripParamsCodec(logger *zap.Logger, m *metrics.Collector) *TripParamsCodec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TripParamsCodec{logger: logger, metrics: m}
}

// Decode 検証に失敗した場合はnil（トリップ未設定）を返す。エラーは外に出さない
func (c *TripParamsCodec) Decode(raw map[string]string) *model.TripParameters {
	params, err := ValidateTripParams(raw)
	switch {
	case err == nil:
		c.metrics.IncCodecDecode("ok")
		return params
	case errors.Is(err, ErrIncompleteTrip):
		c.metrics.IncCodecDecode("incomplete")
		c.logger.Debug("座標が揃っていないためトリップ未設定として扱います")
		return nil
	default:
		c.metrics.IncCodecDecode("invalid")
		c.logger.Warn("URLパラメータの解析に失敗", zap.Error(err))
		return nil
	}
}

// DecodeQuery URLクエリからデコードする
func (c *TripParamsCodec) DecodeQuery(values url.Values) *model.TripParameters {
	return c.Decode(QueryToMap(values))
}

// Encode EncodeTripParamsのラッパー
func (c *TripParamsCodec) Encode(p model.TripParameters) QueryParams {
	return EncodeTripParams(p)
}
