package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ホームゾーンの読み込み元
const (
	HomeZoneSourceSupabase = "supabase"
	HomeZoneSourcePostgres = "postgres"
	HomeZoneSourceNone     = "none"
)

// Config アプリケーション全体の設定
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Maps    MapsConfig    `yaml:"maps"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig HTTPサーバーの設定
type ServerConfig struct {
	Port          string `yaml:"port" validate:"required,numeric"`
	AppEnv        string `yaml:"app_env" validate:"oneof=development production test"`
	PublicBaseURL string `yaml:"public_base_url" validate:"omitempty,url"`
}

// MapsConfig 地図プロバイダーの設定。AuthTokenが無い場合は秘密鍵から署名する
type MapsConfig struct {
	BaseURL         string   `yaml:"base_url" validate:"omitempty,url"`
	AuthToken       string   `yaml:"auth_token"`
	TeamID          string   `yaml:"team_id" validate:"required_without=AuthToken"`
	KeyID           string   `yaml:"key_id" validate:"required_without=AuthToken"`
	PrivateKeyPath  string   `yaml:"private_key_path" validate:"required_without=AuthToken"`
	TimeoutSeconds  int      `yaml:"timeout_seconds" validate:"gte=0"`
	SearchBiasLat   float64  `yaml:"search_bias_lat" validate:"gte=-90,lte=90"`
	SearchBiasLng   float64  `yaml:"search_bias_lng" validate:"gte=-180,lte=180"`
	SearchCountries []string `yaml:"search_countries" validate:"dive,len=2"`
}

// StorageConfig ルートキャッシュとホームゾーンの保存先
type StorageConfig struct {
	FirestoreProjectID       string `yaml:"firestore_project_id"`
	FirestoreCredentialsFile string `yaml:"firestore_credentials_file"`
	RouteCacheTTLMinutes     int    `yaml:"route_cache_ttl_minutes" validate:"gte=0"`
	SupabaseURL              string `yaml:"supabase_url" validate:"required_unless=HomeZoneSource none"`
	SupabaseAnonKey          string `yaml:"supabase_anon_key" validate:"required_if=HomeZoneSource supabase"`
	SupabaseDBPassword       string `yaml:"supabase_db_password" validate:"required_if=HomeZoneSource postgres"`
	HomeZoneSource           string `yaml:"homezone_source" validate:"oneof=supabase postgres none"`
}

// Timeout プロバイダー呼び出しのタイムアウト
func (c MapsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RouteCacheTTL ルートキャッシュの有効期間
func (c StorageConfig) RouteCacheTTL() time.Duration {
	return time.Duration(c.RouteCacheTTLMinutes) * time.Minute
}

// RouteCacheEnabled Firestoreのプロジェクトが設定されている場合のみキャッシュを使う
func (c StorageConfig) RouteCacheEnabled() bool {
	return c.FirestoreProjectID != ""
}

// Default 既定値で埋めた設定
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:   "8080",
			AppEnv: "development",
		},
		Maps: MapsConfig{
			TimeoutSeconds: 10,
		},
		Storage: StorageConfig{
			RouteCacheTTLMinutes: 60,
			HomeZoneSource:       HomeZoneSourceNone,
		},
	}
}

// Load .env、config.yml、環境変数の順に読み込んで検証する
// yamlPathが空、またはファイルが存在しない場合はyamlを読み飛ばす
func Load(yamlPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf(".envの読み込みに失敗: %w", err)
	}

	cfg := Default()
	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("%sの解析に失敗: %w", yamlPath, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("%sの読み込みに失敗: %w", yamlPath, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 設定値を検証する
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("設定が不正です: %w", err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

// applyEnv 空でない環境変数だけを上書きする
func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sは整数で指定してください: %w", key, err)
		}
		*dst = n
		return nil
	}
	float := func(key string, dst *float64) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%sは数値で指定してください: %w", key, err)
		}
		*dst = f
		return nil
	}

	str("PORT", &cfg.Server.Port)
	str("APP_ENV", &cfg.Server.AppEnv)
	str("PUBLIC_BASE_URL", &cfg.Server.PublicBaseURL)

	str("MAPS_BASE_URL", &cfg.Maps.BaseURL)
	str("MAPS_AUTH_TOKEN", &cfg.Maps.AuthToken)
	str("MAPS_TEAM_ID", &cfg.Maps.TeamID)
	str("MAPS_KEY_ID", &cfg.Maps.KeyID)
	str("MAPS_PRIVATE_KEY_PATH", &cfg.Maps.PrivateKeyPath)
	if v, ok := lookup("SEARCH_COUNTRIES"); ok && strings.TrimSpace(v) != "" {
		cfg.Maps.SearchCountries = splitList(v)
	}

	str("FIRESTORE_PROJECT_ID", &cfg.Storage.FirestoreProjectID)
	str("GOOGLE_APPLICATION_CREDENTIALS", &cfg.Storage.FirestoreCredentialsFile)
	str("SUPABASE_URL", &cfg.Storage.SupabaseURL)
	str("SUPABASE_ANON_KEY", &cfg.Storage.SupabaseAnonKey)
	str("SUPABASE_DB_PASSWORD", &cfg.Storage.SupabaseDBPassword)
	str("HOMEZONE_SOURCE", &cfg.Storage.HomeZoneSource)

	return errors.Join(
		num("MAPS_TIMEOUT_SECONDS", &cfg.Maps.TimeoutSeconds),
		float("SEARCH_BIAS_LAT", &cfg.Maps.SearchBiasLat),
		float("SEARCH_BIAS_LNG", &cfg.Maps.SearchBiasLng),
		num("ROUTE_CACHE_TTL_MINUTES", &cfg.Storage.RouteCacheTTLMinutes),
	)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
