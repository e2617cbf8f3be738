package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(env map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestApplyEnv_OverridesNonEmptyValues(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, mapLookup(map[string]string{
		"PORT":                    "9090",
		"APP_ENV":                 "  ",
		"MAPS_AUTH_TOKEN":         "token",
		"MAPS_TIMEOUT_SECONDS":    "5",
		"SEARCH_BIAS_LAT":         "45.5",
		"SEARCH_BIAS_LNG":         "-73.56",
		"SEARCH_COUNTRIES":        "CA, us ,",
		"ROUTE_CACHE_TTL_MINUTES": "15",
		"HOMEZONE_SOURCE":         "supabase",
	}))

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.AppEnv)
	assert.Equal(t, "token", cfg.Maps.AuthToken)
	assert.Equal(t, 5, cfg.Maps.TimeoutSeconds)
	assert.Equal(t, 45.5, cfg.Maps.SearchBiasLat)
	assert.Equal(t, -73.56, cfg.Maps.SearchBiasLng)
	assert.Equal(t, []string{"ca", "us"}, cfg.Maps.SearchCountries)
	assert.Equal(t, 15, cfg.Storage.RouteCacheTTLMinutes)
	assert.Equal(t, HomeZoneSourceSupabase, cfg.Storage.HomeZoneSource)
}

func TestApplyEnv_RejectsMalformedNumbers(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, mapLookup(map[string]string{
		"MAPS_TIMEOUT_SECONDS": "ten",
		"SEARCH_BIAS_LAT":      "north",
	}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPS_TIMEOUT_SECONDS")
	assert.Contains(t, err.Error(), "SEARCH_BIAS_LAT")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Maps.AuthToken = "token"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "静的トークン", mutate: func(c *Config) {}},
		{name: "署名鍵一式", mutate: func(c *Config) {
			c.Maps.AuthToken = ""
			c.Maps.TeamID, c.Maps.KeyID, c.Maps.PrivateKeyPath = "TEAM", "KEY", "/keys/AuthKey.p8"
		}},
		{name: "認証情報なし", mutate: func(c *Config) { c.Maps.AuthToken = "" }, wantErr: true},
		{name: "不明なホームゾーン元", mutate: func(c *Config) { c.Storage.HomeZoneSource = "s3" }, wantErr: true},
		{name: "supabaseはanonキー必須", mutate: func(c *Config) {
			c.Storage.HomeZoneSource = HomeZoneSourceSupabase
			c.Storage.SupabaseURL = "https://example.supabase.co"
		}, wantErr: true},
		{name: "postgresはパスワード必須", mutate: func(c *Config) {
			c.Storage.HomeZoneSource = HomeZoneSourcePostgres
			c.Storage.SupabaseURL = "https://example.supabase.co"
			c.Storage.SupabaseDBPassword = "secret"
		}},
		{name: "国コードは2文字", mutate: func(c *Config) { c.Maps.SearchCountries = []string{"usa"} }, wantErr: true},
		{name: "緯度範囲外", mutate: func(c *Config) { c.Maps.SearchBiasLat = 91 }, wantErr: true},
		{name: "不明な環境", mutate: func(c *Config) { c.Server.AppEnv = "staging" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := Validate(&cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "8081"
  public_base_url: https://trips.example.com
maps:
  auth_token: from-yaml
  search_countries: [ca]
storage:
  route_cache_ttl_minutes: 30
`), 0o600))

	t.Setenv("PORT", "")
	t.Setenv("APP_ENV", "test")
	t.Setenv("MAPS_AUTH_TOKEN", "from-env")
	t.Setenv("HOMEZONE_SOURCE", "none")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "test", cfg.Server.AppEnv)
	assert.Equal(t, "https://trips.example.com", cfg.Server.PublicBaseURL)
	assert.Equal(t, "from-env", cfg.Maps.AuthToken)
	assert.Equal(t, 30, cfg.Storage.RouteCacheTTLMinutes)
	assert.Equal(t, 10, cfg.Maps.TimeoutSeconds)
}

func TestLoad_MissingYAMLIsOptional(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("MAPS_AUTH_TOKEN", "token")
	t.Setenv("HOMEZONE_SOURCE", "none")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))

	require.NoError(t, err)
	assert.Equal(t, "token", cfg.Maps.AuthToken)
}
