package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"TripCompare-App/internal/config"
	"TripCompare-App/internal/domain/helper"
	"TripCompare-App/internal/domain/model"
	"TripCompare-App/internal/domain/repository"
	"TripCompare-App/internal/domain/service"
	"TripCompare-App/internal/handler"
	"TripCompare-App/internal/infrastructure/database"
	"TripCompare-App/internal/infrastructure/firestore"
	"TripCompare-App/internal/infrastructure/maps"
	"TripCompare-App/internal/logger"
	"TripCompare-App/internal/metrics"
	repoImpl "TripCompare-App/internal/repository"
	"TripCompare-App/internal/usecase"
)

// developerTokenTTL 署名する開発者トークンの有効期間
const developerTokenTTL = 30 * time.Minute

func main() {
	cfg, err := config.Load("config.yml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定の読み込みに失敗: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewNamed(cfg.Server.AppEnv, "tripcompare")
	if err != nil {
		fmt.Fprintf(os.Stderr, "ロガーの作成に失敗: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewCollector()
	checks := map[string]handler.HealthCheck{}

	// 地図プロバイダー（セッションは初回リクエスト時に確立）
	signer, err := newTokenSigner(cfg.Maps)
	if err != nil {
		log.Fatal("開発者トークンの準備に失敗", zap.Error(err))
	}
	loadClient := maps.NewSessionLoader(maps.ClientConfig{
		BaseURL: cfg.Maps.BaseURL,
		Timeout: cfg.Maps.Timeout(),
	}, signer, log.Named("maps"), m)
	geoService := service.NewGeoRequestService(loadClient, service.SearchOptions{
		BiasCoordinate: model.LatLng{Lat: cfg.Maps.SearchBiasLat, Lng: cfg.Maps.SearchBiasLng},
		Countries:      cfg.Maps.SearchCountries,
	}, log.Named("geo"), m)

	// ルートキャッシュ（Firestore）
	var routeCache repository.RouteCacheRepository
	if cfg.Storage.RouteCacheEnabled() {
		fsClient, err := firestore.NewFirestoreClient(ctx, cfg.Storage.FirestoreProjectID, cfg.Storage.FirestoreCredentialsFile, log)
		if err != nil {
			log.Fatal("Firestoreクライアントの初期化に失敗", zap.Error(err))
		}
		defer func() { _ = fsClient.Close() }()
		routeCache = repoImpl.NewFirestoreRouteCacheRepository(fsClient.GetClient(), cfg.Storage.RouteCacheTTL(), log.Named("route_cache"))
		log.Info("ルートキャッシュを有効化", zap.Duration("ttl", cfg.Storage.RouteCacheTTL()))
	}

	// ホームゾーン
	var homeZones service.HomeZoneService
	switch cfg.Storage.HomeZoneSource {
	case config.HomeZoneSourceSupabase:
		supabaseClient, err := database.NewSupabaseClient(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseAnonKey)
		if err != nil {
			log.Fatal("Supabaseクライアントの初期化に失敗", zap.Error(err))
		}
		checks["supabase"] = func(ctx context.Context) error { return supabaseClient.HealthCheck() }
		homeZones = service.NewHomeZoneService(repoImpl.NewSupabaseHomeZonesRepository(supabaseClient), log.Named("homezones"))
	case config.HomeZoneSourcePostgres:
		dsn, err := database.SupabaseDSN(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseDBPassword)
		if err != nil {
			log.Fatal("PostgreSQL接続文字列の作成に失敗", zap.Error(err))
		}
		pgClient, err := database.NewPostgreSQLClient(ctx, dsn)
		if err != nil {
			log.Fatal("PostgreSQLへの接続に失敗", zap.Error(err))
		}
		defer func() { _ = pgClient.Close() }()
		checks["postgres"] = pgClient.HealthCheck
		homeZones = service.NewHomeZoneService(repoImpl.NewPostgresHomeZonesRepository(pgClient), log.Named("homezones"))
	default:
		log.Info("ホームゾーンは無効です")
	}

	codec := helper.NewTripParamsCodec(log.Named("codec"), m)
	tripUseCase := usecase.NewTripUseCase(codec, geoService, homeZones, routeCache, cfg.Server.PublicBaseURL, log.Named("trip"), m)

	deps := handler.RouterDeps{
		Trip:    handler.NewTripHandler(tripUseCase, log),
		Search:  handler.NewSearchHandler(tripUseCase, log),
		Health:  handler.NewHealthHandler(checks),
		Metrics: m.Handler(),
		Logger:  log,
	}
	if homeZones != nil {
		deps.HomeZones = handler.NewHomeZoneHandler(homeZones)
	}

	if cfg.Server.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTPサーバーを起動", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTPサーバーエラー", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("シャットダウンします")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTPサーバーを強制終了", zap.Error(err))
	}
	log.Info("停止しました")
}

// newTokenSigner 静的トークンがあればそれを使い、無ければ秘密鍵で署名する
func newTokenSigner(cfg config.MapsConfig) (*maps.TokenSigner, error) {
	if cfg.AuthToken != "" {
		return maps.NewStaticTokenSigner(cfg.AuthToken), nil
	}
	pem, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("秘密鍵の読み込みに失敗: %w", err)
	}
	return maps.NewTokenSigner(cfg.TeamID, cfg.KeyID, pem, developerTokenTTL)
}
